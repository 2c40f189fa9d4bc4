package app

import (
	"errors"
	"fmt"

	"gamebooks/internal/domain"
	"gamebooks/internal/service"
	"gamebooks/internal/validate"
)

// ============================================================
// Open Book — load, save, metadata, events, character sheet
// ============================================================

// LoadBook writes pending changes of the open book, then opens id and
// starts watching its document.
func (a *App) LoadBook(id string) error {
	ws, err := a.ready()
	if err != nil {
		return err
	}
	if a.editor != nil {
		a.editor.Close()
	}
	if err := ws.Books.Flush(a.ctx); err != nil {
		return fmt.Errorf("save before switching: %w", err)
	}
	if err := ws.Books.LoadBookByID(a.ctx, id); err != nil {
		if errors.Is(err, service.ErrSuperseded) {
			return nil
		}
		return err
	}
	if a.monitor != nil {
		if err := a.monitor.Follow(); err != nil {
			return fmt.Errorf("watch book %s: %w", id, err)
		}
	}
	if err := ws.Settings.SetLastBookID(a.ctx, id); err != nil {
		return fmt.Errorf("remember book %s: %w", id, err)
	}
	return nil
}

// ClearBook closes the open book without saving.
func (a *App) ClearBook() {
	ws, err := a.ready()
	if err != nil {
		return
	}
	if a.editor != nil {
		a.editor.Close()
	}
	ws.Books.ClearBook()
	if a.monitor != nil {
		a.monitor.Follow()
	}
	ws.Settings.SetLastBookID(a.ctx, "")
}

// ReloadBook discards in-memory changes and reads the document again,
// typically after book:changed-externally.
func (a *App) ReloadBook() error {
	ws, err := a.ready()
	if err != nil {
		return err
	}
	id := ws.Books.ActiveBookID()
	if id == "" {
		return service.ErrNoActiveBook
	}
	if a.editor != nil {
		a.editor.Close()
	}
	return ws.Books.LoadBookByID(a.ctx, id)
}

func (a *App) GetBook() (BookView, error) {
	ws, err := a.ready()
	if err != nil {
		return BookView{}, err
	}
	return bookView(ws.Books)
}

// SaveBook writes the open book now, even when nothing changed.
func (a *App) SaveBook() error {
	ws, err := a.ready()
	if err != nil {
		return err
	}
	return ws.Books.SaveCurrentBook(a.ctx, true)
}

func (a *App) UpdateBookMeta(meta domain.BookMeta) error {
	ws, err := a.ready()
	if err != nil {
		return err
	}
	return ws.Books.UpdateMeta(meta)
}

// ── Events ─────────────────────────────────────────────────

func (a *App) ListEvents() ([]domain.Event, error) {
	ws, err := a.ready()
	if err != nil {
		return nil, err
	}
	return ws.Books.Events(), nil
}

func (a *App) AddEvent(name string, initialValue any) (domain.Event, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.Event{}, err
	}
	return ws.Books.AddEvent(name, initialValue)
}

// DeleteEvent removes an event nothing refers to. It reports false when the
// event is unknown or still used by a node or edge.
func (a *App) DeleteEvent(eventID string) (bool, error) {
	ws, err := a.ready()
	if err != nil {
		return false, err
	}
	return ws.Books.DeleteEventIfUnused(eventID), nil
}

// ── Character sheet ────────────────────────────────────────

func (a *App) CreateCharacterSheet() error {
	ws, err := a.ready()
	if err != nil {
		return err
	}
	return ws.Books.CreateInitialCharacterSheet()
}

func (a *App) SetCharacterSheet(sheet domain.CharacterSheet) error {
	ws, err := a.ready()
	if err != nil {
		return err
	}
	return ws.Books.SetCharacterSheet(sheet)
}

func (a *App) UpdateCharacterSheetSchema(schema domain.CharacterSheetSchema) error {
	ws, err := a.ready()
	if err != nil {
		return err
	}
	return ws.Books.UpdateCharacterSheetSchema(schema)
}

// ── Revisions & validation ─────────────────────────────────

func (a *App) ListRevisions() ([]domain.Revision, error) {
	ws, err := a.ready()
	if err != nil {
		return nil, err
	}
	return ws.Checkpoints.Revisions(a.ctx)
}

// CreateRevision saves the open book and checkpoints it with label. It
// reports false when the document matches the latest revision.
func (a *App) CreateRevision(label string) (bool, error) {
	ws, err := a.ready()
	if err != nil {
		return false, err
	}
	if label == "" {
		label = "manual"
	}
	if err := ws.Books.SaveCurrentBook(a.ctx, false); err != nil {
		return false, err
	}
	_, created, err := ws.Checkpoints.Checkpoint(a.ctx, label)
	return created, err
}

func (a *App) RestoreRevision(revisionID string) error {
	ws, err := a.ready()
	if err != nil {
		return err
	}
	return ws.Books.RestoreRevision(a.ctx, revisionID)
}

func (a *App) ValidateBook() (validate.Report, error) {
	ws, err := a.ready()
	if err != nil {
		return validate.Report{}, err
	}
	return validateOpenBook(ws.Books)
}

// ── Views ──────────────────────────────────────────────────

func bookView(books *service.BookService) (BookView, error) {
	doc, err := books.Document()
	if err != nil {
		return BookView{}, err
	}
	id := books.ActiveBookID()
	view := BookView{
		ID:                   id,
		State:                books.State(),
		Meta:                 doc.Meta,
		Nodes:                doc.Nodes,
		Edges:                doc.Edges,
		Viewport:             doc.Viewport,
		Assets:               make([]AssetView, 0, len(doc.Assets)),
		Events:               doc.Events,
		CharacterSheetSchema: doc.CharacterSheetSchema,
		CharacterSheet:       doc.CharacterSheet,
	}
	for _, asset := range doc.Assets {
		view.Assets = append(view.Assets, AssetView{Asset: asset, URL: assetWebPath(id, asset.Filename)})
	}
	return view, nil
}

func validateOpenBook(books *service.BookService) (validate.Report, error) {
	doc, err := books.Document()
	if err != nil {
		return validate.Report{}, err
	}
	return validate.Run(doc), nil
}
