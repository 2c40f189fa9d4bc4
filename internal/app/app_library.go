package app

import (
	"gamebooks/internal/domain"
)

// ============================================================
// Library — thin delegates to LibraryService
// ============================================================

func (a *App) ListBooks() ([]domain.LibraryEntry, error) {
	ws, err := a.ready()
	if err != nil {
		return nil, err
	}
	if err := ws.Library.InitializeLibrary(a.ctx); err != nil {
		return nil, err
	}
	return ws.Library.Books(), nil
}

func (a *App) CreateBook(name, description string) (domain.LibraryEntry, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.LibraryEntry{}, err
	}
	return ws.Library.AddBook(a.ctx, domain.BookFields{Name: name, Description: description})
}

func (a *App) UpdateBook(id, name, description string) error {
	ws, err := a.ready()
	if err != nil {
		return err
	}
	if err := ws.Library.UpdateBook(a.ctx, id, domain.BookFields{Name: name, Description: description}); err != nil {
		return err
	}
	// The open book keeps its title in memory; refresh it so the next save
	// does not write the old one back.
	if ws.Books.ActiveBookID() == id {
		meta := ws.Books.Meta()
		meta.Title = name
		meta.Description = description
		return ws.Books.UpdateMeta(meta)
	}
	return nil
}

// DeleteBook removes a book. The open book is closed first without saving.
func (a *App) DeleteBook(id string) error {
	ws, err := a.ready()
	if err != nil {
		return err
	}
	if ws.Books.ActiveBookID() == id {
		a.ClearBook()
	}
	return ws.Library.RemoveBook(a.ctx, id)
}
