package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"gamebooks/internal/assets"
	"gamebooks/internal/charsheet"
	"gamebooks/internal/domain"
	"gamebooks/internal/graph"
	"gamebooks/internal/repair"
	"gamebooks/internal/schedule"
)

// ─────────────────────────────────────────────────────────────
// Book Service — the active book aggregate and its persistence
// ─────────────────────────────────────────────────────────────

type BookState string

const (
	StateEmpty   BookState = "empty"
	StateLoading BookState = "loading"
	StateClean   BookState = "clean"
	StateDirty   BookState = "dirty"
	StateSaving  BookState = "saving"
)

const (
	DefaultSaveDelay     = 1500 * time.Millisecond
	DefaultViewportDelay = 1000 * time.Millisecond
)

var (
	ErrNoActiveBook   = errors.New("no active book")
	ErrDuplicateEvent = errors.New("event already exists")
	ErrNoSheet        = errors.New("book has no character sheet")
	// ErrSuperseded is returned by a load that lost to a newer load or clear.
	ErrSuperseded = errors.New("superseded by a newer book switch")
	// ErrSaveInProgress is returned by an explicit save while another save
	// of the same book is writing.
	ErrSaveInProgress = errors.New("save already in progress")
)

// RevisionSource looks up stored checkpoints. storage.Catalog satisfies it.
type RevisionSource interface {
	GetRevision(ctx context.Context, bookID, revisionID string) (domain.Revision, error)
}

// BookOptions tunes a BookService. Zero values select the defaults.
type BookOptions struct {
	SaveDelay     time.Duration
	ViewportDelay time.Duration
	SaveTimer     schedule.Scheduler
	ViewportTimer schedule.Scheduler
	Revisions     RevisionSource
}

// BookService owns the active book: it loads documents through the repair
// engine, feeds the graph and asset stores, and persists their combined state
// with a debounced save whenever either reports a change.
type BookService struct {
	host      domain.HostStorage
	emitter   EventEmitter
	graph     *graph.Store
	assets    *assets.Store
	revisions RevisionSource

	saveTimer     schedule.Scheduler
	viewportTimer schedule.Scheduler
	saveDelay     time.Duration
	viewportDelay time.Duration
	saving        saveGuard

	mu       sync.Mutex
	bookID   string
	loading  bool
	inFlight bool
	dirty    bool
	// dirtyGen counts MarkDirty calls; a save only clears dirty if no
	// mutation landed while it was writing.
	dirtyGen uint64
	// session changes on every load and clear; work started under an older
	// session is discarded.
	session   uint64
	meta      domain.BookMeta
	events    []domain.Event
	schema    *domain.CharacterSheetSchema
	sheet     domain.CharacterSheet
	lastSaved domain.Book
	lastDoc   []byte
	// writing holds the document of the save in flight.
	writing []byte
}

// NewBookService creates a BookService with its own graph and asset stores.
func NewBookService(host domain.HostStorage, emitter EventEmitter, opts BookOptions) *BookService {
	s := &BookService{
		host:          host,
		emitter:       emitter,
		revisions:     opts.Revisions,
		saveTimer:     opts.SaveTimer,
		viewportTimer: opts.ViewportTimer,
		saveDelay:     opts.SaveDelay,
		viewportDelay: opts.ViewportDelay,
		events:        []domain.Event{},
	}
	if s.saveTimer == nil {
		s.saveTimer = schedule.NewTimer()
	}
	if s.viewportTimer == nil {
		s.viewportTimer = schedule.NewTimer()
	}
	if s.saveDelay <= 0 {
		s.saveDelay = DefaultSaveDelay
	}
	if s.viewportDelay <= 0 {
		s.viewportDelay = DefaultViewportDelay
	}
	s.graph = graph.New(s)
	s.assets = assets.New(host, s)
	return s
}

// Graph returns the graph store of the active book.
func (s *BookService) Graph() *graph.Store { return s.graph }

// Assets returns the asset store of the active book.
func (s *BookService) Assets() *assets.Store { return s.assets }

func (s *BookService) emit(event string, data any) {
	if s.emitter != nil {
		s.emitter.Emit(context.Background(), event, data)
	}
}

// ── State ──────────────────────────────────────────────────

func (s *BookService) State() BookState {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.loading:
		return StateLoading
	case s.bookID == "":
		return StateEmpty
	case s.inFlight:
		return StateSaving
	case s.dirty:
		return StateDirty
	default:
		return StateClean
	}
}

// ActiveBookID returns the id of the loaded book, or "".
func (s *BookService) ActiveBookID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookID
}

func (s *BookService) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// ── Load / Clear ───────────────────────────────────────────

// LoadBookByID replaces the active book with the stored document of id.
// On failure the service is left with no book loaded.
func (s *BookService) LoadBookByID(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("load book: empty id")
	}
	s.saveTimer.Cancel()
	s.viewportTimer.Cancel()

	s.mu.Lock()
	s.session++
	session := s.session
	s.loading = true
	s.bookID = ""
	s.dirty = false
	s.mu.Unlock()

	s.graph.Clear()
	s.assets.Clear()

	data, err := s.host.LoadBookDocument(ctx, id)
	if err != nil {
		s.mu.Lock()
		if s.session == session {
			s.resetLocked()
		}
		s.mu.Unlock()
		log.Printf("book: load %s failed: %v", id, err)
		return fmt.Errorf("load book %s: %w", id, err)
	}
	book := repair.JSON(data)

	s.mu.Lock()
	if s.session != session {
		s.mu.Unlock()
		return fmt.Errorf("load book %s: %w", id, ErrSuperseded)
	}
	s.bookID = id
	s.loading = false
	s.meta = book.Meta
	s.events = book.Events
	s.schema = book.CharacterSheetSchema
	s.sheet = book.CharacterSheet
	s.lastSaved = book
	s.lastDoc = data
	s.graph.SetElements(book.Nodes, book.Edges, book.Viewport)
	s.assets.SetAssets(id, book.Assets)
	s.mu.Unlock()

	log.Printf("book: loaded %s (%d nodes, %d edges)", id, len(book.Nodes), len(book.Edges))
	s.emit("book:loaded", map[string]string{"bookId": id, "title": book.Meta.Title})
	return nil
}

// ClearBook drops the active book without saving and cancels pending saves.
func (s *BookService) ClearBook() {
	s.saveTimer.Cancel()
	s.viewportTimer.Cancel()

	s.mu.Lock()
	id := s.bookID
	s.session++
	s.resetLocked()
	s.mu.Unlock()

	s.graph.Clear()
	s.assets.Clear()
	if id != "" {
		s.emit("book:cleared", map[string]string{"bookId": id})
	}
}

func (s *BookService) resetLocked() {
	s.bookID = ""
	s.loading = false
	s.dirty = false
	s.meta = domain.BookMeta{}
	s.events = []domain.Event{}
	s.schema = nil
	s.sheet = nil
	s.lastSaved = domain.Book{}
	s.lastDoc = nil
}

// ── Dirty tracking ─────────────────────────────────────────

// MarkDirty flags the active book as changed and restarts the save debounce.
// The graph and asset stores call it after every structural mutation.
func (s *BookService) MarkDirty() {
	s.mu.Lock()
	if s.bookID == "" || s.loading {
		s.mu.Unlock()
		return
	}
	s.dirtyGen++
	became := !s.dirty
	s.dirty = true
	session, id := s.session, s.bookID
	s.mu.Unlock()

	s.saveTimer.Schedule(s.saveDelay, func() { s.backgroundSave(session, false) })
	if became {
		s.emit("book:dirty", map[string]string{"bookId": id})
	}
}

// ScheduleViewportSave persists the camera after the viewport debounce
// without marking the book dirty.
func (s *BookService) ScheduleViewportSave() {
	s.mu.Lock()
	if s.bookID == "" || s.loading {
		s.mu.Unlock()
		return
	}
	session := s.session
	s.mu.Unlock()

	s.viewportTimer.Schedule(s.viewportDelay, func() { s.backgroundSave(session, true) })
}

func (s *BookService) backgroundSave(session uint64, force bool) {
	err := s.save(context.Background(), session, force)
	switch {
	case err == nil:
	case errors.Is(err, ErrSaveInProgress):
		// The running save finishes first; try again after another delay.
		s.saveTimer.Schedule(s.saveDelay, func() { s.backgroundSave(session, force) })
	default:
		log.Printf("book: background save failed: %v", err)
		s.emit("book:save-failed", map[string]string{"error": err.Error()})
	}
}

// ── Save ───────────────────────────────────────────────────

// SaveCurrentBook writes the active book if it is dirty, or unconditionally
// when force is set. With no active book it does nothing.
func (s *BookService) SaveCurrentBook(ctx context.Context, force bool) error {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	return s.save(ctx, session, force)
}

func (s *BookService) save(ctx context.Context, session uint64, force bool) error {
	s.mu.Lock()
	if s.session != session || s.bookID == "" || s.loading || (!s.dirty && !force) {
		s.mu.Unlock()
		return nil
	}
	id := s.bookID
	s.mu.Unlock()

	if !s.saving.Acquire(id) {
		return fmt.Errorf("save book %s: %w", id, ErrSaveInProgress)
	}
	defer s.saving.Release(id)

	s.mu.Lock()
	if s.session != session {
		s.mu.Unlock()
		return nil
	}
	if force {
		s.viewportTimer.Cancel()
	}
	s.saveTimer.Cancel()
	gen := s.dirtyGen
	book := s.assembleLocked()
	s.inFlight = true
	s.mu.Unlock()

	doc, err := json.MarshalIndent(book, "", "  ")
	if err == nil {
		s.mu.Lock()
		s.writing = doc
		s.mu.Unlock()
		err = s.host.SaveBookDocument(ctx, id, doc)
	}

	s.mu.Lock()
	s.inFlight = false
	s.writing = nil
	if s.session != session {
		// The book was switched or cleared while writing; keep the result inert.
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		// Dirty stays set so the next save retries with current data.
		s.mu.Unlock()
		return fmt.Errorf("save book %s: %w", id, err)
	}
	s.lastSaved = book
	s.lastDoc = doc
	if s.dirtyGen == gen {
		s.dirty = false
	}
	stillDirty := s.dirty
	s.mu.Unlock()

	if stillDirty {
		log.Printf("book: saved %s, newer changes pending", id)
	}
	s.emit("book:saved", map[string]string{"bookId": id})
	return nil
}

// assembleLocked builds the persisted document from the graph store, the
// asset store and the service's own fields.
func (s *BookService) assembleLocked() domain.Book {
	nodes, edges, viewport := s.graph.Snapshot()
	book := domain.Book{
		Meta:                 s.meta,
		Nodes:                nodes,
		Edges:                edges,
		Assets:               s.assets.Assets(),
		Events:               append([]domain.Event{}, s.events...),
		Viewport:             viewport,
		CharacterSheetSchema: s.schema.Clone(),
		CharacterSheet:       s.sheet.Clone(),
	}
	if book.Nodes == nil {
		book.Nodes = []domain.Node{}
	}
	if book.Edges == nil {
		book.Edges = []domain.Edge{}
	}
	return book
}

// Flush writes pending changes immediately. Called on shutdown.
func (s *BookService) Flush(ctx context.Context) error {
	viewportPending := s.viewportTimer.Pending()
	s.saveTimer.Cancel()
	s.viewportTimer.Cancel()
	s.saving.Wait(ctx)
	return s.SaveCurrentBook(ctx, viewportPending)
}

// ── Aggregate access ───────────────────────────────────────

// Document returns the current in-memory state of the active book.
func (s *BookService) Document() (domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bookID == "" {
		return domain.Book{}, ErrNoActiveBook
	}
	return s.assembleLocked(), nil
}

// LastSavedDocument returns the book as it was last loaded or saved.
func (s *BookService) LastSavedDocument() (domain.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bookID == "" {
		return domain.Book{}, false
	}
	return s.lastSaved, true
}

// LastSavedBytes returns the exact bytes last read or written for the book.
func (s *BookService) LastSavedBytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.lastDoc...)
}

// SavedSnapshot returns the active book id together with the bytes last read
// or written for it, taken under one lock so the pair always belongs to the
// same book.
func (s *BookService) SavedSnapshot() (string, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bookID == "" {
		return "", nil
	}
	return s.bookID, append([]byte(nil), s.lastDoc...)
}

// IsOwnDocument reports whether content is a document this service read or
// wrote for the active book, including a save still being written.
func (s *BookService) IsOwnDocument(content []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bookID == "" {
		return false
	}
	return bytes.Equal(content, s.lastDoc) || (s.writing != nil && bytes.Equal(content, s.writing))
}

func (s *BookService) Meta() domain.BookMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// UpdateMeta replaces the book's title, description, author and cover.
func (s *BookService) UpdateMeta(meta domain.BookMeta) error {
	s.mu.Lock()
	if s.bookID == "" {
		s.mu.Unlock()
		return ErrNoActiveBook
	}
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = domain.DefaultTitle
	}
	s.meta = meta
	s.mu.Unlock()
	s.MarkDirty()
	return nil
}

// ── Events ─────────────────────────────────────────────────

func (s *BookService) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event{}, s.events...)
}

// AddEvent defines a new flag. Its id is derived from the name; a nil initial
// value defaults to false.
func (s *BookService) AddEvent(name string, initialValue any) (domain.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Event{}, fmt.Errorf("add event: name is required")
	}
	switch v := initialValue.(type) {
	case nil:
		initialValue = false
	case bool, float64, string:
	case int:
		initialValue = float64(v)
	default:
		return domain.Event{}, fmt.Errorf("add event: unsupported initial value %T", initialValue)
	}
	ev := domain.Event{ID: domain.EventIDFromName(name), Name: name, InitialValue: initialValue}

	s.mu.Lock()
	if s.bookID == "" {
		s.mu.Unlock()
		return domain.Event{}, ErrNoActiveBook
	}
	for _, e := range s.events {
		if e.ID == ev.ID {
			s.mu.Unlock()
			return domain.Event{}, fmt.Errorf("add event %s: %w", ev.ID, ErrDuplicateEvent)
		}
	}
	s.events = append(s.events, ev)
	s.mu.Unlock()

	s.MarkDirty()
	return ev, nil
}

// DeleteEventIfUnused removes the event unless a node or edge still refers to
// it. It reports whether the event was removed.
func (s *BookService) DeleteEventIfUnused(eventID string) bool {
	for _, n := range s.graph.Nodes() {
		if n.ReferencesEvent(eventID) {
			return false
		}
	}
	for _, e := range s.graph.Edges() {
		if e.ReferencesEvent(eventID) {
			return false
		}
	}

	s.mu.Lock()
	idx := -1
	for i, e := range s.events {
		if e.ID == eventID {
			idx = i
			break
		}
	}
	if s.bookID == "" || idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.events = append(s.events[:idx:idx], s.events[idx+1:]...)
	s.mu.Unlock()

	s.MarkDirty()
	return true
}

// ── Character sheet ────────────────────────────────────────

func (s *BookService) CharacterSheet() (*domain.CharacterSheetSchema, domain.CharacterSheet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema.Clone(), s.sheet.Clone()
}

// CreateInitialCharacterSheet gives the book the seed schema and its default
// sheet, replacing any existing one.
func (s *BookService) CreateInitialCharacterSheet() error {
	schema := charsheet.SeedSchema()
	s.mu.Lock()
	if s.bookID == "" {
		s.mu.Unlock()
		return ErrNoActiveBook
	}
	s.schema = &schema
	s.sheet = charsheet.DefaultSheet(schema)
	s.mu.Unlock()
	s.MarkDirty()
	return nil
}

// SetCharacterSheet replaces the sheet data.
func (s *BookService) SetCharacterSheet(sheet domain.CharacterSheet) error {
	s.mu.Lock()
	if s.bookID == "" {
		s.mu.Unlock()
		return ErrNoActiveBook
	}
	s.sheet = sheet.Clone()
	s.mu.Unlock()
	s.MarkDirty()
	return nil
}

// UpdateCharacterSheetSchema swaps the schema and reconciles the sheet data
// to it. The book must already have a sheet.
func (s *BookService) UpdateCharacterSheetSchema(schema domain.CharacterSheetSchema) error {
	s.mu.Lock()
	if s.bookID == "" {
		s.mu.Unlock()
		return ErrNoActiveBook
	}
	if s.schema == nil || s.sheet == nil {
		s.mu.Unlock()
		return ErrNoSheet
	}
	s.sheet = charsheet.Reconcile(s.schema, s.sheet, schema)
	s.schema = schema.Clone()
	s.mu.Unlock()
	s.MarkDirty()
	return nil
}

// ── Revisions ──────────────────────────────────────────────

// RestoreRevision replaces the active book's graph, metadata, events and
// sheet with a stored checkpoint and marks it dirty. Assets are kept, since
// their bytes are managed outside the document.
func (s *BookService) RestoreRevision(ctx context.Context, revisionID string) error {
	if s.revisions == nil {
		return fmt.Errorf("restore revision: no revision store")
	}
	s.mu.Lock()
	id, session := s.bookID, s.session
	s.mu.Unlock()
	if id == "" {
		return ErrNoActiveBook
	}

	rev, err := s.revisions.GetRevision(ctx, id, revisionID)
	if err != nil {
		return fmt.Errorf("restore revision %s: %w", revisionID, err)
	}
	book := repair.JSON(rev.Document)

	s.mu.Lock()
	if s.session != session {
		s.mu.Unlock()
		return fmt.Errorf("restore revision %s: %w", revisionID, ErrSuperseded)
	}
	s.meta = book.Meta
	s.events = book.Events
	s.schema = book.CharacterSheetSchema
	s.sheet = book.CharacterSheet
	s.graph.SetElements(book.Nodes, book.Edges, book.Viewport)
	s.mu.Unlock()

	log.Printf("book: restored %s to revision %s", id, revisionID)
	s.emit("book:restored", map[string]string{"bookId": id, "revisionId": revisionID})
	s.MarkDirty()
	return nil
}
