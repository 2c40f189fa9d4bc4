package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"gamebooks/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Library Service — the index of books
// ─────────────────────────────────────────────────────────────

// LibraryService keeps the list of book summaries and persists it as one
// index. It never touches a book's graph content.
type LibraryService struct {
	host    domain.HostStorage
	emitter EventEmitter

	mu          sync.Mutex
	books       []domain.LibraryEntry
	initialized bool
}

func NewLibraryService(host domain.HostStorage, emitter EventEmitter) *LibraryService {
	return &LibraryService{host: host, emitter: emitter, books: []domain.LibraryEntry{}}
}

// InitializeLibrary loads the index once per process. A missing index is a
// first run and yields an empty library; any other error leaves the service
// uninitialized so a later call retries.
func (s *LibraryService) InitializeLibrary(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	entries, err := s.host.LoadLibraryIndex(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.books = []domain.LibraryEntry{}
		log.Printf("library: initialize failed: %v", err)
		return fmt.Errorf("initialize library: %w", err)
	}
	if entries == nil {
		entries = []domain.LibraryEntry{}
	}
	s.books = entries
	s.initialized = true
	log.Printf("library: %d book(s)", len(entries))
	return nil
}

func (s *LibraryService) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *LibraryService) Books() []domain.LibraryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LibraryEntry{}, s.books...)
}

// Book returns the summary with the given id.
func (s *LibraryService) Book(id string) (domain.LibraryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.books[i], true
	}
	return domain.LibraryEntry{}, false
}

// AddBook creates the book's storage, appends its summary and persists the
// index. A name is required.
func (s *LibraryService) AddBook(ctx context.Context, fields domain.BookFields) (domain.LibraryEntry, error) {
	if strings.TrimSpace(fields.Name) == "" {
		return domain.LibraryEntry{}, fmt.Errorf("add book: name is required")
	}
	entry, err := s.host.CreateBookStorage(ctx, fields.Name, fields.Description)
	if err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("add book: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = append(s.books, entry)
	if err := s.saveLocked(ctx); err != nil {
		return entry, err
	}
	s.emitChanged()
	return entry, nil
}

// UpdateBook renames a book in its document and in the index.
func (s *LibraryService) UpdateBook(ctx context.Context, id string, fields domain.BookFields) error {
	if err := s.host.UpdateBookMeta(ctx, id, fields); err != nil {
		return fmt.Errorf("update book %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		s.books[i].Name = fields.Name
		s.books[i].Description = fields.Description
	}
	if err := s.saveLocked(ctx); err != nil {
		return err
	}
	s.emitChanged()
	return nil
}

// RemoveBook deletes the book's storage and its summary. Unknown ids are
// ignored.
func (s *LibraryService) RemoveBook(ctx context.Context, id string) error {
	s.mu.Lock()
	known := s.indexLocked(id) >= 0
	s.mu.Unlock()
	if !known {
		return nil
	}

	if err := s.host.DeleteBookStorage(ctx, id); err != nil {
		return fmt.Errorf("remove book %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		s.books = append(s.books[:i:i], s.books[i+1:]...)
	}
	if err := s.saveLocked(ctx); err != nil {
		return err
	}
	s.emitChanged()
	return nil
}

func (s *LibraryService) saveLocked(ctx context.Context) error {
	if err := s.host.SaveLibraryIndex(ctx, append([]domain.LibraryEntry{}, s.books...)); err != nil {
		log.Printf("library: save index failed: %v", err)
		return fmt.Errorf("save library: %w", err)
	}
	return nil
}

func (s *LibraryService) emitChanged() {
	if s.emitter != nil {
		s.emitter.Emit(context.Background(), "library:changed", map[string]int{"books": len(s.books)})
	}
}

func (s *LibraryService) indexLocked(id string) int {
	for i := range s.books {
		if s.books[i].ID == id {
			return i
		}
	}
	return -1
}
