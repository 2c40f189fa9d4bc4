package service

import (
	"context"
	"log"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// Document Monitor — detects edits to book.json made elsewhere
// ─────────────────────────────────────────────────────────────

// FileWatcher follows files by key. watcher.Watcher satisfies it.
type FileWatcher interface {
	Watch(key, path string) error
	Unwatch(key string)
}

// DocumentLocator maps a book id to its document path. storage.Host
// satisfies it.
type DocumentLocator interface {
	DocumentPath(bookID string) string
}

const documentWatchKey = "document"

// DocumentMonitor watches the active book's document and emits
// book:changed-externally when it is rewritten with content this process
// did not produce (another window, the CLI, a text editor).
type DocumentMonitor struct {
	books   *BookService
	locator DocumentLocator
	watcher FileWatcher
	emitter EventEmitter

	mu     sync.Mutex
	bookID string
}

func NewDocumentMonitor(books *BookService, locator DocumentLocator, watcher FileWatcher, emitter EventEmitter) *DocumentMonitor {
	return &DocumentMonitor{books: books, locator: locator, watcher: watcher, emitter: emitter}
}

// Follow switches the watch to the active book. With no active book it
// stops watching.
func (m *DocumentMonitor) Follow() error {
	bookID := m.books.ActiveBookID()

	m.mu.Lock()
	defer m.mu.Unlock()
	if bookID == m.bookID {
		return nil
	}
	m.watcher.Unwatch(documentWatchKey)
	m.bookID = ""
	if bookID == "" {
		return nil
	}
	if err := m.watcher.Watch(documentWatchKey, m.locator.DocumentPath(bookID)); err != nil {
		return err
	}
	m.bookID = bookID
	return nil
}

// HandleFileChange is the watcher callback. It reports whether key belonged
// to the monitor.
func (m *DocumentMonitor) HandleFileChange(key string, content []byte) bool {
	if key != documentWatchKey {
		return false
	}
	m.mu.Lock()
	bookID := m.bookID
	m.mu.Unlock()

	if bookID == "" || bookID != m.books.ActiveBookID() || m.books.IsOwnDocument(content) {
		return true
	}
	log.Printf("document monitor: %s changed on disk", bookID)
	if m.emitter != nil {
		m.emitter.Emit(context.Background(), "book:changed-externally", map[string]string{"bookId": bookID})
	}
	return true
}
