package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gamebooks/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Editor Service — edit a node's description in an external editor
// ─────────────────────────────────────────────────────────────

// EditorLauncher runs an editor on a file. terminal.Manager satisfies it.
type EditorLauncher interface {
	OpenFile(path string, onExit func()) error
	Close()
}

const draftWatchKey = "draft"

// EditorService writes a node's description to a draft file, opens it in the
// editor and stores the draft back into the node when the editor exits.
// Draft writes while editing are forwarded as previews.
type EditorService struct {
	books    *BookService
	launcher EditorLauncher
	watcher  FileWatcher
	emitter  EventEmitter
	draftDir string

	mu      sync.Mutex
	session uint64
	bookID  string
	nodeID  string
	path    string
}

func NewEditorService(books *BookService, launcher EditorLauncher, watcher FileWatcher, emitter EventEmitter, draftDir string) *EditorService {
	return &EditorService{books: books, launcher: launcher, watcher: watcher, emitter: emitter, draftDir: draftDir}
}

// OpenNode starts an editing session for nodeID, replacing any session in
// progress (its draft is discarded).
func (s *EditorService) OpenNode(nodeID string) error {
	bookID := s.books.ActiveBookID()
	if bookID == "" {
		return ErrNoActiveBook
	}
	node, ok := s.books.Graph().Node(nodeID)
	if !ok {
		return fmt.Errorf("open node %s: %w", nodeID, domain.ErrNotFound)
	}

	if err := os.MkdirAll(s.draftDir, 0o755); err != nil {
		return fmt.Errorf("create draft dir: %w", err)
	}
	path := filepath.Join(s.draftDir, bookID+"-"+nodeID+".md")
	if err := os.WriteFile(path, []byte(node.Data.Description), 0o644); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}

	s.mu.Lock()
	s.discardLocked()
	s.session++
	session := s.session
	s.bookID, s.nodeID, s.path = bookID, nodeID, path
	s.mu.Unlock()

	if err := s.watcher.Watch(draftWatchKey, path); err != nil {
		log.Printf("editor: preview disabled for %s: %v", nodeID, err)
	}
	if err := s.launcher.OpenFile(path, func() { s.finish(session) }); err != nil {
		s.mu.Lock()
		if s.session == session {
			s.discardLocked()
		}
		s.mu.Unlock()
		return fmt.Errorf("open editor: %w", err)
	}
	s.emit("editor:opened", map[string]string{"bookId": bookID, "nodeId": nodeID})
	return nil
}

// Editing returns the node being edited, if any.
func (s *EditorService) Editing() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodeID, s.nodeID != ""
}

// Close ends the session without storing the draft.
func (s *EditorService) Close() {
	s.launcher.Close()
	s.mu.Lock()
	s.discardLocked()
	s.mu.Unlock()
}

// HandleFileChange is the watcher callback. It reports whether key belonged
// to the editor.
func (s *EditorService) HandleFileChange(key string, content []byte) bool {
	if key != draftWatchKey {
		return false
	}
	s.mu.Lock()
	nodeID := s.nodeID
	s.mu.Unlock()
	if nodeID != "" {
		s.emit("node:description-preview", map[string]string{
			"nodeId":      nodeID,
			"description": normalizeDraft(content),
		})
	}
	return true
}

func (s *EditorService) finish(session uint64) {
	s.mu.Lock()
	if s.session != session || s.nodeID == "" {
		s.mu.Unlock()
		return
	}
	bookID, nodeID, path := s.bookID, s.nodeID, s.path
	s.mu.Unlock()

	content, err := os.ReadFile(path)

	s.mu.Lock()
	if s.session == session {
		s.discardLocked()
	}
	s.mu.Unlock()

	if err != nil {
		log.Printf("editor: read draft for %s: %v", nodeID, err)
		return
	}
	if s.books.ActiveBookID() != bookID {
		log.Printf("editor: book %s closed while editing %s, draft dropped", bookID, nodeID)
		return
	}
	node, ok := s.books.Graph().Node(nodeID)
	if !ok {
		return
	}
	text := normalizeDraft(content)
	if text != node.Data.Description {
		data := node.Data
		data.Description = text
		s.books.Graph().UpdateNode(nodeID, domain.NodePatch{Data: &data})
	}
	s.emit("editor:closed", map[string]string{"bookId": bookID, "nodeId": nodeID})
}

// discardLocked forgets the current session and removes its draft.
func (s *EditorService) discardLocked() {
	if s.path == "" {
		return
	}
	s.watcher.Unwatch(draftWatchKey)
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		log.Printf("editor: remove draft: %v", err)
	}
	s.bookID, s.nodeID, s.path = "", "", ""
}

func (s *EditorService) emit(event string, data any) {
	if s.emitter != nil {
		s.emitter.Emit(context.Background(), event, data)
	}
}

// normalizeDraft drops the trailing newline editors append on save.
func normalizeDraft(content []byte) string {
	return strings.TrimRight(string(content), "\r\n")
}
