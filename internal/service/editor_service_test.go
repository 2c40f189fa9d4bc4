package service_test

import (
	"errors"
	"os"
	"sync"
	"testing"

	"gamebooks/internal/domain"
	"gamebooks/internal/service"
)

type fakeWatcher struct {
	mu      sync.Mutex
	watched map[string]string
	fail    error
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{watched: make(map[string]string)}
}

func (w *fakeWatcher) Watch(key, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	w.watched[key] = path
	return nil
}

func (w *fakeWatcher) Unwatch(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.watched, key)
}

func (w *fakeWatcher) path(key string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.watched[key]
	return p, ok
}

type fakeLauncher struct {
	path   string
	onExit func()
	closed int
	err    error
}

func (l *fakeLauncher) OpenFile(path string, onExit func()) error {
	if l.err != nil {
		return l.err
	}
	l.path, l.onExit = path, onExit
	return nil
}

func (l *fakeLauncher) Close() { l.closed++ }

func newEditorHarness(t *testing.T) (*bookHarness, *service.EditorService, *fakeLauncher, *fakeWatcher) {
	t.Helper()
	h := newBookHarness(t)
	h.load(t, "b1")
	launcher := &fakeLauncher{}
	w := newFakeWatcher()
	ed := service.NewEditorService(h.svc, launcher, w, h.emitter, t.TempDir())
	return h, ed, launcher, w
}

// ─────────────────────────────────────────────────────────────
// Editing session
// ─────────────────────────────────────────────────────────────

func TestEditorService_StoresDraftOnExit(t *testing.T) {
	h, ed, launcher, w := newEditorHarness(t)

	if err := ed.OpenNode("n2"); err != nil {
		t.Fatalf("OpenNode: %v", err)
	}
	if id, ok := ed.Editing(); !ok || id != "n2" {
		t.Fatalf("expected n2 in edit, got %q %v", id, ok)
	}
	if p, ok := w.path("draft"); !ok || p != launcher.path {
		t.Fatalf("expected the draft to be watched, got %q", p)
	}

	if err := os.WriteFile(launcher.path, []byte("A cold hall.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	launcher.onExit()

	n, _ := h.svc.Graph().Node("n2")
	if n.Data.Description != "A cold hall." {
		t.Errorf("expected description to be stored, got %q", n.Data.Description)
	}
	if !h.svc.IsDirty() {
		t.Error("storing a draft should mark the book dirty")
	}
	if _, err := os.Stat(launcher.path); !os.IsNotExist(err) {
		t.Errorf("draft should be removed, stat err = %v", err)
	}
	if _, ok := w.path("draft"); ok {
		t.Error("draft should no longer be watched")
	}
	if h.emitter.Count("editor:closed") != 1 {
		t.Error("expected editor:closed")
	}
}

func TestEditorService_UnchangedDraftIsNotDirty(t *testing.T) {
	h, ed, launcher, _ := newEditorHarness(t)

	if err := ed.OpenNode("n1"); err != nil {
		t.Fatalf("OpenNode: %v", err)
	}
	launcher.onExit()

	if h.svc.IsDirty() {
		t.Error("an untouched draft should not mark the book dirty")
	}
}

func TestEditorService_Preview(t *testing.T) {
	h, ed, _, _ := newEditorHarness(t)
	if err := ed.OpenNode("n2"); err != nil {
		t.Fatalf("OpenNode: %v", err)
	}

	if !ed.HandleFileChange("draft", []byte("Draft text\n")) {
		t.Fatal("draft key should be handled")
	}
	if ed.HandleFileChange("document", nil) {
		t.Fatal("other keys should be ignored")
	}

	ev, ok := h.emitter.Last("node:description-preview")
	if !ok {
		t.Fatal("expected a preview event")
	}
	data := ev.Data.(map[string]string)
	if data["nodeId"] != "n2" || data["description"] != "Draft text" {
		t.Errorf("unexpected preview %v", data)
	}
	n, _ := h.svc.Graph().Node("n2")
	if n.Data.Description != "" {
		t.Error("previews must not change the node")
	}
}

func TestEditorService_CloseDiscardsDraft(t *testing.T) {
	h, ed, launcher, _ := newEditorHarness(t)
	if err := ed.OpenNode("n2"); err != nil {
		t.Fatalf("OpenNode: %v", err)
	}
	path := launcher.path
	os.WriteFile(path, []byte("never stored"), 0o644)

	ed.Close()
	launcher.onExit()

	if launcher.closed != 1 {
		t.Errorf("expected the launcher to be closed once, got %d", launcher.closed)
	}
	n, _ := h.svc.Graph().Node("n2")
	if n.Data.Description != "" {
		t.Errorf("closed session should not store, got %q", n.Data.Description)
	}
	if _, ok := ed.Editing(); ok {
		t.Error("no session should remain")
	}
}

func TestEditorService_BookSwitchDropsDraft(t *testing.T) {
	h, ed, launcher, _ := newEditorHarness(t)
	if err := ed.OpenNode("n2"); err != nil {
		t.Fatalf("OpenNode: %v", err)
	}
	os.WriteFile(launcher.path, []byte("late"), 0o644)

	h.load(t, "b2")
	launcher.onExit()

	if h.svc.IsDirty() {
		t.Error("a draft for a closed book must not touch the new book")
	}
}

func TestEditorService_Errors(t *testing.T) {
	h := newBookHarness(t)
	launcher := &fakeLauncher{}
	ed := service.NewEditorService(h.svc, launcher, newFakeWatcher(), h.emitter, t.TempDir())

	if err := ed.OpenNode("n1"); !errors.Is(err, service.ErrNoActiveBook) {
		t.Errorf("expected ErrNoActiveBook, got %v", err)
	}

	h.load(t, "b1")
	if err := ed.OpenNode("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	dir := t.TempDir()
	launcher.err = errors.New("no editor")
	ed = service.NewEditorService(h.svc, launcher, newFakeWatcher(), h.emitter, dir)
	if err := ed.OpenNode("n1"); err == nil {
		t.Fatal("expected launcher error")
	}
	if _, ok := ed.Editing(); ok {
		t.Error("failed launch should leave no session")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("failed launch should remove the draft, found %d file(s)", len(entries))
	}
}
