package service_test

import (
	"context"
	"errors"
	"testing"

	"gamebooks/internal/domain"
	"gamebooks/internal/service"
	"gamebooks/internal/storage/storagetest"
)

// ─────────────────────────────────────────────────────────────
// LibraryService tests
// ─────────────────────────────────────────────────────────────

func TestLibraryService_InitializeFirstRun(t *testing.T) {
	host := storagetest.NewMemoryHost()
	lib := service.NewLibraryService(host, &service.MockEmitter{})

	if err := lib.InitializeLibrary(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !lib.Initialized() || len(lib.Books()) != 0 {
		t.Errorf("expected an initialized empty library, got %+v", lib.Books())
	}
}

func TestLibraryService_InitializeOnce(t *testing.T) {
	host := storagetest.NewMemoryHost()
	ctx := context.Background()
	host.SaveLibraryIndex(ctx, []domain.LibraryEntry{{ID: "b1", Name: "One"}})

	lib := service.NewLibraryService(host, nil)
	if err := lib.InitializeLibrary(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	host.SaveLibraryIndex(ctx, []domain.LibraryEntry{{ID: "b1"}, {ID: "b2"}})
	if err := lib.InitializeLibrary(ctx); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	if len(lib.Books()) != 1 {
		t.Error("library must only be loaded once per process")
	}
}

func TestLibraryService_InitializeErrorRetries(t *testing.T) {
	host := storagetest.NewMemoryHost()
	host.LoadErr = errors.New("permission denied")
	lib := service.NewLibraryService(host, nil)
	ctx := context.Background()

	if err := lib.InitializeLibrary(ctx); err == nil {
		t.Fatal("expected error")
	}
	if lib.Initialized() {
		t.Fatal("failed load must leave the library uninitialized")
	}

	host.LoadErr = nil
	if err := lib.InitializeLibrary(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !lib.Initialized() {
		t.Error("retry should initialize")
	}
}

func TestLibraryService_AddBook(t *testing.T) {
	host := storagetest.NewMemoryHost()
	emitter := &service.MockEmitter{}
	lib := service.NewLibraryService(host, emitter)
	ctx := context.Background()

	if _, err := lib.AddBook(ctx, domain.BookFields{Name: " "}); err == nil {
		t.Fatal("a name is required")
	}

	entry, err := lib.AddBook(ctx, domain.BookFields{Name: "Cave", Description: "Dark"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, ok := host.Document(entry.ID); !ok {
		t.Error("book storage was not created")
	}
	got, ok := lib.Book(entry.ID)
	if !ok || got.Name != "Cave" {
		t.Errorf("lookup = %+v, %v", got, ok)
	}
	index, _ := host.LoadLibraryIndex(ctx)
	if len(index) != 1 || index[0].ID != entry.ID {
		t.Errorf("persisted index = %+v", index)
	}
	if emitter.Count("library:changed") != 1 {
		t.Error("expected library:changed")
	}
}

func TestLibraryService_UpdateBook(t *testing.T) {
	host := storagetest.NewMemoryHost()
	lib := service.NewLibraryService(host, nil)
	ctx := context.Background()
	entry, _ := lib.AddBook(ctx, domain.BookFields{Name: "Cave"})

	if err := lib.UpdateBook(ctx, entry.ID, domain.BookFields{Name: "Caverns", Description: "Deeper"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := lib.Book(entry.ID)
	if got.Name != "Caverns" || got.Description != "Deeper" {
		t.Errorf("entry = %+v", got)
	}
	index, _ := host.LoadLibraryIndex(ctx)
	if index[0].Name != "Caverns" {
		t.Errorf("persisted index = %+v", index)
	}

	if err := lib.UpdateBook(ctx, "ghost", domain.BookFields{Name: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLibraryService_RemoveBook(t *testing.T) {
	host := storagetest.NewMemoryHost()
	lib := service.NewLibraryService(host, nil)
	ctx := context.Background()
	a, _ := lib.AddBook(ctx, domain.BookFields{Name: "A"})
	b, _ := lib.AddBook(ctx, domain.BookFields{Name: "B"})

	if err := lib.RemoveBook(ctx, a.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := host.Document(a.ID); ok {
		t.Error("book storage should be deleted")
	}
	books := lib.Books()
	if len(books) != 1 || books[0].ID != b.ID {
		t.Errorf("books = %+v", books)
	}

	if err := lib.RemoveBook(ctx, "ghost"); err != nil {
		t.Errorf("unknown id should be a silent no-op, got %v", err)
	}
}
