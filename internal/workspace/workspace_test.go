package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gamebooks/internal/config"
	"gamebooks/internal/domain"
	"gamebooks/internal/secret"
	"gamebooks/internal/service"
	"gamebooks/internal/workspace"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Catalog.DSN = filepath.Join(cfg.DataDir, "catalog.db")
	return &cfg
}

func TestOpen_EndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	emitter := &service.MockEmitter{}

	ws, err := workspace.Open(ctx, cfg, emitter, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := ws.Library.InitializeLibrary(ctx); err != nil {
		t.Fatalf("InitializeLibrary: %v", err)
	}
	entry, err := ws.Library.AddBook(ctx, domain.BookFields{Name: "The Cave"})
	if err != nil {
		t.Fatalf("AddBook: %v", err)
	}
	if err := ws.Books.LoadBookByID(ctx, entry.ID); err != nil {
		t.Fatalf("LoadBookByID: %v", err)
	}
	if _, ok := ws.Books.Graph().CreateNode(domain.Position{X: 10, Y: 10}, domain.NodeTypeStart); !ok {
		t.Fatal("CreateNode failed")
	}

	// Close flushes the pending debounced save.
	if err := ws.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(ws.Host.DocumentPath(entry.ID))
	if err != nil {
		t.Fatal(err)
	}
	ws2, err := workspace.Open(ctx, cfg, nil, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ws2.Close(ctx)
	if err := ws2.Library.InitializeLibrary(ctx); err != nil {
		t.Fatal(err)
	}
	if len(ws2.Library.Books()) != 1 {
		t.Fatalf("expected the book in the reopened library, got %d", len(ws2.Library.Books()))
	}
	if err := ws2.Books.LoadBookByID(ctx, entry.ID); err != nil {
		t.Fatal(err)
	}
	if n := len(ws2.Books.Graph().Nodes()); n != 1 {
		t.Fatalf("expected the flushed node, got %d nodes in %s", n, data)
	}
}

func TestOpen_KeychainAccountNeedsSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.KeychainAccount = "catalog"

	if _, err := workspace.Open(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected an error without a secret store")
	}
	if _, err := workspace.Open(context.Background(), cfg, nil, secret.NewMemoryStore()); err == nil {
		t.Fatal("expected an error for a missing secret")
	}

	store := secret.NewMemoryStore()
	store.Set("catalog", []byte("unused-by-sqlite"))
	ws, err := workspace.Open(context.Background(), cfg, nil, store)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ws.Close(context.Background())
}
