package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gamebooks/internal/domain"
	"gamebooks/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// SQLCatalog on a throwaway sqlite database
// ─────────────────────────────────────────────────────────────

func newCatalog(t *testing.T) storage.Catalog {
	t.Helper()
	cat, err := storage.OpenCatalog(context.Background(), storage.CatalogConfig{
		Driver: storage.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "catalog.db"),
	})
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { cat.Close() })
	return cat
}

func TestCatalog_LoadLibrary_NeverSaved(t *testing.T) {
	cat := newCatalog(t)
	_, err := cat.LoadLibrary(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalog_SaveLibrary_KeepsOrder(t *testing.T) {
	cat := newCatalog(t)
	ctx := context.Background()

	entries := []domain.LibraryEntry{
		{ID: "b", Name: "Second", JSONFile: "b/book.json"},
		{ID: "a", Name: "First", Description: "d", JSONFile: "a/book.json", Image: "cover.png"},
	}
	if err := cat.SaveLibrary(ctx, entries); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := cat.LoadLibrary(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[1] != entries[1] {
		t.Errorf("entry mismatch: %+v vs %+v", got[1], entries[1])
	}
}

func TestCatalog_SaveLibrary_EmptyIsNotMissing(t *testing.T) {
	cat := newCatalog(t)
	ctx := context.Background()
	if err := cat.SaveLibrary(ctx, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := cat.LoadLibrary(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty library, got %d entries", len(got))
	}
}

func TestCatalog_Assets(t *testing.T) {
	cat := newCatalog(t)
	ctx := context.Background()

	a1 := domain.Asset{ID: "a1", Name: "Map", Category: "maps", Type: domain.AssetTypeImage, Filename: "1-map.png", CreationDate: "2024-01-01T00:00:00Z"}
	a2 := domain.Asset{ID: "a2", Name: "Hero", Category: "portraits", Type: domain.AssetTypeImage, Filename: "2-hero.png"}
	for _, a := range []domain.Asset{a1, a2} {
		if err := cat.InsertAsset(ctx, "book-1", a); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := cat.InsertAsset(ctx, "book-2", domain.Asset{ID: "other", Filename: "x.png"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	list, err := cat.ListAssets(ctx, "book-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0] != a1 || list[1].ID != "a2" {
		t.Fatalf("unexpected assets: %+v", list)
	}

	a2.Name = "Heroine"
	if err := cat.UpdateAsset(ctx, "book-1", a2); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := cat.GetAsset(ctx, "book-1", "a2")
	if err != nil || got.Name != "Heroine" {
		t.Fatalf("get after update: %+v, %v", got, err)
	}

	if err := cat.DeleteAsset(ctx, "book-1", "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := cat.DeleteAsset(ctx, "book-1", "a1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := cat.GetAsset(ctx, "book-1", "other"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-book get: expected ErrNotFound, got %v", err)
	}

	if err := cat.DeleteBookAssets(ctx, "book-1"); err != nil {
		t.Fatalf("delete book assets: %v", err)
	}
	list, _ = cat.ListAssets(ctx, "book-1")
	if len(list) != 0 {
		t.Errorf("expected no assets left, got %d", len(list))
	}
	list, _ = cat.ListAssets(ctx, "book-2")
	if len(list) != 1 {
		t.Errorf("other book's assets must survive, got %d", len(list))
	}
}

func TestCatalog_Revisions_PrunesOldest(t *testing.T) {
	cat := newCatalog(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	for i, id := range []string{"r1", "r2", "r3", "r4"} {
		rev := domain.Revision{
			ID:        id,
			BookID:    "book-1",
			Label:     "checkpoint " + id,
			Document:  []byte(`{"id":"` + id + `"}`),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := cat.PushRevision(ctx, rev, 3); err != nil {
			t.Fatalf("push %s: %v", id, err)
		}
	}

	revs, err := cat.ListRevisions(ctx, "book-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(revs) != 3 {
		t.Fatalf("expected 3 revisions, got %d", len(revs))
	}
	if revs[0].ID != "r4" || revs[2].ID != "r2" {
		t.Errorf("expected newest first r4..r2, got %s..%s", revs[0].ID, revs[2].ID)
	}
	if revs[0].Document != nil {
		t.Error("list must not load documents")
	}

	if _, err := cat.GetRevision(ctx, "book-1", "r1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("pruned revision: expected ErrNotFound, got %v", err)
	}
	got, err := cat.GetRevision(ctx, "book-1", "r3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Document) != `{"id":"r3"}` {
		t.Errorf("document = %s", got.Document)
	}
	if !got.CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("created at = %v", got.CreatedAt)
	}

	if err := cat.DeleteBookRevisions(ctx, "book-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	revs, _ = cat.ListRevisions(ctx, "book-1")
	if len(revs) != 0 {
		t.Errorf("expected no revisions, got %d", len(revs))
	}
}

func TestCatalog_Settings(t *testing.T) {
	cat := newCatalog(t)
	ctx := context.Background()

	if _, err := cat.GetSetting(ctx, "window"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := cat.SetSetting(ctx, "window", "a"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cat.SetSetting(ctx, "window", "b"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, err := cat.GetSetting(ctx, "window")
	if err != nil || v != "b" {
		t.Errorf("got %q, %v", v, err)
	}
}

func TestOpenCatalog_UnknownDriver(t *testing.T) {
	_, err := storage.OpenCatalog(context.Background(), storage.CatalogConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
