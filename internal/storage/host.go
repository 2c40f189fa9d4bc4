package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"gamebooks/internal/domain"
)

const (
	documentName  = "book.json"
	lockRetryWait = 50 * time.Millisecond
)

// Host is the filesystem-backed domain.HostStorage. Book documents and asset
// bytes live under <root>/books/<id>/; everything else goes to the catalog.
type Host struct {
	root    string
	catalog Catalog
	now     func() time.Time
}

// NewHost returns a Host rooted at dataDir.
func NewHost(dataDir string, catalog Catalog) *Host {
	return &Host{root: dataDir, catalog: catalog, now: time.Now}
}

// Catalog returns the catalog database the host writes metadata to.
func (h *Host) Catalog() Catalog {
	return h.catalog
}

func (h *Host) BooksDir() string {
	return filepath.Join(h.root, "books")
}

func (h *Host) bookDir(bookID string) string {
	return filepath.Join(h.BooksDir(), bookID)
}

// DocumentPath returns the path of the book's JSON document.
func (h *Host) DocumentPath(bookID string) string {
	return filepath.Join(h.bookDir(bookID), documentName)
}

// AssetPath returns the path of an asset file, or an error if either part is
// not a plain name.
func (h *Host) AssetPath(bookID, filename string) (string, error) {
	if !ValidBookID(bookID) {
		return "", fmt.Errorf("invalid book id %q", bookID)
	}
	if !validFilename(filename) {
		return "", fmt.Errorf("invalid asset filename %q", filename)
	}
	return filepath.Join(h.bookDir(bookID), "assets", filename), nil
}

func checkBookID(bookID string) error {
	if !ValidBookID(bookID) {
		return fmt.Errorf("invalid book id %q", bookID)
	}
	return nil
}

// ── Library index ────────────────────────────────────────────

func (h *Host) LoadLibraryIndex(ctx context.Context) ([]domain.LibraryEntry, error) {
	return h.catalog.LoadLibrary(ctx)
}

func (h *Host) SaveLibraryIndex(ctx context.Context, entries []domain.LibraryEntry) error {
	return h.catalog.SaveLibrary(ctx, entries)
}

// ── Book documents ───────────────────────────────────────────

func (h *Host) CreateBookStorage(ctx context.Context, name, description string) (domain.LibraryEntry, error) {
	id := uuid.NewString()

	book := domain.NewBook()
	if name != "" {
		book.Meta.Title = name
	}
	book.Meta.Description = description
	doc, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("encode new book: %w", err)
	}
	if err := h.SaveBookDocument(ctx, id, doc); err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("create book storage: %w", err)
	}

	log.Printf("storage: created book %s", id)
	return domain.LibraryEntry{
		ID:          id,
		Name:        name,
		Description: description,
		JSONFile:    h.DocumentPath(id),
	}, nil
}

func (h *Host) LoadBookDocument(ctx context.Context, bookID string) ([]byte, error) {
	if err := checkBookID(bookID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(h.DocumentPath(bookID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load book %s: %w", bookID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load book %s: %w", bookID, err)
	}
	return data, nil
}

func (h *Host) SaveBookDocument(ctx context.Context, bookID string, doc []byte) error {
	if err := checkBookID(bookID); err != nil {
		return err
	}
	return h.withBookLock(ctx, bookID, func() error {
		return writeAtomic(h.DocumentPath(bookID), doc)
	})
}

func (h *Host) UpdateBookMeta(ctx context.Context, bookID string, fields domain.BookFields) error {
	if err := checkBookID(bookID); err != nil {
		return err
	}
	return h.withBookLock(ctx, bookID, func() error {
		path := h.DocumentPath(bookID)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("update book %s: %w", bookID, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("update book %s: %w", bookID, err)
		}

		// Edit the generic document so fields this version doesn't model survive.
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
			return fmt.Errorf("update book %s: document is not an object", bookID)
		}
		meta, _ := doc["meta"].(map[string]any)
		if meta == nil {
			meta = map[string]any{}
		}
		meta["title"] = fields.Name
		meta["description"] = fields.Description
		doc["meta"] = meta

		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode book %s: %w", bookID, err)
		}
		return writeAtomic(path, out)
	})
}

func (h *Host) DeleteBookStorage(ctx context.Context, bookID string) error {
	if err := checkBookID(bookID); err != nil {
		return err
	}
	if err := h.catalog.DeleteBookAssets(ctx, bookID); err != nil {
		return err
	}
	if err := h.catalog.DeleteBookRevisions(ctx, bookID); err != nil {
		return err
	}
	if err := os.RemoveAll(h.bookDir(bookID)); err != nil {
		return fmt.Errorf("delete book %s: %w", bookID, err)
	}
	os.Remove(h.lockPath(bookID))
	log.Printf("storage: deleted book %s", bookID)
	return nil
}

func (h *Host) lockPath(bookID string) string {
	return filepath.Join(h.BooksDir(), "."+bookID+".lock")
}

// withBookLock runs fn holding the book's cross-process file lock, so the
// desktop app, gbctl and a standalone MCP server never interleave writes.
func (h *Host) withBookLock(ctx context.Context, bookID string, fn func() error) error {
	if err := os.MkdirAll(h.bookDir(bookID), 0755); err != nil {
		return fmt.Errorf("create book directory: %w", err)
	}
	lock := flock.New(h.lockPath(bookID))
	ok, err := lock.TryLockContext(ctx, lockRetryWait)
	if err != nil {
		return fmt.Errorf("lock book %s: %w", bookID, err)
	}
	if !ok {
		return fmt.Errorf("lock book %s: already locked", bookID)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Printf("storage: unlock book %s: %v", bookID, err)
		}
	}()
	return fn()
}

// writeAtomic replaces path with data through a temp file in the same
// directory, so readers never see a half-written document.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// ── Assets ───────────────────────────────────────────────────

func (h *Host) ListAssetMetadata(ctx context.Context, bookID string) ([]domain.Asset, error) {
	if err := checkBookID(bookID); err != nil {
		return nil, err
	}
	return h.catalog.ListAssets(ctx, bookID)
}

func (h *Host) SaveAssetBytes(ctx context.Context, bookID, name, category string, data []byte, originalFilename string) (domain.Asset, error) {
	if err := checkBookID(bookID); err != nil {
		return domain.Asset{}, err
	}
	now := h.now()
	filename := AssetFilename(originalFilename, now)
	path, err := h.AssetPath(bookID, filename)
	if err != nil {
		return domain.Asset{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return domain.Asset{}, fmt.Errorf("create asset directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return domain.Asset{}, fmt.Errorf("write asset: %w", err)
	}

	asset := domain.Asset{
		ID:           uuid.NewString(),
		Name:         name,
		Category:     category,
		Type:         domain.AssetTypeImage,
		Filename:     filename,
		CreationDate: now.UTC().Format(time.RFC3339),
	}
	if err := h.catalog.InsertAsset(ctx, bookID, asset); err != nil {
		os.Remove(path)
		return domain.Asset{}, err
	}
	log.Printf("storage: saved asset %s for book %s", filename, bookID)
	return asset, nil
}

func (h *Host) UpdateAssetMetadata(ctx context.Context, bookID, assetID string, fields domain.AssetFields) (domain.Asset, error) {
	asset, err := h.catalog.GetAsset(ctx, bookID, assetID)
	if err != nil {
		return domain.Asset{}, err
	}
	asset.Name = fields.Name
	asset.Category = fields.Category
	if err := h.catalog.UpdateAsset(ctx, bookID, asset); err != nil {
		return domain.Asset{}, err
	}
	return asset, nil
}

func (h *Host) DeleteAsset(ctx context.Context, bookID, assetID string) error {
	asset, err := h.catalog.GetAsset(ctx, bookID, assetID)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteAsset(ctx, bookID, assetID); err != nil {
		return err
	}
	path, err := h.AssetPath(bookID, asset.Filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("storage: remove asset file %s: %v", path, err)
	}
	return nil
}

func (h *Host) ResolveAssetReference(bookID, filename string) string {
	return AssetReference(bookID, filename)
}
