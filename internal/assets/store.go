// Package assets holds the in-memory asset catalog of the active book. Bytes
// and metadata are persisted by host storage as soon as they change; the
// catalog itself reaches the book document on the next save.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"gamebooks/internal/domain"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrNoActiveBook  = errors.New("no active book")
)

// File is an uploaded file: its bytes and its original name. *os.File
// satisfies it.
type File interface {
	io.Reader
	Name() string
}

type DirtyMarker interface {
	MarkDirty()
}

type Store struct {
	mu     sync.RWMutex
	bookID string
	assets []domain.Asset

	storage domain.AssetStorage
	marker  DirtyMarker
}

func New(storage domain.AssetStorage, marker DirtyMarker) *Store {
	return &Store{storage: storage, marker: marker, assets: []domain.Asset{}}
}

// SetAssets replaces the catalog when a book is loaded.
func (s *Store) SetAssets(bookID string, assets []domain.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookID = bookID
	s.assets = append([]domain.Asset{}, assets...)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookID = ""
	s.assets = []domain.Asset{}
}

func (s *Store) Assets() []domain.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Asset{}, s.assets...)
}

func (s *Store) BookID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bookID
}

// AddAsset stores the file's bytes through host storage and registers the
// returned metadata. An empty name defaults to the file's base name.
func (s *Store) AddAsset(ctx context.Context, file File, name, category string) (domain.Asset, error) {
	bookID := s.BookID()
	if bookID == "" {
		return domain.Asset{}, ErrNoActiveBook
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("read asset file: %w", err)
	}
	original := filepath.Base(file.Name())
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(original, filepath.Ext(original))
	}

	asset, err := s.storage.SaveAssetBytes(ctx, bookID, name, category, data, original)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("save asset: %w", err)
	}

	if !s.apply(bookID, func() { s.assets = append(s.assets, asset) }) {
		log.Printf("assets: book %s closed while adding %s", bookID, asset.ID)
	}
	return asset, nil
}

// UpdateAsset renames or recategorizes an asset.
func (s *Store) UpdateAsset(ctx context.Context, assetID string, fields domain.AssetFields) (domain.Asset, error) {
	bookID := s.BookID()
	if bookID == "" {
		return domain.Asset{}, ErrNoActiveBook
	}
	updated, err := s.storage.UpdateAssetMetadata(ctx, bookID, assetID, fields)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Asset{}, fmt.Errorf("update asset %s: %w", assetID, ErrAssetNotFound)
		}
		return domain.Asset{}, fmt.Errorf("update asset %s: %w", assetID, err)
	}

	s.apply(bookID, func() {
		for i := range s.assets {
			if s.assets[i].ID == assetID {
				s.assets[i].Name = updated.Name
				s.assets[i].Category = updated.Category
			}
		}
	})
	return updated, nil
}

// DeleteAsset removes an asset's metadata and bytes. Unknown ids fail with
// ErrAssetNotFound.
func (s *Store) DeleteAsset(ctx context.Context, assetID string) error {
	s.mu.RLock()
	bookID := s.bookID
	found := s.indexLocked(assetID) >= 0
	s.mu.RUnlock()

	if bookID == "" {
		return ErrNoActiveBook
	}
	if !found {
		return fmt.Errorf("delete asset %s: %w", assetID, ErrAssetNotFound)
	}
	if err := s.storage.DeleteAsset(ctx, bookID, assetID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete asset %s: %w", assetID, ErrAssetNotFound)
		}
		return fmt.Errorf("delete asset %s: %w", assetID, err)
	}

	s.apply(bookID, func() {
		if i := s.indexLocked(assetID); i >= 0 {
			s.assets = append(s.assets[:i], s.assets[i+1:]...)
		}
	})
	return nil
}

// AssetURL returns the reference the UI loads filename from, or "" when no
// book is active.
func (s *Store) AssetURL(filename string) string {
	bookID := s.BookID()
	if bookID == "" || filename == "" {
		return ""
	}
	return s.storage.ResolveAssetReference(bookID, filename)
}

// apply runs fn under the lock if bookID is still the active book, then
// marks the book dirty.
func (s *Store) apply(bookID string, fn func()) bool {
	s.mu.Lock()
	if s.bookID != bookID {
		s.mu.Unlock()
		return false
	}
	fn()
	s.mu.Unlock()
	if s.marker != nil {
		s.marker.MarkDirty()
	}
	return true
}

func (s *Store) indexLocked(assetID string) int {
	for i := range s.assets {
		if s.assets[i].ID == assetID {
			return i
		}
	}
	return -1
}
