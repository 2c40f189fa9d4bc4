// Package storagetest provides an in-memory host storage for tests.
package storagetest

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gamebooks/internal/domain"
	"gamebooks/internal/storage"
)

// MemoryHost is an in-memory domain.HostStorage with hooks for failing and
// observing saves.
type MemoryHost struct {
	mu      sync.Mutex
	library []domain.LibraryEntry
	saved   bool
	docs    map[string][]byte
	assets  map[string][]domain.Asset
	files   map[string][]byte
	seq     int
	saves   int

	// SaveErr, when set, is returned by SaveBookDocument instead of saving.
	SaveErr error
	// LoadErr, when set, is returned by LoadLibraryIndex.
	LoadErr error
	// OnSave runs inside SaveBookDocument before the document is stored.
	OnSave func(bookID string, doc []byte)
}

func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		docs:   make(map[string][]byte),
		assets: make(map[string][]domain.Asset),
		files:  make(map[string][]byte),
	}
}

func (m *MemoryHost) nextID(prefix string) string {
	m.seq++
	return prefix + "-" + strconv.Itoa(m.seq)
}

// PutDocument stores a document without counting it as a save.
func (m *MemoryHost) PutDocument(bookID string, doc []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[bookID] = append([]byte(nil), doc...)
}

// Document returns the stored document of bookID.
func (m *MemoryHost) Document(bookID string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[bookID]
	return append([]byte(nil), doc...), ok
}

// SaveCount returns how many times SaveBookDocument stored a document.
func (m *MemoryHost) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// AssetBytes returns the bytes stored under filename.
func (m *MemoryHost) AssetBytes(bookID, filename string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[bookID+"/"+filename]
	return data, ok
}

func (m *MemoryHost) LoadLibraryIndex(ctx context.Context) ([]domain.LibraryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if !m.saved {
		return nil, fmt.Errorf("load library: %w", domain.ErrNotFound)
	}
	return append([]domain.LibraryEntry{}, m.library...), nil
}

func (m *MemoryHost) SaveLibraryIndex(ctx context.Context, entries []domain.LibraryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.library = append([]domain.LibraryEntry{}, entries...)
	m.saved = true
	return nil
}

func (m *MemoryHost) CreateBookStorage(ctx context.Context, name, description string) (domain.LibraryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID("book")
	m.docs[id] = []byte(`{"meta":{"title":` + strconv.Quote(name) + `,"description":` + strconv.Quote(description) + `}}`)
	return domain.LibraryEntry{ID: id, Name: name, Description: description, JSONFile: id + "/book.json"}, nil
}

func (m *MemoryHost) LoadBookDocument(ctx context.Context, bookID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[bookID]
	if !ok {
		return nil, fmt.Errorf("load book %s: %w", bookID, domain.ErrNotFound)
	}
	return append([]byte(nil), doc...), nil
}

func (m *MemoryHost) SaveBookDocument(ctx context.Context, bookID string, doc []byte) error {
	m.mu.Lock()
	onSave, saveErr := m.OnSave, m.SaveErr
	m.mu.Unlock()

	if onSave != nil {
		onSave(bookID, doc)
	}
	if saveErr != nil {
		return saveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[bookID] = append([]byte(nil), doc...)
	m.saves++
	return nil
}

func (m *MemoryHost) UpdateBookMeta(ctx context.Context, bookID string, fields domain.BookFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[bookID]; !ok {
		return fmt.Errorf("update book %s: %w", bookID, domain.ErrNotFound)
	}
	return nil
}

func (m *MemoryHost) DeleteBookStorage(ctx context.Context, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, bookID)
	for _, a := range m.assets[bookID] {
		delete(m.files, bookID+"/"+a.Filename)
	}
	delete(m.assets, bookID)
	return nil
}

func (m *MemoryHost) ListAssetMetadata(ctx context.Context, bookID string) ([]domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Asset{}, m.assets[bookID]...), nil
}

func (m *MemoryHost) SaveAssetBytes(ctx context.Context, bookID, name, category string, data []byte, originalFilename string) (domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	asset := domain.Asset{
		ID:           m.nextID("asset"),
		Name:         name,
		Category:     category,
		Type:         domain.AssetTypeImage,
		Filename:     storage.AssetFilename(originalFilename, now),
		CreationDate: now.UTC().Format(time.RFC3339),
	}
	m.assets[bookID] = append(m.assets[bookID], asset)
	m.files[bookID+"/"+asset.Filename] = append([]byte(nil), data...)
	return asset, nil
}

func (m *MemoryHost) UpdateAssetMetadata(ctx context.Context, bookID, assetID string, fields domain.AssetFields) (domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.assets[bookID] {
		if a.ID == assetID {
			a.Name = fields.Name
			a.Category = fields.Category
			m.assets[bookID][i] = a
			return a, nil
		}
	}
	return domain.Asset{}, fmt.Errorf("update asset %s: %w", assetID, domain.ErrNotFound)
}

func (m *MemoryHost) DeleteAsset(ctx context.Context, bookID, assetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.assets[bookID]
	for i, a := range list {
		if a.ID == assetID {
			m.assets[bookID] = append(list[:i:i], list[i+1:]...)
			delete(m.files, bookID+"/"+a.Filename)
			return nil
		}
	}
	return fmt.Errorf("delete asset %s: %w", assetID, domain.ErrNotFound)
}

func (m *MemoryHost) ResolveAssetReference(bookID, filename string) string {
	return storage.AssetReference(bookID, filename)
}
