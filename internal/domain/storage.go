package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned by host storage when a library index, book or asset
// does not exist. Callers distinguish it from other I/O failures with errors.Is.
var ErrNotFound = errors.New("not found")

type LibraryIndex interface {
	// LoadLibraryIndex returns ErrNotFound if no index was ever saved.
	LoadLibraryIndex(ctx context.Context) ([]LibraryEntry, error)
	SaveLibraryIndex(ctx context.Context, entries []LibraryEntry) error
}

type BookStorage interface {
	// CreateBookStorage generates the book id and writes its initial document.
	CreateBookStorage(ctx context.Context, name, description string) (LibraryEntry, error)
	// LoadBookDocument returns the raw document text, or ErrNotFound.
	LoadBookDocument(ctx context.Context, bookID string) ([]byte, error)
	SaveBookDocument(ctx context.Context, bookID string, doc []byte) error
	// UpdateBookMeta rewrites the title and description stored in the document.
	UpdateBookMeta(ctx context.Context, bookID string, fields BookFields) error
	// DeleteBookStorage removes the document and every asset of the book.
	DeleteBookStorage(ctx context.Context, bookID string) error
}

type AssetStorage interface {
	ListAssetMetadata(ctx context.Context, bookID string) ([]Asset, error)
	// SaveAssetBytes stores data under a freshly generated filename and
	// registers its metadata.
	SaveAssetBytes(ctx context.Context, bookID, name, category string, data []byte, originalFilename string) (Asset, error)
	UpdateAssetMetadata(ctx context.Context, bookID, assetID string, fields AssetFields) (Asset, error)
	// DeleteAsset removes both the metadata and the bytes. ErrNotFound if the
	// asset is unknown.
	DeleteAsset(ctx context.Context, bookID, assetID string) error
	ResolveAssetReference(bookID, filename string) string
}

// HostStorage is everything the book orchestrator and library need from the
// host process.
type HostStorage interface {
	LibraryIndex
	BookStorage
	AssetStorage
}
