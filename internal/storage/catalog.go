package storage

import (
	"context"
	"fmt"
	"strings"

	"gamebooks/internal/domain"
)

// Catalog is the database behind host storage: the library index, asset
// metadata, document revisions and application settings. Book documents and
// asset bytes live on disk, not here.
type Catalog interface {
	// LoadLibrary returns domain.ErrNotFound if the library was never saved.
	LoadLibrary(ctx context.Context) ([]domain.LibraryEntry, error)
	SaveLibrary(ctx context.Context, entries []domain.LibraryEntry) error

	ListAssets(ctx context.Context, bookID string) ([]domain.Asset, error)
	GetAsset(ctx context.Context, bookID, assetID string) (domain.Asset, error)
	InsertAsset(ctx context.Context, bookID string, a domain.Asset) error
	UpdateAsset(ctx context.Context, bookID string, a domain.Asset) error
	DeleteAsset(ctx context.Context, bookID, assetID string) error
	DeleteBookAssets(ctx context.Context, bookID string) error

	// PushRevision stores rev and keeps only the book's newest keep revisions.
	PushRevision(ctx context.Context, rev domain.Revision, keep int) error
	// ListRevisions returns the book's revisions newest first, without documents.
	ListRevisions(ctx context.Context, bookID string) ([]domain.Revision, error)
	GetRevision(ctx context.Context, bookID, revisionID string) (domain.Revision, error)
	DeleteBookRevisions(ctx context.Context, bookID string) error

	// GetSetting returns domain.ErrNotFound for unknown keys.
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Close() error
}

// CatalogConfig selects and addresses the catalog database.
type CatalogConfig struct {
	Driver string
	// DSN is a file path for sqlite, a connection string otherwise. A
	// <password> placeholder is replaced by Password.
	DSN      string
	Database string // mongodb only
	Password string
}

// OpenCatalog connects to the configured catalog database.
func OpenCatalog(ctx context.Context, cfg CatalogConfig) (Catalog, error) {
	dsn := cfg.DSN
	if cfg.Password != "" {
		dsn = strings.ReplaceAll(dsn, "<password>", cfg.Password)
	}
	switch cfg.Driver {
	case "", DriverSQLite:
		db, err := New(dsn)
		if err != nil {
			return nil, err
		}
		return NewSQLCatalog(db), nil
	case DriverPostgres, DriverMySQL:
		db, err := Open(ctx, cfg.Driver, dsn)
		if err != nil {
			return nil, err
		}
		return NewSQLCatalog(db), nil
	case DriverMongo:
		return OpenMongoCatalog(ctx, dsn, cfg.Database)
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", cfg.Driver)
	}
}

// SQLCatalog implements Catalog on sqlite, postgres or mysql.
type SQLCatalog struct {
	db *DB
}

func NewSQLCatalog(db *DB) *SQLCatalog {
	return &SQLCatalog{db: db}
}

func (c *SQLCatalog) Close() error {
	return c.db.Close()
}
