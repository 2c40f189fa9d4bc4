// Package workspace opens the catalog and host storage described by a
// configuration and builds the services every front end shares: the desktop
// app, the MCP server and gbctl.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gamebooks/internal/config"
	"gamebooks/internal/secret"
	"gamebooks/internal/service"
	"gamebooks/internal/storage"
)

type Workspace struct {
	Config      *config.Config
	Catalog     storage.Catalog
	Host        *storage.Host
	Library     *service.LibraryService
	Books       *service.BookService
	Checkpoints *service.CheckpointService
	Settings    *service.SettingsService
}

// Open connects to the catalog and wires the services. secrets may be nil
// when the catalog needs no password. The library index is not loaded; call
// Library.InitializeLibrary.
func Open(ctx context.Context, cfg *config.Config, emitter service.EventEmitter, secrets secret.SecretStore) (*Workspace, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	password := ""
	if cfg.Catalog.KeychainAccount != "" {
		if secrets == nil {
			return nil, fmt.Errorf("catalog.keychain_account set but no secret store available")
		}
		var err error
		if password, err = secret.Password(secrets, cfg.Catalog.KeychainAccount); err != nil {
			return nil, fmt.Errorf("catalog password: %w", err)
		}
	}

	catalog, err := storage.OpenCatalog(ctx, storage.CatalogConfig{
		Driver:   cfg.Catalog.Driver,
		DSN:      cfg.Catalog.DSN,
		Database: cfg.Catalog.Database,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	log.Printf("workspace: %s catalog, data in %s", cfg.Catalog.Driver, cfg.DataDir)

	host := storage.NewHost(cfg.DataDir, catalog)
	books := service.NewBookService(host, emitter, service.BookOptions{
		SaveDelay:     cfg.SaveDelay(),
		ViewportDelay: cfg.ViewportDelay(),
		Revisions:     catalog,
	})

	return &Workspace{
		Config:      cfg,
		Catalog:     catalog,
		Host:        host,
		Library:     service.NewLibraryService(host, emitter),
		Books:       books,
		Checkpoints: service.NewCheckpointService(books, catalog, emitter, cfg.Revisions.Schedule, cfg.Revisions.Max),
		Settings:    service.NewSettingsService(catalog),
	}, nil
}

// Close stops the checkpoint schedule, writes pending changes of the open
// book and closes the catalog.
func (w *Workspace) Close(ctx context.Context) error {
	w.Checkpoints.Stop()
	flushErr := w.Books.Flush(ctx)
	if flushErr != nil {
		log.Printf("workspace: flush on close: %v", flushErr)
	}
	return errors.Join(flushErr, w.Catalog.Close())
}
