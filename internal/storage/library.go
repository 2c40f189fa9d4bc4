package storage

import (
	"context"
	"errors"
	"fmt"

	"gamebooks/internal/domain"
)

const settingLibrarySaved = "library_saved"

func (c *SQLCatalog) LoadLibrary(ctx context.Context) ([]domain.LibraryEntry, error) {
	if _, err := c.GetSetting(ctx, settingLibrarySaved); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("load library: %w", domain.ErrNotFound)
		}
		return nil, err
	}

	rows, err := c.db.conn.QueryContext(ctx, c.db.rebind(
		`SELECT id, name, description, json_file, image FROM library_entries ORDER BY sort_order ASC`,
	))
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	defer rows.Close()

	entries := []domain.LibraryEntry{}
	for rows.Next() {
		var e domain.LibraryEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.JSONFile, &e.Image); err != nil {
			return nil, fmt.Errorf("scan library entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveLibrary replaces the whole index in one transaction, keeping order.
func (c *SQLCatalog) SaveLibrary(ctx context.Context, entries []domain.LibraryEntry) error {
	tx, err := c.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := c.db.exec(ctx, tx, `DELETE FROM library_entries`); err != nil {
		return fmt.Errorf("clear library: %w", err)
	}
	for i, e := range entries {
		_, err := c.db.exec(ctx, tx,
			`INSERT INTO library_entries (id, name, description, json_file, image, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.Name, e.Description, e.JSONFile, e.Image, i,
		)
		if err != nil {
			return fmt.Errorf("insert library entry %s: %w", e.ID, err)
		}
	}
	if err := c.setSetting(ctx, tx, settingLibrarySaved, "1"); err != nil {
		return err
	}
	return tx.Commit()
}
