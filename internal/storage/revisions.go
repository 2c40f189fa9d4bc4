package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gamebooks/internal/domain"
)

// PushRevision stores a document checkpoint and prunes the oldest revisions
// of the book once there are more than keep.
func (c *SQLCatalog) PushRevision(ctx context.Context, rev domain.Revision, keep int) error {
	_, err := c.db.exec(ctx, c.db.conn,
		`INSERT INTO revisions (id, book_id, label, document, created_at) VALUES (?, ?, ?, ?, ?)`,
		rev.ID, rev.BookID, rev.Label, rev.Document, rev.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	if keep > 0 {
		return c.pruneRevisions(ctx, rev.BookID, keep)
	}
	return nil
}

func (c *SQLCatalog) pruneRevisions(ctx context.Context, bookID string, keep int) error {
	// Collect ids first and close the cursor before deleting (single sqlite conn).
	rows, err := c.db.conn.QueryContext(ctx, c.db.rebind(
		`SELECT id FROM revisions WHERE book_id = ? ORDER BY created_at DESC, id DESC`), bookID)
	if err != nil {
		return fmt.Errorf("list revisions: %w", err)
	}
	var stale []string
	for n := 0; rows.Next(); n++ {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan revision: %w", err)
		}
		if n >= keep {
			stale = append(stale, id)
		}
	}
	rows.Close()

	for _, id := range stale {
		if _, err := c.db.exec(ctx, c.db.conn, `DELETE FROM revisions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("prune revision %s: %w", id, err)
		}
	}
	return nil
}

func (c *SQLCatalog) ListRevisions(ctx context.Context, bookID string) ([]domain.Revision, error) {
	rows, err := c.db.conn.QueryContext(ctx, c.db.rebind(
		`SELECT id, book_id, label, created_at FROM revisions WHERE book_id = ? ORDER BY created_at DESC, id DESC`), bookID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	revs := []domain.Revision{}
	for rows.Next() {
		var r domain.Revision
		var created int64
		if err := rows.Scan(&r.ID, &r.BookID, &r.Label, &created); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		r.CreatedAt = time.UnixMilli(created)
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

func (c *SQLCatalog) GetRevision(ctx context.Context, bookID, revisionID string) (domain.Revision, error) {
	var r domain.Revision
	var created int64
	err := c.db.conn.QueryRowContext(ctx, c.db.rebind(
		`SELECT id, book_id, label, document, created_at FROM revisions WHERE book_id = ? AND id = ?`), bookID, revisionID,
	).Scan(&r.ID, &r.BookID, &r.Label, &r.Document, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Revision{}, fmt.Errorf("get revision %s: %w", revisionID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Revision{}, fmt.Errorf("get revision %s: %w", revisionID, err)
	}
	r.CreatedAt = time.UnixMilli(created)
	return r, nil
}

func (c *SQLCatalog) DeleteBookRevisions(ctx context.Context, bookID string) error {
	if _, err := c.db.exec(ctx, c.db.conn, `DELETE FROM revisions WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("delete revisions: %w", err)
	}
	return nil
}
