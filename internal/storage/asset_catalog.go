package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gamebooks/internal/domain"
)

const assetColumns = `id, name, category, type, filename, creation_date`

func scanAsset(row interface{ Scan(...any) error }) (domain.Asset, error) {
	var a domain.Asset
	var typ string
	if err := row.Scan(&a.ID, &a.Name, &a.Category, &typ, &a.Filename, &a.CreationDate); err != nil {
		return domain.Asset{}, err
	}
	a.Type = domain.AssetType(typ)
	return a, nil
}

func (c *SQLCatalog) ListAssets(ctx context.Context, bookID string) ([]domain.Asset, error) {
	rows, err := c.db.conn.QueryContext(ctx, c.db.rebind(
		`SELECT `+assetColumns+` FROM book_assets WHERE book_id = ? ORDER BY sort_order ASC`), bookID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	assets := []domain.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (c *SQLCatalog) GetAsset(ctx context.Context, bookID, assetID string) (domain.Asset, error) {
	row := c.db.conn.QueryRowContext(ctx, c.db.rebind(
		`SELECT `+assetColumns+` FROM book_assets WHERE book_id = ? AND id = ?`), bookID, assetID)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Asset{}, fmt.Errorf("get asset %s: %w", assetID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Asset{}, fmt.Errorf("get asset %s: %w", assetID, err)
	}
	return a, nil
}

func (c *SQLCatalog) InsertAsset(ctx context.Context, bookID string, a domain.Asset) error {
	_, err := c.db.exec(ctx, c.db.conn,
		`INSERT INTO book_assets (id, book_id, name, category, type, filename, creation_date, sort_order) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, bookID, a.Name, a.Category, string(a.Type), a.Filename, a.CreationDate, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (c *SQLCatalog) UpdateAsset(ctx context.Context, bookID string, a domain.Asset) error {
	_, err := c.db.exec(ctx, c.db.conn,
		`UPDATE book_assets SET name = ?, category = ? WHERE book_id = ? AND id = ?`,
		a.Name, a.Category, bookID, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update asset %s: %w", a.ID, err)
	}
	return nil
}

func (c *SQLCatalog) DeleteAsset(ctx context.Context, bookID, assetID string) error {
	res, err := c.db.exec(ctx, c.db.conn, `DELETE FROM book_assets WHERE book_id = ? AND id = ?`, bookID, assetID)
	if err != nil {
		return fmt.Errorf("delete asset %s: %w", assetID, err)
	}
	return requireAffected(res, "delete asset "+assetID)
}

func (c *SQLCatalog) DeleteBookAssets(ctx context.Context, bookID string) error {
	if _, err := c.db.exec(ctx, c.db.conn, `DELETE FROM book_assets WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("delete book assets: %w", err)
	}
	return nil
}

// requireAffected turns "no row matched" into domain.ErrNotFound.
func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil || n > 0 {
		return nil
	}
	return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
}
