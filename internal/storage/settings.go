package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gamebooks/internal/domain"
)

func (c *SQLCatalog) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := c.db.conn.QueryRowContext(ctx, c.db.rebind(
		`SELECT value FROM app_settings WHERE setting_key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

func (c *SQLCatalog) SetSetting(ctx context.Context, key, value string) error {
	return c.setSetting(ctx, c.db.conn, key, value)
}

func (c *SQLCatalog) setSetting(ctx context.Context, q execer, key, value string) error {
	query := `INSERT INTO app_settings (setting_key, value) VALUES (?, ?)
		 ON CONFLICT(setting_key) DO UPDATE SET value = excluded.value`
	if c.db.driver == DriverMySQL {
		query = `INSERT INTO app_settings (setting_key, value) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE value = VALUES(value)`
	}
	if _, err := c.db.exec(ctx, q, query, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
