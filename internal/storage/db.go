package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Catalog drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongodb"
)

// DB wraps a SQL catalog connection and the dialect quirks of its driver.
type DB struct {
	conn   *sql.DB
	driver string
}

// New opens (or creates) the SQLite catalog at dbPath.
func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return Open(context.Background(), DriverSQLite, dbPath)
}

// Open connects to a SQL catalog and migrates it. For sqlite dsn is a file path.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	case DriverMySQL:
		if !strings.Contains(dsn, "?") {
			dsn += "?parseTime=true&charset=utf8mb4"
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite only supports one writer
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	db := &DB{conn: conn, driver: driver}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Driver() string {
	return db.driver
}

// rebind rewrites ? placeholders for drivers that number them.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) exec(ctx context.Context, q execer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, db.rebind(query), args...)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ddl fills the column type placeholders of a migration for the dialect.
func (db *DB) ddl(stmt string) string {
	key, blob := "TEXT", "BLOB"
	switch db.driver {
	case DriverMySQL:
		key, blob = "VARCHAR(191)", "LONGBLOB"
		// MySQL has no IF NOT EXISTS for indexes; duplicates are ignored below.
		stmt = strings.Replace(stmt, "CREATE INDEX IF NOT EXISTS", "CREATE INDEX", 1)
	case DriverPostgres:
		blob = "BYTEA"
	}
	return strings.NewReplacer("{{key}}", key, "{{blob}}", blob).Replace(stmt)
}

func (db *DB) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS library_entries (
			id {{key}} PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			json_file TEXT NOT NULL,
			image TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS book_assets (
			id {{key}} PRIMARY KEY,
			book_id {{key}} NOT NULL,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			type TEXT NOT NULL,
			filename TEXT NOT NULL,
			creation_date TEXT NOT NULL,
			sort_order BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_book_assets_book ON book_assets(book_id)`,
		`CREATE TABLE IF NOT EXISTS revisions (
			id {{key}} PRIMARY KEY,
			book_id {{key}} NOT NULL,
			label TEXT NOT NULL,
			document {{blob}} NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_revisions_book ON revisions(book_id)`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			setting_key {{key}} PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.ExecContext(ctx, db.ddl(m)); err != nil {
			if db.driver == DriverMySQL && strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", strings.TrimSpace(m)[:40], err)
		}
	}
	return nil
}
