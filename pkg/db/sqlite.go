package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteClient wraps a local SQLite database file opened with the pure-Go driver.
type SQLiteClient struct {
	db   *sql.DB
	path string
}

// NewSQLiteClient constructs a client for the database file at path.
func NewSQLiteClient(path string) *SQLiteClient {
	return &SQLiteClient{path: path}
}

// Connect creates the parent directory if needed and opens the database.
func (c *SQLiteClient) Connect(ctx context.Context) error {
	if c.path == "" {
		return fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create sqlite dir: %w", err)
		}
	}

	// a single connection serialises writers
	db, err := openPool(ctx, "sqlite", c.path+"?_pragma=busy_timeout(5000)", PoolConfig{MaxOpenConns: 1})
	if err != nil {
		return err
	}
	c.db = db
	return nil
}

// Close closes the database.
func (c *SQLiteClient) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB exposes the underlying handle.
func (c *SQLiteClient) DB() *sql.DB {
	return c.db
}
