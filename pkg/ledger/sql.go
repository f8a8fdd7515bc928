package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sitewatch/pkg/db"
	"sitewatch/pkg/domain"
)

// Dialect selects placeholder and column type syntax
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// SQL stores filed issues in a relational table
type SQL struct {
	db      *sql.DB
	dialect Dialect
	table   string
	closeFn func() error
}

// NewSQL ensures the ledger table exists on the provider's database
func NewSQL(ctx context.Context, provider db.DBProvider, dialect Dialect, table string) (*SQL, error) {
	if provider == nil || provider.DB() == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if table == "" {
		table = DefaultTable
	}

	l := &SQL{db: provider.DB(), dialect: dialect, table: table}
	if err := l.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *SQL) ensureSchema(ctx context.Context) error {
	timeType := "TIMESTAMPTZ"
	if l.dialect == SQLite {
		timeType = "TIMESTAMP"
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	log_key   TEXT PRIMARY KEY,
	source    TEXT NOT NULL,
	issue_url TEXT NOT NULL,
	filed_at  %s NOT NULL
)`, l.table, timeType)

	if _, err := l.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure %s schema: %w", l.table, err)
	}
	return nil
}

// placeholder returns the n-th (1-based) bind parameter marker
func (l *SQL) placeholder(n int) string {
	if l.dialect == SQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

// HasFiled reports whether logKey has a recorded issue
func (l *SQL) HasFiled(ctx context.Context, logKey string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE log_key = %s", l.table, l.placeholder(1))

	var one int
	err := l.db.QueryRowContext(ctx, query, logKey).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", logKey, err)
	}
	return true, nil
}

// RecordFiled inserts rec; an existing row for the same log key is kept
func (l *SQL) RecordFiled(ctx context.Context, rec domain.FiledIssue) error {
	query := fmt.Sprintf(`
INSERT INTO %s (log_key, source, issue_url, filed_at)
VALUES (%s, %s, %s, %s)
ON CONFLICT (log_key) DO NOTHING`,
		l.table, l.placeholder(1), l.placeholder(2), l.placeholder(3), l.placeholder(4))

	if _, err := l.db.ExecContext(ctx, query, rec.LogKey, rec.Source, rec.IssueURL, rec.FiledAt.UTC()); err != nil {
		return fmt.Errorf("failed to record %s: %w", rec.LogKey, err)
	}
	return nil
}

// Close releases the underlying client when the ledger owns it
func (l *SQL) Close(context.Context) error {
	if l.closeFn == nil {
		return nil
	}
	return l.closeFn()
}
