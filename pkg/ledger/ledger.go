// Package ledger records which delta logs have already been filed as issues.
package ledger

import (
	"context"
	"fmt"

	"sitewatch/pkg/config"
	"sitewatch/pkg/db"
	"sitewatch/pkg/domain"
)

// DefaultTable is used when no collection name is configured
const DefaultTable = "filed_logs"

// Ledger is a record of filed delta logs keyed by log file name
type Ledger interface {
	HasFiled(ctx context.Context, logKey string) (bool, error)
	RecordFiled(ctx context.Context, rec domain.FiledIssue) error
	Close(ctx context.Context) error
}

// Open connects the configured backend. The "none" backend never reports a log as filed.
func Open(ctx context.Context, cfg config.LedgerConfig) (Ledger, error) {
	table := cfg.Collection
	if table == "" {
		table = DefaultTable
	}

	switch cfg.Backend {
	case "", config.LedgerNone:
		return Noop{}, nil

	case config.LedgerSQLite:
		client := db.NewSQLiteClient(cfg.Path)
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to open sqlite ledger: %w", err)
		}
		return newClosingSQL(ctx, client, SQLite, table, client.Close)

	case config.LedgerPostgres:
		client := db.NewPostgresClient(db.PostgresConfig{DSN: cfg.DSN})
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to open postgres ledger: %w", err)
		}
		return newClosingSQL(ctx, client, Postgres, table, client.Close)

	case config.LedgerSupabase:
		client := db.NewSupabaseClient(db.SupabaseConfig{
			ConnectionString: cfg.DSN,
			SupabaseURL:      cfg.SupabaseURL,
			SupabaseKey:      cfg.SupabaseKey,
			Password:         cfg.Password,
		})
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to open supabase ledger: %w", err)
		}
		if client.HasDirectDB() {
			return newClosingSQL(ctx, client, Postgres, table, client.Close)
		}
		return NewREST(client.SDK(), table), nil

	case config.LedgerMongo:
		client, err := db.NewMongoClient(cfg.MongoURI, cfg.Database, table)
		if err != nil {
			return nil, err
		}
		if err := client.Connect(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("failed to open mongo ledger: %w", err)
		}
		return NewMongo(client), nil

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidLedger, cfg.Backend)
	}
}

// newClosingSQL builds a SQL ledger that closes its client, or closes it right away on failure
func newClosingSQL(ctx context.Context, handle db.DBProvider, dialect Dialect, table string, closeFn func() error) (Ledger, error) {
	l, err := NewSQL(ctx, handle, dialect, table)
	if err != nil {
		_ = closeFn()
		return nil, err
	}
	l.closeFn = closeFn
	return l, nil
}

// Noop is the ledger used when none is configured
type Noop struct{}

func (Noop) HasFiled(context.Context, string) (bool, error) { return false, nil }

func (Noop) RecordFiled(context.Context, domain.FiledIssue) error { return nil }

func (Noop) Close(context.Context) error { return nil }
