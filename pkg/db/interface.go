package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBProvider is an interface for database clients that provide access to a sql.DB handle.
// PostgresClient, SupabaseClient and SQLiteClient can be used interchangeably through it.
type DBProvider interface {
	DB() *sql.DB
}

// PoolConfig holds the optional connection pool tuning knobs
type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxIdle  time.Duration
	ConnMaxLife  time.Duration
}

// apply sets every non-zero knob on db
func (p PoolConfig) apply(db *sql.DB) {
	if p.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.MaxOpenConns)
	}
	if p.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.MaxIdleConns)
	}
	if p.ConnMaxIdle > 0 {
		db.SetConnMaxIdleTime(p.ConnMaxIdle)
	}
	if p.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(p.ConnMaxLife)
	}
}

// openPool opens a database/sql pool and verifies it with a ping
func openPool(ctx context.Context, driver, dsn string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	pool.apply(db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	return db, nil
}
