package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteClient_Connect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	c := NewSQLiteClient(path)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	var one int
	require.NoError(t, c.DB().QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
	assert.FileExists(t, path)
}

func TestSQLiteClient_RequiresPath(t *testing.T) {
	assert.Error(t, NewSQLiteClient("").Connect(context.Background()))
}

func TestPostgresClient_RequiresDSN(t *testing.T) {
	assert.Error(t, NewPostgresClient(PostgresConfig{}).Connect(context.Background()))
	assert.NoError(t, NewPostgresClient(PostgresConfig{}).Close())
}
