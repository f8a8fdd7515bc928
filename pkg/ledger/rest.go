package ledger

import (
	"context"
	"fmt"
	"time"

	supabase "github.com/supabase-community/supabase-go"

	"sitewatch/pkg/domain"
)

// filedRow is the JSON shape of a ledger row exchanged with PostgREST
type filedRow struct {
	LogKey   string    `json:"log_key"`
	Source   string    `json:"source"`
	IssueURL string    `json:"issue_url"`
	FiledAt  time.Time `json:"filed_at"`
}

// REST stores filed issues through the Supabase REST API. The table must already exist.
type REST struct {
	client *supabase.Client
	table  string
}

// NewREST creates a REST ledger over the given table
func NewREST(client *supabase.Client, table string) *REST {
	if table == "" {
		table = DefaultTable
	}
	return &REST{client: client, table: table}
}

// HasFiled reports whether logKey has a recorded issue
func (l *REST) HasFiled(_ context.Context, logKey string) (bool, error) {
	var rows []filedRow
	_, err := l.client.From(l.table).
		Select("log_key", "", false).
		Eq("log_key", logKey).
		ExecuteTo(&rows)
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", logKey, err)
	}
	return len(rows) > 0, nil
}

// RecordFiled inserts rec
func (l *REST) RecordFiled(_ context.Context, rec domain.FiledIssue) error {
	row := filedRow{
		LogKey:   rec.LogKey,
		Source:   rec.Source,
		IssueURL: rec.IssueURL,
		FiledAt:  rec.FiledAt.UTC(),
	}
	if _, _, err := l.client.From(l.table).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("failed to record %s: %w", rec.LogKey, err)
	}
	return nil
}

func (l *REST) Close(context.Context) error { return nil }
