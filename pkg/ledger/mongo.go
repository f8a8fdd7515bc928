package ledger

import (
	"context"

	"sitewatch/pkg/db"
	"sitewatch/pkg/domain"
)

// Mongo stores filed issues in a MongoDB collection
type Mongo struct {
	client *db.MongoClient
}

func NewMongo(client *db.MongoClient) *Mongo {
	return &Mongo{client: client}
}

func (l *Mongo) HasFiled(ctx context.Context, logKey string) (bool, error) {
	return l.client.HasFiledIssue(ctx, logKey)
}

func (l *Mongo) RecordFiled(ctx context.Context, rec domain.FiledIssue) error {
	return l.client.SaveFiledIssue(ctx, rec)
}

func (l *Mongo) Close(ctx context.Context) error {
	return l.client.Close(ctx)
}
