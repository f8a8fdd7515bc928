package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sitewatch/pkg/domain"
)

// MongoClient wraps the MongoDB client and the collection filed issues are recorded in
type MongoClient struct {
	mongoClient *mongo.Client
	collection  *mongo.Collection
}

// NewMongoClient creates a client for databaseName.collectionName. Call Connect before use.
func NewMongoClient(connectionString, databaseName, collectionName string) (*MongoClient, error) {
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	return &MongoClient{
		mongoClient: mongoClient,
		collection:  mongoClient.Database(databaseName).Collection(collectionName),
	}, nil
}

// Connect verifies connectivity and ensures log keys are unique
func (c *MongoClient) Connect(ctx context.Context) error {
	if err := c.mongoClient.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping mongo: %w", err)
	}

	_, err := c.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "log_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create log_key index: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection
func (c *MongoClient) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// HasFiledIssue reports whether an issue was already recorded for the log key
func (c *MongoClient) HasFiledIssue(ctx context.Context, logKey string) (bool, error) {
	err := c.collection.FindOne(ctx, bson.M{"log_key": logKey}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query filed issue: %w", err)
	}
	return true, nil
}

// SaveFiledIssue records a filed issue; an existing record for the same key is kept
func (c *MongoClient) SaveFiledIssue(ctx context.Context, rec domain.FiledIssue) error {
	filter := bson.M{"log_key": rec.LogKey}
	update := bson.M{"$setOnInsert": rec}
	opts := options.Update().SetUpsert(true)

	if _, err := c.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save filed issue: %w", err)
	}
	return nil
}
