package mongodb

import (
	// Go Internal Packages
	"context"
	"time"

	// External Packages
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect connects to the mongodb server and returns the client.
func Connect(ctx context.Context, uri, appName string) (*mongo.Client, error) {
	// Set the server selection timeout to 5 seconds.
	timeout := time.Second * 5
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout).SetAppName(appName)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	// Ping the MongoDB server to verify the connection.
	pingErr := client.Ping(ctx, nil)
	if pingErr != nil {
		return nil, pingErr
	}
	return client, nil
}

// EnsureTransactionIndexes creates the lookup indexes the transaction store relies on.
func EnsureTransactionIndexes(ctx context.Context, client *mongo.Client, database string) error {
	collection := client.Database(database).Collection(transactionsCollection)
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "txn_id", Value: 1}}},
		{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "created_on", Value: -1}}},
		{Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "created_on", Value: -1}}},
		{Keys: bson.D{{Key: "created_on", Value: -1}}},
		{Keys: bson.D{{Key: "txn_status", Value: 1}, {Key: "created_on", Value: 1}}},
	})
	return err
}
