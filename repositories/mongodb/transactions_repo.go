package mongodb

import (
	// Go Internal Packages
	"context"
	"fmt"
	"time"

	// Local Packages
	errors "e-wallet/errors"
	models "e-wallet/models"

	// External Packages
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const transactionsCollection = "transactions"

type TxRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

func NewTxRepository(client *mongo.Client, database string) *TxRepository {
	return &TxRepository{client: client, database: database, collection: transactionsCollection}
}

func (r *TxRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// InsertTransaction inserts a single transaction leg into database
func (r *TxRepository) InsertTransaction(ctx context.Context, tx models.Transaction) error {
	_, err := r.coll().InsertOne(ctx, NewMongoTransaction(tx))
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrap(errors.ErrDuplicateDelivery, "record %s", tx.RecordID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// FindTransaction returns the DEBIT leg of txnID.
func (r *TxRepository) FindTransaction(ctx context.Context, txnID string) (models.Transaction, error) {
	var doc MongoTransaction
	filter := bson.M{"_id": txnID, "transaction_type": string(models.Debit)}
	err := r.coll().FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Transaction{}, errors.Wrap(errors.ErrTxnNotFound, "txn %s", txnID)
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to find transaction: %w", err)
	}
	return doc.Transform(), nil
}

// ResolveTransaction sets the terminal status of a PENDING DEBIT leg. The status filter
// makes the first writer win; later writers get false.
func (r *TxRepository) ResolveTransaction(ctx context.Context, txnID string, status models.TxnStatus, failure models.Failure, message string) (bool, error) {
	filter := bson.M{
		"_id":              txnID,
		"transaction_type": string(models.Debit),
		"txn_status":       string(models.Pending),
	}
	update := bson.M{"$set": bson.M{
		"txn_status": string(status),
		"failure":    string(failure),
		"message":    message,
		"updated_on": time.Now().UTC(),
	}}
	res, err := r.coll().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to resolve transaction: %w", err)
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}
	if _, err := r.FindTransaction(ctx, txnID); err != nil {
		return false, err
	}
	return false, nil
}

// ListTransactions returns the legs that touched party's balance, newest first.
func (r *TxRepository) ListTransactions(ctx context.Context, party string) ([]models.Transaction, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender": party, "transaction_type": string(models.Debit)},
		bson.M{"receiver": party, "transaction_type": string(models.Credit)},
	}}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_on", Value: -1}}))
}

// ListAllTransactions returns the newest legs of every party, at most limit of them.
func (r *TxRepository) ListAllTransactions(ctx context.Context, limit int64) ([]models.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_on", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, bson.M{}, opts)
}

// ListPendingTransactions returns the oldest PENDING DEBIT legs created before before.
func (r *TxRepository) ListPendingTransactions(ctx context.Context, before time.Time, limit int64) ([]models.Transaction, error) {
	filter := bson.M{
		"transaction_type": string(models.Debit),
		"txn_status":       string(models.Pending),
		"created_on":       bson.M{"$lt": before},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_on", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, filter, opts)
}

func (r *TxRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Transaction, error) {
	cursor, err := r.coll().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []MongoTransaction
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	out := make([]models.Transaction, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].Transform())
	}
	return out, nil
}
