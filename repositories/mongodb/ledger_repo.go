package mongodb

import (
	// Go Internal Packages
	"context"
	"fmt"
	"strings"
	"time"

	// Local Packages
	errors "e-wallet/errors"
	models "e-wallet/models"

	// External Packages
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mutationsCollection = "ledger_mutations"

// LedgerRepository stores the accounts of one ledger kind, one document per owner.
// Every balance change inserts its mutation and updates the account in one multi-document
// transaction, so the server must run as a replica set.
type LedgerRepository struct {
	client     *mongo.Client
	database   string
	kind       models.LedgerKind
	collection string
}

func NewLedgerRepository(client *mongo.Client, database string, kind models.LedgerKind) *LedgerRepository {
	return &LedgerRepository{
		client:     client,
		database:   database,
		kind:       kind,
		collection: strings.ToLower(string(kind)) + "s",
	}
}

func (r *LedgerRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

func (r *LedgerRepository) mutations() *mongo.Collection {
	return r.client.Database(r.database).Collection(mutationsCollection)
}

// CreateAccount inserts acc if the owner has no account yet and reports whether it did.
func (r *LedgerRepository) CreateAccount(ctx context.Context, acc models.Account) (bool, error) {
	doc := bson.M{
		"account_number": acc.AccountNumber,
		"user_name":      acc.UserName,
		"kind":           string(acc.Kind),
		"balance":        toDecimal128(acc.Balance),
		"currency":       acc.Currency,
		"created_at":     acc.CreatedAt,
		"updated_at":     acc.UpdatedAt,
	}
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": acc.PhoneNumber},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create account: %w", err)
	}
	return res.UpsertedCount > 0, nil
}

// FindAccount looks up the account owned by phone.
func (r *LedgerRepository) FindAccount(ctx context.Context, owner string) (models.Account, error) {
	var doc MongoAccount
	err := r.coll().FindOne(ctx, bson.M{"_id": owner}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Account{}, errors.Wrap(errors.ErrAccountNotFound, "owner %s", owner)
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to find account: %w", err)
	}
	return doc.Transform(), nil
}

// Debit subtracts amount when the balance covers it and key was never used.
func (r *LedgerRepository) Debit(ctx context.Context, owner string, amount decimal.Decimal, key string) (models.Account, error) {
	filter := bson.M{
		"_id":     owner,
		"balance": bson.M{"$gte": toDecimal128(amount)},
	}
	return r.apply(ctx, filter, owner, amount.Neg(), key)
}

// Credit adds amount unless key was already used.
func (r *LedgerRepository) Credit(ctx context.Context, owner string, amount decimal.Decimal, key string) (models.Account, error) {
	return r.apply(ctx, bson.M{"_id": owner}, owner, amount, key)
}

func (r *LedgerRepository) apply(ctx context.Context, filter bson.M, owner string, delta decimal.Decimal, key string) (models.Account, error) {
	now := time.Now().UTC()
	mutation := NewMongoMutation(r.kind, models.Mutation{Owner: owner, Key: key, Amount: delta.Abs(), CreatedAt: now})
	update := bson.M{
		"$inc": bson.M{"balance": toDecimal128(delta)},
		"$set": bson.M{"updated_at": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	session, err := r.client.StartSession()
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	res, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		if _, err := r.mutations().InsertOne(sc, mutation); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, errors.Wrap(errors.ErrDuplicateDelivery, "mutation %s", key)
			}
			return nil, fmt.Errorf("failed to record mutation %s: %w", key, err)
		}

		var doc MongoAccount
		err := r.coll().FindOneAndUpdate(sc, filter, update, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.classify(sc, owner)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update balance: %w", err)
		}
		return doc.Transform(), nil
	})
	if err != nil {
		return models.Account{}, err
	}
	return res.(models.Account), nil
}

// classify explains why a conditional update matched nothing.
func (r *LedgerRepository) classify(ctx context.Context, owner string) error {
	acc, err := r.FindAccount(ctx, owner)
	if err != nil {
		return err
	}
	return errors.Wrap(errors.ErrInsufficientFunds, "owner %s has %s", owner, acc.Balance)
}

// Reject refuses key for owner unless something is recorded under it already, and
// returns whatever the key holds afterwards. owner needs no account.
func (r *LedgerRepository) Reject(ctx context.Context, owner, key, message string) (models.Mutation, error) {
	m := models.Mutation{Owner: owner, Key: key, Amount: decimal.Zero, Rejected: true, Message: message, CreatedAt: time.Now().UTC()}
	_, err := r.mutations().InsertOne(ctx, NewMongoMutation(r.kind, m))
	if err == nil {
		return m, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return models.Mutation{}, fmt.Errorf("failed to reject mutation %s: %w", key, err)
	}
	stored, _, err := r.Mutation(ctx, owner, key)
	return stored, err
}

// Mutation returns what was recorded under key for owner, if anything.
func (r *LedgerRepository) Mutation(ctx context.Context, owner, key string) (models.Mutation, bool, error) {
	var doc MongoMutation
	err := r.mutations().FindOne(ctx, bson.M{"_id": mutationID(r.kind, owner, key)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Mutation{}, false, nil
	}
	if err != nil {
		return models.Mutation{}, false, fmt.Errorf("failed to read mutation %s: %w", key, err)
	}
	return doc.Transform(), true, nil
}
