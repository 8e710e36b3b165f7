package mongodb

import (
	// Go Internal Packages
	"time"

	// Local Packages
	models "e-wallet/models"

	// External Packages
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MongoAccount struct {
	PhoneNumber   string               `bson:"_id"`
	AccountNumber string               `bson:"account_number"`
	UserName      string               `bson:"user_name"`
	Kind          string               `bson:"kind"`
	Balance       primitive.Decimal128 `bson:"balance"`
	Currency      string               `bson:"currency"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

func (a *MongoAccount) Transform() models.Account {
	return models.Account{
		PhoneNumber:   a.PhoneNumber,
		AccountNumber: a.AccountNumber,
		UserName:      a.UserName,
		Kind:          models.LedgerKind(a.Kind),
		Balance:       fromDecimal128(a.Balance),
		Currency:      a.Currency,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// MongoMutation is one entry of the mutation collection shared by both ledgers. The id
// joins ledger kind, owner and idempotency key, which makes a key usable once per owner.
type MongoMutation struct {
	ID        string               `bson:"_id"`
	Kind      string               `bson:"kind"`
	Owner     string               `bson:"owner"`
	Key       string               `bson:"key"`
	Amount    primitive.Decimal128 `bson:"amount"`
	Rejected  bool                 `bson:"rejected"`
	Message   string               `bson:"message,omitempty"`
	CreatedAt time.Time            `bson:"created_at"`
}

func mutationID(kind models.LedgerKind, owner, key string) string {
	return string(kind) + ":" + owner + ":" + key
}

func NewMongoMutation(kind models.LedgerKind, m models.Mutation) MongoMutation {
	return MongoMutation{
		ID:        mutationID(kind, m.Owner, m.Key),
		Kind:      string(kind),
		Owner:     m.Owner,
		Key:       m.Key,
		Amount:    toDecimal128(m.Amount),
		Rejected:  m.Rejected,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}

func (m *MongoMutation) Transform() models.Mutation {
	return models.Mutation{
		Owner:     m.Owner,
		Key:       m.Key,
		Amount:    fromDecimal128(m.Amount),
		Rejected:  m.Rejected,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}

type MongoTransaction struct {
	RecordID          string               `bson:"_id"`
	TxnID             string               `bson:"txn_id"`
	Sender            string               `bson:"sender"`
	Receiver          string               `bson:"receiver"`
	Amount            primitive.Decimal128 `bson:"amount"`
	DebitedAmount     primitive.Decimal128 `bson:"debited_amount"`
	FromCurrency      string               `bson:"from_currency"`
	ToCurrency        string               `bson:"to_currency"`
	TransactionMethod string               `bson:"transaction_method"`
	TransactionType   string               `bson:"transaction_type"`
	TxnStatus         string               `bson:"txn_status"`
	Failure           string               `bson:"failure,omitempty"`
	Message           string               `bson:"message"`
	CreatedOn         time.Time            `bson:"created_on"`
	UpdatedOn         time.Time            `bson:"updated_on"`
}

func NewMongoTransaction(tx models.Transaction) MongoTransaction {
	return MongoTransaction{
		RecordID:          tx.RecordID,
		TxnID:             tx.TxnID,
		Sender:            tx.Sender,
		Receiver:          tx.Receiver,
		Amount:            toDecimal128(tx.Amount),
		DebitedAmount:     toDecimal128(tx.DebitedAmount),
		FromCurrency:      tx.FromCurrency,
		ToCurrency:        tx.ToCurrency,
		TransactionMethod: string(tx.TransactionMethod),
		TransactionType:   string(tx.TransactionType),
		TxnStatus:         string(tx.TxnStatus),
		Failure:           string(tx.Failure),
		Message:           tx.Message,
		CreatedOn:         tx.CreatedOn,
		UpdatedOn:         tx.UpdatedOn,
	}
}

func (t *MongoTransaction) Transform() models.Transaction {
	return models.Transaction{
		RecordID:          t.RecordID,
		TxnID:             t.TxnID,
		Sender:            t.Sender,
		Receiver:          t.Receiver,
		Amount:            fromDecimal128(t.Amount),
		DebitedAmount:     fromDecimal128(t.DebitedAmount),
		FromCurrency:      t.FromCurrency,
		ToCurrency:        t.ToCurrency,
		TransactionMethod: models.TransactionMethod(t.TransactionMethod),
		TransactionType:   models.TransactionType(t.TransactionType),
		TxnStatus:         models.TxnStatus(t.TxnStatus),
		Failure:           models.Failure(t.Failure),
		Message:           t.Message,
		CreatedOn:         t.CreatedOn,
		UpdatedOn:         t.UpdatedOn,
	}
}

// toDecimal128 cannot fail for values produced by decimal.Decimal.String.
func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
