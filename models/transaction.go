package models

import (
	// Go Internal Packages
	"time"

	// External Packages
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionMethod string

const (
	BankToPerson   TransactionMethod = "BANK_TO_PERSON"
	BankToWallet   TransactionMethod = "BANK_TO_WALLET"
	WalletToPerson TransactionMethod = "WALLET_TO_PERSON"
)

type TransactionType string

const (
	Debit  TransactionType = "DEBIT"
	Credit TransactionType = "CREDIT"
)

type TxnStatus string

const (
	Pending    TxnStatus = "PENDING"
	Successful TxnStatus = "SUCCESSFUL"
	Failed     TxnStatus = "FAILED"
)

// Terminal reports whether no further transition may happen from s.
func (s TxnStatus) Terminal() bool {
	return s == Successful || s == Failed
}

// Failure sub-classifies a FAILED transaction and decides whether compensation runs.
type Failure string

const (
	NoFailure Failure = ""
	// PreCheck failures happen before any ledger mutation.
	PreCheck Failure = "PRECHECK"
	// PostDebit failures happen after the sender was debited and require a credit-back.
	PostDebit Failure = "POSTDEBIT"
)

// Leg names the ledger mutation an event or idempotency key belongs to.
type Leg string

const (
	DebitLeg  Leg = "DEBIT"
	CreditLeg Leg = "CREDIT"
	RefundLeg Leg = "REFUND"
	// TopUpLeg keys a deposit made through the API; its id is the caller's reference.
	TopUpLeg Leg = "TOPUP"
)

// Transaction is one leg of a transfer. The DEBIT leg is keyed by the txn id itself,
// the CREDIT leg by CreditRecordID.
type Transaction struct {
	RecordID          string            `json:"recordId"`
	TxnID             string            `json:"txnId"`
	Sender            string            `json:"sender"`
	Receiver          string            `json:"receiver"`
	Amount            decimal.Decimal   `json:"amount"`
	DebitedAmount     decimal.Decimal   `json:"debitedAmount"`
	FromCurrency      string            `json:"fromCurrency"`
	ToCurrency        string            `json:"toCurrency"`
	TransactionMethod TransactionMethod `json:"transactionMethod"`
	TransactionType   TransactionType   `json:"transactionType"`
	TxnStatus         TxnStatus         `json:"txnStatus"`
	Failure           Failure           `json:"failure,omitempty"`
	Message           string            `json:"message"`
	CreatedOn         time.Time         `json:"createdOn"`
	UpdatedOn         time.Time         `json:"updatedOn"`
}

// Event converts the record into the payload published on the attempt topics.
func (t *Transaction) Event() TransferEvent {
	return TransferEvent{
		TxnID:             t.TxnID,
		Sender:            t.Sender,
		Receiver:          t.Receiver,
		Amount:            t.Amount,
		DebitedAmount:     t.DebitedAmount,
		FromCurrency:      t.FromCurrency,
		ToCurrency:        t.ToCurrency,
		TransactionMethod: t.TransactionMethod,
		TransactionType:   t.TransactionType,
		TxnStatus:         t.TxnStatus,
		Failure:           t.Failure,
		Message:           t.Message,
	}
}

var creditNamespace = uuid.MustParse("6f1c3a52-8e0b-4d0e-9a47-3c1f6b2d9e10")

// CreditRecordID derives the CREDIT leg record id from the txn id. It is stable so a
// replayed receiver status cannot create a second credit record.
func CreditRecordID(txnID string) string {
	return uuid.NewSHA1(creditNamespace, []byte(txnID)).String()
}

// MutationKey identifies one ledger mutation of one transaction.
func MutationKey(txnID string, leg Leg) string {
	return txnID + ":" + string(leg)
}
