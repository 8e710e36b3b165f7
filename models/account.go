package models

import (
	// Go Internal Packages
	"time"

	// External Packages
	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of decimal places money is kept with.
const AmountPlaces = 2

// ExactAmount reports whether d needs no more than AmountPlaces decimal places.
func ExactAmount(d decimal.Decimal) bool {
	return d.Equal(d.Round(AmountPlaces))
}

// Account is a bank account or a wallet, owned by a phone number.
type Account struct {
	PhoneNumber   string          `json:"phoneNumber"`
	AccountNumber string          `json:"accountNumber"`
	UserName      string          `json:"userName"`
	Kind          LedgerKind      `json:"kind"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Mutation is what a ledger recorded under one idempotency key of one owner: either an
// applied balance change or a refusal. A refused key can never be applied afterwards.
type Mutation struct {
	Owner     string          `json:"owner"`
	Key       string          `json:"key"`
	Amount    decimal.Decimal `json:"amount"`
	Rejected  bool            `json:"rejected"`
	Message   string          `json:"message,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
