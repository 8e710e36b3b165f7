package memory

import (
	// Go Internal Packages
	"context"
	"sync"
	"time"

	// Local Packages
	errors "e-wallet/errors"
	models "e-wallet/models"

	// External Packages
	"github.com/shopspring/decimal"
)

type mutationID struct {
	owner string
	key   string
}

// Ledger is an in-process ledger. Mutations are kept apart from the accounts so that a
// key can be refused for an owner who has no account yet.
type Ledger struct {
	mu        sync.Mutex
	accounts  map[string]models.Account
	mutations map[mutationID]models.Mutation
}

func NewLedger() *Ledger {
	return &Ledger{
		accounts:  make(map[string]models.Account),
		mutations: make(map[mutationID]models.Mutation),
	}
}

// CreateAccount stores acc unless the owner already has an account; reports whether it did.
func (l *Ledger) CreateAccount(_ context.Context, acc models.Account) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[acc.PhoneNumber]; ok {
		return false, nil
	}
	l.accounts[acc.PhoneNumber] = acc
	return true, nil
}

func (l *Ledger) FindAccount(_ context.Context, owner string) (models.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[owner]
	if !ok {
		return models.Account{}, errors.Wrap(errors.ErrAccountNotFound, "owner %s", owner)
	}
	return acc, nil
}

func (l *Ledger) Debit(_ context.Context, owner string, amount decimal.Decimal, key string) (models.Account, error) {
	return l.apply(owner, amount.Neg(), key)
}

func (l *Ledger) Credit(_ context.Context, owner string, amount decimal.Decimal, key string) (models.Account, error) {
	return l.apply(owner, amount, key)
}

func (l *Ledger) apply(owner string, delta decimal.Decimal, key string) (models.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := mutationID{owner: owner, key: key}
	if _, done := l.mutations[id]; done {
		return l.accounts[owner], errors.Wrap(errors.ErrDuplicateDelivery, "mutation %s", key)
	}
	acc, ok := l.accounts[owner]
	if !ok {
		return models.Account{}, errors.Wrap(errors.ErrAccountNotFound, "owner %s", owner)
	}
	next := acc.Balance.Add(delta)
	if next.IsNegative() {
		return acc, errors.Wrap(errors.ErrInsufficientFunds, "owner %s", owner)
	}

	now := time.Now().UTC()
	acc.Balance = next
	acc.UpdatedAt = now
	l.accounts[owner] = acc
	l.mutations[id] = models.Mutation{Owner: owner, Key: key, Amount: delta.Abs(), CreatedAt: now}
	return acc, nil
}

// Reject refuses key for owner unless something is recorded under it already, and
// returns whatever the key holds afterwards.
func (l *Ledger) Reject(_ context.Context, owner, key, message string) (models.Mutation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := mutationID{owner: owner, key: key}
	if m, done := l.mutations[id]; done {
		return m, nil
	}
	m := models.Mutation{Owner: owner, Key: key, Amount: decimal.Zero, Rejected: true, Message: message, CreatedAt: time.Now().UTC()}
	l.mutations[id] = m
	return m, nil
}

// Mutation returns what was recorded under key for owner, if anything.
func (l *Ledger) Mutation(_ context.Context, owner, key string) (models.Mutation, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.mutations[mutationID{owner: owner, key: key}]
	return m, ok, nil
}
