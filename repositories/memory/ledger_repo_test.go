package memory

import (
	// Go Internal Packages
	"context"
	"fmt"
	"sync"
	"testing"

	// Local Packages
	errors "e-wallet/errors"
	models "e-wallet/models"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFundedLedger(t *testing.T, owner string, balance int64) *Ledger {
	t.Helper()
	l := NewLedger()
	created, err := l.CreateAccount(context.Background(), models.Account{
		PhoneNumber: owner, Kind: models.Bank, Balance: decimal.NewFromInt(balance), Currency: "INR",
	})
	require.NoError(t, err)
	require.True(t, created)
	return l
}

func TestCreateAccountIsOncePerOwner(t *testing.T) {
	l := newFundedLedger(t, "+91-1", 100)

	created, err := l.CreateAccount(context.Background(), models.Account{PhoneNumber: "+91-1", Balance: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.False(t, created)

	acc, err := l.FindAccount(context.Background(), "+91-1")
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(100)))
}

func TestDebitBoundary(t *testing.T) {
	ctx := context.Background()

	l := newFundedLedger(t, "+91-1", 100)
	_, err := l.Debit(ctx, "+91-1", decimal.NewFromInt(101), "t1:DEBIT")
	assert.True(t, errors.Is(err, errors.ErrInsufficientFunds))

	acc, err := l.Debit(ctx, "+91-1", decimal.NewFromInt(100), "t2:DEBIT")
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())
}

func TestMutationsAreIdempotentPerKey(t *testing.T) {
	ctx := context.Background()
	l := newFundedLedger(t, "+91-1", 100)

	_, err := l.Debit(ctx, "+91-1", decimal.NewFromInt(40), "t1:DEBIT")
	require.NoError(t, err)
	_, err = l.Debit(ctx, "+91-1", decimal.NewFromInt(40), "t1:DEBIT")
	assert.True(t, errors.Is(err, errors.ErrDuplicateDelivery))

	// a credit for the same transaction is a different leg
	acc, err := l.Credit(ctx, "+91-1", decimal.NewFromInt(40), "t1:CREDIT")
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(100)))
}

func TestUnknownAccount(t *testing.T) {
	l := NewLedger()
	_, err := l.Credit(context.Background(), "+91-404", decimal.NewFromInt(1), "t:CREDIT")
	assert.True(t, errors.Is(err, errors.ErrAccountNotFound))
	_, err = l.FindAccount(context.Background(), "+91-404")
	assert.True(t, errors.Is(err, errors.ErrAccountNotFound))
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	l := newFundedLedger(t, "+91-1", 100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := l.Debit(ctx, "+91-1", decimal.NewFromInt(7), fmt.Sprintf("t%d:DEBIT", i)); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	acc, err := l.FindAccount(ctx, "+91-1")
	require.NoError(t, err)
	assert.Equal(t, 14, succeeded)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(2)))
}

func TestMutationReportsAppliedAmount(t *testing.T) {
	ctx := context.Background()
	l := newFundedLedger(t, "+91-1", 100)

	_, found, err := l.Mutation(ctx, "+91-1", "t1:DEBIT")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = l.Debit(ctx, "+91-1", decimal.RequireFromString("12.5"), "t1:DEBIT")
	require.NoError(t, err)

	m, found, err := l.Mutation(ctx, "+91-1", "t1:DEBIT")
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, m.Rejected)
	assert.True(t, m.Amount.Equal(decimal.RequireFromString("12.5")))

	_, found, err = l.Mutation(ctx, "+91-2", "t1:DEBIT")
	require.NoError(t, err)
	assert.False(t, found, "an owner without an account has no mutations")
}

func TestRejectedKeyIsNeverApplied(t *testing.T) {
	ctx := context.Background()
	l := newFundedLedger(t, "+91-1", 10)

	m, err := l.Reject(ctx, "+91-1", "t1:DEBIT", "Insufficient Balance")
	require.NoError(t, err)
	assert.True(t, m.Rejected)

	_, err = l.Credit(ctx, "+91-1", decimal.NewFromInt(100), "topup:TOPUP")
	require.NoError(t, err)
	_, err = l.Debit(ctx, "+91-1", decimal.NewFromInt(50), "t1:DEBIT")
	assert.True(t, errors.Is(err, errors.ErrDuplicateDelivery), "a refused key stays refused once funds arrive")

	// the first outcome wins, a second refusal reports it
	again, err := l.Reject(ctx, "+91-1", "t1:DEBIT", "other reason")
	require.NoError(t, err)
	assert.Equal(t, "Insufficient Balance", again.Message)

	acc, err := l.FindAccount(ctx, "+91-1")
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(110)))
}

func TestRejectBeforeAccountExists(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	_, err := l.Reject(ctx, "+91-7", "t1:CREDIT", "Receiver Bank not found")
	require.NoError(t, err)

	created, err := l.CreateAccount(ctx, models.Account{PhoneNumber: "+91-7", Balance: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.True(t, created)

	_, err = l.Credit(ctx, "+91-7", decimal.NewFromInt(5), "t1:CREDIT")
	assert.True(t, errors.Is(err, errors.ErrDuplicateDelivery))

	m, found, err := l.Mutation(ctx, "+91-7", "t1:CREDIT")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, m.Rejected)
}

func TestReplayOfAppliedKeyReportsTheApplication(t *testing.T) {
	ctx := context.Background()
	l := newFundedLedger(t, "+91-1", 100)

	_, err := l.Debit(ctx, "+91-1", decimal.NewFromInt(30), "t1:DEBIT")
	require.NoError(t, err)

	m, err := l.Reject(ctx, "+91-1", "t1:DEBIT", "Insufficient Balance")
	require.NoError(t, err)
	assert.False(t, m.Rejected)
	assert.True(t, m.Amount.Equal(decimal.NewFromInt(30)))
}
