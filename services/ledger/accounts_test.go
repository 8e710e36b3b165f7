package ledger

import (
	// Go Internal Packages
	"context"
	"testing"

	// Local Packages
	errors "e-wallet/errors"
	models "e-wallet/models"
	memory "e-wallet/repositories/memory"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAccounts(t *testing.T) (*Accounts, *memory.Ledger) {
	t.Helper()
	bank := memory.NewLedger()
	_, err := bank.CreateAccount(context.Background(), models.Account{PhoneNumber: indian, Kind: models.Bank, Balance: decimal.NewFromInt(100)})
	require.NoError(t, err)
	return NewAccounts(map[models.LedgerKind]Repository{
		models.Bank:   bank,
		models.Wallet: memory.NewLedger(),
	}, zap.NewNop()), bank
}

func TestTopUpAppliesOncePerReference(t *testing.T) {
	ctx := context.Background()
	accounts, _ := newAccounts(t)

	acc, applied, err := accounts.TopUp(ctx, models.Bank, indian, decimal.RequireFromString("25.50"), "dep-1")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("125.5")))

	acc, applied, err = accounts.TopUp(ctx, models.Bank, indian, decimal.RequireFromString("25.50"), "dep-1")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("125.5")))

	acc, err = accounts.Balance(ctx, models.Bank, indian)
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("125.5")))
}

func TestTopUpValidation(t *testing.T) {
	ctx := context.Background()
	accounts, bank := newAccounts(t)

	tests := map[string]struct {
		amount    string
		reference string
	}{
		"missing reference": {"10", ""},
		"zero amount":       {"0", "dep-2"},
		"sub-cent amount":   {"0.001", "dep-3"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := accounts.TopUp(ctx, models.Bank, indian, decimal.RequireFromString(tt.amount), tt.reference)
			assert.Equal(t, errors.Invalid, errors.KindOf(err))
		})
	}
	assert.True(t, balance(t, bank, indian).Equal(decimal.NewFromInt(100)))
}

func TestBalanceOfMissingAccount(t *testing.T) {
	accounts, _ := newAccounts(t)
	_, err := accounts.Balance(context.Background(), models.Wallet, indian)
	assert.True(t, errors.Is(err, errors.ErrAccountNotFound))

	_, _, err = accounts.TopUp(context.Background(), models.Wallet, indian, decimal.NewFromInt(5), "dep-4")
	assert.True(t, errors.Is(err, errors.ErrAccountNotFound))

	_, err = accounts.Balance(context.Background(), models.LedgerKind("CARD"), indian)
	assert.Equal(t, errors.Invalid, errors.KindOf(err))
}
