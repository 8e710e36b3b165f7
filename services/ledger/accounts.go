package ledger

import (
	// Go Internal Packages
	"context"
	"fmt"

	// Local Packages
	errors "e-wallet/errors"
	models "e-wallet/models"

	// External Packages
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Accounts serves balance queries and deposits for both ledgers outside of the saga.
type Accounts struct {
	Repos  map[models.LedgerKind]Repository
	Logger *zap.Logger
}

func NewAccounts(repos map[models.LedgerKind]Repository, logger *zap.Logger) *Accounts {
	return &Accounts{Repos: repos, Logger: logger}
}

func (a *Accounts) repo(kind models.LedgerKind) (Repository, error) {
	repo, ok := a.Repos[kind]
	if !ok {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("unknown ledger %q", kind), nil)
	}
	return repo, nil
}

// Balance returns owner's account on the kind ledger.
func (a *Accounts) Balance(ctx context.Context, kind models.LedgerKind, owner string) (models.Account, error) {
	repo, err := a.repo(kind)
	if err != nil {
		return models.Account{}, err
	}
	return repo.FindAccount(ctx, owner)
}

// TopUp deposits amount into owner's account once per reference. It reports whether
// this call applied the deposit; a repeated reference returns the current account.
func (a *Accounts) TopUp(ctx context.Context, kind models.LedgerKind, owner string, amount decimal.Decimal, reference string) (models.Account, bool, error) {
	repo, err := a.repo(kind)
	if err != nil {
		return models.Account{}, false, err
	}
	ve := errors.ValidationErrs()
	if reference == "" {
		ve.Add("reference", "cannot be empty")
	}
	if !amount.IsPositive() {
		ve.Add("amount", "must be positive")
	}
	if !models.ExactAmount(amount) {
		ve.Add("amount", fmt.Sprintf("must have at most %d decimal places", models.AmountPlaces))
	}
	if err := ve.Err(); err != nil {
		return models.Account{}, false, err
	}

	acc, err := repo.Credit(ctx, owner, amount, models.MutationKey(reference, models.TopUpLeg))
	switch {
	case err == nil:
		a.Logger.Info("account topped up", zap.String("ledger", string(kind)), zap.String("owner", owner),
			zap.String("amount", amount.String()), zap.String("reference", reference))
		return acc, true, nil
	case errors.Is(err, errors.ErrDuplicateDelivery):
		acc, err = repo.FindAccount(ctx, owner)
		return acc, false, err
	default:
		return models.Account{}, false, err
	}
}
