package api

import (
	// Go Internal Packages
	"context"
	"net/http"

	// Local Packages
	errors "e-wallet/errors"
	models "e-wallet/models"

	// External Packages
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Accounts is the ledger surface for balance lookups and deposits.
type Accounts interface {
	Balance(ctx context.Context, kind models.LedgerKind, owner string) (models.Account, error)
	TopUp(ctx context.Context, kind models.LedgerKind, owner string, amount decimal.Decimal, reference string) (models.Account, bool, error)
}

type AccountHandler struct {
	accounts Accounts
	logger   *zap.Logger
}

func NewAccountHandler(accounts Accounts, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

type TopUpRequest struct {
	Kind      string          `json:"kind" validate:"required,oneof=bank wallet BANK WALLET"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" validate:"required,max=64"`
}

type BalanceResponse struct {
	Kind     models.LedgerKind `json:"kind"`
	Balance  decimal.Decimal   `json:"balance"`
	Currency string            `json:"currency"`
}

func toBalance(acc models.Account) BalanceResponse {
	return BalanceResponse{Kind: acc.Kind, Balance: acc.Balance, Currency: acc.Currency}
}

func (h *AccountHandler) GetBalance(c *gin.Context) {
	kind, ok := models.ParseLedgerKind(c.Param("kind"))
	if !ok {
		respondWithError(c, http.StatusBadRequest, "Unknown ledger, use bank or wallet")
		return
	}
	acc, err := h.accounts.Balance(c.Request.Context(), kind, identity(c))
	if err != nil {
		h.respondWithAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBalance(acc))
}

// TopUp deposits into the caller's own account. Repeating a reference is answered
// with 200 and the current balance.
func (h *AccountHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("rejected top-up request", zap.Error(errors.InvalidBodyErr(err)))
		respondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := validateRequest(req); details != nil {
		respondWithValidationError(c, details)
		return
	}
	if details := validateAmount(req.Amount); details != nil {
		respondWithValidationError(c, details)
		return
	}

	kind, _ := models.ParseLedgerKind(req.Kind)
	acc, applied, err := h.accounts.TopUp(c.Request.Context(), kind, identity(c), req.Amount, req.Reference)
	if err != nil {
		h.respondWithAccountError(c, err)
		return
	}
	status := http.StatusOK
	if applied {
		status = http.StatusCreated
	}
	c.JSON(status, toBalance(acc))
}

func (h *AccountHandler) respondWithAccountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errors.ErrAccountNotFound):
		respondWithError(c, http.StatusNotFound, "Account not found")
	case errors.KindOf(err) == errors.Invalid:
		respondWithError(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("failed to access account", zap.Error(err))
		respondWithError(c, http.StatusInternalServerError, "Failed to access account")
	}
}
