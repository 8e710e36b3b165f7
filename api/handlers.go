package api

import (
	// Go Internal Packages
	"context"
	"net/http"
	"strconv"
	"time"

	// Local Packages
	errors "e-wallet/errors"
	models "e-wallet/models"
	txsvc "e-wallet/services/transactions"

	// External Packages
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Transfers is the coordinator surface the HTTP layer drives.
type Transfers interface {
	Initiate(ctx context.Context, req txsvc.TransferRequest) (models.Transaction, error)
	Await(ctx context.Context, txnID string, timeout time.Duration) (models.Transaction, error)
	Get(ctx context.Context, txnID string) (models.Transaction, error)
	List(ctx context.Context, party string) ([]models.Transaction, error)
	ListAll(ctx context.Context, limit int64) ([]models.Transaction, error)
	Trail(ctx context.Context, txnID string) ([]models.AuditEntry, error)
}

type TransferHandler struct {
	transfers    Transfers
	awaitTimeout time.Duration
	logger       *zap.Logger
}

func NewTransferHandler(transfers Transfers, awaitTimeout time.Duration, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{transfers: transfers, awaitTimeout: awaitTimeout, logger: logger}
}

type TransferRequest struct {
	Receiver string          `json:"receiver" validate:"required,max=32"`
	Amount   decimal.Decimal `json:"amount"`
	Method   string          `json:"method" validate:"required,oneof=BANK_TO_PERSON BANK_TO_WALLET WALLET_TO_PERSON"`
}

type TransferResponse struct {
	TxnID   string           `json:"txnId"`
	Status  models.TxnStatus `json:"status"`
	Failure models.Failure   `json:"failure,omitempty"`
	Message string           `json:"message"`
}

type ListTransactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
}

type AuditResponse struct {
	TxnID   string              `json:"txnId"`
	Entries []models.AuditEntry `json:"entries"`
}

func toResponse(tx models.Transaction) TransferResponse {
	return TransferResponse{TxnID: tx.TxnID, Status: tx.TxnStatus, Failure: tx.Failure, Message: tx.Message}
}

// statusFor maps a DEBIT leg to the response code of POST /transfer.
func statusFor(tx models.Transaction) int {
	switch tx.TxnStatus {
	case models.Successful:
		return http.StatusOK
	case models.Failed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusAccepted
	}
}

func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	sender := identity(c)

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("rejected transfer request", zap.Error(errors.InvalidBodyErr(err)))
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

	ctx := c.Request.Context()
	tx, err := h.transfers.Initiate(ctx, txsvc.TransferRequest{
		Sender:   sender,
		Receiver: req.Receiver,
		Amount:   req.Amount,
		Method:   models.TransactionMethod(req.Method),
	})
	if err != nil {
		switch {
		case errors.KindOf(err) == errors.Invalid:
			respondWithError(c, http.StatusBadRequest, err.Error())
		case tx.TxnID != "":
			// the attempt may still have reached the broker, the caller can poll the id
			h.logger.Error("transfer submission not confirmed", zap.String("txn_id", tx.TxnID), zap.Error(err))
			tx.Message = "Transfer submission could not be confirmed"
			c.JSON(http.StatusServiceUnavailable, toResponse(tx))
		default:
			h.logger.Error("failed to initiate transfer", zap.Error(err))
			respondWithError(c, http.StatusInternalServerError, "Failed to initiate transfer")
		}
		return
	}

	if !tx.TxnStatus.Terminal() {
		id := tx.TxnID
		tx, err = h.transfers.Await(ctx, id, h.awaitTimeout)
		if err != nil {
			h.logger.Error("failed to await transfer", zap.String("txn_id", id), zap.Error(err))
			respondWithError(c, http.StatusInternalServerError, "Failed to read transfer status")
			return
		}
	}
	c.JSON(statusFor(tx), toResponse(tx))
}

func (h *TransferHandler) GetTransfer(c *gin.Context) {
	tx, ok := h.ownTransfer(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toResponse(tx))
}

func (h *TransferHandler) GetAudit(c *gin.Context) {
	tx, ok := h.ownTransfer(c)
	if !ok {
		return
	}
	entries, err := h.transfers.Trail(c.Request.Context(), tx.TxnID)
	if err != nil {
		h.logger.Error("failed to read audit trail", zap.String("txn_id", tx.TxnID), zap.Error(err))
		respondWithError(c, http.StatusInternalServerError, "Failed to read audit trail")
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	c.JSON(http.StatusOK, AuditResponse{TxnID: tx.TxnID, Entries: entries})
}

func (h *TransferHandler) ListTransfers(c *gin.Context) {
	party := identity(c)
	if party == "" {
		respondWithError(c, http.StatusBadRequest, errors.InvalidParamsErr(errors.EmptyParamErr("phoneNumber")).Error())
		return
	}
	txs, err := h.transfers.List(c.Request.Context(), party)
	if err != nil {
		h.logger.Error("failed to list transfers", zap.Error(err))
		respondWithError(c, http.StatusInternalServerError, "Failed to list transfers")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	c.JSON(http.StatusOK, ListTransactionsResponse{Transactions: txs})
}

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// ListAllTransfers lists the newest transfers of every user. Needs AuthorityViewAll.
func (h *TransferHandler) ListAllTransfers(c *gin.Context) {
	limit := int64(defaultListLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 || n > maxListLimit {
			respondWithError(c, http.StatusBadRequest, errors.InvalidParamsErr(err).Error())
			return
		}
		limit = n
	}
	txs, err := h.transfers.ListAll(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list all transfers", zap.Error(err))
		respondWithError(c, http.StatusInternalServerError, "Failed to list transfers")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	c.JSON(http.StatusOK, ListTransactionsResponse{Transactions: txs})
}

// ownTransfer loads :id and checks the caller is one of its parties.
func (h *TransferHandler) ownTransfer(c *gin.Context) (models.Transaction, bool) {
	id := c.Param("id")
	tx, err := h.transfers.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, errors.ErrTxnNotFound):
		respondWithError(c, http.StatusNotFound, "Transfer not found")
		return tx, false
	case err != nil:
		h.logger.Error("failed to read transfer", zap.String("txn_id", id), zap.Error(err))
		respondWithError(c, http.StatusInternalServerError, "Failed to read transfer")
		return tx, false
	}
	if caller := identity(c); caller != tx.Sender && caller != tx.Receiver {
		respondWithError(c, http.StatusForbidden, "You can only view your own transfers")
		return tx, false
	}
	return tx, true
}
