package memory

import (
	// Go Internal Packages
	"context"
	"sort"
	"sync"
	"time"

	// Local Packages
	errors "e-wallet/errors"
	models "e-wallet/models"
)

// TxRepository keeps transaction records in memory, keyed by record id.
type TxRepository struct {
	mu      sync.RWMutex
	records map[string]models.Transaction
}

func NewTxRepository() *TxRepository {
	return &TxRepository{records: make(map[string]models.Transaction)}
}

func (r *TxRepository) InsertTransaction(_ context.Context, tx models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[tx.RecordID]; ok {
		return errors.Wrap(errors.ErrDuplicateDelivery, "record %s", tx.RecordID)
	}
	r.records[tx.RecordID] = tx
	return nil
}

// FindTransaction returns the DEBIT leg of txnID.
func (r *TxRepository) FindTransaction(_ context.Context, txnID string) (models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.records[txnID]
	if !ok || tx.TransactionType != models.Debit {
		return models.Transaction{}, errors.Wrap(errors.ErrTxnNotFound, "txn %s", txnID)
	}
	return tx, nil
}

// ResolveTransaction moves a PENDING DEBIT leg to a terminal status. It reports false
// when the record was already terminal.
func (r *TxRepository) ResolveTransaction(_ context.Context, txnID string, status models.TxnStatus, failure models.Failure, message string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.records[txnID]
	if !ok || tx.TransactionType != models.Debit {
		return false, errors.Wrap(errors.ErrTxnNotFound, "txn %s", txnID)
	}
	if tx.TxnStatus != models.Pending {
		return false, nil
	}
	tx.TxnStatus = status
	tx.Failure = failure
	tx.Message = message
	tx.UpdatedOn = time.Now().UTC()
	r.records[txnID] = tx
	return true, nil
}

// ListTransactions returns every leg where party is the sender of a DEBIT or the
// receiver of a CREDIT, newest first.
func (r *TxRepository) ListTransactions(_ context.Context, party string) ([]models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Transaction
	for _, tx := range r.records {
		if (tx.TransactionType == models.Debit && tx.Sender == party) ||
			(tx.TransactionType == models.Credit && tx.Receiver == party) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.After(out[j].CreatedOn) })
	return out, nil
}

// ListAllTransactions returns the newest legs of every party, at most limit of them.
func (r *TxRepository) ListAllTransactions(_ context.Context, limit int64) ([]models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Transaction, 0, len(r.records))
	for _, tx := range r.records {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.After(out[j].CreatedOn) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListPendingTransactions returns the oldest PENDING DEBIT legs created before before.
func (r *TxRepository) ListPendingTransactions(_ context.Context, before time.Time, limit int64) ([]models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Transaction
	for _, tx := range r.records {
		if tx.TransactionType == models.Debit && tx.TxnStatus == models.Pending && tx.CreatedOn.Before(before) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.Before(out[j].CreatedOn) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
