package memory

import (
	// Go Internal Packages
	"context"
	"sync"

	// Local Packages
	models "e-wallet/models"
)

type AuditTrail struct {
	mu      sync.Mutex
	entries map[string][]models.AuditEntry
}

func NewAuditTrail() *AuditTrail {
	return &AuditTrail{entries: make(map[string][]models.AuditEntry)}
}

func (a *AuditTrail) Append(_ context.Context, txnID string, entry models.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[txnID] = append(a.entries[txnID], entry)
	return nil
}

func (a *AuditTrail) Entries(_ context.Context, txnID string) ([]models.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.AuditEntry, len(a.entries[txnID]))
	copy(out, a.entries[txnID])
	return out, nil
}
