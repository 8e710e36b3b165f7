package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"time"

	// Local Packages
	models "e-wallet/models"

	// External Packages
	"github.com/redis/go-redis/v9"
)

// AuditTrail keeps the ordered list of saga events seen for each transaction under
// "saga:{txnId}". Every service appends to the same list.
type AuditTrail struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAuditTrail(client *redis.Client, ttl time.Duration) *AuditTrail {
	return &AuditTrail{client: client, ttl: ttl}
}

func auditKey(txnID string) string {
	return fmt.Sprintf("saga:%s", txnID)
}

func (a *AuditTrail) Append(ctx context.Context, txnID string, entry models.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	key := auditKey(txnID)
	pipe := a.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if a.ttl > 0 {
		pipe.Expire(ctx, key, a.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (a *AuditTrail) Entries(ctx context.Context, txnID string) ([]models.AuditEntry, error) {
	raw, err := a.client.LRange(ctx, auditKey(txnID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit trail: %w", err)
	}
	out := make([]models.AuditEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.AuditEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}
