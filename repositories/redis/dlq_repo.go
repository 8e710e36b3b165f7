package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// Local Packages
	models "e-wallet/models"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type DeadLetterQueue struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
}

func NewDeadLetterQueue(client *redis.Client, logger *zap.Logger) *DeadLetterQueue {
	return &DeadLetterQueue{client: client, logger: logger, prefix: "dlq"}
}

// Send appends every letter to the list "dlq:{topic}" so it can be inspected and replayed.
func (r *DeadLetterQueue) Send(ctx context.Context, letters []models.DeadLetter) error {
	if len(letters) == 0 {
		return nil
	}

	successCount := 0
	var lastErr error
	for _, letter := range letters {
		jsonData, err := json.Marshal(letter)
		if err != nil {
			r.logger.Error("failed to marshal dead letter", zap.Error(err))
			lastErr = err
			continue
		}

		key := fmt.Sprintf("%s:%s", r.prefix, letter.Topic)
		err = r.client.RPush(ctx, key, jsonData).Err()
		if err != nil {
			r.logger.Error("failed to store dead letter", zap.String("key", key), zap.Error(err))
			lastErr = err
			continue
		}
		successCount++
	}

	if successCount > 0 {
		r.logger.Info("successfully dead-lettered records", zap.Int("count", successCount))
	}
	return lastErr
}
