package redis

import (
	// Go Internal Packages
	"context"
	"fmt"
	"time"

	// External Packages
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateCache stores conversion rates as strings under "rate:{from}:{to}".
// A cache failure is logged and treated as a miss.
type RateCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRateCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RateCache {
	return &RateCache{client: client, ttl: ttl, logger: logger}
}

func rateKey(from, to string) string {
	return fmt.Sprintf("rate:%s:%s", from, to)
}

func (c *RateCache) GetRate(ctx context.Context, from, to string) (decimal.Decimal, bool) {
	val, err := c.client.Get(ctx, rateKey(from, to)).Result()
	if err == redis.Nil {
		return decimal.Zero, false
	}
	if err != nil {
		c.logger.Warn("rate cache read failed", zap.String("from", from), zap.String("to", to), zap.Error(err))
		return decimal.Zero, false
	}
	rate, err := decimal.NewFromString(val)
	if err != nil || !rate.IsPositive() {
		return decimal.Zero, false
	}
	return rate, true
}

func (c *RateCache) SetRate(ctx context.Context, from, to string, rate decimal.Decimal) {
	if err := c.client.Set(ctx, rateKey(from, to), rate.String(), c.ttl).Err(); err != nil {
		c.logger.Warn("rate cache write failed", zap.String("from", from), zap.String("to", to), zap.Error(err))
	}
}
