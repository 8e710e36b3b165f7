package currency

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	// Local Packages
	errors "e-wallet/errors"

	// External Packages
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateCache keeps recently fetched rates. Implementations must tolerate being absent.
type RateCache interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, bool)
	SetRate(ctx context.Context, from, to string, rate decimal.Decimal)
}

type ConverterConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Converter converts amounts with rates from an exchangerate-api compatible endpoint.
type Converter struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	cache   RateCache
	logger  *zap.Logger
}

func NewConverter(conf ConverterConfig, cache RateCache, logger *zap.Logger) *Converter {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Converter{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		apiKey:  conf.APIKey,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		cache:   cache,
		logger:  logger,
	}
}

type pairResponse struct {
	Result         string          `json:"result"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
	ErrorType      string          `json:"error-type"`
}

// Convert returns amount expressed in currency to, rounded to two places.
// Same-currency conversions never leave the process.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	rate, err := c.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate).Round(2), nil
}

// Rate looks up the from->to rate. Every failure is reported as ErrConversionFailed.
func (c *Converter) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if from == Unknown || to == Unknown {
		return decimal.Zero, errors.Wrap(errors.ErrConversionFailed, "unknown currency %s->%s", from, to)
	}
	if c.cache != nil {
		if rate, ok := c.cache.GetRate(ctx, from, to); ok {
			return rate, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/pair/%s/%s", c.baseURL, url.PathEscape(c.apiKey), url.PathEscape(from), url.PathEscape(to))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(errors.ErrConversionFailed, "build request: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, errors.Wrap(errors.ErrConversionFailed, "rate lookup: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decimal.Zero, errors.Wrap(errors.ErrConversionFailed, "rate api returned %d", resp.StatusCode)
	}

	var body pairResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, errors.Wrap(errors.ErrConversionFailed, "decode rate: %v", err)
	}
	if !strings.EqualFold(body.Result, "success") {
		return decimal.Zero, errors.Wrap(errors.ErrConversionFailed, "rate api result %q: %s", body.Result, body.ErrorType)
	}
	if !body.ConversionRate.IsPositive() {
		return decimal.Zero, errors.Wrap(errors.ErrConversionFailed, "non-positive rate %s", body.ConversionRate)
	}

	if c.cache != nil {
		c.cache.SetRate(ctx, from, to, body.ConversionRate)
	}
	c.logger.Debug("fetched conversion rate",
		zap.String("from", from), zap.String("to", to), zap.String("rate", body.ConversionRate.String()))
	return body.ConversionRate, nil
}
