package currency

import (
	// Go Internal Packages
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	// Local Packages
	errors "e-wallet/errors"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapCache struct {
	mu    sync.Mutex
	rates map[string]decimal.Decimal
}

func (m *mapCache) GetRate(_ context.Context, from, to string) (decimal.Decimal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rates[from+to]
	return r, ok
}

func (m *mapCache) SetRate(_ context.Context, from, to string, rate decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[from+to] = rate
}

func newRateServer(t *testing.T, status int, body string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/test-key/pair/USD/INR", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConvertSameCurrencySkipsLookup(t *testing.T) {
	var calls int32
	srv := newRateServer(t, http.StatusOK, `{"result":"success","conversion_rate":2}`, &calls)
	c := NewConverter(ConverterConfig{BaseURL: srv.URL, APIKey: "test-key"}, nil, zap.NewNop())

	got, err := c.Convert(context.Background(), decimal.NewFromInt(40), "INR", "INR")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestConvertUsesRateAndCaches(t *testing.T) {
	var calls int32
	srv := newRateServer(t, http.StatusOK, `{"result":"success","conversion_rate":83.125}`, &calls)
	cache := &mapCache{rates: map[string]decimal.Decimal{}}
	c := NewConverter(ConverterConfig{BaseURL: srv.URL + "/", APIKey: "test-key"}, cache, zap.NewNop())

	got, err := c.Convert(context.Background(), decimal.NewFromInt(2), "USD", "INR")
	require.NoError(t, err)
	assert.Equal(t, "166.25", got.String())

	_, err = c.Convert(context.Background(), decimal.NewFromInt(1), "USD", "INR")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestConvertFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"non-success status", http.StatusInternalServerError, `{}`},
		{"api reports error", http.StatusOK, `{"result":"error","error-type":"invalid-key"}`},
		{"unparsable payload", http.StatusOK, `not json`},
		{"zero rate", http.StatusOK, `{"result":"success","conversion_rate":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := newRateServer(t, tt.status, tt.body, &calls)
			c := NewConverter(ConverterConfig{BaseURL: srv.URL, APIKey: "test-key"}, nil, zap.NewNop())

			_, err := c.Convert(context.Background(), decimal.NewFromInt(1), "USD", "INR")
			assert.True(t, errors.Is(err, errors.ErrConversionFailed), "got %v", err)
		})
	}
}

func TestConvertTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewConverter(ConverterConfig{BaseURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond}, nil, zap.NewNop())

	start := time.Now()
	_, err := c.Convert(context.Background(), decimal.NewFromInt(1), "USD", "INR")
	assert.True(t, errors.Is(err, errors.ErrConversionFailed))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestConvertUnknownCurrency(t *testing.T) {
	c := NewConverter(ConverterConfig{BaseURL: "http://127.0.0.1:1", APIKey: "k"}, nil, zap.NewNop())

	_, err := c.Convert(context.Background(), decimal.NewFromInt(1), Unknown, "INR")
	assert.True(t, errors.Is(err, errors.ErrConversionFailed))
}
