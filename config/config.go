package config

import (
	// Go Internal Packages
	"time"

	// Local Packages
	errors "e-wallet/errors"

	// External Packages
	"github.com/shopspring/decimal"
)

var DefaultConfig = []byte(`
application: "e-wallet"

logger:
  level: "debug"

is_prod_mode: false

mongo:
  uri: "mongodb://localhost:27017"
  database: "ewallet"

redis:
  uri: "localhost:6379"
  password: ""
  audit_ttl: "168h"
  rate_ttl: "10m"

kafka:
  brokers:
    - "localhost:9092"
  records_per_poll: 500
  consumer_name: "e-wallet"
  resubmit_after: "1m"
  resubmit_interval: "30s"

currency:
  api_url: "https://v6.exchangerate-api.com/v6"
  api_key: ""
  timeout: "5s"

ledger:
  bank_initial_balance: "100"
  wallet_initial_balance: "0"

http:
  address: ":8080"
  jwt_secret: ""
  await_timeout: "3s"
`)

type Config struct {
	Application string   `koanf:"application"`
	Logger      Logger   `koanf:"logger"`
	IsProdMode  bool     `koanf:"is_prod_mode"`
	Mongo       Mongo    `koanf:"mongo"`
	Redis       Redis    `koanf:"redis"`
	Kafka       Kafka    `koanf:"kafka"`
	Currency    Currency `koanf:"currency"`
	Ledger      Ledger   `koanf:"ledger"`
	HTTP        HTTP     `koanf:"http"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type Mongo struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

type Redis struct {
	URI      string        `koanf:"uri"`
	Password string        `koanf:"password"`
	AuditTTL time.Duration `koanf:"audit_ttl"`
	RateTTL  time.Duration `koanf:"rate_ttl"`
}

type Kafka struct {
	Brokers          []string      `koanf:"brokers"`
	RecordsPerPoll   int           `koanf:"records_per_poll"`
	ConsumerName     string        `koanf:"consumer_name"`
	ResubmitAfter    time.Duration `koanf:"resubmit_after"`
	ResubmitInterval time.Duration `koanf:"resubmit_interval"`
}

type Currency struct {
	APIURL  string        `koanf:"api_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// Ledger holds the opening balances, kept as strings so no float ever touches money.
type Ledger struct {
	BankInitialBalance   string `koanf:"bank_initial_balance"`
	WalletInitialBalance string `koanf:"wallet_initial_balance"`
}

func (l Ledger) BankBalance() decimal.Decimal {
	return decimal.RequireFromString(l.BankInitialBalance)
}

func (l Ledger) WalletBalance() decimal.Decimal {
	return decimal.RequireFromString(l.WalletInitialBalance)
}

type HTTP struct {
	Address      string        `koanf:"address"`
	JWTSecret    string        `koanf:"jwt_secret"`
	AwaitTimeout time.Duration `koanf:"await_timeout"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	ve := errors.ValidationErrs()

	if c.Application == "" {
		ve.Add("application", "cannot be empty")
	}
	if c.Logger.Level == "" {
		ve.Add("logger.level", "cannot be empty")
	}
	if c.Mongo.URI == "" {
		ve.Add("mongo.uri", "cannot be empty")
	}
	if c.Mongo.Database == "" {
		ve.Add("mongo.database", "cannot be empty")
	}
	if c.Redis.URI == "" {
		ve.Add("redis.uri", "cannot be empty")
	}
	if len(c.Kafka.Brokers) == 0 {
		ve.Add("kafka.brokers", "cannot be empty")
	}
	if c.Kafka.RecordsPerPoll <= 0 {
		ve.Add("kafka.records_per_poll", "must be positive")
	}
	if c.Kafka.ConsumerName == "" {
		ve.Add("kafka.consumer_name", "cannot be empty")
	}
	if c.Kafka.ResubmitAfter <= 0 {
		ve.Add("kafka.resubmit_after", "must be positive")
	}
	if c.Kafka.ResubmitInterval <= 0 {
		ve.Add("kafka.resubmit_interval", "must be positive")
	}
	if c.Currency.APIURL == "" {
		ve.Add("currency.api_url", "cannot be empty")
	}
	if c.Currency.Timeout <= 0 {
		ve.Add("currency.timeout", "must be positive")
	}
	validateBalance(ve, "ledger.bank_initial_balance", c.Ledger.BankInitialBalance)
	validateBalance(ve, "ledger.wallet_initial_balance", c.Ledger.WalletInitialBalance)
	if c.HTTP.Address == "" {
		ve.Add("http.address", "cannot be empty")
	}
	if c.HTTP.AwaitTimeout <= 0 {
		ve.Add("http.await_timeout", "must be positive")
	}

	return ve.Err()
}

// ValidateGateway checks the settings only the txn service needs.
func (c *Config) ValidateGateway() error {
	ve := errors.ValidationErrs()
	if c.HTTP.JWTSecret == "" {
		ve.Add("http.jwt_secret", "cannot be empty")
	}
	return ve.Err()
}

func validateBalance(ve *errors.ValidationErrors, field, value string) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		ve.Add(field, "must be a decimal")
		return
	}
	if d.IsNegative() {
		ve.Add(field, "cannot be negative")
	}
}
