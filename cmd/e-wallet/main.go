package main

import (
	// Go Internal Packages
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	// Local Packages
	api "e-wallet/api"
	config "e-wallet/config"
	currency "e-wallet/currency"
	kafka "e-wallet/kafka"
	models "e-wallet/models"
	mongodb "e-wallet/repositories/mongodb"
	redis "e-wallet/repositories/redis"
	ledger "e-wallet/services/ledger"
	txpsr "e-wallet/services/processors"
	txsvc "e-wallet/services/transactions"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	_ "github.com/jsternberg/zap-logfmt"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	app        = kingpin.New("e-wallet", "Choreographed transfer saga between bank and wallet ledgers")
	configPath = app.Flag("config", "Path to the application config file").Short('c').Default("config.yml").String()

	bankCmd   = app.Command("bank", "Run the bank ledger participant")
	walletCmd = app.Command("wallet", "Run the wallet ledger participant")
	txnCmd    = app.Command("txn", "Run the transaction coordinator and its HTTP API")
)

// LoadSecrets Loads the secret variables and overrides the config
func LoadSecrets(k config.Config) config.Config {
	MongoURI := os.Getenv("MONGO_URI")
	if MongoURI != "" {
		k.Mongo.URI = MongoURI
	}

	RedisURI := os.Getenv("REDIS_URI")
	if RedisURI != "" {
		k.Redis.URI = RedisURI
	}

	RedisPassword := os.Getenv("REDIS_PASSWORD")
	if RedisPassword != "" {
		k.Redis.Password = RedisPassword
	}

	KafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if KafkaBrokers != "" {
		k.Kafka.Brokers = strings.Split(KafkaBrokers, ",")
	}

	CurrencyAPIKey := os.Getenv("CURRENCY_API_KEY")
	if CurrencyAPIKey != "" {
		k.Currency.APIKey = CurrencyAPIKey
	}

	JWTSecret := os.Getenv("JWT_SECRET")
	if JWTSecret != "" {
		k.HTTP.JWTSecret = JWTSecret
	}

	IsProdMode := os.Getenv("IS_PROD_MODE")
	k.IsProdMode = IsProdMode == "true"
	return k
}

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag
func LoadConfig() (string, *koanf.Koanf) {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(config.DefaultConfig), yaml.Parser())
	if *configPath != "" {
		_ = k.Load(file.Provider(*configPath), yaml.Parser())
	}
	return command, k
}

func main() {
	// A missing .env file is fine, the environment may already carry the secrets
	_ = godotenv.Load()

	command, k := LoadConfig()
	appKonf := config.Config{}

	// Unmarshalling config into struct
	err := k.Unmarshal("", &appKonf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Update and Validate config before starting the server
	updatedKonf := LoadSecrets(appKonf)
	if err = updatedKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !updatedKonf.IsProdMode {
		k.Print()
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(updatedKonf.Logger.Level))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = updatedKonf.Application + "-" + command
	cfg.OutputPaths = []string{"stdout"}
	logger, _ := cfg.Build()
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Mongo Connection
	mongoClient, err := mongodb.Connect(ctx, updatedKonf.Mongo.URI, updatedKonf.Application)
	if err != nil {
		logger.Fatal("cannot create mongo client", zap.Error(err))
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	// Redis Connection
	redisClient, err := redis.Connect(ctx, updatedKonf.Redis.URI, updatedKonf.Redis.Password)
	if err != nil {
		logger.Fatal("cannot create redis client", zap.Error(err))
	}
	defer func() {
		_ = redisClient.Close()
	}()

	// Every kafka client registers its own collectors here, /metrics serves them all
	registry := prometheus.NewRegistry()
	producer, err := kafka.NewProducer(updatedKonf.Kafka.Brokers, kafka.NewMetrics(registry, "producer"), logger)
	if err != nil {
		logger.Fatal("cannot create kafka producer", zap.Error(err))
	}
	defer producer.Close()

	deps := &runtime{
		conf:     updatedKonf,
		logger:   logger,
		mongo:    mongoClient,
		redis:    redisClient,
		registry: registry,
		producer: producer,
		audit:    redis.NewAuditTrail(redisClient, updatedKonf.Redis.AuditTTL),
		dlq:      redis.NewDeadLetterQueue(redisClient, logger),
	}

	switch command {
	case bankCmd.FullCommand():
		err = deps.runLedger(ctx, models.Bank, updatedKonf.Ledger.BankBalance())
	case walletCmd.FullCommand():
		err = deps.runLedger(ctx, models.Wallet, updatedKonf.Ledger.WalletBalance())
	case txnCmd.FullCommand():
		err = deps.runCoordinator(ctx)
	}
	if err != nil && ctx.Err() == nil {
		logger.Fatal("service stopped", zap.String("command", command), zap.Error(err))
	}
	logger.Info("service stopped", zap.String("command", command))
}

type runtime struct {
	conf     config.Config
	logger   *zap.Logger
	mongo    *mongo.Client
	redis    *goredis.Client
	registry *prometheus.Registry
	producer *kafka.Producer
	audit    *redis.AuditTrail
	dlq      *redis.DeadLetterQueue
}

func (r *runtime) consume(ctx context.Context, name string, router *txpsr.TxProcessor) error {
	conf := &models.ConsumerConfig{
		Brokers:        r.conf.Kafka.Brokers,
		Name:           name,
		Topics:         router.Topics(),
		RecordsPerPoll: r.conf.Kafka.RecordsPerPoll,
	}
	consumer, err := kafka.NewTxConsumer(conf, router, kafka.NewMetrics(r.registry, "consumer"), r.logger)
	if err != nil {
		return err
	}
	r.logger.Info("consumer started", zap.String("consumer", conf.Summary()))
	return consumer.Poll(ctx)
}

func (r *runtime) runLedger(ctx context.Context, kind models.LedgerKind, initialBalance decimal.Decimal) error {
	logger := r.logger
	rates := redis.NewRateCache(r.redis, r.conf.Redis.RateTTL, logger)
	converter := currency.NewConverter(currency.ConverterConfig{
		BaseURL: r.conf.Currency.APIURL,
		APIKey:  r.conf.Currency.APIKey,
		Timeout: r.conf.Currency.Timeout,
	}, rates, logger)

	svc := ledger.NewService(kind, initialBalance, ledger.Deps{
		Repo:       mongodb.NewLedgerRepository(r.mongo, r.conf.Mongo.Database, kind),
		Publisher:  r.producer,
		Converter:  converter,
		Currencies: currency.DefaultTable(),
		Audit:      r.audit,
	}, logger)

	router := txpsr.NewTxProcessor(logger, r.dlq).Register(svc.Handlers())
	name := r.conf.Kafka.ConsumerName + "-" + strings.ToLower(string(kind))
	return r.consume(ctx, name, router)
}

func (r *runtime) runCoordinator(ctx context.Context) error {
	if err := r.conf.ValidateGateway(); err != nil {
		return err
	}
	if err := mongodb.EnsureTransactionIndexes(ctx, r.mongo, r.conf.Mongo.Database); err != nil {
		return err
	}

	txRepo := mongodb.NewTxRepository(r.mongo, r.conf.Mongo.Database)
	coordinator := txsvc.NewTxProcessor(r.logger, txRepo, r.producer, currency.DefaultTable(), r.audit)
	router := txpsr.NewTxProcessor(r.logger, r.dlq).Register(coordinator.Handlers())

	accounts := ledger.NewAccounts(map[models.LedgerKind]ledger.Repository{
		models.Bank:   mongodb.NewLedgerRepository(r.mongo, r.conf.Mongo.Database, models.Bank),
		models.Wallet: mongodb.NewLedgerRepository(r.mongo, r.conf.Mongo.Database, models.Wallet),
	}, r.logger)

	handler := api.NewTransferHandler(coordinator, r.conf.HTTP.AwaitTimeout, r.logger)
	accountHandler := api.NewAccountHandler(accounts, r.logger)
	metrics := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	engine := api.NewRouter(handler, accountHandler, api.NewResolver(r.conf.HTTP.JWTSecret), metrics, r.conf.IsProdMode)
	server := api.NewServer(r.conf.HTTP.Address, engine, r.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.consume(gctx, r.conf.Kafka.ConsumerName+"-txn", router)
	})
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		return coordinator.RunResubmitter(gctx, r.conf.Kafka.ResubmitInterval, r.conf.Kafka.ResubmitAfter)
	})
	return g.Wait()
}
