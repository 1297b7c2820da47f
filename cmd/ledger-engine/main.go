package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/keystore"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/notify"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/repository/clickhouse"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/repository/memory"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/repository/mongo"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/builder"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/feeoracle"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/orchestrator"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/reconciler"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/submitter"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/txrecord"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/stellar"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/metrics"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/transport"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type config struct {
	HorizonURL     string        `long:"horizon-url" env:"LEDGER_ENGINE_HORIZON_URL" description:"Horizon API URL" default:"https://horizon-testnet.stellar.org"`
	Network        string        `long:"network" env:"LEDGER_ENGINE_NETWORK" description:"network name (testnet, public) or passphrase" default:"testnet"`
	HorizonRPS     int           `long:"horizon-rps" env:"LEDGER_ENGINE_HORIZON_RPS" description:"max Horizon requests per second, 0 disables the limit" default:"10"`
	HorizonTimeout time.Duration `long:"horizon-timeout" env:"LEDGER_ENGINE_HORIZON_TIMEOUT" description:"HTTP timeout for Horizon requests" default:"20s"`
	USDCIssuer     string        `long:"usdc-issuer" env:"LEDGER_ENGINE_USDC_ISSUER" description:"issuer account of USDC, empty disables USDC"`

	Store         string `long:"store" env:"LEDGER_ENGINE_STORE" description:"record store" choice:"mongo" choice:"memory" default:"mongo"`
	MongoURI      string `long:"mongo-uri" env:"LEDGER_ENGINE_MONGO_URI" description:"MongoDB URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `long:"mongo-database" env:"LEDGER_ENGINE_MONGO_DATABASE" description:"MongoDB database" default:"donation_ledger"`
	ClickhouseDSN string `long:"clickhouse-dsn" env:"LEDGER_ENGINE_CLICKHOUSE_DSN" description:"ClickHouse DSN of the status audit log, empty disables it"`
	NatsURL       string `long:"nats-url" env:"LEDGER_ENGINE_NATS_URL" description:"NATS URL for status events, empty disables them"`
	NatsToken     string `long:"nats-token" env:"LEDGER_ENGINE_NATS_TOKEN" description:"NATS token"`
	NatsSubject   string `long:"nats-subject" env:"LEDGER_ENGINE_NATS_SUBJECT" description:"subject prefix of status events" default:"ledger.status"`

	SealingKey    string   `long:"sealing-key" env:"LEDGER_ENGINE_SEALING_KEY" description:"hex encoded 32 byte key sealing stored secrets" required:"true"`
	FundingSecret string   `long:"funding-secret" env:"LEDGER_ENGINE_FUNDING_SECRET" description:"secret seed of the account funding escrows" required:"true"`
	FeeSecret     string   `long:"fee-secret" env:"LEDGER_ENGINE_FEE_SECRET" description:"secret seed paying fee bumps, defaults to the funding account"`
	Approvers     []string `long:"approver" env:"LEDGER_ENGINE_APPROVERS" env-delim:"," description:"ids allowed to release milestones"`
	MinEscrow     string   `long:"min-escrow-funding" env:"LEDGER_ENGINE_MIN_ESCROW_FUNDING" description:"minimum escrow starting balance" default:"1"`

	FeeTTL     time.Duration `long:"fee-ttl" env:"LEDGER_ENGINE_FEE_TTL" description:"fee statistics cache TTL" default:"30s"`
	MinFee     int64         `long:"min-fee" env:"LEDGER_ENGINE_MIN_FEE" description:"minimum base fee in stroops" default:"100"`
	MaxFee     int64         `long:"max-fee" env:"LEDGER_ENGINE_MAX_FEE" description:"maximum base fee in stroops, 0 is unbounded" default:"100000"`
	MaxRetries int           `long:"max-retries" env:"LEDGER_ENGINE_MAX_RETRIES" description:"submission attempts" default:"3"`
	BaseDelay  time.Duration `long:"base-delay" env:"LEDGER_ENGINE_BASE_DELAY" description:"initial retry backoff" default:"1s"`

	PollInterval      time.Duration `long:"poll-interval" env:"LEDGER_ENGINE_POLL_INTERVAL" description:"reconciliation interval" default:"30s"`
	MaxPendingAge     time.Duration `long:"max-pending-age" env:"LEDGER_ENGINE_MAX_PENDING_AGE" description:"age after which invisible pending transactions expire" default:"1h"`
	BatchLimit        int           `long:"batch-limit" env:"LEDGER_ENGINE_BATCH_LIMIT" description:"records per reconciliation pass" default:"100"`
	Workers           int           `long:"workers" env:"LEDGER_ENGINE_WORKERS" description:"concurrent ledger queries per pass" default:"8"`
	RecurringInterval time.Duration `long:"recurring-interval" env:"LEDGER_ENGINE_RECURRING_INTERVAL" description:"recurring donation sweep interval" default:"1h"`

	Addr        string `long:"addr" env:"LEDGER_ENGINE_ADDR" description:"HTTP API address" default:":8001"`
	MetricsAddr string `long:"metrics-addr" env:"LEDGER_ENGINE_METRICS_ADDR" description:"address for metrics server" default:":2112"`
}

// store is everything the engine persists.
type store interface {
	txrecord.Store
	orchestrator.Store
	keystore.Store
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("ledger engine failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	passphrase := stellar.Passphrase(cfg.Network)
	signer := stellar.NewSigner(passphrase)
	funding, err := signer.ParseKeyPair(cfg.FundingSecret)
	if err != nil {
		return fmt.Errorf("funding secret: %w", err)
	}
	feeSource := funding
	if cfg.FeeSecret != "" {
		if feeSource, err = signer.ParseKeyPair(cfg.FeeSecret); err != nil {
			return fmt.Errorf("fee secret: %w", err)
		}
	}
	minEscrow, err := decimal.NewFromString(cfg.MinEscrow)
	if err != nil {
		return fmt.Errorf("min escrow funding: %w", err)
	}
	sealer, err := keystore.NewSealer(cfg.SealingKey)
	if err != nil {
		return fmt.Errorf("sealing key: %w", err)
	}

	db, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var publisher txrecord.Publisher
	if cfg.NatsURL != "" {
		p, err := notify.Connect(notify.Config{
			Address:       cfg.NatsURL,
			Name:          "ledger-engine",
			Token:         cfg.NatsToken,
			SubjectPrefix: cfg.NatsSubject,
		}, logger)
		if err != nil {
			return fmt.Errorf("init publisher: %w", err)
		}
		defer func() {
			if err := p.Close(); err != nil {
				logger.Warn("failed to drain nats connection", zap.Error(err))
			}
		}()
		publisher = p
	}

	var audit txrecord.AuditSink
	if cfg.ClickhouseDSN != "" {
		repo, err := clickhouse.NewRepository(cfg.ClickhouseDSN, metrics.NewClickhouseRepository())
		if err != nil {
			return fmt.Errorf("init audit repository: %w", err)
		}
		defer func() {
			if err := repo.Close(); err != nil {
				logger.Warn("failed to close clickhouse", zap.Error(err))
			}
		}()
		sink := clickhouse.NewAuditSink(repo, 0, 0, logger)
		sink.Start(ctx)
		defer sink.Stop()
		audit = sink
	}

	ledger := stellar.NewHorizonClient(
		stellar.NewHorizonAPI(cfg.HorizonURL, cfg.HorizonTimeout),
		cfg.HorizonRPS,
		metrics.NewHorizonClient(cfg.Network),
	)
	native := stellar.NewNativeNetwork(ledger)
	networks := []chain.AssetNetwork{native}
	if cfg.USDCIssuer != "" {
		networks = append(networks, stellar.NewUSDCNetwork(cfg.USDCIssuer, ledger))
	}

	oracle := feeoracle.New(ledger, metrics.NewFeeOracle(cfg.Network), feeoracle.Config{
		TTL:    cfg.FeeTTL,
		MinFee: cfg.MinFee,
		MaxFee: cfg.MaxFee,
	}, logger.Named("feeoracle"))
	txBuilder := builder.New(ledger, oracle, signer, native, 0, logger.Named("builder"))
	engine := submitter.New(ledger, oracle, txBuilder, metrics.NewSubmitter(cfg.Network), submitter.Config{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.BaseDelay,
		MaxFee:     cfg.MaxFee,
		FeeSource:  feeSource,
	}, logger.Named("submitter"))

	records := txrecord.New(db, publisher, audit, metrics.NewTransactionRecords(), txrecord.Config{
		PollInterval: cfg.PollInterval,
	}, logger)
	rec := reconciler.New(ledger, records, metrics.NewReconciler(cfg.Network), reconciler.Config{
		PollInterval: cfg.PollInterval,
		MaxAge:       cfg.MaxPendingAge,
		BatchLimit:   cfg.BatchLimit,
		Workers:      cfg.Workers,
	}, logger)
	records.AttachChecker(rec)

	orch := orchestrator.New(
		engine,
		records,
		db,
		keystore.New(db, sealer, signer),
		signer,
		chain.NewNetworks(networks...),
		metrics.NewRecurring(),
		orchestrator.Config{
			Funding:           funding,
			MinEscrowFunding:  minEscrow,
			Approvers:         cfg.Approvers,
			RecurringInterval: cfg.RecurringInterval,
		},
		logger,
	)

	errs := make(chan error, 3)
	go func() { errs <- rec.Run(ctx) }()
	go func() { errs <- orch.RunRecurring(ctx) }()
	go func() { errs <- serveHTTP(ctx, cfg.Addr, transport.NewHandler(records, orch, logger).Routes(), logger) }()

	err = <-errs
	if ctx.Err() == nil {
		logger.Error("component stopped", zap.Error(err))
	}
	return err
}

func openStore(ctx context.Context, cfg config, logger *zap.Logger) (store, func(), error) {
	if cfg.Store == "memory" {
		logger.Warn("using in-memory store, records are lost on exit")
		return memory.New(), func() {}, nil
	}

	repo, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, metrics.NewMongoRepository())
	if err != nil {
		return nil, nil, fmt.Errorf("init repository: %w", err)
	}
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("migrate mongo: %w", err)
	}
	return repo, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.Disconnect(shutdownCtx); err != nil {
			logger.Error("failed to disconnect mongo", zap.Error(err))
		}
	}, nil
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}
	go func() {
		<-ctx.Done()
		logger.Info("shutting down the http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("starting HTTP server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return ctx.Err()
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}
