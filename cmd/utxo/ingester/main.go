// Package main runs the relational ledger ingester.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/clock"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/transport"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/cache"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/idalloc"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/repository/sqlstore"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/service/ingester"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/flusher"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	schedulerRetireTimeout = 30 * time.Second
	defaultHealthEvery     = 15 * time.Second
)

type config struct {
	Network model.Network `long:"network" env:"LEDGER_NETWORK" description:"network name" default:"mainnet"`
	LogJSON bool          `long:"log-json" env:"LEDGER_LOG_JSON" description:"log in production JSON format"`
	EnvFile string        `long:"env-file" env:"LEDGER_ENV_FILE" description:"optional .env file loaded before flags" default:".env"`

	DatabaseDriver string `long:"database-driver" env:"LEDGER_DATABASE_DRIVER" description:"relational store driver" choice:"pgx" choice:"sqlite" default:"pgx"`
	DatabaseDSN    string `long:"database-dsn" env:"LEDGER_DATABASE_DSN" description:"relational store DSN" required:"true"`
	MaxOpenConns   int    `long:"max-open-conns" env:"LEDGER_MAX_OPEN_CONNS" description:"connection pool size, 0 keeps the driver default"`
	Migrate        bool   `long:"migrate" env:"LEDGER_MIGRATE" description:"apply schema migrations before ingesting"`

	Source         string `long:"source" env:"LEDGER_SOURCE" description:"block source" choice:"rpc" choice:"blockfile" choice:"replay" default:"rpc"`
	FallbackSource string `long:"fallback-source" env:"LEDGER_FALLBACK_SOURCE" description:"block source used when the primary fails" choice:"rpc" choice:"blockfile" choice:"replay"`
	RPCURL         string `long:"rpc-url" env:"LEDGER_RPC_URL" description:"node RPC URL" default:"http://127.0.0.1:8332"`
	RPCUser        string `long:"rpc-user" env:"LEDGER_RPC_USER" description:"node RPC username"`
	RPCPassword    string `long:"rpc-password" env:"LEDGER_RPC_PASSWORD" description:"node RPC password"`
	RPCRPS         int    `long:"rpc-rps" env:"LEDGER_RPC_RPS" description:"node RPC requests per second, 0 for unlimited"`
	BlocksDir      string `long:"blocks-dir" env:"LEDGER_BLOCKS_DIR" description:"directory holding blk*.dat files"`
	ClickhouseDSN  string `long:"clickhouse-dsn" env:"LEDGER_CLICKHOUSE_DSN" description:"ClickHouse archive DSN for replay"`

	SafeMode       bool          `long:"safe-mode" env:"LEDGER_SAFE_MODE" description:"check and repair existing records"`
	NoUpdateSpent  bool          `long:"no-update-spent" env:"LEDGER_NO_UPDATE_SPENT" description:"leave output status untouched when spent"`
	StartHeight    int64         `long:"start-height" env:"LEDGER_START_HEIGHT" description:"first height, negative resumes after the last stored block" default:"-1"`
	EndHeight      int64         `long:"end-height" env:"LEDGER_END_HEIGHT" description:"last height, negative runs to the tip" default:"-1"`
	BlocksBack     uint64        `long:"blocks-back" env:"LEDGER_BLOCKS_BACK" description:"blocks below the resume height to ingest again"`
	LookAhead      int           `long:"look-ahead" env:"LEDGER_LOOK_AHEAD" description:"blocks fetched ahead" default:"2"`
	PrewarmWorkers int           `long:"prewarm-workers" env:"LEDGER_PREWARM_WORKERS" description:"workers warming caches per prefetched block" default:"32"`
	ProcessWorkers int           `long:"process-workers" env:"LEDGER_PROCESS_WORKERS" description:"workers writing a block" default:"16"`
	FlushWorkers   int           `long:"flush-workers" env:"LEDGER_FLUSH_WORKERS" description:"concurrent queue flushes" default:"2"`
	StopFile       string        `long:"stop-file" env:"LEDGER_STOP_FILE" description:"stop at the next block once this file exists"`
	Follow         bool          `long:"follow" env:"LEDGER_FOLLOW" description:"keep polling the source after reaching its tip"`
	PollInterval   time.Duration `long:"poll-interval" env:"LEDGER_POLL_INTERVAL" description:"tip polling interval in follow mode" default:"10s"`
	MaxRepairDepth int           `long:"max-repair-depth" env:"LEDGER_MAX_REPAIR_DEPTH" description:"nested repairs allowed per input" default:"8"`

	QueueCapacity  map[string]int    `long:"queue-capacity" env:"LEDGER_QUEUE_CAPACITY" env-delim:"," description:"insert queue capacity per entity (entity:n)"`
	UpdateCapacity map[string]int    `long:"update-capacity" env:"LEDGER_UPDATE_CAPACITY" env-delim:"," description:"update queue capacity per entity (entity:n)"`
	CacheSize      map[string]uint64 `long:"cache-size" env:"LEDGER_CACHE_SIZE" env-delim:"," description:"records kept in memory per entity (transaction, output or address:n), 0 keeps none"`

	AdminGRPCAddr string        `long:"admin-grpc-addr" env:"LEDGER_ADMIN_GRPC_ADDR" description:"admin gRPC address" default:":8000"`
	AdminHTTPAddr string        `long:"admin-http-addr" env:"LEDGER_ADMIN_HTTP_ADDR" description:"admin HTTP address" default:":8001"`
	HealthEvery   time.Duration `long:"health-interval" env:"LEDGER_HEALTH_INTERVAL" description:"store ping interval behind the health status" default:"15s"`
}

func main() {
	cfg := config{}

	if err := loadEnvFile(os.Args[1:]); err != nil {
		panic("can't load env file: " + err.Error())
	}
	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		panic("failed to parse flags: " + err.Error())
	}

	logger, err := newLogger(cfg.LogJSON)
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("ledger ingester failed", zap.Error(err))
	}
}

// loadEnvFile reads the .env file named by --env-file or LEDGER_ENV_FILE
// before flags are parsed, so its values act as environment defaults.
func loadEnvFile(args []string) error {
	var pre struct {
		EnvFile string `long:"env-file" env:"LEDGER_ENV_FILE" default:".env"`
	}
	parser := flags.NewParser(&pre, flags.IgnoreUnknown)
	if _, err := parser.ParseArgs(args); err != nil {
		return err
	}
	if err := godotenv.Load(pre.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func newLogger(json bool) (*zap.Logger, error) {
	if json {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	ledgerCfg, err := ledgerConfig(cfg)
	if err != nil {
		return err
	}
	if cfg.Migrate {
		if err := sqlstore.Migrate(cfg.DatabaseDriver, cfg.DatabaseDSN); err != nil {
			return fmt.Errorf("migrate store: %w", err)
		}
		logger.Info("store migrated")
	}
	store, err := sqlstore.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, metrics.NewRepository(cfg.DatabaseDriver))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	if cfg.MaxOpenConns > 0 {
		store.DB().SetMaxOpenConns(cfg.MaxOpenConns)
	}

	source, closeSource, err := newSource(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	admin := transport.NewAdmin(transport.AdminConfig{GRPCAddr: cfg.AdminGRPCAddr, HTTPAddr: cfg.AdminHTTPAddr}, logger)
	if err := admin.Listen(); err != nil {
		return err
	}
	adminCtx, stopAdmin := context.WithCancel(context.Background())
	adminDone := make(chan error, 1)
	go func() { adminDone <- admin.Serve(adminCtx) }()
	defer func() {
		stopAdmin()
		if err := <-adminDone; err != nil {
			logger.Error("admin servers failed", zap.Error(err))
		}
	}()

	flusherMetrics := metrics.NewFlusher()
	registry := flusher.NewRegistry(logger, flusherMetrics, flusher.Options{Workers: cfg.FlushWorkers})
	ledger := ingester.NewLedger(store, cache.Deps{
		Registry: registry,
		IDs:      idalloc.New(store),
		Observer: flusherMetrics,
		Logger:   logger,
	}, ledgerCfg)

	pipeline, err := ingester.New(source, store, ledger.Caches(), metrics.NewIngester(cfg.Network), pipelineOptions(cfg), logger)
	if err != nil {
		return errors.Join(err, ledger.Close(context.Background()))
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		watchStore(watchCtx, store, admin, cfg.HealthEvery, logger)
	}()
	runErr := pipeline.Run(ctx)
	stopWatch()
	<-watchDone
	admin.SetServing(false)
	if errors.Is(runErr, context.Canceled) && ctx.Err() != nil {
		logger.Info("interrupted, draining queues")
		runErr = nil
	}

	// queues drain even after an interrupt
	if err := ledger.Close(context.Background()); err != nil {
		return errors.Join(runErr, fmt.Errorf("drain queues: %w", err))
	}
	waitCtx, cancel := context.WithTimeout(context.Background(), schedulerRetireTimeout)
	defer cancel()
	if err := registry.Wait(waitCtx); err != nil {
		logger.Warn("flush scheduler still running", zap.Error(err))
	}
	logger.Info("queues drained")
	logTotals(context.Background(), store, logger)
	return runErr
}

type (
	pinger interface {
		Ping(ctx context.Context) error
	}
	servingSetter interface {
		SetServing(serving bool)
	}
	rowCounter interface {
		CountRows(ctx context.Context, table string) (int64, error)
	}
)

// watchStore reports SERVING while the store answers pings, until ctx ends.
func watchStore(ctx context.Context, store pinger, admin servingSetter, every time.Duration, logger *zap.Logger) {
	if every <= 0 {
		every = defaultHealthEvery
	}
	healthy := true
	for {
		err := store.Ping(ctx)
		if ctx.Err() != nil {
			return
		}
		if ok := err == nil; ok != healthy {
			healthy = ok
			if ok {
				logger.Info("store reachable again")
			} else {
				logger.Warn("store unreachable", zap.Error(err))
			}
		}
		admin.SetServing(healthy)
		if clock.SleepWithContext(ctx, every) != nil {
			return
		}
	}
}

var totalTables = []string{"block", "transaction", "input", "output"}

func logTotals(ctx context.Context, store rowCounter, logger *zap.Logger) {
	fields := make([]zap.Field, 0, len(totalTables))
	for _, table := range totalTables {
		n, err := store.CountRows(ctx, table)
		if err != nil {
			logger.Warn("can't count rows", zap.String("table", table), zap.Error(err))
			return
		}
		fields = append(fields, zap.Int64(table, n))
	}
	logger.Info("ledger totals", fields...)
}

func pipelineOptions(cfg config) ingester.Options {
	return ingester.Options{
		SafeMode:       cfg.SafeMode,
		UpdateSpent:    !cfg.NoUpdateSpent,
		StartHeight:    cfg.StartHeight,
		EndHeight:      cfg.EndHeight,
		BlocksBack:     cfg.BlocksBack,
		LookAhead:      cfg.LookAhead,
		PrewarmWorkers: cfg.PrewarmWorkers,
		ProcessWorkers: cfg.ProcessWorkers,
		StopFile:       cfg.StopFile,
		Follow:         cfg.Follow,
		PollInterval:   cfg.PollInterval,
		MaxRepairDepth: cfg.MaxRepairDepth,
	}
}

func ledgerConfig(cfg config) (ingester.LedgerConfig, error) {
	lc := ingester.DefaultLedgerConfig()
	entities := map[string]*cache.Config{
		"transaction":   &lc.Transactions,
		"output":        &lc.Outputs,
		"input":         &lc.Inputs,
		"input_special": &lc.Annexes,
		"address":       &lc.Addresses,
	}
	for name, n := range cfg.QueueCapacity {
		c, ok := entities[name]
		if !ok {
			return lc, fmt.Errorf("queue capacity for unknown entity %q", name)
		}
		c.Queue.Capacity = n
		c.Queue.MinBatch = n / 10
	}
	for name, n := range cfg.UpdateCapacity {
		c, ok := entities[name]
		if !ok {
			return lc, fmt.Errorf("update capacity for unknown entity %q", name)
		}
		c.Queue.UpdateCapacity = n
	}
	for name, n := range cfg.CacheSize {
		c, ok := entities[name]
		if !ok || c == &lc.Inputs || c == &lc.Annexes {
			return lc, fmt.Errorf("no memory cache for entity %q", name)
		}
		c.Capacity = n
	}
	return lc, nil
}
