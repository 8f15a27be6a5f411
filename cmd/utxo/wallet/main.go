// Package main records a wallet and assigns addresses to it. Clustering
// decides which addresses belong together; this only stores the outcome.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/cache"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/idalloc"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/repository/sqlstore"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/service/ingester"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/flusher"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

type config struct {
	DatabaseDriver string  `long:"database-driver" env:"LEDGER_DATABASE_DRIVER" description:"relational store driver" choice:"pgx" choice:"sqlite" default:"pgx"`
	DatabaseDSN    string  `long:"database-dsn" env:"LEDGER_DATABASE_DSN" description:"relational store DSN" required:"true"`
	Name           string  `long:"name" description:"wallet name" required:"true"`
	Details        string  `long:"details" description:"free-form wallet details"`
	AddressIDs     []int64 `long:"address-id" description:"address id to assign, repeatable"`
}

func main() {
	cfg := config{}
	if _, err := flags.Parse(&cfg); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		panic("failed to parse flags: " + err.Error())
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("wallet assignment failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	store, err := sqlstore.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, metrics.NewRepository(cfg.DatabaseDriver))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	flusherMetrics := metrics.NewFlusher()
	ledger := ingester.NewLedger(store, cache.Deps{
		Registry: flusher.NewRegistry(logger, flusherMetrics, flusher.Options{}),
		IDs:      idalloc.New(store),
		Observer: flusherMetrics,
		Logger:   logger,
	}, ingester.DefaultLedgerConfig())

	w, err := ledger.CreateWallet(ctx, cfg.Name, cfg.Details, cfg.AddressIDs)
	if closeErr := ledger.Close(context.Background()); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("drain queues: %w", closeErr))
	}
	if err != nil {
		return err
	}
	logger.Info("wallet stored",
		zap.Int64("wallet_id", w.ID),
		zap.String("name", w.Name),
		zap.Int("addresses", len(cfg.AddressIDs)),
	)
	return nil
}
