package main

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/bitcoin"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/repository/clickhouse"
	"go.uber.org/zap"
)

// newSource builds the configured block source, wrapped with the fallback
// when one is set. The returned func releases every connection.
func newSource(cfg config, logger *zap.Logger) (chain.Source, func(), error) {
	converter, err := bitcoin.NewConverter(cfg.Network)
	if err != nil {
		return nil, nil, err
	}

	primary, closePrimary, err := openSource(cfg.Source, cfg, converter, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s source: %w", cfg.Source, err)
	}
	if cfg.FallbackSource == "" || cfg.FallbackSource == cfg.Source {
		return primary, closePrimary, nil
	}

	secondary, closeSecondary, err := openSource(cfg.FallbackSource, cfg, converter, logger)
	if err != nil {
		closePrimary()
		return nil, nil, fmt.Errorf("open %s fallback source: %w", cfg.FallbackSource, err)
	}
	return chain.NewFallbackSource(primary, secondary, logger), func() {
		closePrimary()
		closeSecondary()
	}, nil
}

func openSource(kind string, cfg config, converter *bitcoin.Converter, logger *zap.Logger) (chain.Source, func(), error) {
	switch kind {
	case "rpc":
		client, err := newRPCClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
		if err != nil {
			return nil, nil, err
		}
		rpc := bitcoin.NewRPCClient(client, metrics.NewSourceCalls("rpc", cfg.Network), cfg.RPCRPS)
		return bitcoin.NewRPCSource(rpc, converter), func() {
			client.Shutdown()
			client.WaitForShutdown()
		}, nil
	case "blockfile":
		if cfg.BlocksDir == "" {
			return nil, nil, errors.New("blocks dir is required")
		}
		src, err := bitcoin.NewBlockFileSource(cfg.BlocksDir, cfg.Network, converter, logger)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	case "replay":
		if cfg.ClickhouseDSN == "" {
			return nil, nil, errors.New("clickhouse dsn is required")
		}
		repo, err := clickhouse.NewRepository(cfg.ClickhouseDSN, cfg.Network, metrics.NewRepository("clickhouse"))
		if err != nil {
			return nil, nil, err
		}
		return clickhouse.NewReplaySource(repo, converter), func() {
			if err := repo.Close(); err != nil {
				logger.Warn("close clickhouse", zap.Error(err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q", kind)
	}
}

func newRPCClient(rawURL, user, password string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	return rpcclient.New(&rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
}
