// Package ingester loads blocks from a chain source into the relational
// ledger through the write-behind caches.
package ingester

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/clock"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/workerpool"
	"go.uber.org/zap"
)

var (
	// ErrTransactionUnresolved is returned when an input spends a transaction
	// that is neither stored nor queued.
	ErrTransactionUnresolved = errors.New("referenced transaction not found")
	// ErrRepairDepthExceeded stops a chain of nested conflict repairs.
	ErrRepairDepthExceeded = errors.New("repair depth exceeded")
)

// Caches are the record stores the pipeline reads and writes through.
type Caches struct {
	Transactions Transactions
	Outputs      Outputs
	Inputs       Inputs
	Addresses    Addresses
}

// Pipeline ingests blocks in ascending height order.
type Pipeline struct {
	source  Source
	blocks  BlockStore
	txs     Transactions
	outputs Outputs
	inputs  Inputs
	addrs   Addresses
	metrics Metrics
	opts    Options
	logger  *zap.Logger
	sleep   func(context.Context, time.Duration) error
}

func New(source Source, blocks BlockStore, caches Caches, metrics Metrics, opts Options, logger *zap.Logger) (*Pipeline, error) {
	switch {
	case source == nil:
		return nil, errors.New("block source is required")
	case blocks == nil:
		return nil, errors.New("block store is required")
	case caches.Transactions == nil || caches.Outputs == nil || caches.Inputs == nil || caches.Addresses == nil:
		return nil, errors.New("all caches are required")
	case metrics == nil:
		return nil, errors.New("ingester metrics is required")
	}
	opts = opts.withDefaults()
	return &Pipeline{
		source:  source,
		blocks:  blocks,
		txs:     caches.Transactions,
		outputs: caches.Outputs,
		inputs:  caches.Inputs,
		addrs:   caches.Addresses,
		metrics: metrics,
		opts:    opts,
		logger:  logger.Named("ingester").With(zap.Bool("safe_mode", opts.SafeMode)),
		sleep:   clock.SleepWithContext,
	}, nil
}

// Run ingests from the resume height to the source tip, then keeps following
// the tip when configured to. It returns nil once the end height is reached,
// the tip is reached without follow mode, or the stop file is honored.
func (p *Pipeline) Run(ctx context.Context) error {
	start, err := p.startHeight(ctx)
	if err != nil {
		return err
	}
	tip, err := p.tip(ctx)
	if err != nil {
		return err
	}
	p.logger.Info("ingestion started", zap.Uint64("from", start), zap.Uint64("tip", tip))

	fetchCtx, cancel := context.WithCancel(ctx)
	prefetch := newPrefetcher(start, p.opts.LookAhead, p.load)
	defer func() {
		cancel()
		prefetch.wait()
	}()

	for height := start; ; height++ {
		if p.opts.EndHeight >= 0 && height > uint64(p.opts.EndHeight) {
			p.logger.Info("end height reached", zap.Uint64("height", height-1))
			return nil
		}
		if p.stopRequested() {
			cancel()
			prefetch.wait()
			return p.honorStop(height)
		}

		for height > tip {
			if !p.opts.Follow {
				p.logger.Info("source tip reached", zap.Uint64("tip", tip))
				return nil
			}
			if err := p.sleep(ctx, p.opts.PollInterval); err != nil {
				return err
			}
			if p.stopRequested() {
				cancel()
				prefetch.wait()
				return p.honorStop(height)
			}
			if tip, err = p.tip(ctx); err != nil {
				return err
			}
		}

		upto := min(height+uint64(p.opts.LookAhead), tip)
		if p.opts.EndHeight >= 0 {
			upto = min(upto, uint64(p.opts.EndHeight))
		}
		prefetch.fill(fetchCtx, upto)

		block, err := prefetch.take(ctx, height)
		if err != nil {
			return fmt.Errorf("fetch block %d: %w", height, err)
		}
		if err := p.processBlock(ctx, block); err != nil {
			return fmt.Errorf("process block %d: %w", height, err)
		}
	}
}

// startHeight resumes after the highest stored block, reaching BlocksBack
// blocks further down.
func (p *Pipeline) startHeight(ctx context.Context) (uint64, error) {
	if p.opts.StartHeight >= 0 {
		return uint64(p.opts.StartHeight), nil
	}
	last, ok, err := p.blocks.MaxBlockHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("resume height: %w", err)
	}
	if !ok {
		return 0, nil
	}
	next := last + 1
	return next - min(p.opts.BlocksBack, next), nil
}

func (p *Pipeline) tip(ctx context.Context) (uint64, error) {
	tip, err := p.source.LatestHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("source tip: %w", err)
	}
	p.metrics.SetTip(tip)
	return tip, nil
}

// load fetches a block and warms the caches with the records it touches.
func (p *Pipeline) load(ctx context.Context, height uint64) (*chain.Block, error) {
	block, err := p.source.FetchBlock(ctx, height)
	if err != nil {
		return nil, err
	}
	if block.Height != height {
		return nil, fmt.Errorf("source returned block %d for height %d", block.Height, height)
	}
	p.prewarm(ctx, block)
	return block, nil
}

// prewarm resolves the outputs the block spends and the addresses it pays,
// so processing finds them in memory. Failures only cost the warm-up.
func (p *Pipeline) prewarm(ctx context.Context, block *chain.Block) {
	err := workerpool.Indexed(ctx, p.opts.PrewarmWorkers, len(block.Txs), func(ctx context.Context, i int) error {
		tx := block.Txs[i]
		if !tx.Coinbase {
			for _, in := range tx.Inputs {
				prev, ok, err := p.txs.GetByTxID(ctx, in.PrevTxID)
				if err != nil || !ok {
					continue
				}
				if _, _, err := p.outputs.Get(ctx, spentKey(prev, in)); err != nil {
					return err
				}
			}
		}
		for _, out := range tx.Outputs {
			if out.Address == nil {
				continue
			}
			if _, _, err := p.addrs.GetOrAdd(ctx, out.Address.Kind, out.Address.Raw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		p.logger.Debug("prewarm incomplete", zap.Uint64("height", block.Height), zap.Error(err))
	}
}

func (p *Pipeline) stopRequested() bool {
	if p.opts.StopFile == "" {
		return false
	}
	_, err := os.Stat(p.opts.StopFile)
	return err == nil
}

// honorStop renames the stop file so the operator can tell the request was seen.
func (p *Pipeline) honorStop(height uint64) error {
	target := p.opts.StopFile + stopFileSuffix
	if err := os.Rename(p.opts.StopFile, target); err != nil {
		return fmt.Errorf("consume stop file: %w", err)
	}
	p.logger.Info("stop file honored",
		zap.Uint64("next_height", height),
		zap.String("renamed_to", target),
	)
	return nil
}
