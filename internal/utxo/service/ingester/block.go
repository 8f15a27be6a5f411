package ingester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/safe"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/workerpool"
	"go.uber.org/zap"
)

// txWork is one parsed transaction paired with its stored record.
type txWork struct {
	src    *chain.Tx
	record model.Transaction
	// fresh records were created by this run, so nothing stored can conflict.
	fresh bool
}

// processBlock writes a block in three phases: transactions with their
// outputs, then inputs, then the block row itself. Inputs run after every
// output of the block is visible, so spends inside the block resolve.
func (p *Pipeline) processBlock(ctx context.Context, block *chain.Block) (err error) {
	started := time.Now()
	defer func() {
		p.metrics.ObserveBlock(err, block.Height, len(block.Txs), started)
	}()

	ids, err := p.storedTxIDs(ctx, block)
	if err != nil {
		return err
	}

	works := make([]txWork, len(block.Txs))
	err = workerpool.Indexed(ctx, p.opts.ProcessWorkers, len(block.Txs), func(ctx context.Context, i int) error {
		w, err := p.putTransaction(ctx, block.Height, &block.Txs[i], ids[i])
		if err != nil {
			return err
		}
		works[i] = w
		return p.putOutputs(ctx, w)
	})
	if err != nil {
		return err
	}

	inputWorkers := p.opts.ProcessWorkers
	if p.opts.SafeMode {
		// repairs reach into other transactions and must not interleave
		inputWorkers = 1
	}
	err = workerpool.Indexed(ctx, inputWorkers, len(works), func(ctx context.Context, i int) error {
		return p.putInputs(ctx, works[i], 0)
	})
	if err != nil {
		return err
	}

	if p.opts.SafeMode {
		if err := p.removeStale(ctx, block.Height, works); err != nil {
			return err
		}
	}
	return p.putBlock(ctx, block)
}

// storedTxIDs returns the key every transaction of the block is stored
// under. Repeats of a txid get a key derived from the height and their
// ordinal, and so does a txid already stored for another block.
func (p *Pipeline) storedTxIDs(ctx context.Context, block *chain.Block) ([]model.TxID, error) {
	ids := make([]model.TxID, len(block.Txs))
	repeated := make([]bool, len(block.Txs))
	seen := make(map[model.TxID]uint16, len(block.Txs))
	for i, tx := range block.Txs {
		n := seen[tx.TxID]
		seen[tx.TxID] = n + 1
		if n > 0 {
			ids[i] = model.DisambiguateTxID(tx.TxID, block.Height, n)
			repeated[i] = true
			p.logger.Info("repeated txid in block",
				zap.Uint64("height", block.Height),
				zap.Stringer("txid", tx.TxID),
				zap.Uint16("ordinal", n),
			)
			continue
		}
		ids[i] = tx.TxID
	}

	existing := make([]*model.Transaction, len(block.Txs))
	err := workerpool.Indexed(ctx, p.opts.ProcessWorkers, len(block.Txs), func(ctx context.Context, i int) error {
		if repeated[i] {
			return nil
		}
		cur, ok, err := p.txs.GetByTxID(ctx, ids[i])
		if err != nil || !ok || cur.BlockHeight == block.Height {
			return err
		}
		existing[i] = &cur
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve txids: %w", err)
	}

	for i, cur := range existing {
		if cur == nil {
			continue
		}
		if p.opts.SafeMode {
			live, err := p.onChain(ctx, *cur)
			if err != nil {
				return nil, err
			}
			if !live {
				if err := p.deleteTransaction(ctx, *cur); err != nil {
					return nil, err
				}
				continue
			}
		}
		ids[i] = model.DisambiguateTxID(ids[i], block.Height, 0)
		p.logger.Info("txid already stored for another block",
			zap.Uint64("height", block.Height),
			zap.Uint64("stored_height", cur.BlockHeight),
			zap.Stringer("txid", cur.TxID),
		)
	}
	return ids, nil
}

// onChain reports whether the source still carries tx at its recorded height.
func (p *Pipeline) onChain(ctx context.Context, tx model.Transaction) (bool, error) {
	block, err := p.source.FetchBlock(ctx, tx.BlockHeight)
	if errors.Is(err, chain.ErrBlockNotFound) {
		return false, nil
	}
	if err != nil {
		return false, sourceError{fmt.Errorf("fetch block %d: %w", tx.BlockHeight, err)}
	}
	for _, t := range block.Txs {
		if t.TxID == tx.TxID {
			return true, nil
		}
	}
	return false, nil
}

// removeStale deletes transactions recorded at height that the parsed block
// no longer contains.
func (p *Pipeline) removeStale(ctx context.Context, height uint64, works []txWork) error {
	keep := make(map[int64]struct{}, len(works))
	for _, w := range works {
		keep[w.record.ID] = struct{}{}
	}
	stored, err := p.txs.ListByHeight(ctx, height)
	if err != nil {
		return err
	}
	for _, tx := range stored {
		if _, ok := keep[tx.ID]; ok {
			continue
		}
		if err := p.deleteTransaction(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) putBlock(ctx context.Context, block *chain.Block) error {
	count, err := safe.Uint32(len(block.Txs))
	if err != nil {
		return fmt.Errorf("transaction count: %w", err)
	}
	want := model.Block{Height: block.Height, Hash: block.Hash, TxCount: count}

	cur, ok, err := p.blocks.Block(ctx, block.Height)
	if err != nil {
		return err
	}
	if ok && cur == want {
		return nil
	}
	if ok {
		p.metrics.ObserveRepair("block")
		p.logger.Warn("block replaced",
			zap.Uint64("height", block.Height),
			zap.Stringer("old_hash", cur.Hash),
			zap.Stringer("new_hash", want.Hash),
		)
	}
	return p.blocks.UpsertBlock(ctx, want)
}
