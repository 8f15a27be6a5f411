package ingester

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"go.uber.org/zap"
)

// revalidate checks a stored transaction against the block the source has at
// its height. A transaction still there is written again in full, anything
// else is deleted with its records.
func (p *Pipeline) revalidate(ctx context.Context, tx model.Transaction, depth int) error {
	if depth >= p.opts.MaxRepairDepth {
		return fmt.Errorf("revalidate %s at %d: %w", tx.TxID, tx.BlockHeight, ErrRepairDepthExceeded)
	}
	block, err := p.source.FetchBlock(ctx, tx.BlockHeight)
	if errors.Is(err, chain.ErrBlockNotFound) {
		return p.deleteTransaction(ctx, tx)
	}
	if err != nil {
		return sourceError{fmt.Errorf("fetch block %d: %w", tx.BlockHeight, err)}
	}

	ids, err := p.storedTxIDs(ctx, block)
	if err != nil {
		return err
	}
	for i, id := range ids {
		if id == tx.TxID {
			p.logger.Info("transaction revalidated",
				zap.Stringer("txid", tx.TxID),
				zap.Uint64("height", tx.BlockHeight),
				zap.Int("depth", depth+1),
			)
			return p.processTx(ctx, block.Height, &block.Txs[i], id, depth+1)
		}
	}
	return p.deleteTransaction(ctx, tx)
}

// deleteTransaction removes a transaction that is not on the chain together
// with its inputs, annexes and outputs. Outputs it spent become unspent again.
func (p *Pipeline) deleteTransaction(ctx context.Context, tx model.Transaction) error {
	ins, err := p.inputs.ByTransaction(ctx, tx.ID)
	if err != nil {
		return err
	}
	for _, in := range ins {
		if err := p.deleteInput(ctx, in, true); err != nil {
			return err
		}
	}
	outs, err := p.outputs.ByTransaction(ctx, tx.ID)
	if err != nil {
		return err
	}
	for _, o := range outs {
		if err := p.outputs.Delete(ctx, o.Key()); err != nil {
			return err
		}
	}
	if err := p.txs.Delete(ctx, tx); err != nil {
		return err
	}
	p.metrics.ObserveRepair("stale_transaction")
	p.logger.Info("stale transaction deleted",
		zap.Stringer("txid", tx.TxID),
		zap.Int64("id", tx.ID),
		zap.Uint64("height", tx.BlockHeight),
		zap.Int("inputs", len(ins)),
		zap.Int("outputs", len(outs)),
	)
	return nil
}

func (p *Pipeline) deleteInput(ctx context.Context, in model.Input, rollback bool) error {
	if err := p.inputs.Delete(ctx, in.Key()); err != nil {
		return err
	}
	if err := p.inputs.DeleteAnnex(ctx, in.Key()); err != nil {
		return err
	}
	if !rollback {
		return nil
	}
	return p.rollbackSpent(ctx, in.Spends())
}

// rollbackSpent marks an output unspent once no input claims it.
func (p *Pipeline) rollbackSpent(ctx context.Context, key model.OutputKey) error {
	if !p.opts.UpdateSpent {
		return nil
	}
	claims, err := p.inputs.BySpent(ctx, key)
	if err != nil || len(claims) > 0 {
		return err
	}
	out, ok, err := p.outputs.Get(ctx, key)
	if err != nil || !ok || out.Status != model.OutputSpent {
		return err
	}
	_, _, err = p.outputs.SetStatus(ctx, key, model.OutputUnspent)
	return err
}
