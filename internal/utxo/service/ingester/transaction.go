package ingester

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/safe"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/writequeue"
	"go.uber.org/zap"
)

// sourceError marks a block source failure met while repairing.
type sourceError struct{ err error }

func (e sourceError) Error() string { return e.err.Error() }
func (e sourceError) Unwrap() error { return e.err }

// fatal reports whether err must abort the block instead of skipping one record.
func fatal(err error) bool {
	var se sourceError
	switch {
	case errors.Is(err, ErrTransactionUnresolved),
		errors.Is(err, writequeue.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &se):
		return true
	}
	return false
}

// processTx writes one transaction with all of its records.
func (p *Pipeline) processTx(ctx context.Context, height uint64, src *chain.Tx, txid model.TxID, depth int) error {
	w, err := p.putTransaction(ctx, height, src, txid)
	if err != nil {
		return err
	}
	if err := p.putOutputs(ctx, w); err != nil {
		return err
	}
	return p.putInputs(ctx, w, depth)
}

func (p *Pipeline) putTransaction(ctx context.Context, height uint64, src *chain.Tx, txid model.TxID) (txWork, error) {
	nIn, err := safe.Uint32(len(src.Inputs))
	if err != nil {
		return txWork{}, fmt.Errorf("input count of %s: %w", src.TxID, err)
	}
	nOut, err := safe.Uint32(len(src.Outputs))
	if err != nil {
		return txWork{}, fmt.Errorf("output count of %s: %w", src.TxID, err)
	}
	want := model.Transaction{TxID: txid, BlockHeight: height, InputCount: nIn, OutputCount: nOut}

	rec, created, err := p.txs.GetOrAdd(ctx, want)
	if err != nil {
		return txWork{}, fmt.Errorf("transaction %s: %w", txid, err)
	}
	w := txWork{src: src, record: rec, fresh: created}
	if created {
		return w, nil
	}

	var fields model.TxField
	if rec.BlockHeight != want.BlockHeight {
		fields |= model.TxFieldHeight
	}
	if rec.InputCount != want.InputCount {
		fields |= model.TxFieldInputs
	}
	if rec.OutputCount != want.OutputCount {
		fields |= model.TxFieldOutputs
	}
	if fields == 0 {
		return w, nil
	}
	want.ID = rec.ID
	if err := p.txs.Update(ctx, want, fields); err != nil {
		return txWork{}, err
	}
	p.metrics.ObserveRepair("transaction")
	p.logger.Debug("transaction reconciled",
		zap.Stringer("txid", txid),
		zap.Uint64("old_height", rec.BlockHeight),
		zap.Uint64("height", height),
	)
	w.record = want
	return w, nil
}

func (p *Pipeline) putOutputs(ctx context.Context, w txWork) error {
	for _, out := range w.src.Outputs {
		if err := p.putOutput(ctx, w, out); err != nil {
			if fatal(err) {
				return err
			}
			p.logger.Warn("output skipped",
				zap.Stringer("txid", w.record.TxID),
				zap.Uint32("pos", out.Pos),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (p *Pipeline) putOutput(ctx context.Context, w txWork, out chain.TxOut) error {
	want := model.Output{
		TransactionID: w.record.ID,
		Pos:           out.Pos,
		Amount:        out.Value,
		Status:        out.Status,
	}
	if out.Address != nil {
		a, _, err := p.addrs.GetOrAdd(ctx, out.Address.Kind, out.Address.Raw)
		if err != nil {
			return err
		}
		want.AddressID = a.ID
	}

	if !w.fresh {
		cur, ok, err := p.outputs.Get(ctx, want.Key())
		if err != nil {
			return err
		}
		if ok {
			return p.reconcileOutput(ctx, cur, want)
		}
	}
	_, err := p.outputs.Add(ctx, want)
	return err
}

func (p *Pipeline) reconcileOutput(ctx context.Context, cur, want model.Output) error {
	var fields model.OutputField
	if cur.AddressID != want.AddressID {
		fields |= model.OutputFieldAddress
	}
	if cur.Amount != want.Amount {
		fields |= model.OutputFieldAmount
	}
	// spends are tracked by the inputs, not by the parsed output
	if cur.Status != want.Status && !(cur.Status == model.OutputSpent && want.Status == model.OutputUnspent) {
		fields |= model.OutputFieldStatus
	} else {
		want.Status = cur.Status
	}
	if fields == 0 {
		return nil
	}
	if err := p.outputs.Update(ctx, want, fields); err != nil {
		return err
	}
	p.metrics.ObserveRepair("output")
	p.logger.Debug("output reconciled",
		zap.Stringer("output", want.Key()),
		zap.Int64("old_amount", cur.Amount),
		zap.Int64("amount", want.Amount),
		zap.Int64("old_address", cur.AddressID),
		zap.Int64("address", want.AddressID),
	)
	return nil
}

func (p *Pipeline) putInputs(ctx context.Context, w txWork, depth int) error {
	if !w.src.Coinbase {
		for pos, in := range w.src.Inputs {
			if err := p.putInput(ctx, w, pos, in, depth); err != nil {
				if fatal(err) {
					return err
				}
				p.logger.Warn("input skipped",
					zap.Stringer("txid", w.record.TxID),
					zap.Int("pos", pos),
					zap.Error(err),
				)
			}
		}
	}
	if p.opts.SafeMode && !w.fresh {
		return p.trimTransaction(ctx, w)
	}
	return nil
}

func (p *Pipeline) putInput(ctx context.Context, w txWork, index int, in chain.TxIn, depth int) error {
	pos, err := safe.Uint32(index)
	if err != nil {
		return err
	}
	prev, err := p.resolvePrev(ctx, w, pos, in)
	if err != nil {
		return err
	}
	want := model.Input{
		TransactionID:   w.record.ID,
		Pos:             pos,
		InTransactionID: prev.ID,
		InPos:           in.PrevIndex,
	}

	if p.opts.SafeMode {
		if want.InTransactionID, err = p.ensureOutput(ctx, w, pos, in, prev, depth); err != nil {
			return err
		}
		if err := p.resolveClaims(ctx, want, depth); err != nil {
			return err
		}
	}
	if err := p.writeInput(ctx, w.fresh, want); err != nil {
		return err
	}
	if err := p.putAnnex(ctx, w.fresh, want.Key(), in.Annex); err != nil {
		return err
	}

	if p.opts.UpdateSpent {
		if _, ok, err := p.outputs.SetStatus(ctx, want.Spends(), model.OutputSpent); err != nil {
			return err
		} else if !ok {
			p.logger.Debug("spent output not stored", zap.Stringer("output", want.Spends()))
		}
	}
	return nil
}

func (p *Pipeline) resolvePrev(ctx context.Context, w txWork, pos uint32, in chain.TxIn) (model.Transaction, error) {
	prev, ok, err := p.txs.GetByTxID(ctx, in.PrevTxID)
	if err != nil {
		return prev, err
	}
	if !ok {
		return prev, fmt.Errorf("input %d of %s spends %s: %w", pos, w.record.TxID, in.PrevTxID, ErrTransactionUnresolved)
	}
	return prev, nil
}

// spentKey is the output in spends once prev is resolved.
func spentKey(prev model.Transaction, in chain.TxIn) model.OutputKey {
	return model.OutputKey{TransactionID: prev.ID, Pos: in.PrevIndex}
}

// ensureOutput makes sure the spent output exists, revalidating its
// transaction when it does not. It returns the id of the spent transaction,
// which a repair may have changed.
func (p *Pipeline) ensureOutput(ctx context.Context, w txWork, pos uint32, in chain.TxIn, prev model.Transaction, depth int) (int64, error) {
	key := spentKey(prev, in)
	_, ok, err := p.outputs.Get(ctx, key)
	if err != nil || ok {
		return prev.ID, err
	}

	p.metrics.ObserveRepair("missing_output")
	p.logger.Warn("spent output missing, revalidating its transaction",
		zap.Stringer("output", key),
		zap.Stringer("txid", prev.TxID),
		zap.Uint64("height", prev.BlockHeight),
	)
	if err := p.revalidate(ctx, prev, depth); err != nil {
		return 0, err
	}

	if prev, err = p.resolvePrev(ctx, w, pos, in); err != nil {
		return 0, err
	}
	key.TransactionID = prev.ID
	if _, ok, err = p.outputs.Get(ctx, key); err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("output %s still missing after repair", key)
	}
	return prev.ID, nil
}

// resolveClaims settles other inputs recorded against the output want
// spends. Their transactions are revalidated first; whatever claim remains
// afterwards yields to want.
func (p *Pipeline) resolveClaims(ctx context.Context, want model.Input, depth int) error {
	claims, err := p.inputs.BySpent(ctx, want.Spends())
	if err != nil {
		return err
	}
	for _, c := range claims {
		if c.Key() == want.Key() || c.TransactionID == want.TransactionID {
			continue
		}
		p.metrics.ObserveRepair("input_conflict")
		p.logger.Warn("output claimed by another input",
			zap.Stringer("output", want.Spends()),
			zap.Stringer("input", want.Key()),
			zap.Stringer("claimed_by", c.Key()),
		)
		owner, ok, err := p.txs.Get(ctx, c.TransactionID)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := p.revalidate(ctx, owner, depth); err != nil {
			if !errors.Is(err, ErrRepairDepthExceeded) {
				return err
			}
			p.logger.Warn("repair depth exceeded, parsed input wins",
				zap.Stringer("input", want.Key()),
				zap.Stringer("owner", owner.TxID),
			)
		}
	}

	if claims, err = p.inputs.BySpent(ctx, want.Spends()); err != nil {
		return err
	}
	for _, c := range claims {
		if c.Key() == want.Key() {
			continue
		}
		if err := p.deleteInput(ctx, c, false); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) writeInput(ctx context.Context, fresh bool, want model.Input) error {
	if !fresh {
		cur, ok, err := p.inputs.Get(ctx, want.Key())
		if err != nil {
			return err
		}
		if ok {
			if cur == want {
				return nil
			}
			if err := p.inputs.Repoint(ctx, want); err != nil {
				return err
			}
			p.metrics.ObserveRepair("input")
			p.logger.Debug("input repointed",
				zap.Stringer("input", want.Key()),
				zap.Stringer("old_output", cur.Spends()),
				zap.Stringer("output", want.Spends()),
			)
			return p.rollbackSpent(ctx, cur.Spends())
		}
	}
	_, err := p.inputs.Add(ctx, want)
	return err
}

// putAnnex stores signing metadata for inputs that need it and drops rows
// of inputs that no longer do.
func (p *Pipeline) putAnnex(ctx context.Context, fresh bool, key model.InputKey, annex *chain.Annex) error {
	want := model.InputAnnex{TransactionID: key.TransactionID, Pos: key.Pos, SighashType: model.SighashAll}
	if annex != nil {
		want.SighashType = annex.SighashType
		want.Segwit = annex.Segwit
		want.Multisig = annex.Multisig
	}
	if fresh {
		if want.IsDefault() {
			return nil
		}
		_, err := p.inputs.AddAnnex(ctx, want)
		return err
	}

	cur, ok, err := p.inputs.Annex(ctx, key)
	if err != nil {
		return err
	}
	switch {
	case want.IsDefault():
		if ok {
			return p.inputs.DeleteAnnex(ctx, key)
		}
		return nil
	case !ok:
		_, err := p.inputs.AddAnnex(ctx, want)
		return err
	case cur != want:
		return p.inputs.UpdateAnnex(ctx, want)
	}
	return nil
}

// trimTransaction drops inputs and outputs a previous run stored beyond what
// the parsed transaction has.
func (p *Pipeline) trimTransaction(ctx context.Context, w txWork) error {
	nIn := len(w.src.Inputs)
	if w.src.Coinbase {
		nIn = 0
	}
	ins, err := p.inputs.ByTransaction(ctx, w.record.ID)
	if err != nil {
		return err
	}
	for _, in := range ins {
		if int(in.Pos) < nIn {
			continue
		}
		p.metrics.ObserveRepair("stale_input")
		if err := p.deleteInput(ctx, in, true); err != nil {
			return err
		}
	}

	parsed := make(map[uint32]struct{}, len(w.src.Outputs))
	for _, out := range w.src.Outputs {
		parsed[out.Pos] = struct{}{}
	}
	outs, err := p.outputs.ByTransaction(ctx, w.record.ID)
	if err != nil {
		return err
	}
	for _, o := range outs {
		if _, ok := parsed[o.Pos]; ok {
			continue
		}
		p.metrics.ObserveRepair("stale_output")
		if err := p.outputs.Delete(ctx, o.Key()); err != nil {
			return err
		}
	}
	return nil
}
