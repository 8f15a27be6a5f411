package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/batchexec"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/safe"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/writequeue"
)

const (
	inputColumns = `transaction_id, pos, in_transaction_id, in_pos`
	annexColumns = `transaction_id, pos, sighash_type, segwit, multisig`
)

type inputRow struct {
	TransactionID   int64 `db:"transaction_id"`
	Pos             int64 `db:"pos"`
	InTransactionID int64 `db:"in_transaction_id"`
	InPos           int64 `db:"in_pos"`
}

func (r inputRow) model() (model.Input, error) {
	pos, err := safe.Uint32(r.Pos)
	if err != nil {
		return model.Input{}, fmt.Errorf("input %d pos: %w", r.TransactionID, err)
	}
	inPos, err := safe.Uint32(r.InPos)
	if err != nil {
		return model.Input{}, fmt.Errorf("input %d:%d in_pos: %w", r.TransactionID, r.Pos, err)
	}
	return model.Input{
		TransactionID:   r.TransactionID,
		Pos:             pos,
		InTransactionID: r.InTransactionID,
		InPos:           inPos,
	}, nil
}

type annexRow struct {
	TransactionID int64 `db:"transaction_id"`
	Pos           int64 `db:"pos"`
	SighashType   int64 `db:"sighash_type"`
	Segwit        bool  `db:"segwit"`
	Multisig      bool  `db:"multisig"`
}

func (r annexRow) model() (model.InputAnnex, error) {
	pos, err := safe.Uint32(r.Pos)
	if err != nil {
		return model.InputAnnex{}, fmt.Errorf("annex %d pos: %w", r.TransactionID, err)
	}
	if r.SighashType < 0 || r.SighashType > 0xff {
		return model.InputAnnex{}, fmt.Errorf("annex %d:%d sighash %d out of range", r.TransactionID, r.Pos, r.SighashType)
	}
	return model.InputAnnex{
		TransactionID: r.TransactionID,
		Pos:           pos,
		SighashType:   uint8(r.SighashType),
		Segwit:        r.Segwit,
		Multisig:      r.Multisig,
	}, nil
}

func (s *Store) selectInputs(ctx context.Context, op, where string, args ...any) (ins []model.Input, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe(op, err, start)
	}()

	var rows []inputRow
	query := s.db.Rebind(`SELECT ` + inputColumns + ` FROM input WHERE ` + where + ` ORDER BY transaction_id, pos`)
	if err = s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query inputs: %w", err)
	}
	ins = make([]model.Input, 0, len(rows))
	for _, r := range rows {
		in, err := r.model()
		if err != nil {
			return nil, err
		}
		ins = append(ins, in)
	}
	return ins, nil
}

// InputByKey loads one input.
func (s *Store) InputByKey(ctx context.Context, key model.InputKey) (model.Input, bool, error) {
	ins, err := s.selectInputs(ctx, "get_input", "transaction_id = ? AND pos = ?", key.TransactionID, int64(key.Pos))
	if err != nil || len(ins) == 0 {
		return model.Input{}, false, err
	}
	return ins[0], true, nil
}

// InputsByTransaction lists the inputs of a transaction ordered by position.
func (s *Store) InputsByTransaction(ctx context.Context, txID int64) ([]model.Input, error) {
	return s.selectInputs(ctx, "list_inputs_by_transaction", "transaction_id = ?", txID)
}

// InputsBySpent lists every input claiming to spend the given output.
func (s *Store) InputsBySpent(ctx context.Context, out model.OutputKey) ([]model.Input, error) {
	return s.selectInputs(ctx, "list_inputs_by_spent", "in_transaction_id = ? AND in_pos = ?", out.TransactionID, int64(out.Pos))
}

// DeleteInput removes one input.
func (s *Store) DeleteInput(ctx context.Context, key model.InputKey) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("delete_input", err, start)
	}()

	query := s.db.Rebind(`DELETE FROM input WHERE transaction_id = ? AND pos = ?`)
	if _, err = s.db.ExecContext(ctx, query, key.TransactionID, int64(key.Pos)); err != nil {
		return fmt.Errorf("delete input %s: %w", key, err)
	}
	return nil
}

// InputWriter inserts inputs.
func (s *Store) InputWriter() batchexec.Writer[model.Input] {
	return &insertWriter[model.Input]{
		store:   s,
		op:      "insert_inputs",
		table:   constTable[model.Input]("input"),
		columns: []string{"transaction_id", "pos", "in_transaction_id", "in_pos"},
		values: func(in model.Input) []any {
			return []any{in.TransactionID, int64(in.Pos), in.InTransactionID, int64(in.InPos)}
		},
	}
}

// InputUpdater repoints inputs at a different spent output.
func (s *Store) InputUpdater() batchexec.Writer[writequeue.Update[model.Input]] {
	return &updateWriter[model.Input]{
		store: s,
		op:    "update_inputs",
		table: constTable[model.Input]("input"),
		set: []column[model.Input]{
			{name: "in_transaction_id", field: uint8(model.InputFieldSpent), value: func(in model.Input) any { return in.InTransactionID }},
			{name: "in_pos", field: uint8(model.InputFieldSpent), value: func(in model.Input) any { return int64(in.InPos) }},
		},
		where: []column[model.Input]{
			{name: "transaction_id", value: func(in model.Input) any { return in.TransactionID }},
			{name: "pos", value: func(in model.Input) any { return int64(in.Pos) }},
		},
	}
}

// AnnexByKey loads the signing annex of an input.
func (s *Store) AnnexByKey(ctx context.Context, key model.InputKey) (a model.InputAnnex, ok bool, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("get_input_annex", err, start)
	}()

	var row annexRow
	query := s.db.Rebind(`SELECT ` + annexColumns + ` FROM input_special WHERE transaction_id = ? AND pos = ?`)
	err = s.db.GetContext(ctx, &row, query, key.TransactionID, int64(key.Pos))
	if notFound(err) {
		return model.InputAnnex{}, false, nil
	}
	if err != nil {
		return model.InputAnnex{}, false, fmt.Errorf("query annex %s: %w", key, err)
	}
	a, err = row.model()
	return a, err == nil, err
}

// DeleteAnnex removes the annex of an input.
func (s *Store) DeleteAnnex(ctx context.Context, key model.InputKey) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("delete_input_annex", err, start)
	}()

	query := s.db.Rebind(`DELETE FROM input_special WHERE transaction_id = ? AND pos = ?`)
	if _, err = s.db.ExecContext(ctx, query, key.TransactionID, int64(key.Pos)); err != nil {
		return fmt.Errorf("delete annex %s: %w", key, err)
	}
	return nil
}

// AnnexWriter inserts input annexes.
func (s *Store) AnnexWriter() batchexec.Writer[model.InputAnnex] {
	return &insertWriter[model.InputAnnex]{
		store:   s,
		op:      "insert_input_annexes",
		table:   constTable[model.InputAnnex]("input_special"),
		columns: []string{"transaction_id", "pos", "sighash_type", "segwit", "multisig"},
		values: func(a model.InputAnnex) []any {
			return []any{a.TransactionID, int64(a.Pos), int64(a.SighashType), a.Segwit, a.Multisig}
		},
	}
}

// AnnexUpdater rewrites every annex column.
func (s *Store) AnnexUpdater() batchexec.Writer[writequeue.Update[model.InputAnnex]] {
	return &updateWriter[model.InputAnnex]{
		store: s,
		op:    "update_input_annexes",
		table: constTable[model.InputAnnex]("input_special"),
		set: []column[model.InputAnnex]{
			{name: "sighash_type", value: func(a model.InputAnnex) any { return int64(a.SighashType) }},
			{name: "segwit", value: func(a model.InputAnnex) any { return a.Segwit }},
			{name: "multisig", value: func(a model.InputAnnex) any { return a.Multisig }},
		},
		where: []column[model.InputAnnex]{
			{name: "transaction_id", value: func(a model.InputAnnex) any { return a.TransactionID }},
			{name: "pos", value: func(a model.InputAnnex) any { return int64(a.Pos) }},
		},
	}
}
