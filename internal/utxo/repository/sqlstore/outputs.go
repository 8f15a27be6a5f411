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

const outputColumns = `transaction_id, pos, address_id, amount, spent`

type outputRow struct {
	TransactionID int64 `db:"transaction_id"`
	Pos           int64 `db:"pos"`
	AddressID     int64 `db:"address_id"`
	Amount        int64 `db:"amount"`
	Spent         int64 `db:"spent"`
}

func (r outputRow) model() (model.Output, error) {
	pos, err := safe.Uint32(r.Pos)
	if err != nil {
		return model.Output{}, fmt.Errorf("output %d pos: %w", r.TransactionID, err)
	}
	status, err := safe.Uint16(r.Spent)
	if err != nil || status > uint16(model.OutputUnspendableBadScript) {
		return model.Output{}, fmt.Errorf("output %d:%d has invalid status %d", r.TransactionID, r.Pos, r.Spent)
	}
	return model.Output{
		TransactionID: r.TransactionID,
		Pos:           pos,
		AddressID:     r.AddressID,
		Amount:        r.Amount,
		Status:        model.OutputStatus(status),
	}, nil
}

// OutputByKey loads one output.
func (s *Store) OutputByKey(ctx context.Context, key model.OutputKey) (out model.Output, ok bool, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("get_output", err, start)
	}()

	var row outputRow
	query := s.db.Rebind(`SELECT ` + outputColumns + ` FROM output WHERE transaction_id = ? AND pos = ?`)
	err = s.db.GetContext(ctx, &row, query, key.TransactionID, int64(key.Pos))
	if notFound(err) {
		return model.Output{}, false, nil
	}
	if err != nil {
		return model.Output{}, false, fmt.Errorf("query output %s: %w", key, err)
	}
	out, err = row.model()
	return out, err == nil, err
}

// OutputsByTransaction lists the outputs of a transaction ordered by position.
func (s *Store) OutputsByTransaction(ctx context.Context, txID int64) (outs []model.Output, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("list_outputs_by_transaction", err, start)
	}()

	var rows []outputRow
	query := s.db.Rebind(`SELECT ` + outputColumns + ` FROM output WHERE transaction_id = ? ORDER BY pos`)
	if err = s.db.SelectContext(ctx, &rows, query, txID); err != nil {
		return nil, fmt.Errorf("query outputs of %d: %w", txID, err)
	}
	outs = make([]model.Output, 0, len(rows))
	for _, r := range rows {
		o, err := r.model()
		if err != nil {
			return nil, err
		}
		outs = append(outs, o)
	}
	return outs, nil
}

// DeleteOutput removes one output.
func (s *Store) DeleteOutput(ctx context.Context, key model.OutputKey) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("delete_output", err, start)
	}()

	query := s.db.Rebind(`DELETE FROM output WHERE transaction_id = ? AND pos = ?`)
	if _, err = s.db.ExecContext(ctx, query, key.TransactionID, int64(key.Pos)); err != nil {
		return fmt.Errorf("delete output %s: %w", key, err)
	}
	return nil
}

// OutputWriter inserts outputs.
func (s *Store) OutputWriter() batchexec.Writer[model.Output] {
	return &insertWriter[model.Output]{
		store:   s,
		op:      "insert_outputs",
		table:   constTable[model.Output]("output"),
		columns: []string{"transaction_id", "pos", "address_id", "amount", "spent"},
		values: func(o model.Output) []any {
			return []any{o.TransactionID, int64(o.Pos), o.AddressID, o.Amount, int64(o.Status)}
		},
	}
}

// OutputUpdater applies masked output updates.
func (s *Store) OutputUpdater() batchexec.Writer[writequeue.Update[model.Output]] {
	return &updateWriter[model.Output]{
		store: s,
		op:    "update_outputs",
		table: constTable[model.Output]("output"),
		set: []column[model.Output]{
			{name: "spent", field: uint8(model.OutputFieldStatus), value: func(o model.Output) any { return int64(o.Status) }},
			{name: "address_id", field: uint8(model.OutputFieldAddress), value: func(o model.Output) any { return o.AddressID }},
			{name: "amount", field: uint8(model.OutputFieldAmount), value: func(o model.Output) any { return o.Amount }},
		},
		where: []column[model.Output]{
			{name: "transaction_id", value: func(o model.Output) any { return o.TransactionID }},
			{name: "pos", value: func(o model.Output) any { return int64(o.Pos) }},
		},
	}
}
