package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/batchexec"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/safe"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/writequeue"
)

const transactionColumns = `transaction_id, txid, block_height, n_inputs, n_outputs`

type transactionRow struct {
	ID          int64  `db:"transaction_id"`
	TxID        []byte `db:"txid"`
	BlockHeight int64  `db:"block_height"`
	NInputs     int64  `db:"n_inputs"`
	NOutputs    int64  `db:"n_outputs"`
}

func (r transactionRow) model() (model.Transaction, error) {
	txid, err := chainhash.NewHash(r.TxID)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %d txid: %w", r.ID, err)
	}
	height, err := safe.Uint64(r.BlockHeight)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %d height: %w", r.ID, err)
	}
	nIn, err := safe.Uint32(r.NInputs)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %d inputs: %w", r.ID, err)
	}
	nOut, err := safe.Uint32(r.NOutputs)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %d outputs: %w", r.ID, err)
	}
	return model.Transaction{
		ID:          r.ID,
		TxID:        *txid,
		BlockHeight: height,
		InputCount:  nIn,
		OutputCount: nOut,
	}, nil
}

func transactionModels(rows []transactionRow) ([]model.Transaction, error) {
	out := make([]model.Transaction, 0, len(rows))
	for _, r := range rows {
		tx, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *Store) transactionBy(ctx context.Context, op, where string, arg any) (tx model.Transaction, ok bool, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe(op, err, start)
	}()

	var row transactionRow
	query := s.db.Rebind(`SELECT ` + transactionColumns + ` FROM "transaction" WHERE ` + where)
	err = s.db.GetContext(ctx, &row, query, arg)
	if notFound(err) {
		return model.Transaction{}, false, nil
	}
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("query transaction: %w", err)
	}
	tx, err = row.model()
	return tx, err == nil, err
}

// TransactionByID loads a transaction by its allocated id.
func (s *Store) TransactionByID(ctx context.Context, id int64) (model.Transaction, bool, error) {
	return s.transactionBy(ctx, "get_transaction", "transaction_id = ?", id)
}

// TransactionByTxID loads a transaction by its stored txid.
func (s *Store) TransactionByTxID(ctx context.Context, txid model.TxID) (model.Transaction, bool, error) {
	return s.transactionBy(ctx, "get_transaction_by_txid", "txid = ?", txid[:])
}

// TransactionsByHeight lists transactions stored at a block height, ordered by id.
func (s *Store) TransactionsByHeight(ctx context.Context, height uint64) (txs []model.Transaction, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("list_transactions_by_height", err, start)
	}()

	var rows []transactionRow
	query := s.db.Rebind(`SELECT ` + transactionColumns + ` FROM "transaction" WHERE block_height = ? ORDER BY transaction_id`)
	if err = s.db.SelectContext(ctx, &rows, query, int64(height)); err != nil {
		return nil, fmt.Errorf("query transactions at %d: %w", height, err)
	}
	return transactionModels(rows)
}

// DeleteTransaction removes a transaction row. Its inputs and outputs are left to the caller.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("delete_transaction", err, start)
	}()

	if _, err = s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM "transaction" WHERE transaction_id = ?`), id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

func transactionValues(t model.Transaction) []any {
	return []any{t.ID, t.TxID[:], int64(t.BlockHeight), int64(t.InputCount), int64(t.OutputCount)}
}

// TransactionWriter inserts transactions.
func (s *Store) TransactionWriter() batchexec.Writer[model.Transaction] {
	return &insertWriter[model.Transaction]{
		store:   s,
		op:      "insert_transactions",
		table:   constTable[model.Transaction](`"transaction"`),
		columns: []string{"transaction_id", "txid", "block_height", "n_inputs", "n_outputs"},
		values:  transactionValues,
	}
}

// TransactionUpdater applies masked transaction updates.
func (s *Store) TransactionUpdater() batchexec.Writer[writequeue.Update[model.Transaction]] {
	return &updateWriter[model.Transaction]{
		store: s,
		op:    "update_transactions",
		table: constTable[model.Transaction](`"transaction"`),
		set: []column[model.Transaction]{
			{name: "block_height", field: uint8(model.TxFieldHeight), value: func(t model.Transaction) any { return int64(t.BlockHeight) }},
			{name: "n_inputs", field: uint8(model.TxFieldInputs), value: func(t model.Transaction) any { return int64(t.InputCount) }},
			{name: "n_outputs", field: uint8(model.TxFieldOutputs), value: func(t model.Transaction) any { return int64(t.OutputCount) }},
		},
		where: []column[model.Transaction]{
			{name: "transaction_id", value: func(t model.Transaction) any { return t.ID }},
		},
	}
}
