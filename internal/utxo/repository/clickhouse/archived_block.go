package clickhouse

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/safe"
)

const (
	archivedBlockQuery = `
SELECT hash, tx_count
FROM utxo_blocks FINAL
WHERE network = ? AND height = ?`

	archivedTransactionsQuery = `
SELECT tx_index, txid
FROM utxo_transactions FINAL
WHERE network = ? AND block_height = ?
ORDER BY tx_index ASC`

	archivedInputsQuery = `
SELECT txid, input_index, prev_txid, prev_vout, is_coinbase, script_sig_hex, witness
FROM utxo_transaction_inputs FINAL
WHERE network = ? AND block_height = ?
ORDER BY txid ASC, input_index ASC`

	archivedOutputsQuery = `
SELECT txid, output_index, value, script_hex
FROM utxo_transaction_outputs FINAL
WHERE network = ? AND block_height = ?
ORDER BY txid ASC, output_index ASC`
)

// ArchivedBlock is a block as the archive keeps it: ids, inputs and outputs,
// without the fields needed to recompute transaction hashes.
type ArchivedBlock struct {
	Height uint64
	Hash   chainhash.Hash
	Txs    []ArchivedTx
}

type ArchivedTx struct {
	TxID     chainhash.Hash
	Coinbase bool
	Tx       *wire.MsgTx
}

// ArchivedBlock loads the block at height with all of its transactions. It
// returns chain.ErrBlockNotFound when the height is not archived, and an
// error when the archive holds only part of the block.
func (r *Repository) ArchivedBlock(ctx context.Context, height uint64) (block *ArchivedBlock, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("archived_block", err, start)
	}()

	block = &ArchivedBlock{Height: height}
	var (
		txCount uint32
		found   bool
	)
	err = r.each(ctx, archivedBlockQuery, height, func(rows driver.Rows) error {
		var hash string
		if err := rows.Scan(&hash, &txCount); err != nil {
			return err
		}
		parsed, err := chainhash.NewHashFromStr(hash)
		if err != nil {
			return fmt.Errorf("block hash %q: %w", hash, err)
		}
		block.Hash = *parsed
		found = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query block %d: %w", height, err)
	}
	if !found {
		return nil, fmt.Errorf("archived block %d: %w", height, chain.ErrBlockNotFound)
	}

	byID := make(map[chainhash.Hash]*ArchivedTx, txCount)
	err = r.each(ctx, archivedTransactionsQuery, height, func(rows driver.Rows) error {
		var (
			index uint32
			txid  string
		)
		if err := rows.Scan(&index, &txid); err != nil {
			return err
		}
		if int(index) != len(block.Txs) {
			return fmt.Errorf("transaction index %d out of sequence", index)
		}
		id, err := chainhash.NewHashFromStr(txid)
		if err != nil {
			return fmt.Errorf("txid %q: %w", txid, err)
		}
		block.Txs = append(block.Txs, ArchivedTx{TxID: *id, Tx: wire.NewMsgTx(wire.TxVersion)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query transactions of block %d: %w", height, err)
	}
	if len(block.Txs) != int(txCount) {
		return nil, fmt.Errorf("block %d archived with %d of %d transactions", height, len(block.Txs), txCount)
	}
	for i := range block.Txs {
		byID[block.Txs[i].TxID] = &block.Txs[i]
	}

	err = r.each(ctx, archivedInputsQuery, height, func(rows driver.Rows) error {
		var (
			txid, prevTxID, scriptSig string
			index, prevVout           uint32
			coinbase                  bool
			witness                   []string
		)
		if err := rows.Scan(&txid, &index, &prevTxID, &prevVout, &coinbase, &scriptSig, &witness); err != nil {
			return err
		}
		tx, err := lookup(byID, txid)
		if err != nil {
			return err
		}
		if int(index) != len(tx.Tx.TxIn) {
			return fmt.Errorf("input %s:%d out of sequence", txid, index)
		}
		in, err := archivedInput(prevTxID, prevVout, coinbase, scriptSig, witness)
		if err != nil {
			return fmt.Errorf("input %s:%d: %w", txid, index, err)
		}
		tx.Coinbase = tx.Coinbase || coinbase
		tx.Tx.AddTxIn(in)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query inputs of block %d: %w", height, err)
	}

	err = r.each(ctx, archivedOutputsQuery, height, func(rows driver.Rows) error {
		var (
			txid, script string
			index        uint32
			value        uint64
		)
		if err := rows.Scan(&txid, &index, &value, &script); err != nil {
			return err
		}
		tx, err := lookup(byID, txid)
		if err != nil {
			return err
		}
		if int(index) != len(tx.Tx.TxOut) {
			return fmt.Errorf("output %s:%d out of sequence", txid, index)
		}
		amount, err := safe.Int64(value)
		if err != nil {
			return fmt.Errorf("output %s:%d value: %w", txid, index, err)
		}
		pkScript, err := hex.DecodeString(script)
		if err != nil {
			return fmt.Errorf("output %s:%d script: %w", txid, index, err)
		}
		tx.Tx.AddTxOut(wire.NewTxOut(amount, pkScript))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query outputs of block %d: %w", height, err)
	}
	return block, nil
}

func lookup(byID map[chainhash.Hash]*ArchivedTx, txid string) (*ArchivedTx, error) {
	id, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, fmt.Errorf("txid %q: %w", txid, err)
	}
	tx, ok := byID[*id]
	if !ok {
		return nil, fmt.Errorf("row for unknown transaction %s", txid)
	}
	return tx, nil
}

func archivedInput(prevTxID string, prevVout uint32, coinbase bool, scriptSig string, witness []string) (*wire.TxIn, error) {
	in := &wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: prevVout},
		Sequence:         wire.MaxTxInSequenceNum,
	}
	if coinbase {
		in.PreviousOutPoint.Index = wire.MaxPrevOutIndex
	} else {
		prev, err := chainhash.NewHashFromStr(prevTxID)
		if err != nil {
			return nil, fmt.Errorf("prev txid %q: %w", prevTxID, err)
		}
		in.PreviousOutPoint.Hash = *prev
	}

	var err error
	if in.SignatureScript, err = hex.DecodeString(scriptSig); err != nil {
		return nil, fmt.Errorf("script sig: %w", err)
	}
	for _, item := range witness {
		raw, err := hex.DecodeString(item)
		if err != nil {
			return nil, fmt.Errorf("witness item: %w", err)
		}
		in.Witness = append(in.Witness, raw)
	}
	return in, nil
}

// each runs query for the repository network at height and hands every row to scan.
func (r *Repository) each(ctx context.Context, query string, height uint64, scan func(driver.Rows) error) (err error) {
	rows, err := r.conn.Query(ctx, query, string(r.network), height)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		if err = scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
