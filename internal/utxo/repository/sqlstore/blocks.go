package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/safe"
)

type blockRow struct {
	Height  int64  `db:"height"`
	Hash    []byte `db:"hash"`
	TxCount int64  `db:"txn_count"`
}

func (r blockRow) model() (model.Block, error) {
	height, err := safe.Uint64(r.Height)
	if err != nil {
		return model.Block{}, fmt.Errorf("block height: %w", err)
	}
	txs, err := safe.Uint32(r.TxCount)
	if err != nil {
		return model.Block{}, fmt.Errorf("block %d txn_count: %w", r.Height, err)
	}
	hash, err := chainhash.NewHash(r.Hash)
	if err != nil {
		return model.Block{}, fmt.Errorf("block %d hash: %w", r.Height, err)
	}
	return model.Block{Height: height, Hash: *hash, TxCount: txs}, nil
}

// MaxBlockHeight returns the highest stored block height, or false for an empty store.
func (s *Store) MaxBlockHeight(ctx context.Context) (height uint64, ok bool, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("max_block_height", err, start)
	}()

	var id int64
	var valid bool
	id, valid, err = s.maxColumn(ctx, "SELECT MAX(height) FROM block")
	if err != nil {
		return 0, false, fmt.Errorf("query max block height: %w", err)
	}
	if !valid {
		return 0, false, nil
	}
	height, err = safe.Uint64(id)
	return height, err == nil, err
}

func (s *Store) maxColumn(ctx context.Context, query string) (int64, bool, error) {
	var v sql.NullInt64
	if err := s.db.GetContext(ctx, &v, query); err != nil {
		return 0, false, err
	}
	return v.Int64, v.Valid, nil
}

// Block loads the block stored at height.
func (s *Store) Block(ctx context.Context, height uint64) (b model.Block, ok bool, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("get_block", err, start)
	}()

	var row blockRow
	err = s.db.GetContext(ctx, &row, s.db.Rebind("SELECT height, hash, txn_count FROM block WHERE height = ?"), int64(height))
	if notFound(err) {
		return model.Block{}, false, nil
	}
	if err != nil {
		return model.Block{}, false, fmt.Errorf("query block %d: %w", height, err)
	}
	b, err = row.model()
	return b, err == nil, err
}

// UpsertBlock stores b, replacing hash and count of an existing row at the same height.
func (s *Store) UpsertBlock(ctx context.Context, b model.Block) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("upsert_block", err, start)
	}()

	const query = `
INSERT INTO block (height, hash, txn_count) VALUES (?, ?, ?)
ON CONFLICT (height) DO UPDATE SET hash = excluded.hash, txn_count = excluded.txn_count`

	if _, err = s.db.ExecContext(ctx, s.db.Rebind(query), int64(b.Height), b.Hash[:], int64(b.TxCount)); err != nil {
		return fmt.Errorf("upsert block %d: %w", b.Height, err)
	}
	return nil
}

// DeleteBlock removes the block row at height.
func (s *Store) DeleteBlock(ctx context.Context, height uint64) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("delete_block", err, start)
	}()

	if _, err = s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM block WHERE height = ?"), int64(height)); err != nil {
		return fmt.Errorf("delete block %d: %w", height, err)
	}
	return nil
}
