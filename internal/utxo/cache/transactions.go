package cache

import (
	"context"
	"fmt"
	"sort"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/idalloc"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/lightninglabs/neutrino/cache/lru"
)

// TransactionCache resolves transactions by id and by txid.
type TransactionCache struct {
	rt   *readThrough[int64, model.TxID, model.Transaction]
	repo TransactionRepository
	ids  IDAllocator
	// byTxID maps txids to ids for entries of rt; guarded by rt.mu.
	byTxID *lru.Cache[model.TxID, item[int64]]
}

func NewTransactionCache(deps Deps, repo TransactionRepository, writers Writers[model.Transaction], cfg Config) *TransactionCache {
	cfg = queueName(cfg, "transaction")
	c := &TransactionCache{repo: repo, ids: deps.IDs}
	c.rt = newReadThrough(deps, cfg,
		func(tx model.Transaction) int64 { return tx.ID },
		func(tx model.Transaction) model.TxID { return tx.TxID },
		writers,
		repo.TransactionByID,
	)
	if cfg.Capacity > 0 {
		c.byTxID = lru.NewCache[model.TxID, item[int64]](cfg.Capacity)
	}
	return c
}

// Get returns the transaction with the given id.
func (c *TransactionCache) Get(ctx context.Context, id int64) (model.Transaction, bool, error) {
	tx, ok, err := c.rt.get(ctx, id)
	if err != nil {
		return tx, false, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, ok, nil
}

// GetByTxID returns the transaction stored under txid.
func (c *TransactionCache) GetByTxID(ctx context.Context, txid model.TxID) (model.Transaction, bool, error) {
	tx, ok, err := c.rt.resolve(ctx,
		func() (model.Transaction, bool) { return c.byTxIDLocked(txid) },
		func(ctx context.Context) (model.Transaction, bool, error) { return c.repo.TransactionByTxID(ctx, txid) },
	)
	if err != nil {
		return tx, false, fmt.Errorf("get transaction %s: %w", txid, err)
	}
	if ok {
		c.rt.mu.Lock()
		c.index(tx)
		c.rt.mu.Unlock()
	}
	return tx, ok, nil
}

func (c *TransactionCache) byTxIDLocked(txid model.TxID) (model.Transaction, bool) {
	if c.byTxID != nil {
		if it, err := c.byTxID.Get(txid); err == nil {
			if tx, ok := c.rt.cachedLocked(it.value); ok && tx.TxID == txid {
				return tx, true
			}
		}
	}
	if queued := c.rt.queue.Group(txid); len(queued) > 0 {
		tx := queued[0]
		c.rt.remember(tx)
		c.index(tx)
		return tx, true
	}
	return model.Transaction{}, false
}

func (c *TransactionCache) index(tx model.Transaction) {
	if c.byTxID != nil {
		_, _ = c.byTxID.Put(tx.TxID, item[int64]{value: tx.ID})
	}
}

// GetOrAdd returns the transaction stored under tx.TxID, creating it with a
// fresh id when there is none. The flag reports creation.
func (c *TransactionCache) GetOrAdd(ctx context.Context, tx model.Transaction) (model.Transaction, bool, error) {
	if got, ok, err := c.GetByTxID(ctx, tx.TxID); err != nil || ok {
		return got, false, err
	}

	id, err := c.ids.Next(ctx, idalloc.Transaction)
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("allocate transaction id: %w", err)
	}
	tx.ID = id

	if err := c.rt.queue.Acquire(ctx); err != nil {
		return model.Transaction{}, false, fmt.Errorf("queue transaction %s: %w", tx.TxID, err)
	}
	c.rt.mu.Lock()
	defer c.rt.mu.Unlock()
	if got, ok := c.byTxIDLocked(tx.TxID); ok {
		c.rt.queue.Release()
		return got, false, nil
	}
	got, ok, err := c.repo.TransactionByTxID(ctx, tx.TxID)
	if err != nil || ok {
		c.rt.queue.Release()
		if err != nil {
			return model.Transaction{}, false, fmt.Errorf("get transaction %s: %w", tx.TxID, err)
		}
		c.rt.remember(got)
		c.index(got)
		return got, false, nil
	}
	if !c.rt.putLocked(tx, func() { c.index(tx) }) {
		return model.Transaction{}, false, fmt.Errorf("transaction id %d already queued", tx.ID)
	}
	return tx, true, nil
}

// Add queues a transaction that already carries its id.
func (c *TransactionCache) Add(ctx context.Context, tx model.Transaction) (bool, error) {
	ok, err := c.rt.add(ctx, tx, func() { c.index(tx) })
	if err != nil {
		return false, fmt.Errorf("add transaction %d: %w", tx.ID, err)
	}
	return ok, nil
}

// Update queues the changed fields of tx.
func (c *TransactionCache) Update(ctx context.Context, tx model.Transaction, fields model.TxField) error {
	if err := c.rt.update(ctx, tx, uint8(fields)); err != nil {
		return fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}
	c.rt.mu.Lock()
	c.index(tx)
	c.rt.mu.Unlock()
	return nil
}

// Delete removes tx from memory, the queue and the store.
func (c *TransactionCache) Delete(ctx context.Context, tx model.Transaction) error {
	err := c.rt.remove(ctx, tx.ID,
		func(ctx context.Context) error { return c.repo.DeleteTransaction(ctx, tx.ID) },
		func() {
			if c.byTxID != nil {
				c.byTxID.Delete(tx.TxID)
			}
		},
	)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", tx.ID, err)
	}
	return nil
}

// ListByHeight returns every transaction of a block, stored or queued, ordered by id.
func (c *TransactionCache) ListByHeight(ctx context.Context, height uint64) ([]model.Transaction, error) {
	stored, err := c.repo.TransactionsByHeight(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("list transactions at %d: %w", height, err)
	}

	c.rt.mu.Lock()
	defer c.rt.mu.Unlock()

	byID := make(map[int64]model.Transaction, len(stored))
	for _, tx := range stored {
		if cur, ok := c.rt.cachedLocked(tx.ID); ok {
			tx = cur
		}
		if tx.BlockHeight == height {
			byID[tx.ID] = tx
		}
	}
	for _, tx := range c.rt.queue.Filter(func(tx model.Transaction) bool { return tx.BlockHeight == height }) {
		byID[tx.ID] = tx
	}

	out := make([]model.Transaction, 0, len(byID))
	for _, tx := range byID {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close flushes everything queued for transactions.
func (c *TransactionCache) Close(ctx context.Context) error {
	return c.rt.close(ctx)
}
