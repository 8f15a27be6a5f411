package cache

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/idalloc"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/lightninglabs/neutrino/cache/lru"
)

// AddressCache resolves addresses by id and by (kind, raw bytes), creating
// them on first sight.
type AddressCache struct {
	rt   *readThrough[int64, model.AddressKey, model.Address]
	repo AddressRepository
	ids  IDAllocator
	// byKey maps natural keys to ids; guarded by rt.mu.
	byKey *lru.Cache[model.AddressKey, item[int64]]
}

func NewAddressCache(deps Deps, repo AddressRepository, writers Writers[model.Address], cfg Config) *AddressCache {
	cfg = queueName(cfg, "address")
	c := &AddressCache{repo: repo, ids: deps.IDs}
	c.rt = newReadThrough(deps, cfg,
		func(a model.Address) int64 { return a.ID },
		model.Address.NaturalKey,
		writers,
		repo.AddressByID,
	)
	if cfg.Capacity > 0 {
		c.byKey = lru.NewCache[model.AddressKey, item[int64]](cfg.Capacity)
	}
	return c
}

func (c *AddressCache) Get(ctx context.Context, id int64) (model.Address, bool, error) {
	a, ok, err := c.rt.get(ctx, id)
	if err != nil {
		return a, false, fmt.Errorf("get address %d: %w", id, err)
	}
	return a, ok, nil
}

// GetByNaturalKey returns the address of kind with the given raw bytes.
func (c *AddressCache) GetByNaturalKey(ctx context.Context, kind model.AddressKind, raw []byte) (model.Address, bool, error) {
	key := model.AddressKey{Kind: kind, Raw: string(raw)}
	a, ok, err := c.rt.resolve(ctx,
		func() (model.Address, bool) {
			a, ok, _ := c.byKeyLocked(ctx, key, false)
			return a, ok
		},
		func(ctx context.Context) (model.Address, bool, error) {
			return c.repo.AddressByNaturalKey(ctx, kind, raw)
		},
	)
	if err != nil {
		return a, false, fmt.Errorf("get %s address: %w", kind, err)
	}
	if ok {
		c.rt.mu.Lock()
		c.index(a)
		c.rt.mu.Unlock()
	}
	return a, ok, nil
}

// byKeyLocked finds key in memory or the queue. With deep set, an indexed id
// whose record left memory is loaded from the store by id.
func (c *AddressCache) byKeyLocked(ctx context.Context, key model.AddressKey, deep bool) (model.Address, bool, error) {
	if c.byKey != nil {
		if it, err := c.byKey.Get(key); err == nil {
			if a, ok := c.rt.cachedLocked(it.value); ok && a.NaturalKey() == key {
				return a, true, nil
			}
			if deep {
				a, ok, err := c.rt.getLocked(ctx, it.value)
				if err != nil {
					return a, false, err
				}
				if ok && a.NaturalKey() == key {
					return a, true, nil
				}
			}
		}
	}
	if queued := c.rt.queue.Group(key); len(queued) > 0 {
		a := queued[0]
		c.rt.remember(a)
		c.index(a)
		return a, true, nil
	}
	return model.Address{}, false, nil
}

func (c *AddressCache) index(a model.Address) {
	if c.byKey != nil {
		_, _ = c.byKey.Put(a.NaturalKey(), item[int64]{value: a.ID})
	}
}

// GetOrAdd returns the address of kind with the given raw bytes, creating it
// with a fresh id from the kind's range when it does not exist. Concurrent
// callers for the same bytes all receive the same id. The flag reports creation.
func (c *AddressCache) GetOrAdd(ctx context.Context, kind model.AddressKind, raw []byte) (model.Address, bool, error) {
	if !kind.Valid() {
		return model.Address{}, false, fmt.Errorf("unknown address kind %d", kind)
	}
	if a, ok, err := c.GetByNaturalKey(ctx, kind, raw); err != nil || ok {
		return a, false, err
	}

	id, err := c.ids.Next(ctx, idalloc.Address(kind))
	if err != nil {
		return model.Address{}, false, fmt.Errorf("allocate %s address id: %w", kind, err)
	}
	a := model.Address{ID: id, Kind: kind, Raw: append([]byte(nil), raw...)}

	if err := c.rt.queue.Acquire(ctx); err != nil {
		return model.Address{}, false, fmt.Errorf("queue %s address: %w", kind, err)
	}
	c.rt.mu.Lock()
	defer c.rt.mu.Unlock()

	got, ok, err := c.byKeyLocked(ctx, a.NaturalKey(), true)
	if err == nil && !ok {
		// a racing caller's record may have been flushed out of the queue
		got, ok, err = c.repo.AddressByNaturalKey(ctx, kind, raw)
		if err == nil && ok {
			c.rt.remember(got)
			c.index(got)
		}
	}
	if err != nil || ok {
		c.rt.queue.Release()
		return got, false, err
	}
	if !c.rt.putLocked(a, func() { c.index(a) }) {
		return model.Address{}, false, fmt.Errorf("address id %d already queued", a.ID)
	}
	return a, true, nil
}

// AssignWallet points the address at a wallet.
func (c *AddressCache) AssignWallet(ctx context.Context, id, walletID int64) (model.Address, bool, error) {
	a, ok, err := c.rt.modify(ctx, id, func(a *model.Address) uint8 {
		if a.WalletID == walletID {
			return 0
		}
		a.WalletID = walletID
		return uint8(model.AddressFieldWallet)
	})
	if err != nil {
		return a, false, fmt.Errorf("assign address %d to wallet %d: %w", id, walletID, err)
	}
	return a, ok, nil
}

func (c *AddressCache) Close(ctx context.Context) error {
	return c.rt.close(ctx)
}
