// Package cache serves ledger records to the ingestion pipeline. Each cache
// couples a bounded in-memory map with a write queue and the store, so that a
// record written by the pipeline is readable at once, long before the
// background flusher persists it.
package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/batchexec"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/writequeue"
	"github.com/lightninglabs/neutrino/cache/lru"
	"go.uber.org/zap"
)

// Config sizes one cache.
type Config struct {
	// Capacity bounds the records kept in memory. Zero keeps none.
	Capacity uint64
	Queue    writequeue.Config
}

// Writers persist the records of one entity.
type Writers[V any] struct {
	Inserts batchexec.Writer[V]
	Updates batchexec.Writer[writequeue.Update[V]]
}

// Deps are shared by every cache of a pipeline.
type Deps struct {
	Registry Registry
	IDs      IDAllocator
	Observer writequeue.Observer
	Logger   *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

type item[V any] struct {
	value V
}

func (item[V]) Size() (uint64, error) { return 1, nil }

// readThrough guards a memory layer and a write queue with one mutex, so
// every mutation lands in both before any reader can look.
type readThrough[K comparable, G comparable, V any] struct {
	mu      sync.Mutex
	mem     *lru.Cache[K, item[V]]
	queue   *writequeue.Queue[K, G, V]
	inserts *writequeue.InsertSide[K, G, V]
	updates *writequeue.UpdateSide[K, G, V]
	key     func(V) K
	load    func(context.Context, K) (V, bool, error)
	// version changes on every mutation; loads that raced one are redone.
	version  uint64
	registry Registry
}

func newReadThrough[K comparable, G comparable, V any](
	deps Deps,
	cfg Config,
	key func(V) K,
	group func(V) G,
	writers Writers[V],
	load func(context.Context, K) (V, bool, error),
) *readThrough[K, G, V] {
	q := writequeue.New(writequeue.Options[K, G, V]{
		Config:   cfg.Queue,
		Key:      key,
		Group:    group,
		Inserts:  writers.Inserts,
		Updates:  writers.Updates,
		Observer: deps.Observer,
		Logger:   deps.logger(),
	})
	c := &readThrough[K, G, V]{
		queue:    q,
		inserts:  q.Inserts(),
		updates:  q.Updates(),
		key:      key,
		load:     load,
		registry: deps.Registry,
	}
	if cfg.Capacity > 0 {
		c.mem = lru.NewCache[K, item[V]](cfg.Capacity)
	}
	deps.Registry.Register(c.inserts)
	deps.Registry.Register(c.updates)
	return c
}

func (c *readThrough[K, G, V]) remember(v V) {
	if c.mem == nil {
		return
	}
	_, _ = c.mem.Put(c.key(v), item[V]{value: v})
}

func (c *readThrough[K, G, V]) forget(k K) {
	if c.mem != nil {
		c.mem.Delete(k)
	}
}

// cachedLocked looks k up in memory, then among queued writes.
func (c *readThrough[K, G, V]) cachedLocked(k K) (V, bool) {
	if c.mem != nil {
		if it, err := c.mem.Get(k); err == nil {
			return it.value, true
		}
	}
	if v, ok := c.queue.Get(k); ok {
		c.remember(v)
		return v, true
	}
	var zero V
	return zero, false
}

// resolve runs cached under the lock and falls back to load without it. A
// mutation that happened while load ran makes the loaded value suspect, so
// load is repeated under the lock in that case.
func (c *readThrough[K, G, V]) resolve(
	ctx context.Context,
	cached func() (V, bool),
	load func(context.Context) (V, bool, error),
) (V, bool, error) {
	c.mu.Lock()
	if v, ok := cached(); ok {
		c.mu.Unlock()
		return v, true, nil
	}
	seen := c.version
	c.mu.Unlock()

	v, ok, err := load(ctx)
	if err != nil {
		return v, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, hit := cached(); hit {
		return cur, true, nil
	}
	if c.version != seen {
		if v, ok, err = load(ctx); err != nil {
			return v, false, err
		}
	}
	if ok {
		c.remember(v)
	}
	return v, ok, nil
}

func (c *readThrough[K, G, V]) get(ctx context.Context, k K) (V, bool, error) {
	return c.resolve(ctx,
		func() (V, bool) { return c.cachedLocked(k) },
		func(ctx context.Context) (V, bool, error) { return c.load(ctx, k) },
	)
}

func (c *readThrough[K, G, V]) getLocked(ctx context.Context, k K) (V, bool, error) {
	if v, ok := c.cachedLocked(k); ok {
		return v, true, nil
	}
	v, ok, err := c.load(ctx, k)
	if err == nil && ok {
		c.remember(v)
	}
	return v, ok, err
}

// add queues v for insertion. It reports false when a record with the same
// key is already queued.
func (c *readThrough[K, G, V]) add(ctx context.Context, v V, also func()) (bool, error) {
	if err := c.queue.Acquire(ctx); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.putLocked(v, also), nil
}

// putLocked consumes a slot taken with queue.Acquire.
func (c *readThrough[K, G, V]) putLocked(v V, also func()) bool {
	if !c.queue.Put(v) {
		return false
	}
	c.remember(v)
	if also != nil {
		also()
	}
	c.version++
	return true
}

func (c *readThrough[K, G, V]) update(ctx context.Context, v V, fields uint8) error {
	if err := c.queue.AcquireUpdate(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.PutUpdate(v, fields)
	c.remember(v)
	c.version++
	return nil
}

// modify applies change to the current version of k. change returns the
// mask of fields it touched; an empty mask queues nothing.
func (c *readThrough[K, G, V]) modify(ctx context.Context, k K, change func(*V) uint8) (V, bool, error) {
	if err := c.queue.AcquireUpdate(ctx); err != nil {
		var zero V
		return zero, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok, err := c.getLocked(ctx, k)
	if err != nil || !ok {
		c.queue.ReleaseUpdate()
		return v, ok, err
	}
	fields := change(&v)
	if fields == 0 {
		c.queue.ReleaseUpdate()
		return v, true, nil
	}
	c.queue.PutUpdate(v, fields)
	c.remember(v)
	c.version++
	return v, true, nil
}

// remove drops every trace of k and then deletes it from the store.
func (c *readThrough[K, G, V]) remove(ctx context.Context, k K, del func(context.Context) error, also func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.queue.Remove(ctx, k); err != nil {
		return err
	}
	c.forget(k)
	if also != nil {
		also()
	}
	c.version++
	return del(ctx)
}

func (c *readThrough[K, G, V]) memLen() int {
	if c.mem == nil {
		return 0
	}
	return c.mem.Len()
}

// close flushes inserts before updates so no update targets a missing row.
func (c *readThrough[K, G, V]) close(ctx context.Context) error {
	if err := c.registry.Close(ctx, c.inserts); err != nil {
		return fmt.Errorf("close %s: %w", c.inserts.Name(), err)
	}
	if err := c.registry.Close(ctx, c.updates); err != nil {
		return fmt.Errorf("close %s: %w", c.updates.Name(), err)
	}
	return nil
}

func queueName(cfg Config, name string) Config {
	if cfg.Queue.Name == "" {
		cfg.Queue.Name = name
	}
	return cfg
}
