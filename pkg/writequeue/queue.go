// Package writequeue buffers records bound for a store so that producers can
// read their own writes before a background flusher persists them.
//
// A Queue holds two bounded lists: inserts of new records, and updates of
// records that already left the insert list. Drained records stay visible
// until the flush that carries them completes.
package writequeue

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/batchexec"
	"go.uber.org/zap"
)

// ErrClosed is returned to producers once the queue side stopped accepting records.
var ErrClosed = errors.New("write queue closed")

// Update carries a changed record and the mask of fields that changed.
type Update[V any] struct {
	Value  V
	Fields uint8
}

// Observer receives the outcome of each flush.
type Observer interface {
	ObserveFlush(queue string, written, failed int, started time.Time)
}

// Config tunes a queue.
type Config struct {
	Name string
	// Capacity bounds pending plus in-flight inserts.
	Capacity int
	// UpdateCapacity bounds pending plus in-flight updates.
	UpdateCapacity int
	// MinBatch is the pending count at which inserts become flushable.
	MinBatch int
	// UpdateMinBatch is the pending count at which updates become flushable.
	UpdateMinBatch int
	// BatchSize caps the records handed to the store per flush.
	BatchSize int
	// MaxAge makes a non-empty side flushable once its oldest record is this old.
	MaxAge time.Duration
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = 10000
	}
	if c.UpdateCapacity <= 0 {
		c.UpdateCapacity = c.Capacity
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 1000
	}
	if c.BatchSize > c.Capacity {
		c.BatchSize = c.Capacity
	}
	if c.MinBatch <= 0 || c.MinBatch > c.Capacity {
		c.MinBatch = c.BatchSize
	}
	if c.UpdateMinBatch <= 0 || c.UpdateMinBatch > c.UpdateCapacity {
		c.UpdateMinBatch = c.MinBatch
		if c.UpdateMinBatch > c.UpdateCapacity {
			c.UpdateMinBatch = c.UpdateCapacity
		}
	}
	return c
}

// Options wires a queue to its record type and store writers.
type Options[K comparable, G comparable, V any] struct {
	Config
	Key      func(V) K
	Group    func(V) G
	Inserts  batchexec.Writer[V]
	Updates  batchexec.Writer[Update[V]]
	Observer Observer
	Logger   *zap.Logger
}

type entry[V any] struct {
	value V
	added time.Time
}

type updateEntry[V any] struct {
	update Update[V]
	added  time.Time
}

// Queue is a keyed, grouped, bounded write-behind buffer.
type Queue[K comparable, G comparable, V any] struct {
	cfg      Config
	key      func(V) K
	group    func(V) G
	inserts  batchexec.Writer[V]
	updates  batchexec.Writer[Update[V]]
	observer Observer
	logger   *zap.Logger
	now      func() time.Time

	slots   chan struct{}
	upSlots chan struct{}

	mu         sync.Mutex
	pending    *list.List
	byKey      map[K]*list.Element
	byGroup    map[G]map[K]struct{}
	keyGroup   map[K]G
	inflight   map[K]V
	upPending  *list.List
	upByKey    map[K]*list.Element
	upInflight map[K]Update[V]
	flushing   int
	upFlushing int
	closed     bool
	upClosed   bool
	settled    chan struct{}
}

// New builds a queue. Updates may be nil for insert-only records.
func New[K comparable, G comparable, V any](opts Options[K, G, V]) *Queue[K, G, V] {
	cfg := opts.Config.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue[K, G, V]{
		cfg:        cfg,
		key:        opts.Key,
		group:      opts.Group,
		inserts:    opts.Inserts,
		updates:    opts.Updates,
		observer:   opts.Observer,
		logger:     logger.Named(cfg.Name),
		now:        time.Now,
		slots:      make(chan struct{}, cfg.Capacity),
		upSlots:    make(chan struct{}, cfg.UpdateCapacity),
		pending:    list.New(),
		byKey:      make(map[K]*list.Element),
		byGroup:    make(map[G]map[K]struct{}),
		keyGroup:   make(map[K]G),
		inflight:   make(map[K]V),
		upPending:  list.New(),
		upByKey:    make(map[K]*list.Element),
		upInflight: make(map[K]Update[V]),
		settled:    make(chan struct{}),
	}
}

// Name returns the configured queue name.
func (q *Queue[K, G, V]) Name() string { return q.cfg.Name }

// Acquire blocks until an insert slot is free. The slot must be handed to Put
// or returned with Release.
func (q *Queue[K, G, V]) Acquire(ctx context.Context) error {
	if q.isClosed(false) {
		return ErrClosed
	}
	select {
	case q.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot obtained from Acquire that was not used.
func (q *Queue[K, G, V]) Release() { <-q.slots }

// Put appends v using a slot obtained from Acquire. It reports false, and gives
// the slot back, when a record with the same key is already queued.
func (q *Queue[K, G, V]) Put(v V) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	k := q.key(v)
	_, queued := q.byKey[k]
	_, flushing := q.inflight[k]
	if q.closed || queued || flushing {
		<-q.slots
		if q.closed {
			q.logger.Warn("insert dropped after close", zap.Any("key", k))
		} else {
			q.logger.Debug("duplicate insert ignored", zap.Any("key", k), zap.Bool("in_flight", flushing))
		}
		return false
	}

	q.byKey[k] = q.pending.PushBack(&entry[V]{value: v, added: q.now()})
	q.reindexLocked(k)
	return true
}

// Insert queues v, blocking while the queue is at capacity.
func (q *Queue[K, G, V]) Insert(ctx context.Context, v V) (bool, error) {
	if err := q.Acquire(ctx); err != nil {
		return false, err
	}
	return q.Put(v), nil
}

// AcquireUpdate blocks until an update slot is free.
func (q *Queue[K, G, V]) AcquireUpdate(ctx context.Context) error {
	if q.isClosed(true) {
		return ErrClosed
	}
	select {
	case q.upSlots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReleaseUpdate returns an unused update slot.
func (q *Queue[K, G, V]) ReleaseUpdate() { <-q.upSlots }

// PutUpdate records a change to v using a slot from AcquireUpdate. A record
// still waiting for insertion is rewritten in place and a pending update for
// the same key absorbs the new one; both give the slot back.
func (q *Queue[K, G, V]) PutUpdate(v V, fields uint8) {
	q.mu.Lock()
	defer q.mu.Unlock()

	k := q.key(v)
	if el, ok := q.byKey[k]; ok {
		el.Value.(*entry[V]).value = v
		q.reindexLocked(k)
		<-q.upSlots
		return
	}
	if el, ok := q.upByKey[k]; ok {
		ue := el.Value.(*updateEntry[V])
		ue.update.Value = v
		ue.update.Fields |= fields
		q.reindexLocked(k)
		<-q.upSlots
		return
	}
	if q.upClosed {
		<-q.upSlots
		q.logger.Warn("update dropped after close", zap.Any("key", k))
		return
	}

	q.upByKey[k] = q.upPending.PushBack(&updateEntry[V]{
		update: Update[V]{Value: v, Fields: fields},
		added:  q.now(),
	})
	q.reindexLocked(k)
}

// Update queues a change to v, blocking while the update list is full.
func (q *Queue[K, G, V]) Update(ctx context.Context, v V, fields uint8) error {
	if err := q.AcquireUpdate(ctx); err != nil {
		return err
	}
	q.PutUpdate(v, fields)
	return nil
}

// Get returns the newest queued version of the record with key k.
func (q *Queue[K, G, V]) Get(k K) (V, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.getLocked(k)
}

func (q *Queue[K, G, V]) getLocked(k K) (V, bool) {
	if el, ok := q.byKey[k]; ok {
		return el.Value.(*entry[V]).value, true
	}
	if el, ok := q.upByKey[k]; ok {
		return el.Value.(*updateEntry[V]).update.Value, true
	}
	if u, ok := q.upInflight[k]; ok {
		return u.Value, true
	}
	if v, ok := q.inflight[k]; ok {
		return v, true
	}
	var zero V
	return zero, false
}

// Group returns queued records whose newest version belongs to group g.
func (q *Queue[K, G, V]) Group(g G) []V {
	q.mu.Lock()
	defer q.mu.Unlock()

	keys := q.byGroup[g]
	if len(keys) == 0 {
		return nil
	}
	out := make([]V, 0, len(keys))
	for k := range keys {
		if v, ok := q.getLocked(k); ok {
			out = append(out, v)
		}
	}
	return out
}

// Filter returns every queued record, inserts and updates, accepted by match.
func (q *Queue[K, G, V]) Filter(match func(V) bool) []V {
	q.mu.Lock()
	defer q.mu.Unlock()

	seen := make(map[K]struct{})
	var out []V
	visit := func(k K) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		if v, ok := q.getLocked(k); ok && match(v) {
			out = append(out, v)
		}
	}
	for k := range q.byKey {
		visit(k)
	}
	for k := range q.inflight {
		visit(k)
	}
	for k := range q.upByKey {
		visit(k)
	}
	for k := range q.upInflight {
		visit(k)
	}
	return out
}

// Remove drops any pending insert or update for k. If a flush currently
// carries k, Remove waits for it to complete first so that a delete issued
// by the caller afterwards cannot be overtaken by that flush. It reports
// whether a pending insert was dropped.
func (q *Queue[K, G, V]) Remove(ctx context.Context, k K) (bool, error) {
	q.mu.Lock()
	for {
		_, ins := q.inflight[k]
		_, upd := q.upInflight[k]
		if !ins && !upd {
			break
		}
		settled := q.settled
		q.mu.Unlock()
		select {
		case <-settled:
		case <-ctx.Done():
			return false, ctx.Err()
		}
		q.mu.Lock()
	}
	defer q.mu.Unlock()

	removed := false
	if el, ok := q.byKey[k]; ok {
		q.pending.Remove(el)
		delete(q.byKey, k)
		<-q.slots
		removed = true
	}
	if el, ok := q.upByKey[k]; ok {
		q.upPending.Remove(el)
		delete(q.upByKey, k)
		<-q.upSlots
	}
	q.reindexLocked(k)
	return removed, nil
}

// Len returns the number of pending inserts.
func (q *Queue[K, G, V]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len()
}

// UpdateLen returns the number of pending updates.
func (q *Queue[K, G, V]) UpdateLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.upPending.Len()
}

// DrainUpTo moves at most n pending inserts, oldest first, into flight.
// Each returned batch must be passed to Complete.
func (q *Queue[K, G, V]) DrainUpTo(n int) []V {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []V
	for len(out) < n && q.pending.Len() > 0 {
		e := q.pending.Remove(q.pending.Front()).(*entry[V])
		k := q.key(e.value)
		delete(q.byKey, k)
		q.inflight[k] = e.value
		out = append(out, e.value)
	}
	if len(out) > 0 {
		q.flushing++
	}
	return out
}

// Complete releases a batch returned by DrainUpTo.
func (q *Queue[K, G, V]) Complete(batch []V) {
	if len(batch) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, v := range batch {
		k := q.key(v)
		delete(q.inflight, k)
		q.reindexLocked(k)
		<-q.slots
	}
	q.flushing--
	q.broadcastLocked()
}

// DrainUpdates moves at most n pending updates into flight. Updates whose
// record is still waiting for or undergoing insertion are left in place.
func (q *Queue[K, G, V]) DrainUpdates(n int) []Update[V] {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []Update[V]
	for el := q.upPending.Front(); el != nil && len(out) < n; {
		next := el.Next()
		ue := el.Value.(*updateEntry[V])
		k := q.key(ue.update.Value)
		if !q.blockedLocked(k) {
			q.upPending.Remove(el)
			delete(q.upByKey, k)
			q.upInflight[k] = ue.update
			out = append(out, ue.update)
		}
		el = next
	}
	if len(out) > 0 {
		q.upFlushing++
	}
	return out
}

func (q *Queue[K, G, V]) blockedLocked(k K) bool {
	if _, ok := q.inflight[k]; ok {
		return true
	}
	if _, ok := q.byKey[k]; ok {
		return true
	}
	_, ok := q.upInflight[k]
	return ok
}

// CompleteUpdates releases a batch returned by DrainUpdates.
func (q *Queue[K, G, V]) CompleteUpdates(batch []Update[V]) {
	if len(batch) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, u := range batch {
		k := q.key(u.Value)
		delete(q.upInflight, k)
		q.reindexLocked(k)
		<-q.upSlots
	}
	q.upFlushing--
	q.broadcastLocked()
}

func (q *Queue[K, G, V]) broadcastLocked() {
	close(q.settled)
	q.settled = make(chan struct{})
}

// reindexLocked files k under the group of its newest queued version, or
// drops it from the group index once nothing for k is queued.
func (q *Queue[K, G, V]) reindexLocked(k K) {
	if q.group == nil {
		return
	}
	old, indexed := q.keyGroup[k]
	v, ok := q.getLocked(k)
	if !ok {
		if indexed {
			q.removeGroup(old, k)
			delete(q.keyGroup, k)
		}
		return
	}
	g := q.group(v)
	if indexed && old == g {
		return
	}
	if indexed {
		q.removeGroup(old, k)
	}
	q.addGroup(g, k)
	q.keyGroup[k] = g
}

func (q *Queue[K, G, V]) addGroup(g G, k K) {
	keys, ok := q.byGroup[g]
	if !ok {
		keys = make(map[K]struct{})
		q.byGroup[g] = keys
	}
	keys[k] = struct{}{}
}

func (q *Queue[K, G, V]) removeGroup(g G, k K) {
	keys, ok := q.byGroup[g]
	if !ok {
		return
	}
	delete(keys, k)
	if len(keys) == 0 {
		delete(q.byGroup, g)
	}
}

func (q *Queue[K, G, V]) isClosed(updates bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if updates {
		return q.upClosed
	}
	return q.closed
}

// settle waits until no batch of the given side is in flight.
func (q *Queue[K, G, V]) settle(ctx context.Context, updates bool) error {
	q.mu.Lock()
	for {
		busy := q.flushing
		if updates {
			busy = q.upFlushing
		}
		if busy == 0 {
			q.mu.Unlock()
			return nil
		}
		settled := q.settled
		q.mu.Unlock()
		select {
		case <-settled:
		case <-ctx.Done():
			return ctx.Err()
		}
		q.mu.Lock()
	}
}
