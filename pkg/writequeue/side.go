package writequeue

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/batchexec"
	"go.uber.org/zap"
)

// InsertSide exposes the insert list of a queue to a flush scheduler.
type InsertSide[K comparable, G comparable, V any] struct {
	q *Queue[K, G, V]
}

// Inserts returns the schedulable insert side of q.
func (q *Queue[K, G, V]) Inserts() *InsertSide[K, G, V] {
	return &InsertSide[K, G, V]{q: q}
}

func (s *InsertSide[K, G, V]) Name() string { return s.q.cfg.Name }

func (s *InsertSide[K, G, V]) Pending() int { return s.q.Len() }

func (s *InsertSide[K, G, V]) FillPercent() float64 {
	return float64(s.q.Len()) * 100 / float64(s.q.cfg.Capacity)
}

// Eligible reports whether a flush is due: enough records are pending, the
// producers are out of slots, the oldest record aged out, or the side closed.
func (s *InsertSide[K, G, V]) Eligible(now time.Time) bool {
	q := s.q
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.pending.Len()
	switch {
	case n == 0:
		return false
	case n >= q.cfg.MinBatch, q.closed, len(q.slots) == cap(q.slots):
		return true
	case q.cfg.MaxAge > 0:
		return now.Sub(q.pending.Front().Value.(*entry[V]).added) >= q.cfg.MaxAge
	}
	return false
}

// Flush writes one batch of pending inserts and reports how many records it carried.
func (s *InsertSide[K, G, V]) Flush(ctx context.Context) (int, error) {
	q := s.q
	batch := q.DrainUpTo(q.cfg.BatchSize)
	if len(batch) == 0 {
		return 0, nil
	}
	defer q.Complete(batch)

	started := time.Now()
	res := batchexec.Execute(ctx, q.logger, batch, q.inserts)
	if q.observer != nil {
		q.observer.ObserveFlush(q.cfg.Name, res.Written, res.Failed, started)
	}
	return len(batch), nil
}

// Close stops accepting inserts. Records already queued are still flushed.
func (s *InsertSide[K, G, V]) Close() {
	s.q.mu.Lock()
	s.q.closed = true
	s.q.mu.Unlock()
}

func (s *InsertSide[K, G, V]) Closed() bool { return s.q.isClosed(false) }

// Settle waits for in-flight insert batches to complete.
func (s *InsertSide[K, G, V]) Settle(ctx context.Context) error { return s.q.settle(ctx, false) }

// UpdateSide exposes the update list of a queue to a flush scheduler.
type UpdateSide[K comparable, G comparable, V any] struct {
	q *Queue[K, G, V]
}

// Updates returns the schedulable update side of q.
func (q *Queue[K, G, V]) Updates() *UpdateSide[K, G, V] {
	return &UpdateSide[K, G, V]{q: q}
}

func (s *UpdateSide[K, G, V]) Name() string { return s.q.cfg.Name + "_update" }

func (s *UpdateSide[K, G, V]) Pending() int { return s.q.UpdateLen() }

func (s *UpdateSide[K, G, V]) FillPercent() float64 {
	return float64(s.q.UpdateLen()) * 100 / float64(s.q.cfg.UpdateCapacity)
}

func (s *UpdateSide[K, G, V]) Eligible(now time.Time) bool {
	q := s.q
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.upPending.Len()
	switch {
	case n == 0:
		return false
	case n >= q.cfg.UpdateMinBatch, q.upClosed, len(q.upSlots) == cap(q.upSlots):
		return true
	case q.cfg.MaxAge > 0:
		return now.Sub(q.upPending.Front().Value.(*updateEntry[V]).added) >= q.cfg.MaxAge
	}
	return false
}

// Flush writes one batch of pending updates.
func (s *UpdateSide[K, G, V]) Flush(ctx context.Context) (int, error) {
	q := s.q
	batch := q.DrainUpdates(q.cfg.BatchSize)
	if len(batch) == 0 {
		return 0, nil
	}
	defer q.CompleteUpdates(batch)

	if q.updates == nil {
		q.logger.Warn("no update writer configured, dropping updates", zap.Int("records", len(batch)))
		return len(batch), nil
	}

	started := time.Now()
	res := batchexec.Execute(ctx, q.logger, batch, q.updates)
	if q.observer != nil {
		q.observer.ObserveFlush(s.Name(), res.Written, res.Failed, started)
	}
	return len(batch), nil
}

// Close stops accepting updates.
func (s *UpdateSide[K, G, V]) Close() {
	s.q.mu.Lock()
	s.q.upClosed = true
	s.q.mu.Unlock()
}

func (s *UpdateSide[K, G, V]) Closed() bool { return s.q.isClosed(true) }

// Settle waits for in-flight update batches to complete.
func (s *UpdateSide[K, G, V]) Settle(ctx context.Context) error { return s.q.settle(ctx, true) }
