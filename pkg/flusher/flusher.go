// Package flusher schedules background flushes of write queues. A Registry
// starts its scheduler when the first queue registers and retires it once
// every registered queue is closed and no flush is running.
package flusher

import (
	"context"
	"sync"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/clock"
	"go.uber.org/zap"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

// Flushable is one side of a write queue as seen by the scheduler.
type Flushable interface {
	Name() string
	Pending() int
	FillPercent() float64
	Eligible(now time.Time) bool
	// Flush writes at most one batch and reports how many records it carried.
	Flush(ctx context.Context) (int, error)
	Close()
	Closed() bool
	// Settle waits until no batch drained by Flush is still being written.
	Settle(ctx context.Context) error
}

// Metrics receives queue fill levels after each flush.
type Metrics interface {
	SetFill(queue string, percent float64)
}

// Options tunes the scheduler.
type Options struct {
	Workers      int
	PollInterval time.Duration
	RetryDelay   time.Duration
	ReportEvery  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 10 * time.Millisecond
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Millisecond
	}
	if o.ReportEvery <= 0 {
		o.ReportEvery = 30 * time.Second
	}
	return o
}

type stats struct {
	flushes int64
	records int64
	runtime time.Duration
}

type entry struct {
	f        Flushable
	inFlight bool
	stats    stats
}

// Registry tracks write queues and owns the scheduler goroutine.
type Registry struct {
	logger  *zap.Logger
	metrics Metrics
	opts    Options

	mu      sync.Mutex
	entries []*entry
	running bool
	done    chan struct{}
}

// NewRegistry creates an empty registry. The scheduler is not started until
// the first Register.
func NewRegistry(logger *zap.Logger, metrics Metrics, opts Options) *Registry {
	done := make(chan struct{})
	close(done)
	return &Registry{
		logger:  logger.Named("flusher"),
		metrics: metrics,
		opts:    opts.withDefaults(),
		done:    done,
	}
}

// Register adds f to the schedule, starting the scheduler if needed.
func (r *Registry) Register(f Flushable) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.f == f {
			return
		}
	}
	r.entries = append(r.entries, &entry{f: f})
	if !r.running {
		r.running = true
		r.done = make(chan struct{})
		go r.run(r.done)
	}
}

// Close stops f from accepting records, flushes everything it still holds
// and removes it from the schedule. Flushing is not interrupted by ctx
// cancellation.
func (r *Registry) Close(ctx context.Context, f Flushable) error {
	ctx = context.WithoutCancel(ctx)
	f.Close()

	for {
		n, err := f.Flush(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		if err := f.Settle(ctx); err != nil {
			return err
		}
		if f.Pending() == 0 && !r.inFlight(f) {
			break
		}
		if err := clock.SleepWithContext(ctx, r.opts.PollInterval); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.f == f {
			r.logEntry("queue closed", e)
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	return nil
}

// Wait blocks until the current scheduler retires or ctx ends.
func (r *Registry) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) inFlight(f Flushable) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.f == f {
			return e.inFlight
		}
	}
	return false
}

func (r *Registry) run(done chan struct{}) {
	ctx := context.Background()
	jobs := make(chan *entry, r.opts.Workers)

	var wg sync.WaitGroup
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range jobs {
				r.flush(ctx, e)
			}
		}()
	}
	defer func() {
		close(jobs)
		wg.Wait()
		close(done)
	}()

	r.logger.Debug("scheduler started")
	lastReport := time.Now()
	for {
		now := time.Now()

		r.mu.Lock()
		if r.idleLocked() {
			r.running = false
			r.mu.Unlock()
			r.logger.Debug("scheduler retired")
			return
		}
		e := r.pickLocked(now)
		if e != nil {
			e.inFlight = true
		}
		if now.Sub(lastReport) >= r.opts.ReportEvery {
			for _, e := range r.entries {
				r.logEntry("flush stats", e)
			}
			lastReport = now
		}
		r.mu.Unlock()

		if e == nil {
			time.Sleep(r.opts.PollInterval)
			continue
		}
		r.submit(jobs, e)
	}
}

// idleLocked reports whether every queue is closed and nothing is flushing.
func (r *Registry) idleLocked() bool {
	for _, e := range r.entries {
		if !e.f.Closed() || e.inFlight {
			return false
		}
	}
	return true
}

// pickLocked returns the fullest eligible queue that is not already flushing.
func (r *Registry) pickLocked(now time.Time) *entry {
	var (
		best     *entry
		bestFill float64
	)
	for _, e := range r.entries {
		if e.inFlight || !e.f.Eligible(now) {
			continue
		}
		if fill := e.f.FillPercent(); best == nil || fill > bestFill {
			best, bestFill = e, fill
		}
	}
	return best
}

func (r *Registry) submit(jobs chan<- *entry, e *entry) {
	for {
		select {
		case jobs <- e:
			return
		default:
			time.Sleep(r.opts.RetryDelay)
		}
	}
}

func (r *Registry) flush(ctx context.Context, e *entry) {
	started := time.Now()
	n, err := e.f.Flush(ctx)
	elapsed := time.Since(started)
	if err != nil {
		r.logger.Error("flush failed", zap.String("queue", e.f.Name()), zap.Error(err))
	}

	r.mu.Lock()
	e.inFlight = false
	e.stats.flushes++
	e.stats.records += int64(n)
	e.stats.runtime += elapsed
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.SetFill(e.f.Name(), e.f.FillPercent())
	}
}

func (r *Registry) logEntry(msg string, e *entry) {
	r.logger.Info(msg,
		zap.String("queue", e.f.Name()),
		zap.Int64("flushes", e.stats.flushes),
		zap.Int64("records", e.stats.records),
		zap.Duration("runtime", e.stats.runtime),
		zap.Int("pending", e.f.Pending()),
	)
}
