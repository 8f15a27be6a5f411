package ingester

import (
	"context"
	"fmt"
	"sync"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"golang.org/x/sync/semaphore"
)

type future struct {
	height uint64
	done   chan struct{}
	block  *chain.Block
	err    error
}

func (f *future) wait(ctx context.Context) (*chain.Block, error) {
	select {
	case <-f.done:
		return f.block, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// prefetcher fetches upcoming blocks in height order, at most `limit` at a time.
type prefetcher struct {
	load    func(ctx context.Context, height uint64) (*chain.Block, error)
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	pending []*future
	next    uint64
}

func newPrefetcher(from uint64, limit int, load func(context.Context, uint64) (*chain.Block, error)) *prefetcher {
	return &prefetcher{
		load: load,
		sem:  semaphore.NewWeighted(int64(limit)),
		next: from,
	}
}

// fill schedules every height up to and including upto that is not yet scheduled.
func (p *prefetcher) fill(ctx context.Context, upto uint64) {
	for ; p.next <= upto; p.next++ {
		f := &future{height: p.next, done: make(chan struct{})}
		p.pending = append(p.pending, f)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			defer close(f.done)
			if err := p.sem.Acquire(ctx, 1); err != nil {
				f.err = err
				return
			}
			defer p.sem.Release(1)
			f.block, f.err = p.load(ctx, f.height)
		}()
	}
}

// take waits for the block at height, which must be the oldest scheduled one.
func (p *prefetcher) take(ctx context.Context, height uint64) (*chain.Block, error) {
	if len(p.pending) == 0 || p.pending[0].height != height {
		return nil, fmt.Errorf("block %d was not prefetched", height)
	}
	f := p.pending[0]
	p.pending = p.pending[1:]
	return f.wait(ctx)
}

// wait blocks until every scheduled fetch has returned.
func (p *prefetcher) wait() {
	p.wg.Wait()
	p.pending = nil
}
