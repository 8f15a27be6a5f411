// Package workerpool provides bounded concurrent processing utilities.
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Process runs process for every item using at most workerCount goroutines.
// The first error cancels the remaining work and is returned. Items are
// handed out in order; completion order is unspecified.
func Process[T any](
	ctx context.Context,
	workerCount int,
	items []T,
	process func(context.Context, T) error,
) error {
	if workerCount < 1 {
		workerCount = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount)

	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return process(gctx, item)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Indexed runs process for every index in [0, n) with the same guarantees as Process.
func Indexed(ctx context.Context, workerCount, n int, process func(context.Context, int) error) error {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return Process(ctx, workerCount, idx, process)
}
