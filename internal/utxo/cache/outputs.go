package cache

import (
	"context"
	"fmt"
	"sort"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

// OutputCache resolves outputs by key and by owning transaction.
type OutputCache struct {
	rt   *readThrough[model.OutputKey, int64, model.Output]
	repo OutputRepository
}

func NewOutputCache(deps Deps, repo OutputRepository, writers Writers[model.Output], cfg Config) *OutputCache {
	return &OutputCache{
		rt: newReadThrough(deps, queueName(cfg, "output"),
			model.Output.Key,
			func(o model.Output) int64 { return o.TransactionID },
			writers,
			repo.OutputByKey,
		),
		repo: repo,
	}
}

func (c *OutputCache) Get(ctx context.Context, key model.OutputKey) (model.Output, bool, error) {
	o, ok, err := c.rt.get(ctx, key)
	if err != nil {
		return o, false, fmt.Errorf("get output %s: %w", key, err)
	}
	return o, ok, nil
}

func (c *OutputCache) Add(ctx context.Context, o model.Output) (bool, error) {
	ok, err := c.rt.add(ctx, o, nil)
	if err != nil {
		return false, fmt.Errorf("add output %s: %w", o.Key(), err)
	}
	return ok, nil
}

func (c *OutputCache) Update(ctx context.Context, o model.Output, fields model.OutputField) error {
	if err := c.rt.update(ctx, o, uint8(fields)); err != nil {
		return fmt.Errorf("update output %s: %w", o.Key(), err)
	}
	return nil
}

// SetStatus moves the output at key to status. It reports the resulting
// output and whether one exists at all.
func (c *OutputCache) SetStatus(ctx context.Context, key model.OutputKey, status model.OutputStatus) (model.Output, bool, error) {
	o, ok, err := c.rt.modify(ctx, key, func(o *model.Output) uint8 {
		if o.Status == status {
			return 0
		}
		o.Status = status
		return uint8(model.OutputFieldStatus)
	})
	if err != nil {
		return o, false, fmt.Errorf("set output %s %s: %w", key, status, err)
	}
	return o, ok, nil
}

// MarkSpent is SetStatus(key, OutputSpent).
func (c *OutputCache) MarkSpent(ctx context.Context, key model.OutputKey) (model.Output, bool, error) {
	return c.SetStatus(ctx, key, model.OutputSpent)
}

func (c *OutputCache) Delete(ctx context.Context, key model.OutputKey) error {
	err := c.rt.remove(ctx, key,
		func(ctx context.Context) error { return c.repo.DeleteOutput(ctx, key) },
		nil,
	)
	if err != nil {
		return fmt.Errorf("delete output %s: %w", key, err)
	}
	return nil
}

// ByTransaction returns every output of a transaction, stored or queued,
// ordered by position.
func (c *OutputCache) ByTransaction(ctx context.Context, txID int64) ([]model.Output, error) {
	stored, err := c.repo.OutputsByTransaction(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("list outputs of %d: %w", txID, err)
	}

	c.rt.mu.Lock()
	defer c.rt.mu.Unlock()

	byPos := make(map[uint32]model.Output, len(stored))
	for _, o := range stored {
		if cur, ok := c.rt.cachedLocked(o.Key()); ok {
			o = cur
		}
		byPos[o.Pos] = o
	}
	for _, o := range c.rt.queue.Group(txID) {
		byPos[o.Pos] = o
	}

	out := make([]model.Output, 0, len(byPos))
	for _, o := range byPos {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos < out[j].Pos })
	return out, nil
}

func (c *OutputCache) Close(ctx context.Context) error {
	return c.rt.close(ctx)
}
