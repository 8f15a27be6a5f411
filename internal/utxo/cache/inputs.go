package cache

import (
	"context"
	"fmt"
	"sort"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

// Inputs is the write-behind store of inputs and their annexes. Inputs are
// read back mostly through the outputs they spend, so nothing is kept in
// memory beyond the queues.
type Inputs struct {
	inputs *readThrough[model.InputKey, model.OutputKey, model.Input]
	annex  *readThrough[model.InputKey, int64, model.InputAnnex]
	repo   InputRepository
}

func NewInputs(deps Deps, repo InputRepository, writers Writers[model.Input], annexWriters Writers[model.InputAnnex], cfg, annexCfg Config) *Inputs {
	cfg.Capacity = 0
	annexCfg.Capacity = 0
	return &Inputs{
		inputs: newReadThrough(deps, queueName(cfg, "input"),
			model.Input.Key,
			model.Input.Spends,
			writers,
			repo.InputByKey,
		),
		annex: newReadThrough(deps, queueName(annexCfg, "input_special"),
			model.InputAnnex.Key,
			func(a model.InputAnnex) int64 { return a.TransactionID },
			annexWriters,
			repo.AnnexByKey,
		),
		repo: repo,
	}
}

func (s *Inputs) Get(ctx context.Context, key model.InputKey) (model.Input, bool, error) {
	in, ok, err := s.inputs.get(ctx, key)
	if err != nil {
		return in, false, fmt.Errorf("get input %s: %w", key, err)
	}
	return in, ok, nil
}

func (s *Inputs) Add(ctx context.Context, in model.Input) (bool, error) {
	ok, err := s.inputs.add(ctx, in, nil)
	if err != nil {
		return false, fmt.Errorf("add input %s: %w", in.Key(), err)
	}
	return ok, nil
}

// Repoint makes an existing input spend a different output.
func (s *Inputs) Repoint(ctx context.Context, in model.Input) error {
	if err := s.inputs.update(ctx, in, uint8(model.InputFieldSpent)); err != nil {
		return fmt.Errorf("repoint input %s: %w", in.Key(), err)
	}
	return nil
}

func (s *Inputs) Delete(ctx context.Context, key model.InputKey) error {
	err := s.inputs.remove(ctx, key,
		func(ctx context.Context) error { return s.repo.DeleteInput(ctx, key) },
		nil,
	)
	if err != nil {
		return fmt.Errorf("delete input %s: %w", key, err)
	}
	return nil
}

// BySpent returns every input, stored or queued, that spends out.
func (s *Inputs) BySpent(ctx context.Context, out model.OutputKey) ([]model.Input, error) {
	stored, err := s.repo.InputsBySpent(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("list inputs spending %s: %w", out, err)
	}

	s.inputs.mu.Lock()
	defer s.inputs.mu.Unlock()

	byKey := make(map[model.InputKey]model.Input, len(stored))
	for _, in := range stored {
		if cur, ok := s.inputs.queue.Get(in.Key()); ok {
			in = cur
		}
		if in.Spends() == out {
			byKey[in.Key()] = in
		}
	}
	for _, in := range s.inputs.queue.Group(out) {
		byKey[in.Key()] = in
	}
	return sortInputs(byKey), nil
}

// ByTransaction returns every input of a transaction, stored or queued.
// Queued inserts are found by a scan of the queue.
func (s *Inputs) ByTransaction(ctx context.Context, txID int64) ([]model.Input, error) {
	stored, err := s.repo.InputsByTransaction(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("list inputs of %d: %w", txID, err)
	}

	s.inputs.mu.Lock()
	defer s.inputs.mu.Unlock()

	byKey := make(map[model.InputKey]model.Input, len(stored))
	for _, in := range stored {
		if cur, ok := s.inputs.queue.Get(in.Key()); ok {
			in = cur
		}
		byKey[in.Key()] = in
	}
	for _, in := range s.inputs.queue.Filter(func(in model.Input) bool { return in.TransactionID == txID }) {
		byKey[in.Key()] = in
	}
	return sortInputs(byKey), nil
}

func sortInputs(byKey map[model.InputKey]model.Input) []model.Input {
	out := make([]model.Input, 0, len(byKey))
	for _, in := range byKey {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TransactionID != out[j].TransactionID {
			return out[i].TransactionID < out[j].TransactionID
		}
		return out[i].Pos < out[j].Pos
	})
	return out
}

func (s *Inputs) Annex(ctx context.Context, key model.InputKey) (model.InputAnnex, bool, error) {
	a, ok, err := s.annex.get(ctx, key)
	if err != nil {
		return a, false, fmt.Errorf("get annex %s: %w", key, err)
	}
	return a, ok, nil
}

func (s *Inputs) AddAnnex(ctx context.Context, a model.InputAnnex) (bool, error) {
	ok, err := s.annex.add(ctx, a, nil)
	if err != nil {
		return false, fmt.Errorf("add annex %s: %w", a.Key(), err)
	}
	return ok, nil
}

// UpdateAnnex rewrites every column of an existing annex.
func (s *Inputs) UpdateAnnex(ctx context.Context, a model.InputAnnex) error {
	if err := s.annex.update(ctx, a, 0); err != nil {
		return fmt.Errorf("update annex %s: %w", a.Key(), err)
	}
	return nil
}

func (s *Inputs) DeleteAnnex(ctx context.Context, key model.InputKey) error {
	err := s.annex.remove(ctx, key,
		func(ctx context.Context) error { return s.repo.DeleteAnnex(ctx, key) },
		nil,
	)
	if err != nil {
		return fmt.Errorf("delete annex %s: %w", key, err)
	}
	return nil
}

// Close flushes queued inputs, then queued annexes.
func (s *Inputs) Close(ctx context.Context) error {
	if err := s.inputs.close(ctx); err != nil {
		return err
	}
	return s.annex.close(ctx)
}
