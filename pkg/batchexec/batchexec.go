// Package batchexec writes a set of records as one batch and falls back to
// record-at-a-time writes when the batch as a whole is rejected.
package batchexec

import (
	"context"

	"go.uber.org/zap"
)

// Writer persists records either as a single batch or one at a time.
type Writer[V any] interface {
	WriteBatch(ctx context.Context, records []V) error
	WriteOne(ctx context.Context, record V) error
}

// Resetter is implemented by writers that keep per-batch state between calls.
type Resetter interface {
	Reset()
}

// Result describes the outcome of Execute.
type Result struct {
	Written  int
	Failed   int
	Fallback bool
	// Err holds the batch error when the fallback path was taken.
	Err error
}

// Execute writes records through w. If the batch write fails every record is
// retried on its own; records that still fail are logged and counted, never
// returned. Writer state is reset on exit when w implements Resetter.
func Execute[V any](ctx context.Context, logger *zap.Logger, records []V, w Writer[V]) Result {
	if r, ok := w.(Resetter); ok {
		defer r.Reset()
	}
	if len(records) == 0 {
		return Result{}
	}

	err := w.WriteBatch(ctx, records)
	if err == nil {
		return Result{Written: len(records)}
	}

	logger.Warn("batch write failed, retrying records one by one",
		zap.Int("records", len(records)),
		zap.Error(err),
	)

	res := Result{Fallback: true, Err: err}
	for i, record := range records {
		if err := w.WriteOne(ctx, record); err != nil {
			res.Failed++
			logger.Error("record write failed",
				zap.Int("index", i),
				zap.Any("record", record),
				zap.Error(err),
			)
			continue
		}
		res.Written++
	}
	return res
}
