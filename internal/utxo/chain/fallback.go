package chain

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// FallbackSource asks the primary source first and the secondary one when
// the primary fails.
type FallbackSource struct {
	primary   Source
	secondary Source
	logger    *zap.Logger
}

func NewFallbackSource(primary, secondary Source, logger *zap.Logger) *FallbackSource {
	return &FallbackSource{
		primary:   primary,
		secondary: secondary,
		logger:    logger.Named("fallback_source"),
	}
}

// LatestHeight reports the primary tip, or the secondary tip when the primary is unreachable.
func (s *FallbackSource) LatestHeight(ctx context.Context) (uint64, error) {
	height, err := s.primary.LatestHeight(ctx)
	if err == nil {
		return height, nil
	}
	if ctx.Err() != nil {
		return 0, err
	}
	s.logger.Warn("primary source tip unavailable, falling back", zap.Error(err))

	height, fallbackErr := s.secondary.LatestHeight(ctx)
	if fallbackErr != nil {
		return 0, fmt.Errorf("latest height: %w", errors.Join(err, fallbackErr))
	}
	return height, nil
}

func (s *FallbackSource) FetchBlock(ctx context.Context, height uint64) (*Block, error) {
	block, err := s.primary.FetchBlock(ctx, height)
	if err == nil {
		return block, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	s.logger.Warn("primary source failed, falling back",
		zap.Uint64("height", height),
		zap.Error(err),
	)

	block, fallbackErr := s.secondary.FetchBlock(ctx, height)
	if fallbackErr != nil {
		return nil, fmt.Errorf("fetch block %d: %w", height, errors.Join(err, fallbackErr))
	}
	return block, nil
}
