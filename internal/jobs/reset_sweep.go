// Package jobs holds background maintenance tasks.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mindmatters/mindmatters-api/internal/metrics"
	"github.com/mindmatters/mindmatters-api/internal/storage"
)

// ResetTokenSweeper deletes password reset tokens whose deadline has passed.
// Expired rows are already rejected on use; the sweep only keeps the table small.
type ResetTokenSweeper struct {
	store    storage.ResetTokenStore
	interval time.Duration
	metrics  metrics.SweepRecorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewResetTokenSweeper(store storage.ResetTokenStore, interval time.Duration, recorder metrics.SweepRecorder, logger *slog.Logger) *ResetTokenSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ResetTokenSweeper{
		store:    store,
		interval: interval,
		metrics:  recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Run performs a single sweep and returns how many tokens were removed.
func (s *ResetTokenSweeper) Run(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredResetTokens(ctx, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired reset tokens: %w", err)
	}
	s.metrics.RecordResetTokensSwept(n)
	if n > 0 {
		s.logger.InfoContext(ctx, "expired reset tokens removed", slog.Int64("count", n))
	}
	return n, nil
}

// Start sweeps once immediately and then on every interval until ctx is done.
func (s *ResetTokenSweeper) Start(ctx context.Context) {
	s.runLogged(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *ResetTokenSweeper) runLogged(ctx context.Context) {
	if _, err := s.Run(ctx); err != nil && ctx.Err() == nil {
		s.logger.ErrorContext(ctx, "reset token sweep failed", slog.String("error", err.Error()))
	}
}
