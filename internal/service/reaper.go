package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/villa-bookings/internal/repository"
	"github.com/diagnosis/villa-bookings/pkg/events"
	"github.com/diagnosis/villa-bookings/pkg/logger"
)

// Reaper cancels PENDING reservations whose hold has lapsed. Availability
// already ignores lapsed holds; sweeping only keeps the table tidy. Hold
// tokens are dropped once they are older than the retention window.
type Reaper struct {
	reservations repository.ReservationRepository
	holdTokens   repository.HoldTokenRepository
	eventBus     events.Publisher
	opts         Options
}

func NewReaper(
	reservations repository.ReservationRepository,
	holdTokens repository.HoldTokenRepository,
	eventBus events.Publisher,
	opts Options,
) *Reaper {
	return &Reaper{
		reservations: reservations,
		holdTokens:   holdTokens,
		eventBus:     eventBus,
		opts:         opts,
	}
}

// Sweep runs one pass and returns the number of holds it cancelled.
func (r *Reaper) Sweep(ctx context.Context) (int64, error) {
	now := r.opts.now()

	n, err := r.reservations.ExpireHolds(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire holds: %w", err)
	}
	if tokens, err := r.holdTokens.CleanupExpired(ctx, now.Add(-r.opts.holdTokenRetention())); err != nil {
		logger.WarnContext(ctx, "Failed to clean up hold tokens", "error", err)
	} else if tokens > 0 {
		logger.DebugContext(ctx, "Hold tokens cleaned up", "count", tokens)
	}

	if n > 0 {
		logger.InfoContext(ctx, "Expired holds cancelled", "count", n)
		event := events.HoldsExpiredEvent{Count: n, SweptAt: now.UTC()}
		if err := r.eventBus.Publish(ctx, events.HoldsExpired, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish holds expired event", "error", err)
		}
	}
	return n, nil
}

// Run sweeps every interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.InfoContext(ctx, "Hold reaper started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "Hold reaper stopped")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				logger.ErrorContext(ctx, "Hold sweep failed", "error", err)
			}
		}
	}
}
