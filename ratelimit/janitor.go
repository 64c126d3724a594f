package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/sedipro/sufragio/store"
)

// Janitor periodically deletes expired rate limit windows and clears
// expired voter sessions.
type Janitor struct {
	Store    *store.Store
	Interval time.Duration
	Logger   *slog.Logger
}

// Run sweeps every Interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := j.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			windows, sessions, err := j.Sweep(ctx, now)
			if err != nil {
				logger.Warn("janitor sweep failed", "error", err)
				continue
			}
			if windows > 0 || sessions > 0 {
				logger.Debug("janitor sweep", "windows", windows, "sessions", sessions)
			}
		}
	}
}

// Sweep purges everything that expired at or before now.
func (j *Janitor) Sweep(ctx context.Context, now time.Time) (windows, sessions int64, err error) {
	windows, err = j.Store.PurgeExpiredRateLimits(ctx, now)
	if err != nil {
		return 0, 0, err
	}
	sessions, err = j.Store.PurgeExpiredSessions(ctx, now)
	if err != nil {
		return windows, 0, err
	}
	return windows, sessions, nil
}
