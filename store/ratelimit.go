package store

import (
	"context"
	"fmt"
	"time"
)

// HitRateLimit increments the counter of a window key, creating it with the
// given expiry, and returns the new count.
func (s *Store) HitRateLimit(ctx context.Context, key string, expiresAt time.Time) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO rate_limit (key, count, expires_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (key) DO UPDATE SET count = rate_limit.count + 1
		RETURNING count
	`, key, expiresAt.Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to record rate limit hit: %w", err)
	}
	return count, nil
}

// PurgeExpiredRateLimits deletes windows that ended at or before now.
func (s *Store) PurgeExpiredRateLimits(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.q.ExecContext(ctx, `DELETE FROM rate_limit WHERE expires_at <= $1`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge rate limits: %w", err)
	}
	return affected(res)
}
