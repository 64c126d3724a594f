package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/sedipro/sufragio/errs"
	"github.com/sedipro/sufragio/store"
)

// Scopes used by the HTTP surface
const (
	ScopeLogin = "login"
	ScopeVote  = "vote"
)

// Limiter is a fixed window counter kept in the store, so every server
// process sharing the database shares the same limits.
type Limiter struct {
	Store  *store.Store
	Window time.Duration
	Now    func() time.Time
}

// New returns a limiter with the given window length.
func New(s *store.Store, window time.Duration) *Limiter {
	return &Limiter{Store: s, Window: window, Now: time.Now}
}

// Allow counts one hit for identifier in scope and fails with
// KindTooManyRequests once more than max hits land in the current window.
// A max of zero or less disables the limit.
func (l *Limiter) Allow(ctx context.Context, scope, identifier string, max int) error {
	if max <= 0 || l.Window <= 0 {
		return nil
	}

	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}

	bucket := now.UnixNano() / int64(l.Window)
	key := fmt.Sprintf("%s:%s:%d", scope, identifier, bucket)
	expiresAt := time.Unix(0, (bucket+1)*int64(l.Window))

	count, err := l.Store.HitRateLimit(ctx, key, expiresAt)
	if err != nil {
		return errs.Infra(err)
	}
	if count > max {
		return errs.TooManyRequests("Demasiadas solicitudes. Intenta en unos segundos.")
	}
	return nil
}
