package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sedipro/sufragio/auth"
	"github.com/sedipro/sufragio/errs"
	"github.com/sedipro/sufragio/models"
	"github.com/sedipro/sufragio/ratelimit"
	"github.com/sedipro/sufragio/store"
)

const sessionExpired = "Sesión inválida o expirada. Vuelve a ingresar."

type contextKey int

const voterKey contextKey = iota

// WithVoter returns a copy of ctx carrying the authenticated voter.
func WithVoter(ctx context.Context, v models.Voter) context.Context {
	return context.WithValue(ctx, voterKey, v)
}

// VoterFrom returns the voter stored by RequireVoter.
func VoterFrom(ctx context.Context) (models.Voter, bool) {
	v, ok := ctx.Value(voterKey).(models.Voter)
	return v, ok
}

// Guard authenticates voters by bearer session token and admins by the
// X-Admin-Key header.
type Guard struct {
	Store    *store.Store
	AdminKey string
	Now      func() time.Time
}

func (g *Guard) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// RequireVoter resolves the session token to a voter before calling next.
// Missing, malformed, unknown and expired tokens all answer 401.
func (g *Guard) RequireVoter(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			WriteError(w, errs.Unauthorized("Token de sesión requerido."))
			return
		}
		token, err := auth.ParseBearer(header)
		if err != nil {
			WriteError(w, errs.Unauthorized(sessionExpired))
			return
		}

		v, err := g.Store.GetVoterBySession(r.Context(), token, g.now())
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, errs.Unauthorized(sessionExpired))
			return
		}
		if err != nil {
			WriteError(w, errs.Infra(err))
			return
		}

		next(w, r.WithContext(WithVoter(r.Context(), v)))
	}
}

// RequireAdmin checks the X-Admin-Key header against the configured key.
func (g *Guard) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), g.AdminKey); err != nil {
			slog.Warn("admin key rejected", "path", r.URL.Path)
			WriteError(w, errs.Unauthorized("Clave de administrador inválida."))
			return
		}
		next(w, r)
	}
}

// Throttle counts one hit against limiter under the identifier returned by
// key and answers 429 once max is exceeded.
func Throttle(l *ratelimit.Limiter, scope string, max int, key func(*http.Request) string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if l != nil {
			if err := l.Allow(r.Context(), scope, key(r), max); err != nil {
				if errs.Is(err, errs.KindTooManyRequests) {
					w.Header().Set("Retry-After", retryAfter(l.Window))
				}
				WriteError(w, err)
				return
			}
		}
		next(w, r)
	}
}

// ByHashedIP keys a limit on the salted hash of the client address.
func ByHashedIP(salt string) func(*http.Request) string {
	return func(r *http.Request) string {
		return auth.HashIP(GetClientIP(r), salt)
	}
}

// ByVoter keys a limit on the authenticated voter. It must run inside
// RequireVoter.
func ByVoter(r *http.Request) string {
	if v, ok := VoterFrom(r.Context()); ok {
		return v.DNI
	}
	return GetClientIP(r)
}

func retryAfter(window time.Duration) string {
	secs := int(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

