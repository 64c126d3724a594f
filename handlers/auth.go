package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sedipro/sufragio/admin"
	"github.com/sedipro/sufragio/auth"
	"github.com/sedipro/sufragio/cliparse"
	"github.com/sedipro/sufragio/errs"
	"github.com/sedipro/sufragio/middleware"
	"github.com/sedipro/sufragio/models"
	"github.com/sedipro/sufragio/store"
)

type AuthHandler struct {
	store *store.Store
	cfg   cliparse.Config
}

func NewAuthHandler(s *store.Store, cfg cliparse.Config) *AuthHandler {
	return &AuthHandler{store: s, cfg: cfg}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	dni := strings.TrimSpace(req.DNI)
	if !admin.ValidDNI(dni) {
		middleware.WriteError(w, errs.BadRequest("El DNI debe tener exactamente 8 dígitos."))
		return
	}

	v, err := h.store.GetVoter(r.Context(), dni)
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, errs.NotFound("DNI no encontrado. Verifica que estés registrado."))
		return
	}
	if err != nil {
		middleware.WriteError(w, errs.Infra(err))
		return
	}

	if !v.IsEnabled {
		middleware.WriteError(w, errs.Forbidden("Tu cuenta no está habilitada para votar."))
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		middleware.WriteError(w, errs.Infra(err))
		return
	}

	expiresAt := time.Now().Add(h.cfg.GetSessionTTL()).UTC()
	if err := h.store.SetSession(r.Context(), v.DNI, token, expiresAt); err != nil {
		middleware.WriteError(w, errs.Infra(err))
		return
	}

	slog.Info("voter session opened", "area", v.Area, "expires", humanize.Time(expiresAt))

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Voter:     models.ProfileOf(v),
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	v, ok := middleware.VoterFrom(r.Context())
	if !ok {
		middleware.WriteError(w, errs.Unauthorized("Token de sesión requerido."))
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ProfileOf(v))
}
