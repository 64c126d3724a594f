package handlers

import (
	"errors"
	"net/http"

	"github.com/sedipro/sufragio/errs"
	"github.com/sedipro/sufragio/middleware"
	"github.com/sedipro/sufragio/models"
	"github.com/sedipro/sufragio/store"
)

// ElectionHandler serves the read-only election state to logged in voters.
type ElectionHandler struct {
	store *store.Store
}

func NewElectionHandler(s *store.Store) *ElectionHandler {
	return &ElectionHandler{store: s}
}

// Status handles GET /election/status
func (h *ElectionHandler) Status(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.GetConfig(r.Context())
	if err != nil {
		middleware.WriteError(w, errs.Infra(err))
		return
	}

	// Polled by every open ballot screen; shared caches may hold it briefly
	w.Header().Set("Cache-Control", "max-age=0, s-maxage=5, stale-while-revalidate=10")
	middleware.JSONResponse(w, http.StatusOK, models.ElectionStatusResponse{
		Status:         cfg.Status,
		CurrentRound:   cfg.CurrentRound,
		PositionStates: cfg.PositionStates,
	})
}

// Candidates handles GET /election/candidates
func (h *ElectionHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	h.writeCandidates(w, r, store.CandidateFilter{ApprovedOnly: true})
}

// CandidatesFor handles GET /election/candidates/{position}
func (h *ElectionHandler) CandidatesFor(w http.ResponseWriter, r *http.Request) {
	position, ok := pathPosition(w, r)
	if !ok {
		return
	}
	h.writeCandidates(w, r, store.CandidateFilter{Position: position, ApprovedOnly: true})
}

func (h *ElectionHandler) writeCandidates(w http.ResponseWriter, r *http.Request, filter store.CandidateFilter) {
	list, err := h.store.ListCandidates(r.Context(), filter)
	if err != nil {
		middleware.WriteError(w, errs.Infra(err))
		return
	}
	if list == nil {
		list = []models.Candidate{}
	}
	middleware.JSONResponse(w, http.StatusOK, list)
}

// Runoff handles GET /election/runoff/{position}. Outside RUNOFF the list
// is empty even when finalists were frozen earlier.
func (h *ElectionHandler) Runoff(w http.ResponseWriter, r *http.Request) {
	position, ok := pathPosition(w, r)
	if !ok {
		return
	}

	cfg, err := h.store.GetConfig(r.Context())
	if err != nil {
		middleware.WriteError(w, errs.Infra(err))
		return
	}

	finalists := []models.Candidate{}
	if cfg.StateOf(position) == models.PositionRunoff {
		for _, id := range cfg.RunoffCandidates[position] {
			c, err := h.store.GetCandidate(r.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				middleware.WriteError(w, errs.Infra(err))
				return
			}
			finalists = append(finalists, c)
		}
	}

	middleware.JSONResponse(w, http.StatusOK, finalists)
}

// pathPosition reads and validates the {position} path value
func pathPosition(w http.ResponseWriter, r *http.Request) (models.Position, bool) {
	position := models.Position(r.PathValue("position"))
	if !position.Valid() {
		middleware.WriteError(w, errs.BadRequest("Cargo inválido: %q.", position))
		return "", false
	}
	return position, true
}
