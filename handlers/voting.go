// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sedipro/sufragio/errs"
	"github.com/sedipro/sufragio/middleware"
	"github.com/sedipro/sufragio/models"
	"github.com/sedipro/sufragio/voting"
)

type VotingHandler struct {
	coordinator *voting.Coordinator
}

func NewVotingHandler(c *voting.Coordinator) *VotingHandler {
	return &VotingHandler{coordinator: c}
}

// SubmitArea handles POST /vote/areas. The position is the voter's area.
func (h *VotingHandler) SubmitArea(w http.ResponseWriter, r *http.Request) {
	v, ok := middleware.VoterFrom(r.Context())
	if !ok {
		middleware.WriteError(w, errs.Unauthorized("Token de sesión requerido."))
		return
	}

	var req models.SubmitAreaRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	choice, ok := requireChoice(w, req.CandidateID)
	if !ok {
		return
	}

	if err := h.coordinator.SubmitArea(r.Context(), v, choice); err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.MessageResponse{
		Message: "Voto de área registrado correctamente.",
	})
}

// SubmitPresidency handles POST /vote/presidency
func (h *VotingHandler) SubmitPresidency(w http.ResponseWriter, r *http.Request) {
	v, ok := middleware.VoterFrom(r.Context())
	if !ok {
		middleware.WriteError(w, errs.Unauthorized("Token de sesión requerido."))
		return
	}

	var req models.SubmitPresidencyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	choice, ok := requireChoice(w, req.CandidateID)
	if !ok {
		return
	}

	if err := h.coordinator.SubmitPresidency(r.Context(), v, choice); err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.MessageResponse{
		Message: "Voto de presidencia registrado correctamente.",
	})
}

// SubmitRunoff handles POST /vote/runoff
func (h *VotingHandler) SubmitRunoff(w http.ResponseWriter, r *http.Request) {
	v, ok := middleware.VoterFrom(r.Context())
	if !ok {
		middleware.WriteError(w, errs.Unauthorized("Token de sesión requerido."))
		return
	}

	var req models.SubmitRunoffRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if !req.Position.Valid() {
		middleware.WriteError(w, errs.BadRequest("Cargo inválido: %q.", req.Position))
		return
	}
	choice, ok := requireChoice(w, req.CandidateID)
	if !ok {
		return
	}

	if err := h.coordinator.SubmitRunoff(r.Context(), v, req.Position, choice); err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.MessageResponse{
		Message: fmt.Sprintf("Voto de segunda vuelta para %s registrado.", req.Position),
	})
}

func requireChoice(w http.ResponseWriter, candidateID string) (string, bool) {
	choice := strings.TrimSpace(candidateID)
	if choice == "" {
		middleware.WriteError(w, errs.BadRequest("Debes seleccionar un candidato, voto en blanco o nulo."))
		return "", false
	}
	return choice, true
}
