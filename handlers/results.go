// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/sedipro/sufragio/admin"
	"github.com/sedipro/sufragio/metrics"
	"github.com/sedipro/sufragio/middleware"
	"github.com/sedipro/sufragio/models"
)

// ResultsHandler serves tallies and submission metrics to the admin panel.
// Results are computed on every request and never change the election.
type ResultsHandler struct {
	svc     *admin.Service
	metrics *metrics.Metrics
}

func NewResultsHandler(svc *admin.Service, m *metrics.Metrics) *ResultsHandler {
	return &ResultsHandler{svc: svc, metrics: m}
}

// GetResults handles GET /admin/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Results(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	noStore(w)
	middleware.JSONResponse(w, http.StatusOK, res)
}

// GetPositionResults handles GET /admin/results/{position}
func (h *ResultsHandler) GetPositionResults(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.PositionResults(r.Context(), models.Position(r.PathValue("position")))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	noStore(w)
	middleware.JSONResponse(w, http.StatusOK, res)
}

// GetMetrics handles GET /admin/metrics
func (h *ResultsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	middleware.JSONResponse(w, http.StatusOK, h.metrics.Snapshot())
}
