// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/sedipro/sufragio/admin"
	"github.com/sedipro/sufragio/cliparse"
	"github.com/sedipro/sufragio/handlers"
	"github.com/sedipro/sufragio/metrics"
	"github.com/sedipro/sufragio/middleware"
	"github.com/sedipro/sufragio/ratelimit"
	"github.com/sedipro/sufragio/store"
	"github.com/sedipro/sufragio/voting"
)

// NewRouter wires every endpoint over a single store. A nil m gets a fresh
// metrics store.
func NewRouter(db *sql.DB, cfg cliparse.Config, m *metrics.Metrics) *http.ServeMux {
	if m == nil {
		m = metrics.New()
	}

	s := store.New(db)
	guard := &middleware.Guard{Store: s, AdminKey: cfg.AdminKey}
	limiter := ratelimit.New(s, cfg.GetRateWindow())
	svc := &admin.Service{Store: s}
	coordinator := &voting.Coordinator{
		Store:        s,
		QueryTimeout: cfg.GetQueryTimeout(),
		Metrics:      m,
	}

	authHandler := handlers.NewAuthHandler(s, cfg)
	electionHandler := handlers.NewElectionHandler(s)
	votingHandler := handlers.NewVotingHandler(coordinator)
	adminHandler := handlers.NewAdminHandler(svc)
	resultsHandler := handlers.NewResultsHandler(svc, m)

	// Shorthands for the three access levels
	public := middleware.WithLogging
	voter := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(guard.RequireVoter(h))
	}
	ballot := func(h http.HandlerFunc) http.HandlerFunc {
		return voter(middleware.Throttle(limiter, ratelimit.ScopeVote, cfg.VoteRateLimit, middleware.ByVoter, h))
	}
	adminOnly := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(guard.RequireAdmin(h))
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Sessions
	mux.HandleFunc("POST /auth/login", public(middleware.Throttle(
		limiter, ratelimit.ScopeLogin, cfg.LoginRateLimit, middleware.ByHashedIP(cfg.IPHashSalt), authHandler.Login,
	)))
	mux.HandleFunc("GET /auth/me", voter(authHandler.Me))

	// Election state (voters)
	mux.HandleFunc("GET /election/status", voter(electionHandler.Status))
	mux.HandleFunc("GET /election/candidates", voter(electionHandler.Candidates))
	mux.HandleFunc("GET /election/candidates/{position}", voter(electionHandler.CandidatesFor))
	mux.HandleFunc("GET /election/runoff/{position}", voter(electionHandler.Runoff))

	// Ballots
	mux.HandleFunc("POST /vote/areas", ballot(votingHandler.SubmitArea))
	mux.HandleFunc("POST /vote/presidency", ballot(votingHandler.SubmitPresidency))
	mux.HandleFunc("POST /vote/runoff", ballot(votingHandler.SubmitRunoff))

	// Election configuration
	mux.HandleFunc("GET /admin/election", adminOnly(adminHandler.GetElection))
	mux.HandleFunc("PATCH /admin/election/status", adminOnly(adminHandler.UpdateStatus))
	mux.HandleFunc("PATCH /admin/election/position", adminOnly(adminHandler.UpdatePosition))

	// Voter registry
	mux.HandleFunc("GET /admin/voters", adminOnly(adminHandler.ListVoters))
	mux.HandleFunc("POST /admin/voters", adminOnly(adminHandler.CreateVoter))
	mux.HandleFunc("PATCH /admin/voters/{dni}", adminOnly(adminHandler.UpdateVoter))
	mux.HandleFunc("POST /admin/voters/enable-all", adminOnly(adminHandler.EnableAll))
	mux.HandleFunc("POST /admin/voters/import", adminOnly(adminHandler.ImportVoters))
	mux.HandleFunc("POST /admin/voters/reset-votes", adminOnly(adminHandler.ResetVotes))

	// Candidates
	mux.HandleFunc("GET /admin/candidates", adminOnly(adminHandler.ListCandidates))
	mux.HandleFunc("POST /admin/candidates", adminOnly(adminHandler.CreateCandidate))
	mux.HandleFunc("PATCH /admin/candidates/{id}", adminOnly(adminHandler.UpdateCandidate))
	mux.HandleFunc("DELETE /admin/candidates/{id}", adminOnly(adminHandler.DeleteCandidate))

	// Results and metrics
	mux.HandleFunc("GET /admin/results", adminOnly(resultsHandler.GetResults))
	mux.HandleFunc("GET /admin/results/{position}", adminOnly(resultsHandler.GetPositionResults))
	mux.HandleFunc("GET /admin/metrics", adminOnly(resultsHandler.GetMetrics))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("sufragio API v1"))
	})

	return mux
}
