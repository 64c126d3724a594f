// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the voting API.

# Route Registration

NewRouter wires the store, guards, rate limiter and handlers into an
http.ServeMux:

	mux := router.NewRouter(db, cfg, metrics.New())

# Endpoints

Public:

	GET  /health
	POST /auth/login                 - dni login (rate limited per hashed IP)

Voter (Authorization: Bearer <token>):

	GET  /auth/me
	GET  /election/status
	GET  /election/candidates
	GET  /election/candidates/{position}
	GET  /election/runoff/{position}
	POST /vote/areas                 - rate limited per voter
	POST /vote/presidency
	POST /vote/runoff

Admin (X-Admin-Key):

	GET    /admin/election
	PATCH  /admin/election/status
	PATCH  /admin/election/position
	GET    /admin/voters
	POST   /admin/voters
	PATCH  /admin/voters/{dni}
	POST   /admin/voters/enable-all
	POST   /admin/voters/import
	POST   /admin/voters/reset-votes
	GET    /admin/candidates
	POST   /admin/candidates
	PATCH  /admin/candidates/{id}
	DELETE /admin/candidates/{id}
	GET    /admin/results
	GET    /admin/results/{position}
	GET    /admin/metrics
*/
package router
