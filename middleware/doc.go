// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware, guards and JSON helpers.

# Request Logging

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs method, path, status and duration_ms once the request completes.
Request bodies are never logged.

# Guards

Guard resolves the caller before a handler runs:

	guard := &middleware.Guard{Store: s, AdminKey: cfg.AdminKey}
	mux.HandleFunc("GET /auth/me", guard.RequireVoter(authHandler.Me))
	mux.HandleFunc("GET /admin/voters", guard.RequireAdmin(adminHandler.ListVoters))

RequireVoter stores the voter in the request context; handlers read it back
with VoterFrom.

# Rate Limiting

Throttle counts requests in a fixed window per scope and key and answers 429
with a Retry-After header once the limit is exceeded:

	middleware.Throttle(limiter, ratelimit.ScopeLogin, cfg.LoginRateLimit,
		middleware.ByHashedIP(cfg.IPHashSalt), handler)

# CORS Middleware

	server := http.Server{Handler: middleware.CORS(mux)}

Allows GET, POST, PATCH, DELETE and OPTIONS with the Content-Type,
Authorization and X-Admin-Key headers.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.WriteError(w, errs.NotFound("Votante %s no encontrado.", dni))

ParseJSONBody caps bodies at MaxJSONBody and reports decode failures as
bad request errors.
*/
package middleware
