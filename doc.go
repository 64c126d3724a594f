// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the sufragio command, the backend of an internal
election with one vote per area and a presidency vote.

# Commands

	sufragio serve   [flags]       run the HTTP API (also the bare command)
	sufragio seed    [flags]       sample candidates and voters
	sufragio import  [flags] FILE  load the voter registry from .xlsx or .csv
	sufragio results [flags]       print the tally of every position

Every command accepts the configuration flags described in package cliparse:

	sufragio serve -t postgres -d "postgres://..." --admin-key secret

# Election Flow

An administrator moves the global status WAITING → AREAS_OPEN →
PRESI_OPEN → CLOSED. Enabled voters log in with their dni, cast one ballot
for their own area and then one for the presidency. A position whose first
round has no absolute majority can be put in RUNOFF with two finalists, and
each eligible voter casts at most one second-round ballot for it.

Ballots are anonymous: eligibility flags live on the voter row and ballots
carry only position, choice and round. Both are written in one transaction.

# Architecture

  - router: route table and middleware wiring
  - handlers: HTTP handlers
  - middleware: logging, CORS, guards, rate limiting, JSON helpers
  - voting: ballot submission transactions
  - admin: election control, registry and candidate management
  - tally: first and second round counting rules
  - importer: Excel and CSV registry parsing
  - store: SQL access for sqlite, lib/pq and pgx
  - ratelimit: fixed window limiter and expiry janitor
  - metrics: submission counters and latency
  - auth, errs, models, cliparse, db: supporting packages
*/
package main
