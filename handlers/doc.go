// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP request handlers of the voting API.

# Handler Types

Each handler is a thin struct over the component that owns the logic:

  - AuthHandler: dni login and the current voter profile
  - ElectionHandler: election status and candidate lists for voters
  - VotingHandler: area, presidency and runoff ballot submission
  - AdminHandler: election control, voter registry and candidates
  - ResultsHandler: tallies and submission metrics

Handlers never talk to the database while a ballot is being cast; the
voting.Coordinator owns that transaction:

	votingHandler := handlers.NewVotingHandler(coordinator)

# Errors

Handlers return domain errors from the errs package through
middleware.WriteError, which maps the error kind to the HTTP status and
writes {"error": "<mensaje>"}.

# Authentication

Voter handlers read the authenticated voter from the request context set by
middleware.Guard.RequireVoter. Admin handlers assume RequireAdmin already ran.
*/
package handlers
