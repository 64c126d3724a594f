// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Positions

Six positions form a closed enumeration:

	PMO, GTH, MKT, LTK_FNZ, TI   (area positions, also the voter areas)
	PRESIDENCIA

# Domain Types

  - Voter: registry entry with eligibility flags and the round-2 set
  - Candidate: name, photo, position, approval, presentation order
  - Ballot: anonymous vote record, never linked to a voter
  - ElectionConfig: global status, per-position status, runoff finalists

# Request Types

  - LoginRequest: dni
  - SubmitAreaRequest, SubmitPresidencyRequest: candidate_id
  - SubmitRunoffRequest: position, candidate_id
  - UpdateElectionStatusRequest, UpdatePositionStateRequest
  - CreateVoterRequest, UpdateVoterRequest
  - CreateCandidateRequest, UpdateCandidateRequest

candidate_id is either a candidate UUID or one of the sentinels
"BLANK" / "NULL".

# Constants

Global status values:

	StatusWaiting   = "WAITING"
	StatusAreasOpen = "AREAS_OPEN"
	StatusPresiOpen = "PRESI_OPEN"
	StatusClosed    = "CLOSED"

Position status values:

	PositionPending   = "PENDING"
	PositionCompleted = "COMPLETED"
	PositionRunoff    = "RUNOFF"
	PositionVoid      = "VOID"

Vote types:

	VoteValid = "VALID"
	VoteBlank = "BLANK"
	VoteNull  = "NULL"
*/
package models
