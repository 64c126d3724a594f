// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Request types

type LoginRequest struct {
	DNI string `json:"dni"`
}

type SubmitAreaRequest struct {
	CandidateID string `json:"candidate_id"`
}

type SubmitPresidencyRequest struct {
	CandidateID string `json:"candidate_id"`
}

type SubmitRunoffRequest struct {
	Position    Position `json:"position"`
	CandidateID string   `json:"candidate_id"`
}

type UpdateElectionStatusRequest struct {
	Status       ElectionStatus `json:"status"`
	CurrentRound *int           `json:"current_round,omitempty"`
}

type UpdatePositionStateRequest struct {
	Position           Position       `json:"position"`
	State              PositionStatus `json:"state"`
	RunoffCandidateIDs []string       `json:"runoff_candidate_ids,omitempty"`
}

type CreateVoterRequest struct {
	DNI   string `json:"dni"`
	Name  string `json:"name"`
	Area  string `json:"area"`
	Email string `json:"email"`
}

// Nil fields are left untouched
type UpdateVoterRequest struct {
	IsEnabled *bool   `json:"is_enabled,omitempty"`
	Area      *string `json:"area,omitempty"`
	Email     *string `json:"email,omitempty"`
}

type CreateCandidateRequest struct {
	Name              string   `json:"name"`
	Position          Position `json:"position"`
	PhotoURL          string   `json:"photo_url"`
	IsApproved        bool     `json:"is_approved"`
	PresentationOrder int      `json:"presentation_order"`
}

// Nil fields are left untouched
type UpdateCandidateRequest struct {
	Name              *string   `json:"name,omitempty"`
	Position          *Position `json:"position,omitempty"`
	PhotoURL          *string   `json:"photo_url,omitempty"`
	IsApproved        *bool     `json:"is_approved,omitempty"`
	PresentationOrder *int      `json:"presentation_order,omitempty"`
}

// Response types

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Voter     VoterProfile `json:"voter"`
}

type VoterProfile struct {
	DNI                  string     `json:"dni"`
	Name                 string     `json:"name"`
	Area                 Position   `json:"area"`
	HasVotedArea         bool       `json:"has_voted_area"`
	HasVotedPresidency   bool       `json:"has_voted_presidency"`
	VotedRound2Positions []Position `json:"voted_round2_positions"`
}

// ProfileOf strips admin-only and session fields from v.
func ProfileOf(v Voter) VoterProfile {
	voted := v.VotedRound2Positions
	if voted == nil {
		voted = []Position{}
	}
	return VoterProfile{
		DNI:                  v.DNI,
		Name:                 v.Name,
		Area:                 v.Area,
		HasVotedArea:         v.HasVotedArea,
		HasVotedPresidency:   v.HasVotedPresidency,
		VotedRound2Positions: voted,
	}
}

type ElectionStatusResponse struct {
	Status         ElectionStatus              `json:"status"`
	CurrentRound   int                         `json:"current_round"`
	PositionStates map[Position]PositionStatus `json:"position_states"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type EnableAllResponse struct {
	Enabled int64  `json:"enabled"`
	Message string `json:"message"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
