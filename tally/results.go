// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import "github.com/sedipro/sufragio/models"

// Participation summarises the registry at the time results are computed.
type Participation struct {
	TotalRegistered int `json:"total_registered"`
	Enabled         int `json:"enabled"`
	VotedAreas      int `json:"voted_areas"`
	VotedPresidency int `json:"voted_presidency"`
}

// QuorumDetail explains the presidency quorum decision.
type QuorumDetail struct {
	TotalRegistered int `json:"total_registered"`
	VotesCast       int `json:"votes_cast"`
	Threshold       int `json:"threshold"`
}

// PositionInput is everything the engine needs for one position.
type PositionInput struct {
	Position models.Position
	Roster   []models.Candidate
	Round1   []models.Ballot
	Round2   []models.Ballot
}

type PositionResult struct {
	Position     models.Position    `json:"position"`
	Label        string             `json:"label"`
	Candidates   []models.Candidate `json:"candidates"`
	Round1       RoundResult        `json:"round1"`
	Round2       *RoundResult       `json:"round2"`
	QuorumVoid   *bool              `json:"quorum_void,omitempty"`
	QuorumDetail *QuorumDetail      `json:"quorum_detail,omitempty"`
}

type Results struct {
	Participation Participation                      `json:"participation"`
	Positions     map[models.Position]PositionResult `json:"positions"`
}

// BuildPositionResult tallies round 1 and, when any runoff ballot exists,
// round 2 of a single position.
func BuildPositionResult(in PositionInput) PositionResult {
	roster := in.Roster
	if roster == nil {
		roster = []models.Candidate{}
	}

	res := PositionResult{
		Position:   in.Position,
		Label:      in.Position.Label(),
		Candidates: roster,
		Round1:     ComputeRound(in.Round1, roster, false),
	}
	if len(in.Round2) > 0 {
		r2 := ComputeRound(in.Round2, roster, true)
		res.Round2 = &r2
	}
	return res
}

// BuildResults composes per-position results with the participation summary.
// The presidency additionally carries the quorum determination once at least
// one presidency vote has been cast.
func BuildResults(p Participation, inputs []PositionInput) Results {
	out := Results{
		Participation: p,
		Positions:     make(map[models.Position]PositionResult, len(inputs)),
	}

	for _, in := range inputs {
		res := BuildPositionResult(in)
		if in.Position == models.PositionPresidencia && p.VotedPresidency > 0 {
			void := PresidencyQuorumVoid(p.TotalRegistered, p.VotedPresidency)
			res.QuorumVoid = &void
			res.QuorumDetail = &QuorumDetail{
				TotalRegistered: p.TotalRegistered,
				VotesCast:       p.VotedPresidency,
				Threshold:       p.TotalRegistered/2 + 1,
			}
		}
		out.Positions[in.Position] = res
	}

	return out
}
