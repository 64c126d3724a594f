// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"sort"

	"github.com/sedipro/sufragio/models"
)

// TiebreakMessage is the advisory attached to a tied runoff.
const TiebreakMessage = "Empate en segunda vuelta. Se requiere intervención manual del Comité Electoral."

// CandidateTally is the named vote count of one roster candidate.
type CandidateTally struct {
	Name  string `json:"name"`
	Votes int    `json:"votes"`
}

// RoundResult is the outcome of one (position, round) pair. It is advisory:
// nothing here mutates the election configuration.
type RoundResult struct {
	Total           int                       `json:"total"`
	Blank           int                       `json:"blank"`
	Null            int                       `json:"null"`
	Valid           int                       `json:"valid"`
	PerCandidate    map[string]CandidateTally `json:"per_candidate"`
	IsVoid          bool                      `json:"is_void"`
	Winner          *string                   `json:"winner"`
	NeedsRunoff     bool                      `json:"needs_runoff"`
	Top2            []string                  `json:"top2"`
	Majority        int                       `json:"majority"`
	SecondRoundTie  bool                      `json:"second_round_tie"`
	TiebreakMessage *string                   `json:"tiebreak_message"`
}

type ranked struct {
	id    string
	votes int
}

// ComputeRound tallies the ballots of one position and round. The roster
// labels perCandidate; ballots for candidates missing from the roster (for
// example deleted ones) still count toward the decision. secondRound
// switches first-place ties from "needs runoff" to "manual intervention".
func ComputeRound(ballots []models.Ballot, roster []models.Candidate, secondRound bool) RoundResult {
	result := RoundResult{
		PerCandidate: make(map[string]CandidateTally, len(roster)),
		Top2:         []string{},
	}
	for _, c := range roster {
		result.PerCandidate[c.ID] = CandidateTally{Name: c.Name}
	}

	result.Total = len(ballots)
	if result.Total == 0 {
		return result
	}

	counts := make(map[string]int)
	for _, b := range ballots {
		switch b.VoteType {
		case models.VoteBlank:
			result.Blank++
		case models.VoteNull:
			result.Null++
		case models.VoteValid:
			result.Valid++
			if b.CandidateID != nil {
				counts[*b.CandidateID]++
			}
		}
	}

	for id, n := range counts {
		if entry, ok := result.PerCandidate[id]; ok {
			entry.Votes = n
			result.PerCandidate[id] = entry
		}
	}

	result.IsVoid = IsVoid(result.Blank, result.Null, result.Total)
	result.Majority = Majority(result.Valid)

	if result.IsVoid || len(counts) == 0 {
		return result
	}

	sorted := make([]ranked, 0, len(counts))
	for id, n := range counts {
		sorted = append(sorted, ranked{id: id, votes: n})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].votes != sorted[j].votes {
			return sorted[i].votes > sorted[j].votes
		}
		return sorted[i].id < sorted[j].id
	})

	// A first-place tie forces a runoff even when both reach the majority.
	if len(sorted) >= 2 && sorted[0].votes == sorted[1].votes {
		result.Top2 = []string{sorted[0].id, sorted[1].id}
		if secondRound {
			msg := TiebreakMessage
			result.SecondRoundTie = true
			result.TiebreakMessage = &msg
		} else {
			result.NeedsRunoff = true
		}
		return result
	}

	if sorted[0].votes >= result.Majority {
		winner := sorted[0].id
		result.Winner = &winner
		return result
	}

	result.NeedsRunoff = true
	for i := 0; i < len(sorted) && i < 2; i++ {
		result.Top2 = append(result.Top2, sorted[i].id)
	}
	return result
}

// IsVoid reports whether blank and null ballots exceed two thirds of the
// total. The comparison is strict and exact: 3·(blank+null) > 2·total.
func IsVoid(blank, null, total int) bool {
	return 3*(blank+null) > 2*total
}

// Majority is the absolute majority of valid votes, floor(valid/2)+1.
func Majority(valid int) int {
	return valid/2 + 1
}

// PresidencyQuorumVoid reports whether presidency participation failed to
// exceed half of the registry: voted <= floor(registered/2).
func PresidencyQuorumVoid(registered, votedPresidency int) bool {
	return votedPresidency <= registered/2
}
