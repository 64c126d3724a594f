package models

import "time"

// Position identifies an elected role. Area positions double as the closed
// set of voter areas.
type Position string

const (
	PositionPMO         Position = "PMO"
	PositionGTH         Position = "GTH"
	PositionMKT         Position = "MKT"
	PositionLTKFNZ      Position = "LTK_FNZ"
	PositionTI          Position = "TI"
	PositionPresidencia Position = "PRESIDENCIA"
)

// AreaPositions lists the five directive positions in ballot order.
var AreaPositions = []Position{
	PositionPMO,
	PositionGTH,
	PositionMKT,
	PositionLTKFNZ,
	PositionTI,
}

// AllPositions is AreaPositions followed by the presidency.
var AllPositions = append(append([]Position{}, AreaPositions...), PositionPresidencia)

var positionLabels = map[Position]string{
	PositionPMO:         "Dirección de la Oficina de Proyectos",
	PositionGTH:         "Dirección de Gestión de Talento Humano",
	PositionMKT:         "Dirección de Marketing",
	PositionLTKFNZ:      "Dirección de Logística y Finanzas",
	PositionTI:          "Dirección de Tecnología de la Información",
	PositionPresidencia: "Presidencia",
}

// Label returns the display name of the position.
func (p Position) Label() string {
	return positionLabels[p]
}

// Valid reports whether p is one of the six known positions.
func (p Position) Valid() bool {
	_, ok := positionLabels[p]
	return ok
}

// IsArea reports whether p is one of the five area positions.
func (p Position) IsArea() bool {
	return p.Valid() && p != PositionPresidencia
}

// Global election status
type ElectionStatus string

const (
	StatusWaiting   ElectionStatus = "WAITING"
	StatusAreasOpen ElectionStatus = "AREAS_OPEN"
	StatusPresiOpen ElectionStatus = "PRESI_OPEN"
	StatusClosed    ElectionStatus = "CLOSED"
)

func (s ElectionStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusAreasOpen, StatusPresiOpen, StatusClosed:
		return true
	}
	return false
}

// Per-position status
type PositionStatus string

const (
	PositionPending   PositionStatus = "PENDING"
	PositionCompleted PositionStatus = "COMPLETED"
	PositionRunoff    PositionStatus = "RUNOFF"
	PositionVoid      PositionStatus = "VOID"
)

func (s PositionStatus) Valid() bool {
	switch s {
	case PositionPending, PositionCompleted, PositionRunoff, PositionVoid:
		return true
	}
	return false
}

// Ballot vote types
type VoteType string

const (
	VoteValid VoteType = "VALID"
	VoteBlank VoteType = "BLANK"
	VoteNull  VoteType = "NULL"
)

// Rounds
const (
	RoundRegular = 1
	RoundRunoff  = 2
)

// Choice sentinels accepted in place of a candidate id
const (
	ChoiceBlank = "BLANK"
	ChoiceNull  = "NULL"
)

// Domain types

type Voter struct {
	DNI                  string     `json:"dni"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	Area                 Position   `json:"area"`
	IsEnabled            bool       `json:"is_enabled"`
	HasVotedArea         bool       `json:"has_voted_area"`
	HasVotedPresidency   bool       `json:"has_voted_presidency"`
	VotedRound2Positions []Position `json:"voted_round2_positions"`
	SessionToken         *string    `json:"-"` // Never expose in JSON
	SessionExpiresAt     *time.Time `json:"-"` // Never expose in JSON
	CreatedAt            time.Time  `json:"created_at"`
}

// HasVotedRunoff reports whether p is already in the voter's round-2 set.
func (v Voter) HasVotedRunoff(p Position) bool {
	for _, voted := range v.VotedRound2Positions {
		if voted == p {
			return true
		}
	}
	return false
}

type Candidate struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	PhotoURL          string    `json:"photo_url"`
	Position          Position  `json:"position"`
	IsApproved        bool      `json:"is_approved"`
	PresentationOrder int       `json:"presentation_order"`
	CreatedAt         time.Time `json:"created_at"`
}

// Ballot is an anonymous vote record. It deliberately has no voter field.
type Ballot struct {
	ID          string    `json:"id"`
	Position    Position  `json:"position"`
	CandidateID *string   `json:"candidate_id"`
	VoteType    VoteType  `json:"vote_type"`
	Round       int       `json:"round"`
	VotedAt     time.Time `json:"voted_at"`
}

type ElectionConfig struct {
	Status           ElectionStatus              `json:"status"`
	CurrentRound     int                         `json:"current_round"`
	PositionStates   map[Position]PositionStatus `json:"position_states"`
	RunoffCandidates map[Position][]string       `json:"runoff_candidates"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// StateOf returns the sub-status of p, PENDING when unset.
func (c ElectionConfig) StateOf(p Position) PositionStatus {
	if s, ok := c.PositionStates[p]; ok {
		return s
	}
	return PositionPending
}

// IsFinalist reports whether candidateID is one of the frozen finalists of p.
func (c ElectionConfig) IsFinalist(p Position, candidateID string) bool {
	for _, id := range c.RunoffCandidates[p] {
		if id == candidateID {
			return true
		}
	}
	return false
}
