package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sedipro/sufragio/errs"
	"github.com/sedipro/sufragio/importer"
	"github.com/sedipro/sufragio/models"
	"github.com/sedipro/sufragio/store"
	"github.com/sedipro/sufragio/tally"
	"golang.org/x/sync/errgroup"
)

// Service holds every administrative operation. Transitions are manual and
// last-write-wins; nothing here advances the election on its own.
type Service struct {
	Store  *store.Store
	Logger *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Election configuration

// Config returns the current election configuration.
func (s *Service) Config(ctx context.Context) (models.ElectionConfig, error) {
	cfg, err := s.Store.GetConfig(ctx)
	if err != nil {
		return models.ElectionConfig{}, errs.Infra(err)
	}
	return cfg, nil
}

// SetStatus sets the global status, and the current round when given.
func (s *Service) SetStatus(ctx context.Context, req models.UpdateElectionStatusRequest) (models.ElectionConfig, error) {
	if !req.Status.Valid() {
		return models.ElectionConfig{}, errs.BadRequest("Estado de elección inválido: %q.", req.Status)
	}
	if req.CurrentRound != nil && *req.CurrentRound != models.RoundRegular && *req.CurrentRound != models.RoundRunoff {
		return models.ElectionConfig{}, errs.BadRequest("Ronda inválida: %d.", *req.CurrentRound)
	}

	if err := s.Store.SetStatus(ctx, req.Status, req.CurrentRound); err != nil {
		return models.ElectionConfig{}, errs.Infra(err)
	}

	s.logger().Info("election status updated", "status", req.Status)
	return s.Config(ctx)
}

// SetPositionState sets the sub-status of one position. RUNOFF freezes two
// distinct finalists, which must be approved candidates of exactly that
// position; any failure leaves the configuration untouched. Other states
// keep the previous finalists.
func (s *Service) SetPositionState(ctx context.Context, req models.UpdatePositionStateRequest) (models.ElectionConfig, error) {
	if !req.Position.Valid() {
		return models.ElectionConfig{}, errs.BadRequest("Cargo inválido: %q.", req.Position)
	}
	if !req.State.Valid() {
		return models.ElectionConfig{}, errs.BadRequest("Estado de cargo inválido: %q.", req.State)
	}

	err := s.Store.InTx(ctx, func(tx *store.Store) error {
		if req.State != models.PositionRunoff {
			return errs.Infra(tx.SetPositionState(ctx, req.Position, req.State, nil))
		}

		ids := req.RunoffCandidateIDs
		if len(ids) != 2 {
			return errs.BadRequest("Se requieren exactamente 2 IDs de candidatos para activar segunda vuelta.")
		}
		if ids[0] == ids[1] {
			return errs.BadRequest("Los candidatos del balotaje deben ser distintos.")
		}
		for _, id := range ids {
			if _, err := uuid.Parse(id); err != nil {
				return errs.BadRequest("Los candidatos del balotaje no son válidos para este cargo.")
			}
			_, err := tx.GetApprovedCandidate(ctx, id, req.Position)
			if errors.Is(err, store.ErrNotFound) {
				return errs.BadRequest("Los candidatos del balotaje no son válidos para este cargo.")
			}
			if err != nil {
				return errs.Infra(err)
			}
		}

		return errs.Infra(tx.SetPositionState(ctx, req.Position, req.State, ids))
	})
	if err != nil {
		return models.ElectionConfig{}, errs.Infra(err)
	}

	s.logger().Info("position state updated", "position", req.Position, "state", req.State)
	return s.Config(ctx)
}

// Voters

// ListVoters returns the registry sorted by name.
func (s *Service) ListVoters(ctx context.Context) ([]models.Voter, error) {
	voters, err := s.Store.ListVoters(ctx)
	if err != nil {
		return nil, errs.Infra(err)
	}
	return voters, nil
}

// ValidDNI reports whether dni is an 8 digit national id.
func ValidDNI(dni string) bool {
	if len(dni) != 8 {
		return false
	}
	for _, r := range dni {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CreateVoter registers a voter, disabled and not voted.
func (s *Service) CreateVoter(ctx context.Context, req models.CreateVoterRequest) (models.Voter, error) {
	dni := strings.TrimSpace(req.DNI)
	name := strings.TrimSpace(req.Name)
	if !ValidDNI(dni) {
		return models.Voter{}, errs.BadRequest("El DNI debe tener 8 dígitos.")
	}
	if name == "" {
		return models.Voter{}, errs.BadRequest("El nombre es obligatorio.")
	}
	area := importer.NormalizeArea(req.Area)
	if !area.IsArea() {
		return models.Voter{}, errs.BadRequest("Área inválida: %q.", req.Area)
	}

	v := models.Voter{
		DNI:   dni,
		Name:  name,
		Email: strings.TrimSpace(req.Email),
		Area:  area,
	}
	err := s.Store.CreateVoter(ctx, v)
	if errors.Is(err, store.ErrConflict) {
		return models.Voter{}, errs.BadRequest("Ya existe un votante con DNI %s.", dni)
	}
	if err != nil {
		return models.Voter{}, errs.Infra(err)
	}

	created, err := s.Store.GetVoter(ctx, dni)
	if err != nil {
		return models.Voter{}, errs.Infra(err)
	}
	return created, nil
}

// UpdateVoter applies a partial update: enabled flag, area and email.
func (s *Service) UpdateVoter(ctx context.Context, dni string, req models.UpdateVoterRequest) (models.Voter, error) {
	if req.Area != nil {
		area := importer.NormalizeArea(*req.Area)
		if !area.IsArea() {
			return models.Voter{}, errs.BadRequest("Área inválida: %q.", *req.Area)
		}
		normalized := string(area)
		req.Area = &normalized
	}

	v, err := s.Store.UpdateVoter(ctx, dni, req)
	if errors.Is(err, store.ErrNotFound) {
		return models.Voter{}, errs.NotFound("Votante con DNI %s no encontrado.", dni)
	}
	if err != nil {
		return models.Voter{}, errs.Infra(err)
	}
	return v, nil
}

// EnableAll enables every disabled voter and returns how many changed.
func (s *Service) EnableAll(ctx context.Context) (int64, error) {
	n, err := s.Store.EnableAllVoters(ctx)
	if err != nil {
		return 0, errs.Infra(err)
	}
	s.logger().Info("voters enabled", "count", n)
	return n, nil
}

// ImportVoters parses a CSV or XLSX registry and upserts it in one
// transaction. Existing voters keep their flags.
func (s *Service) ImportVoters(ctx context.Context, r io.Reader) ([]models.Voter, error) {
	voters, err := importer.Parse(r)
	if err != nil {
		return nil, err
	}

	err = s.Store.InTx(ctx, func(tx *store.Store) error {
		return tx.UpsertVoters(ctx, voters)
	})
	if err != nil {
		return nil, errs.Infra(err)
	}

	s.logger().Info("voters imported", "count", len(voters), "areas", importer.Summary(voters))
	return voters, nil
}

// ResetVotes deletes every ballot and clears all voting flags, round-2 sets
// and sessions.
func (s *Service) ResetVotes(ctx context.Context) error {
	err := s.Store.InTx(ctx, func(tx *store.Store) error {
		return tx.ResetVotes(ctx)
	})
	if err != nil {
		return errs.Infra(err)
	}
	s.logger().Warn("votes reset")
	return nil
}

// Candidates

// ListCandidates returns every candidate, approved or not.
func (s *Service) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	list, err := s.Store.ListCandidates(ctx, store.CandidateFilter{})
	if err != nil {
		return nil, errs.Infra(err)
	}
	return list, nil
}

// CreateCandidate registers a candidate with a new UUID.
func (s *Service) CreateCandidate(ctx context.Context, req models.CreateCandidateRequest) (models.Candidate, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Candidate{}, errs.BadRequest("El nombre es obligatorio.")
	}
	if !req.Position.Valid() {
		return models.Candidate{}, errs.BadRequest("Cargo inválido: %q.", req.Position)
	}

	c := models.Candidate{
		ID:                uuid.NewString(),
		Name:              name,
		PhotoURL:          strings.TrimSpace(req.PhotoURL),
		Position:          req.Position,
		IsApproved:        req.IsApproved,
		PresentationOrder: req.PresentationOrder,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.Store.CreateCandidate(ctx, c); err != nil {
		return models.Candidate{}, errs.Infra(err)
	}

	s.logger().Info("candidate created", "id", c.ID, "position", c.Position)
	return c, nil
}

// UpdateCandidate applies a partial update.
func (s *Service) UpdateCandidate(ctx context.Context, id string, req models.UpdateCandidateRequest) (models.Candidate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Candidate{}, errs.NotFound("Candidato %s no encontrado.", id)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return models.Candidate{}, errs.BadRequest("El nombre es obligatorio.")
	}
	if req.Position != nil && !req.Position.Valid() {
		return models.Candidate{}, errs.BadRequest("Cargo inválido: %q.", *req.Position)
	}

	c, err := s.Store.UpdateCandidate(ctx, id, req)
	if errors.Is(err, store.ErrNotFound) {
		return models.Candidate{}, errs.NotFound("Candidato %s no encontrado.", id)
	}
	if err != nil {
		return models.Candidate{}, errs.Infra(err)
	}
	return c, nil
}

// DeleteCandidate removes a candidate. Ballots that name it are kept and
// stop counting toward any roster entry.
func (s *Service) DeleteCandidate(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errs.NotFound("Candidato %s no encontrado.", id)
	}

	err := s.Store.DeleteCandidate(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return errs.NotFound("Candidato %s no encontrado.", id)
	}
	if err != nil {
		return errs.Infra(err)
	}

	s.logger().Info("candidate deleted", "id", id)
	return nil
}

// Results

// Results tallies every position concurrently and attaches participation
// and the presidency quorum.
func (s *Service) Results(ctx context.Context) (tally.Results, error) {
	counts, err := s.Store.CountVoters(ctx)
	if err != nil {
		return tally.Results{}, errs.Infra(err)
	}

	inputs := make([]tally.PositionInput, len(models.AllPositions))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range models.AllPositions {
		g.Go(func() error {
			in, err := s.positionInput(gctx, p)
			if err != nil {
				return err
			}
			inputs[i] = in
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return tally.Results{}, errs.Infra(err)
	}

	participation := tally.Participation{
		TotalRegistered: counts.Registered,
		Enabled:         counts.Enabled,
		VotedAreas:      counts.VotedAreas,
		VotedPresidency: counts.VotedPresidency,
	}
	return tally.BuildResults(participation, inputs), nil
}

// PositionResults tallies a single position.
func (s *Service) PositionResults(ctx context.Context, p models.Position) (tally.PositionResult, error) {
	if !p.Valid() {
		return tally.PositionResult{}, errs.BadRequest("Cargo inválido: %q.", p)
	}

	in, err := s.positionInput(ctx, p)
	if err != nil {
		return tally.PositionResult{}, errs.Infra(err)
	}
	return tally.BuildPositionResult(in), nil
}

func (s *Service) positionInput(ctx context.Context, p models.Position) (tally.PositionInput, error) {
	roster, err := s.Store.ListCandidates(ctx, store.CandidateFilter{Position: p})
	if err != nil {
		return tally.PositionInput{}, err
	}
	round1, err := s.Store.ListBallots(ctx, p, models.RoundRegular)
	if err != nil {
		return tally.PositionInput{}, err
	}
	round2, err := s.Store.ListBallots(ctx, p, models.RoundRunoff)
	if err != nil {
		return tally.PositionInput{}, err
	}

	return tally.PositionInput{
		Position: p,
		Roster:   roster,
		Round1:   round1,
		Round2:   round2,
	}, nil
}
