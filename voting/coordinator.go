package voting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sedipro/sufragio/errs"
	"github.com/sedipro/sufragio/metrics"
	"github.com/sedipro/sufragio/models"
	"github.com/sedipro/sufragio/store"
)

// DefaultQueryTimeout bounds a submission when the coordinator has none set.
const DefaultQueryTimeout = 10 * time.Second

// Coordinator validates and records ballots. Each submission is one store
// transaction: the eligibility check-and-set and the ballot insert commit
// together or not at all.
type Coordinator struct {
	Store        *store.Store
	QueryTimeout time.Duration
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// ResolveLogger returns logger, or the process default when nil.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// SubmitArea records the voter's single ballot for their own area.
func (c *Coordinator) SubmitArea(ctx context.Context, voter models.Voter, choice string) (err error) {
	defer c.observe("area", time.Now(), &err)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	position := voter.Area
	err = c.Store.InTx(ctx, func(tx *store.Store) error {
		cfg, err := tx.GetConfig(ctx)
		if err != nil {
			return errs.Infra(err)
		}
		if cfg.Status != models.StatusAreasOpen {
			return errs.Forbidden("La votación de áreas no está habilitada.")
		}

		ballot, err := ResolveChoice(ctx, tx, position, choice, models.RoundRegular)
		if err != nil {
			return err
		}

		ok, err := tx.MarkVotedArea(ctx, voter.DNI)
		if err != nil {
			return errs.Infra(err)
		}
		if !ok {
			return errs.Forbidden("No puedes votar: ya registraste tu voto o no estás habilitado.")
		}

		return errs.Infra(tx.InsertBallot(ctx, ballot))
	})
	if err != nil {
		return errs.Infra(err)
	}

	ResolveLogger(c.Logger).Info("ballot recorded", "position", position, "round", models.RoundRegular)
	return nil
}

// SubmitPresidency records the voter's presidency ballot. The area phase
// must be done first.
func (c *Coordinator) SubmitPresidency(ctx context.Context, voter models.Voter, choice string) (err error) {
	defer c.observe("presidency", time.Now(), &err)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	err = c.Store.InTx(ctx, func(tx *store.Store) error {
		cfg, err := tx.GetConfig(ctx)
		if err != nil {
			return errs.Infra(err)
		}
		if cfg.Status != models.StatusPresiOpen {
			return errs.Forbidden("La votación de presidencia no está habilitada.")
		}

		ballot, err := ResolveChoice(ctx, tx, models.PositionPresidencia, choice, models.RoundRegular)
		if err != nil {
			return err
		}

		ok, err := tx.MarkVotedPresidency(ctx, voter.DNI)
		if err != nil {
			return errs.Infra(err)
		}
		if !ok {
			return errs.Forbidden("No puedes votar: ya votaste en presidencia, no completaste la fase de áreas o no estás habilitado.")
		}

		return errs.Infra(tx.InsertBallot(ctx, ballot))
	})
	if err != nil {
		return errs.Infra(err)
	}

	ResolveLogger(c.Logger).Info("ballot recorded", "position", models.PositionPresidencia, "round", models.RoundRegular)
	return nil
}

// SubmitRunoff records a second round ballot for position. Only the two
// frozen finalists or a blank/null choice are accepted, and area runoffs are
// restricted to voters of that area.
func (c *Coordinator) SubmitRunoff(ctx context.Context, voter models.Voter, position models.Position, choice string) (err error) {
	defer c.observe("runoff", time.Now(), &err)

	if !position.Valid() {
		return errs.BadRequest("Cargo inválido: %s.", position)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	err = c.Store.InTx(ctx, func(tx *store.Store) error {
		cfg, err := tx.GetConfig(ctx)
		if err != nil {
			return errs.Infra(err)
		}

		if cfg.StateOf(position) != models.PositionRunoff {
			return errs.Forbidden("No hay segunda vuelta activa para %s.", position)
		}

		isPresidency := position == models.PositionPresidencia
		if isPresidency && cfg.Status != models.StatusPresiOpen {
			return errs.Forbidden("La votación de presidencia no está habilitada.")
		}
		if !isPresidency && cfg.Status != models.StatusAreasOpen {
			return errs.Forbidden("La votación de áreas no está habilitada.")
		}

		if !isPresidency && voter.Area != position {
			return errs.Forbidden("No puedes votar en la segunda vuelta de %s. Tu área es %s.", position, voter.Area)
		}

		if !isSentinel(choice) && !cfg.IsFinalist(position, choice) {
			return errs.BadRequest("Candidato no válido para esta segunda vuelta.")
		}

		ballot, err := ResolveChoice(ctx, tx, position, choice, models.RoundRunoff)
		if err != nil {
			return err
		}

		ok, err := tx.AddRunoffVote(ctx, voter.DNI, position)
		if err != nil {
			return errs.Infra(err)
		}
		if !ok {
			return errs.Forbidden("Ya votaste en la segunda vuelta para este cargo o no tienes autorización.")
		}

		return errs.Infra(tx.InsertBallot(ctx, ballot))
	})
	if err != nil {
		return errs.Infra(err)
	}

	ResolveLogger(c.Logger).Info("ballot recorded", "position", position, "round", models.RoundRunoff)
	return nil
}

// ResolveChoice turns a raw choice into a ballot for position and round.
// BLANK and NULL map to their vote types; anything else must be the id of
// an approved candidate of exactly that position.
func ResolveChoice(ctx context.Context, s *store.Store, position models.Position, choice string, round int) (models.Ballot, error) {
	ballot := models.Ballot{
		ID:       uuid.NewString(),
		Position: position,
		Round:    round,
		VotedAt:  time.Now().UTC(),
	}

	switch choice {
	case models.ChoiceBlank:
		ballot.VoteType = models.VoteBlank
		return ballot, nil
	case models.ChoiceNull:
		ballot.VoteType = models.VoteNull
		return ballot, nil
	}

	if _, err := uuid.Parse(choice); err != nil {
		return models.Ballot{}, errs.BadRequest("ID de candidato inválido para %s.", position)
	}

	candidate, err := s.GetApprovedCandidate(ctx, choice, position)
	if errors.Is(err, store.ErrNotFound) {
		return models.Ballot{}, errs.BadRequest("Candidato no válido para el cargo %s.", position)
	}
	if err != nil {
		return models.Ballot{}, errs.Infra(err)
	}

	ballot.VoteType = models.VoteValid
	ballot.CandidateID = &candidate.ID
	return ballot, nil
}

func isSentinel(choice string) bool {
	return choice == models.ChoiceBlank || choice == models.ChoiceNull
}

func (c *Coordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// observe records the outcome of a submission. Rejections are logged
// without the voter so logs cannot be joined with ballots.
func (c *Coordinator) observe(kind string, start time.Time, err *error) {
	c.Metrics.Submission(kind, time.Since(start), *err)

	if *err == nil {
		return
	}

	logger := ResolveLogger(c.Logger)
	switch errs.KindOf(*err) {
	case errs.KindForbidden, errs.KindBadRequest:
		logger.Warn("submission rejected", "kind", kind, "reason", errs.KindOf(*err).String())
	default:
		logger.Error("submission failed", "kind", kind, "error", *err)
	}
}
