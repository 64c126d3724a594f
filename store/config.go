package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sedipro/sufragio/models"
)

// GetConfig loads the configuration singleton with every position state.
// Finalists are reported only for positions that have both set.
func (s *Store) GetConfig(ctx context.Context) (models.ElectionConfig, error) {
	var (
		cfg    models.ElectionConfig
		status string
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT status, current_round, updated_at FROM election_config WHERE id = 1
	`).Scan(&status, &cfg.CurrentRound, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ElectionConfig{}, ErrNotFound
	}
	if err != nil {
		return models.ElectionConfig{}, fmt.Errorf("failed to load election config: %w", err)
	}
	cfg.Status = models.ElectionStatus(status)

	rows, err := s.q.QueryContext(ctx, `SELECT position, status, finalist_a, finalist_b FROM position_state`)
	if err != nil {
		return models.ElectionConfig{}, fmt.Errorf("failed to query position states: %w", err)
	}
	defer rows.Close()

	cfg.PositionStates = make(map[models.Position]models.PositionStatus, len(models.AllPositions))
	cfg.RunoffCandidates = make(map[models.Position][]string)
	for _, p := range models.AllPositions {
		cfg.PositionStates[p] = models.PositionPending
	}

	for rows.Next() {
		var (
			pos, st string
			a, b    sql.NullString
		)
		if err := rows.Scan(&pos, &st, &a, &b); err != nil {
			return models.ElectionConfig{}, fmt.Errorf("failed to scan position state: %w", err)
		}
		p := models.Position(pos)
		cfg.PositionStates[p] = models.PositionStatus(st)
		if a.Valid && b.Valid {
			cfg.RunoffCandidates[p] = []string{a.String, b.String}
		}
	}
	if err := rows.Err(); err != nil {
		return models.ElectionConfig{}, fmt.Errorf("failed to iterate position states: %w", err)
	}

	return cfg, nil
}

// SetStatus sets the global status and, when round is non-nil, the current
// round.
func (s *Store) SetStatus(ctx context.Context, status models.ElectionStatus, round *int) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE election_config
		SET status = $1, current_round = COALESCE($2, current_round), updated_at = $3
		WHERE id = 1
	`, string(status), round, stamp())
	if err != nil {
		return fmt.Errorf("failed to update election status: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPositionState sets the sub-status of position. When finalists is
// non-nil it must hold exactly two ids, which replace the frozen pair;
// otherwise the stored pair is kept.
func (s *Store) SetPositionState(ctx context.Context, position models.Position, state models.PositionStatus, finalists []string) error {
	var err error
	if finalists != nil {
		if len(finalists) != 2 {
			return fmt.Errorf("expected two finalists, got %d", len(finalists))
		}
		_, err = s.q.ExecContext(ctx, `
			INSERT INTO position_state (position, status, finalist_a, finalist_b)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (position) DO UPDATE SET
				status = excluded.status,
				finalist_a = excluded.finalist_a,
				finalist_b = excluded.finalist_b
		`, string(position), string(state), finalists[0], finalists[1])
	} else {
		_, err = s.q.ExecContext(ctx, `
			INSERT INTO position_state (position, status)
			VALUES ($1, $2)
			ON CONFLICT (position) DO UPDATE SET status = excluded.status
		`, string(position), string(state))
	}
	if err != nil {
		return fmt.Errorf("failed to update position state: %w", err)
	}

	if _, err := s.q.ExecContext(ctx, `UPDATE election_config SET updated_at = $1 WHERE id = 1`, stamp()); err != nil {
		return fmt.Errorf("failed to touch election config: %w", err)
	}
	return nil
}
