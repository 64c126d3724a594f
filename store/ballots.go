package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sedipro/sufragio/models"
)

// InsertBallot appends an anonymous ballot. VotedAt is set when zero.
func (s *Store) InsertBallot(ctx context.Context, b models.Ballot) error {
	if b.VotedAt.IsZero() {
		b.VotedAt = stamp()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO ballot (id, position, candidate_id, vote_type, round, voted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, b.ID, string(b.Position), b.CandidateID, string(b.VoteType), b.Round, b.VotedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ballot: %w", err)
	}
	return nil
}

// ListBallots returns every ballot of one position and round.
func (s *Store) ListBallots(ctx context.Context, position models.Position, round int) ([]models.Ballot, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, position, candidate_id, vote_type, round, voted_at
		FROM ballot
		WHERE position = $1 AND round = $2
	`, string(position), round)
	if err != nil {
		return nil, fmt.Errorf("failed to query ballots: %w", err)
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		var (
			b           models.Ballot
			pos, vt     string
			candidateID sql.NullString
		)
		if err := rows.Scan(&b.ID, &pos, &candidateID, &vt, &b.Round, &b.VotedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}
		b.Position = models.Position(pos)
		b.VoteType = models.VoteType(vt)
		if candidateID.Valid {
			b.CandidateID = &candidateID.String
		}
		ballots = append(ballots, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ballots: %w", err)
	}
	return ballots, nil
}

// CountBallots returns the number of stored ballots.
func (s *Store) CountBallots(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM ballot`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ballots: %w", err)
	}
	return n, nil
}
