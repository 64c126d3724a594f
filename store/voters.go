package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sedipro/sufragio/models"
)

const voterColumns = `dni, name, email, area, is_enabled, has_voted_area, has_voted_presidency,
	session_token, session_expires_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoter(row rowScanner) (models.Voter, error) {
	var (
		v         models.Voter
		area      string
		token     sql.NullString
		expiresAt sql.NullInt64
	)
	err := row.Scan(&v.DNI, &v.Name, &v.Email, &area, &v.IsEnabled, &v.HasVotedArea,
		&v.HasVotedPresidency, &token, &expiresAt, &v.CreatedAt)
	if err != nil {
		return models.Voter{}, err
	}
	v.Area = models.Position(area)
	if token.Valid {
		v.SessionToken = &token.String
	}
	if expiresAt.Valid {
		t := time.Unix(expiresAt.Int64, 0).UTC()
		v.SessionExpiresAt = &t
	}
	return v, nil
}

// GetVoter loads a voter and its round-2 set.
func (s *Store) GetVoter(ctx context.Context, dni string) (models.Voter, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+voterColumns+` FROM voter WHERE dni = $1`, dni)
	return s.loadVoter(ctx, row)
}

// GetVoterBySession loads the voter owning a session token that has not
// expired at now.
func (s *Store) GetVoterBySession(ctx context.Context, token string, now time.Time) (models.Voter, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+voterColumns+`
		FROM voter
		WHERE session_token = $1 AND session_expires_at > $2
	`, token, now.Unix())
	return s.loadVoter(ctx, row)
}

func (s *Store) loadVoter(ctx context.Context, row *sql.Row) (models.Voter, error) {
	v, err := scanVoter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Voter{}, ErrNotFound
	}
	if err != nil {
		return models.Voter{}, fmt.Errorf("failed to scan voter: %w", err)
	}

	sets, err := s.runoffSets(ctx, v.DNI)
	if err != nil {
		return models.Voter{}, err
	}
	v.VotedRound2Positions = sets[v.DNI]
	return v, nil
}

// runoffSets returns the round-2 set per dni, for one voter or all of them
// when dni is empty. Rows are fully read before returning.
func (s *Store) runoffSets(ctx context.Context, dni string) (map[string][]models.Position, error) {
	query := `SELECT dni, position FROM voter_runoff`
	var args []any
	if dni != "" {
		query += ` WHERE dni = $1`
		args = append(args, dni)
	}
	query += ` ORDER BY dni, position`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runoff sets: %w", err)
	}
	defer rows.Close()

	sets := make(map[string][]models.Position)
	for rows.Next() {
		var d, p string
		if err := rows.Scan(&d, &p); err != nil {
			return nil, fmt.Errorf("failed to scan runoff set: %w", err)
		}
		sets[d] = append(sets[d], models.Position(p))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runoff sets: %w", err)
	}
	return sets, nil
}

// ListVoters returns every voter sorted by name.
func (s *Store) ListVoters(ctx context.Context) ([]models.Voter, error) {
	voters, err := s.queryVoters(ctx)
	if err != nil {
		return nil, err
	}

	sets, err := s.runoffSets(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range voters {
		voters[i].VotedRound2Positions = sets[voters[i].DNI]
	}
	return voters, nil
}

func (s *Store) queryVoters(ctx context.Context) ([]models.Voter, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+voterColumns+` FROM voter ORDER BY name, dni`)
	if err != nil {
		return nil, fmt.Errorf("failed to query voters: %w", err)
	}
	defer rows.Close()

	voters := []models.Voter{}
	for rows.Next() {
		v, err := scanVoter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voter: %w", err)
		}
		voters = append(voters, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate voters: %w", err)
	}
	return voters, nil
}

// CreateVoter inserts a new voter, disabled and not voted. Returns
// ErrConflict when the dni is taken.
func (s *Store) CreateVoter(ctx context.Context, v models.Voter) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO voter (dni, name, email, area, is_enabled, has_voted_area, has_voted_presidency, created_at)
		VALUES ($1, $2, $3, $4, FALSE, FALSE, FALSE, $5)
	`, v.DNI, v.Name, v.Email, string(v.Area), stamp())
	if IsUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert voter: %w", err)
	}
	return nil
}

// UpdateVoter applies the non-nil fields of req and returns the updated voter.
func (s *Store) UpdateVoter(ctx context.Context, dni string, req models.UpdateVoterRequest) (models.Voter, error) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.IsEnabled != nil {
		add("is_enabled", *req.IsEnabled)
	}
	if req.Area != nil {
		add("area", *req.Area)
	}
	if req.Email != nil {
		add("email", *req.Email)
	}

	if len(sets) > 0 {
		args = append(args, dni)
		query := fmt.Sprintf(`UPDATE voter SET %s WHERE dni = $%d`, strings.Join(sets, ", "), len(args))
		res, err := s.q.ExecContext(ctx, query, args...)
		if err != nil {
			return models.Voter{}, fmt.Errorf("failed to update voter: %w", err)
		}
		n, err := affected(res)
		if err != nil {
			return models.Voter{}, err
		}
		if n == 0 {
			return models.Voter{}, ErrNotFound
		}
	}

	return s.GetVoter(ctx, dni)
}

// UpsertVoters inserts new voters disabled and not voted, and refreshes name,
// email and area of existing ones without touching their flags.
func (s *Store) UpsertVoters(ctx context.Context, voters []models.Voter) error {
	now := stamp()
	for _, v := range voters {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO voter (dni, name, email, area, is_enabled, has_voted_area, has_voted_presidency, created_at)
			VALUES ($1, $2, $3, $4, FALSE, FALSE, FALSE, $5)
			ON CONFLICT (dni) DO UPDATE SET
				name = excluded.name,
				email = excluded.email,
				area = excluded.area
		`, v.DNI, v.Name, v.Email, string(v.Area), now)
		if err != nil {
			return fmt.Errorf("failed to upsert voter %s: %w", v.DNI, err)
		}
	}
	return nil
}

// EnableAllVoters enables every disabled voter and returns how many changed.
func (s *Store) EnableAllVoters(ctx context.Context) (int64, error) {
	res, err := s.q.ExecContext(ctx, `UPDATE voter SET is_enabled = TRUE WHERE is_enabled = FALSE`)
	if err != nil {
		return 0, fmt.Errorf("failed to enable voters: %w", err)
	}
	return affected(res)
}

// SetSession stores a session token on the voter.
func (s *Store) SetSession(ctx context.Context, dni, token string, expiresAt time.Time) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE voter SET session_token = $1, session_expires_at = $2 WHERE dni = $3
	`, token, expiresAt.Unix(), dni)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
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

// PurgeExpiredSessions clears session tokens that expired at or before now.
func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE voter SET session_token = NULL, session_expires_at = NULL
		WHERE session_expires_at IS NOT NULL AND session_expires_at <= $1
	`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return affected(res)
}

// VoterCounts are the participation totals over the whole registry.
type VoterCounts struct {
	Registered      int
	Enabled         int
	VotedAreas      int
	VotedPresidency int
}

// CountVoters returns the participation totals in one query.
func (s *Store) CountVoters(ctx context.Context) (VoterCounts, error) {
	var c VoterCounts
	err := s.q.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN is_enabled THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN has_voted_area THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN has_voted_presidency THEN 1 ELSE 0 END), 0)
		FROM voter
	`).Scan(&c.Registered, &c.Enabled, &c.VotedAreas, &c.VotedPresidency)
	if err != nil {
		return VoterCounts{}, fmt.Errorf("failed to count voters: %w", err)
	}
	return c, nil
}

// Check-and-set transitions. Each is one conditional statement whose
// affected row count tells whether the voter was eligible; false means no
// row changed.

// MarkVotedArea flips has_voted_area for an enabled voter who has not voted.
func (s *Store) MarkVotedArea(ctx context.Context, dni string) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE voter SET has_voted_area = TRUE
		WHERE dni = $1 AND is_enabled = TRUE AND has_voted_area = FALSE
	`, dni)
	if err != nil {
		return false, fmt.Errorf("failed to mark area vote: %w", err)
	}
	n, err := affected(res)
	return n == 1, err
}

// MarkVotedPresidency flips has_voted_presidency for an enabled voter who
// finished the area phase and has not voted for president.
func (s *Store) MarkVotedPresidency(ctx context.Context, dni string) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE voter SET has_voted_presidency = TRUE
		WHERE dni = $1 AND is_enabled = TRUE AND has_voted_area = TRUE AND has_voted_presidency = FALSE
	`, dni)
	if err != nil {
		return false, fmt.Errorf("failed to mark presidency vote: %w", err)
	}
	n, err := affected(res)
	return n == 1, err
}

// AddRunoffVote adds position to the voter's round-2 set if absent. Area
// runoffs require the voter to belong to that area and to have voted in
// the area phase; the presidency runoff requires no presidency vote yet.
func (s *Store) AddRunoffVote(ctx context.Context, dni string, position models.Position) (bool, error) {
	cond := `is_enabled = TRUE AND has_voted_area = TRUE AND area = CAST($2 AS TEXT)`
	if position == models.PositionPresidencia {
		cond = `is_enabled = TRUE AND has_voted_presidency = FALSE`
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO voter_runoff (dni, position)
		SELECT dni, CAST($2 AS TEXT) FROM voter
		WHERE dni = $1 AND `+cond+`
		ON CONFLICT DO NOTHING
	`, dni, string(position))
	if err != nil {
		return false, fmt.Errorf("failed to mark runoff vote: %w", err)
	}
	n, err := affected(res)
	return n == 1, err
}

// ResetVotes clears every voting flag, round-2 set and session, and deletes
// all ballots.
func (s *Store) ResetVotes(ctx context.Context) error {
	stmts := []string{
		`DELETE FROM voter_runoff`,
		`UPDATE voter SET has_voted_area = FALSE, has_voted_presidency = FALSE,
			session_token = NULL, session_expires_at = NULL`,
		`DELETE FROM ballot`,
	}
	for _, stmt := range stmts {
		if _, err := s.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset votes: %w", err)
		}
	}
	return nil
}
