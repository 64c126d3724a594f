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

const candidateColumns = `id, name, photo_url, position, is_approved, presentation_order, created_at`

func scanCandidate(row rowScanner) (models.Candidate, error) {
	var (
		c        models.Candidate
		position string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.PhotoURL, &position, &c.IsApproved, &c.PresentationOrder, &c.CreatedAt); err != nil {
		return models.Candidate{}, err
	}
	c.Position = models.Position(position)
	return c, nil
}

// CandidateFilter narrows ListCandidates. Zero values match everything.
type CandidateFilter struct {
	Position     models.Position
	ApprovedOnly bool
}

// ListCandidates returns candidates ordered by position then presentation
// order.
func (s *Store) ListCandidates(ctx context.Context, filter CandidateFilter) ([]models.Candidate, error) {
	var (
		where []string
		args  []any
	)
	if filter.Position != "" {
		args = append(args, string(filter.Position))
		where = append(where, fmt.Sprintf("position = $%d", len(args)))
	}
	if filter.ApprovedOnly {
		where = append(where, "is_approved = TRUE")
	}

	query := `SELECT ` + candidateColumns + ` FROM candidate`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY position, presentation_order, name`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}
	return candidates, nil
}

// GetCandidate loads a candidate by id.
func (s *Store) GetCandidate(ctx context.Context, id string) (models.Candidate, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidate WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Candidate{}, ErrNotFound
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("failed to scan candidate: %w", err)
	}
	return c, nil
}

// GetApprovedCandidate loads a candidate only if it is approved and runs for
// exactly position.
func (s *Store) GetApprovedCandidate(ctx context.Context, id string, position models.Position) (models.Candidate, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+candidateColumns+`
		FROM candidate
		WHERE id = $1 AND position = $2 AND is_approved = TRUE
	`, id, string(position))
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Candidate{}, ErrNotFound
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("failed to scan candidate: %w", err)
	}
	return c, nil
}

// CreateCandidate inserts c. ID must already be set.
func (s *Store) CreateCandidate(ctx context.Context, c models.Candidate) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO candidate (id, name, photo_url, position, is_approved, presentation_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Name, c.PhotoURL, string(c.Position), c.IsApproved, c.PresentationOrder, c.CreatedAt)
	if IsUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}
	return nil
}

// UpdateCandidate applies the non-nil fields of req and returns the result.
func (s *Store) UpdateCandidate(ctx context.Context, id string, req models.UpdateCandidateRequest) (models.Candidate, error) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Position != nil {
		add("position", string(*req.Position))
	}
	if req.PhotoURL != nil {
		add("photo_url", *req.PhotoURL)
	}
	if req.IsApproved != nil {
		add("is_approved", *req.IsApproved)
	}
	if req.PresentationOrder != nil {
		add("presentation_order", *req.PresentationOrder)
	}

	if len(sets) > 0 {
		args = append(args, id)
		query := fmt.Sprintf(`UPDATE candidate SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
		res, err := s.q.ExecContext(ctx, query, args...)
		if err != nil {
			return models.Candidate{}, fmt.Errorf("failed to update candidate: %w", err)
		}
		n, err := affected(res)
		if err != nil {
			return models.Candidate{}, err
		}
		if n == 0 {
			return models.Candidate{}, ErrNotFound
		}
	}

	return s.GetCandidate(ctx, id)
}

// DeleteCandidate removes a candidate. Ballots naming it are kept.
func (s *Store) DeleteCandidate(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM candidate WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
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

// stamp returns the current time as stored in timestamp columns.
func stamp() time.Time {
	return time.Now().UTC()
}
