// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sedipro/sufragio/models"
)

// CreateSchema creates all tables needed for the application and seeds the
// configuration singleton plus one state row per position.
// Safe to call multiple times - uses IF NOT EXISTS and ON CONFLICT DO NOTHING.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO election_config (id, status, current_round)
		VALUES (1, $1, $2)
		ON CONFLICT DO NOTHING
	`, string(models.StatusWaiting), models.RoundRegular); err != nil {
		return fmt.Errorf("failed to seed election config: %w", err)
	}

	for _, p := range models.AllPositions {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO position_state (position, status)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, string(p), string(models.PositionPending)); err != nil {
			return fmt.Errorf("failed to seed position state: %w", err)
		}
	}

	return nil
}

// Statements run one at a time; not every driver accepts a multi-statement
// Exec. Session expiry and rate limit windows are unix seconds so range
// comparisons behave the same on every backend.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS voter (
    dni TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    area TEXT NOT NULL CHECK (area IN ('PMO', 'GTH', 'MKT', 'LTK_FNZ', 'TI')),
    is_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    has_voted_area BOOLEAN NOT NULL DEFAULT FALSE,
    has_voted_presidency BOOLEAN NOT NULL DEFAULT FALSE,
    session_token TEXT UNIQUE,
    session_expires_at BIGINT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,

	// Round-2 set: presence of (dni, position) means the voter cast that runoff
	`CREATE TABLE IF NOT EXISTS voter_runoff (
    dni TEXT NOT NULL REFERENCES voter(dni) ON DELETE CASCADE,
    position TEXT NOT NULL,
    PRIMARY KEY (dni, position)
)`,

	`CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    photo_url TEXT NOT NULL DEFAULT '',
    position TEXT NOT NULL CHECK (position IN ('PMO', 'GTH', 'MKT', 'LTK_FNZ', 'TI', 'PRESIDENCIA')),
    is_approved BOOLEAN NOT NULL DEFAULT FALSE,
    presentation_order INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,

	`CREATE INDEX IF NOT EXISTS idx_candidate_position ON candidate(position, presentation_order)`,

	// No voter column and no foreign key to candidate: ballots stay
	// unlinkable and survive candidate deletion.
	`CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    position TEXT NOT NULL,
    candidate_id TEXT,
    vote_type TEXT NOT NULL CHECK (vote_type IN ('VALID', 'BLANK', 'NULL')),
    round INTEGER NOT NULL CHECK (round IN (1, 2)),
    voted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK ((vote_type = 'VALID') = (candidate_id IS NOT NULL))
)`,

	`CREATE INDEX IF NOT EXISTS idx_ballot_position_round ON ballot(position, round)`,

	`CREATE TABLE IF NOT EXISTS election_config (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    status TEXT NOT NULL DEFAULT 'WAITING' CHECK (status IN ('WAITING', 'AREAS_OPEN', 'PRESI_OPEN', 'CLOSED')),
    current_round INTEGER NOT NULL DEFAULT 1 CHECK (current_round IN (1, 2)),
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,

	`CREATE TABLE IF NOT EXISTS position_state (
    position TEXT PRIMARY KEY,
    status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'COMPLETED', 'RUNOFF', 'VOID')),
    finalist_a TEXT,
    finalist_b TEXT
)`,

	`CREATE TABLE IF NOT EXISTS rate_limit (
    key TEXT PRIMARY KEY,
    count INTEGER NOT NULL DEFAULT 0,
    expires_at BIGINT NOT NULL
)`,

	`CREATE INDEX IF NOT EXISTS idx_rate_limit_expires_at ON rate_limit(expires_at)`,
}
