// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the store and creates its schema.

# Connecting

Open selects the driver from the configured database type and pings the
backend within the connect timeout:

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL, cfg.GetConnectTimeout())
	if err != nil {
		log.Fatal(err)
	}

Supported types are "sqlite" (modernc.org/sqlite), "postgres" (lib/pq) and
"pgx" (jackc/pgx stdlib). SQLite connections are limited to one open
connection.

# Schema Creation

CreateSchema initializes all required tables and seeds the configuration
singleton and the six position_state rows:

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - voter: Eligibility flags and session token, keyed by dni
  - voter_runoff: Round-2 positions already cast per voter
  - candidate: Candidates per position
  - ballot: Anonymous ballots, keyed by position and round
  - election_config: Global status singleton
  - position_state: Per-position sub-status and frozen finalists
  - rate_limit: Fixed window counters

# Relationships

	voter 1──* voter_runoff

Ballots reference neither voters nor candidates by foreign key.
*/
package db
