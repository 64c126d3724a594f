// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Precedence

ParseFlags loads settings from, in increasing precedence: struct tag
defaults, a dotenv file, the environment, then explicit flags.

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Environment Variables

Every field reads SUFRAGIO_<FIELD>, e.g. SUFRAGIO_DATABASE_URL,
SUFRAGIO_SESSION_TTL or SUFRAGIO_VOTE_RATE_LIMIT. PORT, DATABASE_URL and
ADMIN_KEY are also honored unprefixed for hosting platforms.

# CLI Flags

	-p          Server port
	-d          Database URL
	-t          Database type (sqlite, postgres, pgx)
	--admin-key Admin shared secret
	--ip-salt   Salt for client IP hashing
	--env-file  Dotenv file (default .env)

# Validation

DatabaseURL and AdminKey are required. Durations must parse with
time.ParseDuration and the database type must be one db.Open supports.
*/
package cliparse
