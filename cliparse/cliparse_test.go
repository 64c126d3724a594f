// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// noEnvFile points the loader at a file that does not exist so a developer's
// local .env never leaks into the tests.
func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestParseFlags_EnvVars(t *testing.T) {
	t.Setenv("SUFRAGIO_PORT", "9000")
	t.Setenv("SUFRAGIO_DATABASE_URL", "file:test.db")
	t.Setenv("SUFRAGIO_ADMIN_KEY", "test-key")
	t.Setenv("SUFRAGIO_SESSION_TTL", "30m")

	cfg, err := ParseFlags([]string{"-env-file", noEnvFile(t)})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:test.db" {
		t.Errorf("expected database url from env, got %q", cfg.DatabaseURL)
	}
	if cfg.GetSessionTTL() != 30*time.Minute {
		t.Errorf("expected session ttl 30m, got %s", cfg.GetSessionTTL())
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	t.Setenv("SUFRAGIO_DATABASE_URL", "file:test.db")
	t.Setenv("SUFRAGIO_ADMIN_KEY", "test-key")

	cfg, err := ParseFlags([]string{"-env-file", noEnvFile(t)})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default database type sqlite, got %q", cfg.DatabaseType)
	}
	if cfg.GetSessionTTL() != 12*time.Hour {
		t.Errorf("expected default session ttl 12h, got %s", cfg.GetSessionTTL())
	}
	if cfg.LoginRateLimit != 10 || cfg.VoteRateLimit != 20 {
		t.Errorf("unexpected rate limits: login=%d vote=%d", cfg.LoginRateLimit, cfg.VoteRateLimit)
	}
	if cfg.IPHashSalt != "test-key" {
		t.Errorf("expected ip salt to fall back to admin key, got %q", cfg.IPHashSalt)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("SUFRAGIO_PORT", "9000")

	cfg, err := ParseFlags([]string{"-env-file", noEnvFile(t), "-p", "8080", "-d", "file:test.db", "-admin-key", "k1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.AdminKey != "k1" {
		t.Errorf("expected admin key from flag, got %q", cfg.AdminKey)
	}
}

func TestParseFlags_UnprefixedPlatformVars(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("DATABASE_URL", "file:platform.db")
	t.Setenv("ADMIN_KEY", "platform-key")

	cfg, err := ParseFlags([]string{"-env-file", noEnvFile(t)})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 7000 || cfg.DatabaseURL != "file:platform.db" || cfg.AdminKey != "platform-key" {
		t.Errorf("unprefixed variables not applied: %+v", cfg)
	}
}

func TestParseFlags_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "SUFRAGIO_DATABASE_URL=file:dotenv.db\nSUFRAGIO_ADMIN_KEY=dotenv-key\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("SUFRAGIO_DATABASE_URL")
		os.Unsetenv("SUFRAGIO_ADMIN_KEY")
	})

	cfg, err := ParseFlags([]string{"-env-file", path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabaseURL != "file:dotenv.db" || cfg.AdminKey != "dotenv-key" {
		t.Errorf("dotenv values not applied: %+v", cfg)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{
			name: "missing database url",
			env:  map[string]string{"SUFRAGIO_ADMIN_KEY": "k"},
		},
		{
			name: "missing admin key",
			env:  map[string]string{"SUFRAGIO_DATABASE_URL": "file:x.db"},
		},
		{
			name: "bad duration",
			env: map[string]string{
				"SUFRAGIO_DATABASE_URL": "file:x.db",
				"SUFRAGIO_ADMIN_KEY":    "k",
				"SUFRAGIO_SESSION_TTL":  "twelve hours",
			},
		},
		{
			name: "unknown database type",
			env: map[string]string{
				"SUFRAGIO_DATABASE_URL": "file:x.db",
				"SUFRAGIO_ADMIN_KEY":    "k",
			},
			args: []string{"-t", "mongodb"},
		},
		{
			name: "negative rate limit",
			env: map[string]string{
				"SUFRAGIO_DATABASE_URL":     "file:x.db",
				"SUFRAGIO_ADMIN_KEY":        "k",
				"SUFRAGIO_VOTE_RATE_LIMIT": "-1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := append([]string{"-env-file", noEnvFile(t)}, tt.args...)
			if _, err := ParseFlags(args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
