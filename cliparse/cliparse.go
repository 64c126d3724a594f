package cliparse

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/koding/multiconfig"
)

// EnvPrefix is prepended to every environment variable, e.g.
// SUFRAGIO_DATABASE_URL or SUFRAGIO_SESSION_TTL.
const EnvPrefix = "SUFRAGIO"

// Config holds every runtime setting. Durations are stored as strings and
// validated with the "duration" rule so that they load from tags, env and
// flags the same way.
type Config struct {
	Port            int    `default:"3318" validate:"uint"`
	DatabaseURL     string `required:"true"`
	DatabaseType    string `default:"sqlite" validate:"dbtype"`
	AdminKey        string `required:"true"`
	IPHashSalt      string
	SessionTTL      string `default:"12h" validate:"duration"`
	ConnectTimeout  string `default:"5s" validate:"duration"`
	QueryTimeout    string `default:"10s" validate:"duration"`
	RateWindow      string `default:"1m" validate:"duration"`
	LoginRateLimit  int    `default:"10" validate:"uint"`
	VoteRateLimit   int    `default:"20" validate:"uint"`
	JanitorInterval string `default:"1m" validate:"duration"`
}

// ParseFlags loads the configuration with increasing precedence: struct tag
// defaults, the .env file, the environment, then command line flags.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fset := flag.NewFlagSet("sufragio", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	port := fset.Int("p", 0, "Server port")
	dbURL := fset.String("d", "", "Database URL")
	dbType := fset.String("t", "", "Database type (sqlite, postgres or pgx)")

	// Secrets (prefer env variables, but allow CLI for dev)
	adminKey := fset.String("admin-key", "", "Admin shared secret (prefer env)")
	ipSalt := fset.String("ip-salt", "", "Salt for client IP hashing (prefer env)")
	envFile := fset.String("env-file", ".env", "Optional dotenv file")

	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	if err := (&multiconfig.TagLoader{}).Load(&cfg); err != nil {
		return Config{}, err
	}

	// Unprefixed variables set by hosting platforms
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, errors.New("invalid PORT env variable")
		}
		cfg.Port = p
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("ADMIN_KEY"); v != "" {
		cfg.AdminKey = v
	}

	env := &multiconfig.EnvironmentLoader{Prefix: EnvPrefix, CamelCase: true}
	if err := env.Load(&cfg); err != nil {
		return Config{}, err
	}

	// Only flags given explicitly override the environment
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Port = *port
		case "d":
			cfg.DatabaseURL = *dbURL
		case "t":
			cfg.DatabaseType = *dbType
		case "admin-key":
			cfg.AdminKey = *adminKey
		case "ip-salt":
			cfg.IPHashSalt = *ipSalt
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	// The admin key doubles as IP hashing salt when none is given
	if cfg.IPHashSalt == "" {
		cfg.IPHashSalt = cfg.AdminKey
	}

	return cfg, nil
}

// Validate checks required fields and the validate tags.
func (c *Config) Validate() error {
	validators := multiconfig.MultiValidator(
		&multiconfig.RequiredValidator{},
		&ComplexValidator{},
	)
	return validators.Validate(c)
}

// GetSessionTTL returns how long a voter session token stays valid.
func (c Config) GetSessionTTL() time.Duration {
	return mustDuration(c.SessionTTL, 12*time.Hour)
}

// GetConnectTimeout bounds the initial store ping.
func (c Config) GetConnectTimeout() time.Duration {
	return mustDuration(c.ConnectTimeout, 5*time.Second)
}

// GetQueryTimeout bounds each store transaction.
func (c Config) GetQueryTimeout() time.Duration {
	return mustDuration(c.QueryTimeout, 10*time.Second)
}

func (c Config) GetRateWindow() time.Duration {
	return mustDuration(c.RateWindow, time.Minute)
}

func (c Config) GetJanitorInterval() time.Duration {
	return mustDuration(c.JanitorInterval, time.Minute)
}

// mustDuration parses an already validated duration, falling back to def for
// zero-valued configs built in code.
func mustDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
