// Package config loads and validates the engine configuration from the
// environment. Invalid configuration is fatal at startup: the engine must not
// run with undefined thresholds.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	cerrors "newsgate/internal/core/errors"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8002"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	// Routing core
	MinContentLength    int     `env:"MIN_CONTENT_LENGTH" envDefault:"150"`
	SimilarityThreshold float64 `env:"SIMILARITY_THRESHOLD" envDefault:"0.8"`
	LookbackWindowDays  int     `env:"LOOKBACK_WINDOW_DAYS" envDefault:"7"`
	FullThreshold       float64 `env:"FULL_THRESHOLD" envDefault:"0.85"`
	MediumThreshold     float64 `env:"MEDIUM_THRESHOLD" envDefault:"0.65"`
	FilterRulesPath     string  `env:"FILTER_RULES_PATH"`

	// Budget
	DailyCallCap        int    `env:"DAILY_CALL_CAP" envDefault:"0"`
	FullTierCallCap     int    `env:"FULL_TIER_CALL_CAP" envDefault:"0"`
	MediumTierCallCap   int    `env:"MEDIUM_TIER_CALL_CAP" envDefault:"0"`
	DailyBudgetCents    int    `env:"DAILY_BUDGET_CENTS" envDefault:"0"`
	FullTierCostCents   int    `env:"FULL_TIER_COST_CENTS" envDefault:"50"`
	MediumTierCostCents int    `env:"MEDIUM_TIER_COST_CENTS" envDefault:"10"`
	BudgetTimezone      string `env:"BUDGET_TIMEZONE" envDefault:"UTC"`

	// Stage-A enrichment collaborator
	StageAURL     string        `env:"STAGE_A_URL"`
	StageAAPIKey  string        `env:"STAGE_A_API_KEY"`
	StageATimeout time.Duration `env:"STAGE_A_TIMEOUT" envDefault:"5m"`
	StageARPS     float64       `env:"STAGE_A_RPS" envDefault:"2"`

	// RSS poller mode
	FeedURLs         []string      `env:"FEED_URLS" envSeparator:","`
	PollInterval     time.Duration `env:"POLL_INTERVAL" envDefault:"5m"`
	FetchFullContent bool          `env:"FETCH_FULL_CONTENT" envDefault:"false"`
	FetchTimeout     time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
}

// Load reads the environment (and an optional .env file) into a Config and
// validates it.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks threshold ranges and cap sanity. All failures wrap
// ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.MinContentLength <= 0 {
		return invalid("MIN_CONTENT_LENGTH must be positive, got %d", c.MinContentLength)
	}

	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return invalid("SIMILARITY_THRESHOLD must be in (0,1], got %v", c.SimilarityThreshold)
	}

	if c.LookbackWindowDays <= 0 {
		return invalid("LOOKBACK_WINDOW_DAYS must be positive, got %d", c.LookbackWindowDays)
	}

	if c.FullThreshold < 0 || c.FullThreshold > 1 {
		return invalid("FULL_THRESHOLD must be in [0,1], got %v", c.FullThreshold)
	}

	if c.MediumThreshold < 0 || c.MediumThreshold > 1 {
		return invalid("MEDIUM_THRESHOLD must be in [0,1], got %v", c.MediumThreshold)
	}

	if c.MediumThreshold > c.FullThreshold {
		return invalid("MEDIUM_THRESHOLD %v exceeds FULL_THRESHOLD %v", c.MediumThreshold, c.FullThreshold)
	}

	for name, v := range map[string]int{
		"DAILY_CALL_CAP":         c.DailyCallCap,
		"FULL_TIER_CALL_CAP":     c.FullTierCallCap,
		"MEDIUM_TIER_CALL_CAP":   c.MediumTierCallCap,
		"DAILY_BUDGET_CENTS":     c.DailyBudgetCents,
		"FULL_TIER_COST_CENTS":   c.FullTierCostCents,
		"MEDIUM_TIER_COST_CENTS": c.MediumTierCostCents,
	} {
		if v < 0 {
			return invalid("%s must not be negative, got %d", name, v)
		}
	}

	if _, err := time.LoadLocation(c.BudgetTimezone); err != nil {
		return invalid("BUDGET_TIMEZONE %q is not a valid location", c.BudgetTimezone)
	}

	return nil
}

// BudgetLocation resolves the configured budget timezone. Validate has
// already checked it loads.
func (c *Config) BudgetLocation() *time.Location {
	loc, err := time.LoadLocation(c.BudgetTimezone)
	if err != nil {
		return time.UTC
	}

	return loc
}

// LookbackWindow returns the duplicate lookback as a duration.
func (c *Config) LookbackWindow() time.Duration {
	return time.Duration(c.LookbackWindowDays) * 24 * time.Hour
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, cerrors.ErrInvalidConfig)...)
}
