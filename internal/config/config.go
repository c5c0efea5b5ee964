// Package config defines process configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and the environment.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/draftboard/internal/adapters/repository"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address of the read API, e.g. ":9080".
	Addr string `koanf:"addr"`
	// DBDriver selects the store backend: duckdb or sqlite3.
	DBDriver string `koanf:"db_driver"`
	// DBPath is the database file. Empty or ":memory:" keeps data in memory.
	DBPath string `koanf:"db_path"`
	// LeagueID is the upstream draft league to track.
	LeagueID int `koanf:"league_id"`
	// UpstreamBaseURL is the root of the draft league API.
	UpstreamBaseURL string `koanf:"upstream_base_url"`
	// UpstreamTimeoutMS bounds every upstream HTTP request.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`
	// UpstreamMaxRetries is the number of retries on transient upstream failures.
	UpstreamMaxRetries int `koanf:"upstream_max_retries"`
	// PushgatewayURL, when set, receives batch metrics after each command.
	PushgatewayURL string `koanf:"pushgateway_url"`
	// MaxLeaderboardLimit caps GET /standings?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		DBDriver:            repository.DriverDuckDB,
		DBPath:              "data.db",
		LeagueID:            49439,
		UpstreamBaseURL:     "https://draft.premierleague.com/api",
		UpstreamTimeoutMS:   30_000,
		UpstreamMaxRetries:  2,
		MaxLeaderboardLimit: 100,
	}
}

// UpstreamTimeout returns UpstreamTimeoutMS as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// Validate checks the configuration for values the process cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !repository.SupportedDriver(c.DBDriver):
		return fmt.Errorf("%w: db_driver must be one of [%s], got %q",
			ErrInvalidConfig, strings.Join(repository.Drivers(), ", "), c.DBDriver)
	case c.LeagueID <= 0:
		return fmt.Errorf("%w: league_id must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.UpstreamBaseURL) == "":
		return fmt.Errorf("%w: upstream_base_url must not be empty", ErrInvalidConfig)
	case c.UpstreamTimeoutMS <= 0:
		return fmt.Errorf("%w: upstream_timeout_ms must be positive", ErrInvalidConfig)
	case c.UpstreamMaxRetries < 0:
		return fmt.Errorf("%w: upstream_max_retries must not be negative", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be at least 1", ErrInvalidConfig)
	}
	return nil
}
