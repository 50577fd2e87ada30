// Package config assembles service configuration from the environment.
//
// Every knob reads a KOTOBA_* variable and falls back to a default that
// works for local development. A .env file in the working directory is
// loaded first, so local setups can keep provider keys out of the
// shell. The database path additionally honors KOTOBA_DB through the
// store's standard data-dir resolution.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/sohta/kotoba/internal/jobs"
	"github.com/sohta/kotoba/internal/llm"
	"github.com/sohta/kotoba/internal/store"
)

// Config holds everything the serve command needs to wire the service.
type Config struct {
	// HTTPAddr is the listen address for the API server.
	HTTPAddr string

	// DBPath is a SQLite file path or a postgres DSN.
	DBPath string

	// RedisAddr enables the cross-process generation lock when set.
	// Empty falls back to the in-process lock.
	RedisAddr string

	// LogMode selects logger output: "dev" (console) or "prod" (JSON).
	LogMode string

	// RequestedRetention overrides the review scheduler's target recall
	// probability when non-zero. Must sit strictly between 0 and 1.
	RequestedRetention float64

	LLM  llm.Config
	Jobs jobs.Config
}

// Load builds a Config from the environment. The LLM section prefers
// explicit KOTOBA_LLM_* settings and otherwise probes the standard
// provider key variables.
func Load() (Config, error) {
	// Variables already in the environment win over .env entries, and
	// a missing file is not an error.
	_ = godotenv.Load()

	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return Config{}, fmt.Errorf("resolve database path: %w", err)
	}

	cfg := Config{
		HTTPAddr:  envOr("KOTOBA_HTTP_ADDR", ":8080"),
		DBPath:    dbPath,
		RedisAddr: os.Getenv("KOTOBA_REDIS_ADDR"),
		LogMode:   envOr("KOTOBA_LOG_MODE", "dev"),
	}

	cfg.RequestedRetention, err = envFloat("KOTOBA_RETENTION")
	if err != nil {
		return Config{}, err
	}

	cfg.Jobs.PlacementExpiry, err = envDuration("KOTOBA_PLACEMENT_EXPIRY")
	if err != nil {
		return Config{}, err
	}
	cfg.Jobs.ExpirySweepEvery, err = envDuration("KOTOBA_EXPIRY_SWEEP_EVERY")
	if err != nil {
		return Config{}, err
	}
	cfg.Jobs.CoverageRefreshEvery, err = envDuration("KOTOBA_COVERAGE_REFRESH_EVERY")
	if err != nil {
		return Config{}, err
	}

	cfg.LLM = llm.ConfigFromEnv()
	if os.Getenv("KOTOBA_LLM_PROVIDER") == "" {
		if discovered, ok := llm.DiscoverConfig(); ok {
			cfg.LLM = discovered
		}
	}

	return cfg, nil
}

// Validate checks the cross-field constraints Load cannot.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("KOTOBA_HTTP_ADDR must not be empty")
	}
	if c.RequestedRetention != 0 && (c.RequestedRetention <= 0 || c.RequestedRetention >= 1) {
		return fmt.Errorf("KOTOBA_RETENTION must sit in (0, 1), got %v", c.RequestedRetention)
	}
	switch c.LogMode {
	case "dev", "prod", "production":
	default:
		return fmt.Errorf("KOTOBA_LOG_MODE must be dev or prod, got %q", c.LogMode)
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func envDuration(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
