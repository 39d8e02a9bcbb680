// Package config loads runtime tuning from the environment. Every knob has
// a default matching observed portal behaviour, so an empty environment is
// always valid.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the tunable parameters for a portal session.
type Config struct {
	// Listen is the HTTP read-surface address.
	Listen string `env:"PORTAL_LISTEN" envDefault:":8080"`

	// SpeedScale multiplies the raw decoded speed float into scale-mph.
	// The default 64 matches the 1:64 car scale heuristic.
	SpeedScale float64 `env:"PORTAL_SPEED_SCALE" envDefault:"64"`

	// PassHistory is the capacity of the recent-pass ring.
	PassHistory int `env:"PORTAL_PASS_HISTORY" envDefault:"10"`

	// PollInterval is the cadence of the status/render poll loop.
	PollInterval time.Duration `env:"PORTAL_POLL_INTERVAL" envDefault:"250ms"`

	// LogDir is the directory for session capture logs.
	LogDir string `env:"PORTAL_LOG_DIR" envDefault:"."`

	// DefaultLaps is the lap target used by the custom race selection.
	DefaultLaps int `env:"PORTAL_DEFAULT_LAPS" envDefault:"10"`
}

// Load reads and validates configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.SpeedScale <= 0 {
		return fmt.Errorf("speed scale must be positive, got %v", c.SpeedScale)
	}
	if c.PassHistory < 1 {
		return fmt.Errorf("pass history must be at least 1, got %d", c.PassHistory)
	}
	if c.PollInterval < 10*time.Millisecond {
		return fmt.Errorf("poll interval %v is too small", c.PollInterval)
	}
	if c.DefaultLaps < 1 {
		return fmt.Errorf("default laps must be at least 1, got %d", c.DefaultLaps)
	}
	return nil
}
