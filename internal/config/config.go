// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading layers a YAML file and DIAMOND_ environment variables on top.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath selects the SQLite store. Empty keeps the universe in memory.
	DBPath string `koanf:"db_path"`

	// MaxConcurrency sets the number of simulation workers.
	MaxConcurrency int `koanf:"max_concurrency"`

	// QueueSize bounds the games waiting for a worker.
	QueueSize int `koanf:"queue_size"`

	// Innings and MaxInnings set regulation length and the extra-inning cap.
	Innings    int `koanf:"innings"`
	MaxInnings int `koanf:"max_innings"`

	// InjuryChance is the chance a hit-by-pitch injures the batter.
	InjuryChance float64 `koanf:"injury_chance"`

	// Seed is the master seed every per-game seed derives from.
	Seed int64 `koanf:"seed"`

	// AutoAdvanceMS runs a batch on this interval. Zero disables it.
	AutoAdvanceMS int `koanf:"auto_advance_ms"`

	// Fatigue accrual and daily recovery.
	FatiguePerPitch       float64 `koanf:"fatigue_per_pitch"`
	FatiguePerInning      float64 `koanf:"fatigue_per_inning"`
	FatigueRecoveryPerDay float64 `koanf:"fatigue_recovery_per_day"`

	// LeagueFile seeds an empty store from a YAML league.
	LeagueFile string `koanf:"league_file"`

	// LeagueTeams and LeagueDays size the demo league generated when the
	// store is empty and no league file is given. Zero teams disables it.
	LeagueTeams int    `koanf:"league_teams"`
	LeagueDays  int    `koanf:"league_days"`
	LeagueSeed  uint64 `koanf:"league_seed"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		MaxConcurrency:        runtime.NumCPU(),
		QueueSize:             1024,
		Innings:               9,
		MaxInnings:            25,
		InjuryChance:          0.05,
		Seed:                  1,
		FatiguePerPitch:       0.25,
		FatiguePerInning:      0.5,
		FatigueRecoveryPerDay: 10,
		LeagueTeams:           8,
		LeagueDays:            30,
		LeagueSeed:            1,
	}
}

// AutoAdvance returns the batch interval.
func (c *Config) AutoAdvance() time.Duration {
	return time.Duration(c.AutoAdvanceMS) * time.Millisecond
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxConcurrency < 1:
		return fmt.Errorf("%w: max_concurrency must be positive, got %d", ErrInvalidConfig, c.MaxConcurrency)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.Innings < 1:
		return fmt.Errorf("%w: innings must be positive, got %d", ErrInvalidConfig, c.Innings)
	case c.MaxInnings < c.Innings:
		return fmt.Errorf("%w: max_innings %d below innings %d", ErrInvalidConfig, c.MaxInnings, c.Innings)
	case c.InjuryChance < 0 || c.InjuryChance > 1:
		return fmt.Errorf("%w: injury_chance must be in [0, 1], got %v", ErrInvalidConfig, c.InjuryChance)
	case c.AutoAdvanceMS < 0:
		return fmt.Errorf("%w: auto_advance_ms must not be negative", ErrInvalidConfig)
	case c.FatiguePerPitch < 0 || c.FatiguePerInning < 0 || c.FatigueRecoveryPerDay < 0:
		return fmt.Errorf("%w: fatigue rates must not be negative", ErrInvalidConfig)
	case c.LeagueTeams < 0 || c.LeagueDays < 0:
		return fmt.Errorf("%w: league size must not be negative", ErrInvalidConfig)
	}
	return nil
}
