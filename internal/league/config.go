package league

import (
	"fmt"
	"time"
)

// Generator defaults.
const (
	DefaultTeams    = 8
	DefaultDays     = 30
	DefaultPitchers = 8
	DefaultSeed     = 1

	// LineupSize is the number of batters on every generated roster.
	LineupSize = 9
	// CrewSize is the number of umpires assigned to a game.
	CrewSize = 4

	maxTeams    = 49
	maxPitchers = 40
)

// DefaultStart is the first game date of a generated schedule.
var DefaultStart = time.Date(2030, time.April, 1, 19, 5, 0, 0, time.UTC)

// Config holds the knobs of the league generator.
type Config struct {
	Teams    int       // Number of teams, at least 2
	Days     int       // Number of scheduled days
	Pitchers int       // Pitching staff size per team
	Seed     uint64    // Master seed of every draw
	Start    time.Time // Date of the first game day
}

// Option configures the generator.
type Option func(*Config)

// WithTeams sets the number of teams.
func WithTeams(n int) Option {
	return func(c *Config) { c.Teams = n }
}

// WithDays sets the number of scheduled days.
func WithDays(n int) Option {
	return func(c *Config) { c.Days = n }
}

// WithPitchers sets the size of each pitching staff.
func WithPitchers(n int) Option {
	return func(c *Config) { c.Pitchers = n }
}

// WithSeed sets the master seed.
func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithStart sets the first game day. Zero values are ignored.
func WithStart(t time.Time) Option {
	return func(c *Config) {
		if !t.IsZero() {
			c.Start = t.UTC()
		}
	}
}

func newConfig(opts ...Option) Config {
	c := Config{
		Teams:    DefaultTeams,
		Days:     DefaultDays,
		Pitchers: DefaultPitchers,
		Seed:     DefaultSeed,
		Start:    DefaultStart,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Teams < 2 || c.Teams > maxTeams:
		return fmt.Errorf("%w: teams must be in [2, %d], got %d", ErrInvalidConfig, maxTeams, c.Teams)
	case c.Days < 1:
		return fmt.Errorf("%w: days must be positive, got %d", ErrInvalidConfig, c.Days)
	case c.Pitchers < 1 || c.Pitchers > maxPitchers:
		return fmt.Errorf("%w: pitchers must be in [1, %d], got %d", ErrInvalidConfig, maxPitchers, c.Pitchers)
	case c.Start.IsZero():
		return fmt.Errorf("%w: start date is required", ErrInvalidConfig)
	}
	return nil
}
