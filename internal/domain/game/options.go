package game

// Default game configuration.
const (
	DefaultInnings       = 9
	DefaultMaxInnings    = 25
	DefaultReliefFatigue = 0.75
	DefaultInjuryChance  = 0.05
	DefaultMaxInjuryDays = 10
	minimumLineup        = 9
)

type settings struct {
	innings       int
	maxInnings    int
	reliefFatigue float64
	injuryChance  float64
	maxInjuryDays int
}

// Option configures a simulation.
type Option func(*settings)

// WithInnings sets the regulation length. A package's own Innings wins.
func WithInnings(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.innings = n
		}
	}
}

// WithMaxInnings caps extra innings; a game still tied after the cap ends
// as a tie.
func WithMaxInnings(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxInnings = n
		}
	}
}

// WithReliefFatigue sets the fatigue factor below which a starter is pulled
// when a reliever is available.
func WithReliefFatigue(f float64) Option {
	return func(s *settings) {
		if f >= 0 && f <= 1 {
			s.reliefFatigue = f
		}
	}
}

// WithInjuryChance sets the chance a hit-by-pitch injures the batter.
func WithInjuryChance(p float64) Option {
	return func(s *settings) {
		if p >= 0 && p <= 1 {
			s.injuryChance = p
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		innings:       DefaultInnings,
		maxInnings:    DefaultMaxInnings,
		reliefFatigue: DefaultReliefFatigue,
		injuryChance:  DefaultInjuryChance,
		maxInjuryDays: DefaultMaxInjuryDays,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
