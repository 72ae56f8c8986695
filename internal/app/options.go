package service

import (
	"time"

	"github.com/okian/diamond/internal/adapters/mq/worker"
	"github.com/okian/diamond/internal/adapters/repository"
	"github.com/okian/diamond/internal/domain/dedupe"
	"github.com/okian/diamond/internal/domain/fatigue"
	"github.com/okian/diamond/internal/domain/game"
	"github.com/okian/diamond/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithMaxConcurrency sets the number of simulation workers.
func WithMaxConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// WithQueueSize bounds the number of games waiting for a worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore sets the universe store. The default is an empty MemStore.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSimulator replaces the game engine.
func WithSimulator(sim worker.Simulator) Option {
	return func(s *Service) {
		if sim != nil {
			s.simulator = sim
		}
	}
}

// WithMerger sets how game deltas and rest days change player condition.
func WithMerger(m fatigue.Merger) Option {
	return func(s *Service) {
		if m != nil {
			s.merger = m
		}
	}
}

// WithSeed sets the master seed every per-game seed is derived from.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithAutoAdvance runs a batch every interval until the service stops.
// Zero disables the loop.
func WithAutoAdvance(interval time.Duration) Option {
	return func(s *Service) {
		if interval >= 0 {
			s.autoAdvance = interval
		}
	}
}

// WithGameOptions configures the default game engine. Ignored when a
// simulator is set with WithSimulator.
func WithGameOptions(opts ...game.Option) Option {
	return func(s *Service) {
		s.gameOpts = append(s.gameOpts, opts...)
	}
}

// WithDeduper shares the in-flight game tracker with other schedulers
// working on the same store.
func WithDeduper(d dedupe.Deduper[int64]) Option {
	return func(s *Service) {
		if d != nil {
			s.claims = d
		}
	}
}
