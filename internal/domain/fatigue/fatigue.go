// Package fatigue merges the per-game deltas a simulation returns into the
// persistent condition of each player.
package fatigue

import (
	"math"

	"github.com/okian/diamond/internal/domain/model"
)

// Fatigue bounds and default rates.
const (
	FatigueMin = 0.0
	FatigueMax = 100.0

	DefaultPerPitch       = 0.25
	DefaultPerInning      = 0.5
	DefaultRecoveryPerDay = 10.0
)

// Merger folds game deltas and elapsed days into a player's condition.
type Merger interface {
	Merge(current model.Condition, delta model.PlayerDelta) model.Condition
	Recover(current model.Condition, days int) model.Condition
}

// DefaultMerger adds fatigue linearly in pitches and innings and removes a
// fixed amount per day of rest.
type DefaultMerger struct {
	PerPitch       float64
	PerInning      float64
	RecoveryPerDay float64
}

// Option configures a DefaultMerger.
type Option func(*DefaultMerger)

// WithPerPitch sets the fatigue added per pitch thrown.
func WithPerPitch(v float64) Option {
	return func(m *DefaultMerger) {
		if v >= 0 {
			m.PerPitch = v
		}
	}
}

// WithPerInning sets the fatigue added per inning played.
func WithPerInning(v float64) Option {
	return func(m *DefaultMerger) {
		if v >= 0 {
			m.PerInning = v
		}
	}
}

// WithRecoveryPerDay sets the fatigue removed per day.
func WithRecoveryPerDay(v float64) Option {
	return func(m *DefaultMerger) {
		if v >= 0 {
			m.RecoveryPerDay = v
		}
	}
}

// NewMerger returns a DefaultMerger with the default rates.
func NewMerger(opts ...Option) *DefaultMerger {
	m := &DefaultMerger{
		PerPitch:       DefaultPerPitch,
		PerInning:      DefaultPerInning,
		RecoveryPerDay: DefaultRecoveryPerDay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge never lowers fatigue. A new injury replaces a shorter one.
func (m *DefaultMerger) Merge(current model.Condition, delta model.PlayerDelta) model.Condition {
	added := float64(max(delta.Pitches, 0))*m.PerPitch + float64(max(delta.InningsPlayed, 0))*m.PerInning
	out := current
	out.Fatigue = clamp(current.Fatigue + added)
	if delta.InjuryDays > out.InjuryDays {
		out.InjuryDays = delta.InjuryDays
	}
	return out
}

// Recover applies days of rest.
func (m *DefaultMerger) Recover(current model.Condition, days int) model.Condition {
	if days <= 0 {
		return current
	}
	out := current
	out.Fatigue = clamp(current.Fatigue - float64(days)*m.RecoveryPerDay)
	out.InjuryDays = max(current.InjuryDays-days, 0)
	return out
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return FatigueMin
	}
	return math.Min(FatigueMax, math.Max(FatigueMin, v))
}
