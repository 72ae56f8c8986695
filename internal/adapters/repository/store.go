// Package repository defines the storage boundary of the simulation
// universe: the clock, the schedule, rosters, player condition and box
// scores.
package repository

import (
	"context"
	"time"

	"github.com/okian/diamond/internal/domain/model"
)

// Summary counts what a store holds.
type Summary struct {
	Games    int `json:"games"`
	Resolved int `json:"resolved"`
	Pending  int `json:"pending"`
	Teams    int `json:"teams"`
	Players  int `json:"players"`
}

// Store provides read/write access to the universe.
type Store interface {
	// Universe returns the world clock.
	Universe(ctx context.Context) (model.Universe, error)

	// DueGames returns unresolved games scheduled exactly at at, ordered by
	// idGame. It never mutates.
	DueGames(ctx context.Context, at time.Time) ([]model.Game, error)

	// GamePackage resolves a game into a self-contained simulation input
	// with every player's current condition applied.
	GamePackage(ctx context.Context, game model.Game) (model.GamePackage, error)

	// SaveBoxScore writes a game's box score once.
	// Returns ErrAlreadyResolved on a second write and ErrNotFound for an
	// unknown game.
	SaveBoxScore(ctx context.Context, idGame int64, box model.BoxScore) error

	// CommitGame writes a game's box score and the conditions of the players
	// who took part as one unit. Either both land or neither does. It
	// returns the same errors as SaveBoxScore.
	CommitGame(ctx context.Context, idGame int64, box model.BoxScore, conds map[int64]model.Condition) error

	// BoxScore returns ErrNotFound for unknown or pending games.
	BoxScore(ctx context.Context, idGame int64) (model.BoxScore, error)

	// Conditions returns the condition of the given players; nil ids means
	// every player. Players without a stored condition are fresh.
	Conditions(ctx context.Context, ids []int64) (map[int64]model.Condition, error)

	// SaveConditions overwrites player conditions.
	SaveConditions(ctx context.Context, conds map[int64]model.Condition) error

	// NextGameDate returns the earliest unresolved game time after after.
	NextGameDate(ctx context.Context, after time.Time) (time.Time, bool, error)

	// AdvanceUniverse moves the clock. It never moves backwards.
	AdvanceUniverse(ctx context.Context, to time.Time) error

	// Standings ranks teams by resolved games.
	Standings(ctx context.Context) ([]model.Standing, error)

	// Summary counts games, teams and players.
	Summary(ctx context.Context) (Summary, error)

	// Count returns the number of pending games.
	Count(ctx context.Context) int
}

// Seeder loads a league into an empty store.
type Seeder interface {
	Seed(ctx context.Context, league model.League) error
}
