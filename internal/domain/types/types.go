// Package types contains common types used across the application
package types

import "time"

// BatchReport summarizes one scheduler run.
type BatchReport struct {
	RunID    string    `json:"runId"`
	Date     time.Time `json:"date"`
	NextDate time.Time `json:"nextDate"`
	// Due is the number of unresolved games scheduled at Date.
	Due       int `json:"due"`
	Simulated int `json:"simulated"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	// Pending counts unresolved games left in the store after the commit.
	Pending  int           `json:"pending"`
	Advanced bool          `json:"advanced"`
	Failures []GameFailure `json:"failures,omitempty"`
	Duration time.Duration `json:"durationNs"`
}

// Complete reports whether every due game was resolved.
func (r BatchReport) Complete() bool { return r.Failed == 0 }

// GameFailure records why one game of a batch was not committed.
type GameFailure struct {
	IDGame int64 `json:"idGame"`
	// Invariant names the broken simulation invariant, empty for faults and
	// storage errors.
	Invariant string `json:"invariant,omitempty"`
	Error     string `json:"error"`
}

// Stats is the service-level view served by the stats endpoint.
type Stats struct {
	CurrentDate    time.Time `json:"currentDate"`
	Games          int       `json:"games"`
	Resolved       int       `json:"resolved"`
	Pending        int       `json:"pending"`
	Teams          int       `json:"teams"`
	Players        int       `json:"players"`
	Workers        int       `json:"workers"`
	QueueDepth     int       `json:"queueDepth"`
	Batches        int64     `json:"batches"`
	GamesSimulated int64     `json:"gamesSimulated"`
	GamesFailed    int64     `json:"gamesFailed"`
	GamesSkipped   int64     `json:"gamesSkipped"`
	LastRunID      string    `json:"lastRunId,omitempty"`
}
