package service

import "errors"

var (
	// ErrRosterConflict rejects a batch in which one player or team is due
	// in two games.
	ErrRosterConflict = errors.New("roster conflict")
	// ErrBatchInProgress is returned when RunBatch is called while another
	// batch is still running.
	ErrBatchInProgress = errors.New("batch already in progress")
	// ErrNotStarted is returned by RunBatch before Start.
	ErrNotStarted = errors.New("service not started")
)
