package game

import (
	"errors"
	"fmt"
)

// Invariant names reported by SimulationError.
const (
	InvariantGameIdentity    = "game_identity"
	InvariantTeamIdentity    = "team_identity"
	InvariantLineupSize      = "lineup_size"
	InvariantPitcherMissing  = "pitcher_missing"
	InvariantDuplicatePlayer = "duplicate_player"
	InvariantInningsRange    = "innings_range"
	InvariantOutsRange       = "outs_range"
	InvariantPitchModel      = "pitch_model"
)

// ErrSimulation is the kind every SimulationError matches with errors.Is.
var ErrSimulation = errors.New("simulation failed")

// SimulationError reports an invariant violation while simulating one game.
// Nothing from a failed simulation is ever committed.
type SimulationError struct {
	IDGame    int64
	Invariant string
	Err       error
}

func (e *SimulationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("game %d: invariant %s violated: %v", e.IDGame, e.Invariant, e.Err)
	}
	return fmt.Sprintf("game %d: invariant %s violated", e.IDGame, e.Invariant)
}

// Unwrap exposes the underlying cause.
func (e *SimulationError) Unwrap() error { return e.Err }

// Is matches ErrSimulation.
func (e *SimulationError) Is(target error) bool { return target == ErrSimulation }

func violation(idGame int64, invariant string, format string, args ...any) *SimulationError {
	return &SimulationError{IDGame: idGame, Invariant: invariant, Err: fmt.Errorf(format, args...)}
}
