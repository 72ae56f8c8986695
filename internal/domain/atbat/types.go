// Package atbat resolves a single plate appearance pitch by pitch.
//
// A Resolver walks the state machine
//
//	AwaitingPitch -> PitchThrown -> {Ball, Strike, Foul, InPlay, HitByPitch}
//	              -> AwaitingPitch | Resolved
//
// and reports one PitchEvent per pitch. Every random decision goes through
// the random package primitives.
package atbat

import "github.com/okian/diamond/internal/domain/model"

// State is the at-bat state machine position.
type State int

// At-bat states.
const (
	AwaitingPitch State = iota
	PitchThrown
	Ball
	Strike
	Foul
	InPlay
	HitByPitch
	Resolved
)

func (s State) String() string {
	switch s {
	case AwaitingPitch:
		return "awaiting_pitch"
	case PitchThrown:
		return "pitch_thrown"
	case Ball:
		return "ball"
	case Strike:
		return "strike"
	case Foul:
		return "foul"
	case InPlay:
		return "in_play"
	case HitByPitch:
		return "hit_by_pitch"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of a plate appearance.
type Outcome string

// Terminal outcomes.
const (
	OutcomeNone           Outcome = ""
	OutcomeWalk           Outcome = "walk"
	OutcomeStrikeout      Outcome = "strikeout"
	OutcomeHitByPitch     Outcome = "hit_by_pitch"
	OutcomeOut            Outcome = "out"
	OutcomeSingle         Outcome = "single"
	OutcomeDouble         Outcome = "double"
	OutcomeTriple         Outcome = "triple"
	OutcomeHomeRun        Outcome = "home_run"
	OutcomeError          Outcome = "error"
	OutcomeFieldersChoice Outcome = "fielders_choice"
	OutcomeSacrifice      Outcome = "sacrifice"
)

// IsHit reports whether the outcome credits the batter with a hit.
func (o Outcome) IsHit() bool {
	switch o {
	case OutcomeSingle, OutcomeDouble, OutcomeTriple, OutcomeHomeRun:
		return true
	}
	return false
}

// Location is where a pitch crosses the plate.
type Location string

// Pitch locations.
const (
	Heart Location = "heart"
	Edge  Location = "edge"
	Chase Location = "chase"
	Waste Location = "waste"
)

// Call is how a single pitch was ruled.
type Call string

// Pitch calls.
const (
	CallBall           Call = "ball"
	CallCalledStrike   Call = "called_strike"
	CallSwingingStrike Call = "swinging_strike"
	CallFoul           Call = "foul"
	CallInPlay         Call = "in_play"
	CallHitByPitch     Call = "hit_by_pitch"
)

// IsStrike reports whether the call counts as a strike in the pitcher's line.
func (c Call) IsStrike() bool {
	switch c {
	case CallCalledStrike, CallSwingingStrike, CallFoul, CallInPlay:
		return true
	}
	return false
}

// Count is balls and strikes in the current at-bat.
type Count struct {
	Balls   int `json:"balls"`
	Strikes int `json:"strikes"`
}

// PitchEvent describes one thrown pitch.
type PitchEvent struct {
	Type     model.PitchType `json:"type"`
	Location Location        `json:"location"`
	Velocity int             `json:"velocity"`
	Call     Call            `json:"call"`
	// Count after the pitch was ruled.
	Count Count `json:"count"`
	// SprayAngle is set for balls in play.
	SprayAngle int `json:"sprayAngle,omitempty"`
}

// Situation is the base/out context the at-bat starts in.
type Situation struct {
	Outs          int
	RunnerOnFirst bool
	RunnerOnThird bool
}

// Matchup is everything the resolver reads. It is never mutated.
type Matchup struct {
	Batter  model.Player
	Pitcher model.Player
	// PitchesThrown by this pitcher earlier in the game.
	PitchesThrown int
	Park          model.Park
	Umpire        model.Umpire
	// DefenseFielding is the fielding team's average fielding rating.
	DefenseFielding int
	Situation       Situation
}
