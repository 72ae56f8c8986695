package atbat

import (
	"fmt"
	"math"

	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/domain/random"
)

// MaxPitchesPerAtBat bounds Resolve; a plate appearance that long is treated
// as a broken model rather than a real at-bat.
const MaxPitchesPerAtBat = 200

const (
	defaultRating      = 50
	defaultZoneSize    = 100
	defaultConsistency = 80

	whiffThreshold = 35
	solidThreshold = 60

	hbpBase    = 0.03
	hbpControl = 0.07
)

var velocityBands = map[model.PitchType][2]float64{
	model.Fastball:  {88, 100},
	model.Sinker:    {86, 96},
	model.Cutter:    {85, 94},
	model.Slider:    {80, 90},
	model.Curveball: {72, 82},
	model.Changeup:  {78, 88},
	model.Splitter:  {80, 90},
}

var locationBonus = map[Location]int{
	Heart: 10,
	Edge:  0,
	Chase: -15,
	Waste: -30,
}

// Resolver drives one plate appearance.
type Resolver struct {
	src     random.Source
	m       Matchup
	thrown  int
	count   Count
	state   State
	outcome Outcome
}

// New returns a resolver waiting for the first pitch of the at-bat.
func New(src random.Source, m Matchup) *Resolver {
	return &Resolver{src: src, m: m, state: AwaitingPitch}
}

// State returns the current state.
func (r *Resolver) State() State { return r.state }

// Count returns the current count.
func (r *Resolver) Count() Count { return r.count }

// Outcome returns the terminal outcome, or OutcomeNone before resolution.
func (r *Resolver) Outcome() Outcome { return r.outcome }

// Done reports whether the at-bat is over.
func (r *Resolver) Done() bool { return r.state == Resolved }

// Pitches returns how many pitches were thrown in this at-bat.
func (r *Resolver) Pitches() int { return r.thrown }

// Fatigue returns the factor that applies to the next pitch.
func (r *Resolver) Fatigue() float64 {
	return FatigueFactor(r.m.PitchesThrown+r.thrown, rating(r.m.Pitcher.Physical.Stamina), r.m.Pitcher.Condition.Fatigue)
}

// Step throws one pitch and advances the state machine.
func (r *Resolver) Step() (PitchEvent, error) {
	if r.state == Resolved {
		return PitchEvent{}, ErrResolved
	}
	// fatigue is fixed before any weight for this pitch is computed
	f := r.Fatigue()
	r.state = PitchThrown

	pt, err := r.selectPitch(f)
	if err != nil {
		return PitchEvent{}, err
	}
	loc, err := r.selectLocation(f)
	if err != nil {
		return PitchEvent{}, err
	}
	velo, err := r.velocity(pt, f)
	if err != nil {
		return PitchEvent{}, err
	}
	r.thrown++

	ev := PitchEvent{Type: pt, Location: loc, Velocity: velo}
	call, quality, err := r.rule(pt, loc, f)
	if err != nil {
		return PitchEvent{}, err
	}
	ev.Call = call

	switch call {
	case CallBall:
		r.state = Ball
		r.count.Balls++
		if r.count.Balls == 4 {
			r.finish(OutcomeWalk)
		}
	case CallCalledStrike, CallSwingingStrike:
		r.state = Strike
		r.count.Strikes++
		if r.count.Strikes == 3 {
			r.finish(OutcomeStrikeout)
		}
	case CallFoul:
		r.state = Foul
		if r.count.Strikes < 2 {
			r.count.Strikes++
		}
	case CallHitByPitch:
		r.state = HitByPitch
		r.finish(OutcomeHitByPitch)
	case CallInPlay:
		r.state = InPlay
		outcome, angle, err := r.battedBall(quality)
		if err != nil {
			return PitchEvent{}, err
		}
		ev.SprayAngle = angle
		r.finish(outcome)
	}
	if r.state != Resolved {
		r.state = AwaitingPitch
	}
	ev.Count = r.count
	return ev, nil
}

func (r *Resolver) finish(o Outcome) {
	r.outcome = o
	r.state = Resolved
}

// selectPitch weighs the repertoire by quality, count and batter tendency.
func (r *Resolver) selectPitch(f float64) (model.PitchType, error) {
	rep := r.m.Pitcher.Repertoire
	choices := make([]random.Choice[model.PitchType], 0, len(model.PitchTypes))
	for _, pt := range model.PitchTypes {
		q := rep[pt]
		if q <= 0 {
			continue
		}
		w := float64(q) * r.countModifier(pt) * r.tendencyModifier(pt)
		if !isHard(pt) {
			// secondary pitches lose command first
			w *= f
		}
		choices = append(choices, random.Choice[model.PitchType]{Item: pt, Weight: w})
	}
	if len(choices) == 0 {
		if len(rep) > 0 {
			return "", ErrNoPitches
		}
		choices = []random.Choice[model.PitchType]{
			{Item: model.Fastball, Weight: 60},
			{Item: model.Changeup, Weight: 25 * f},
		}
	}
	pt, err := random.WeightedChoice(r.src, choices)
	if err != nil {
		return "", fmt.Errorf("select pitch: %w", err)
	}
	return pt, nil
}

func (r *Resolver) countModifier(pt model.PitchType) float64 {
	switch {
	case r.count.Balls > r.count.Strikes || r.count.Balls == 3:
		if isHard(pt) {
			return 1.6
		}
	case r.count.Strikes == 2:
		if !isHard(pt) {
			return 1.5
		}
	}
	return 1
}

func (r *Resolver) tendencyModifier(pt model.PitchType) float64 {
	if pt == model.Fastball && r.m.Batter.Physical.Contact >= 70 {
		return 0.8
	}
	if !isHard(pt) && r.m.Batter.Physical.Power >= 70 {
		return 1.15
	}
	return 1
}

func isHard(pt model.PitchType) bool {
	return pt == model.Fastball || pt == model.Sinker || pt == model.Cutter
}

// selectLocation picks where the pitch crosses, driven by effective control.
func (r *Resolver) selectLocation(f float64) (Location, error) {
	c := float64(rating(r.m.Pitcher.Physical.Control)) * f
	heart := 20 + c*0.1
	edge := 20 + c*0.3
	chase := math.Max(5, 25-c*0.1)
	waste := math.Max(1, 15-c*0.12)
	if r.count.Strikes == 2 && r.count.Balls < 3 {
		chase += 10
	}
	if r.count.Balls == 3 {
		heart *= 2
		edge *= 1.3
		waste *= 0.3
	}
	loc, err := random.WeightedChoice(r.src, []random.Choice[Location]{
		{Item: Heart, Weight: heart},
		{Item: Edge, Weight: edge},
		{Item: Chase, Weight: chase},
		{Item: Waste, Weight: waste},
	})
	if err != nil {
		return "", fmt.Errorf("select location: %w", err)
	}
	return loc, nil
}

func (r *Resolver) velocity(pt model.PitchType, f float64) (int, error) {
	band, ok := velocityBands[pt]
	if !ok {
		band = velocityBands[model.Fastball]
	}
	// strong arms skew toward the top of the band
	skew := math.Max(0.2, 1+float64(defaultRating-rating(r.m.Pitcher.Physical.Velocity))/100)
	v, err := random.BoundedNormal(r.src, band[0], band[1], skew)
	if err != nil {
		return 0, fmt.Errorf("velocity: %w", err)
	}
	return int(math.Round(float64(v) - (1-f)*8)), nil
}

// rule decides ball, strike, foul, contact or hit-by-pitch. quality is the
// contact quality for balls in play.
func (r *Resolver) rule(pt model.PitchType, loc Location, f float64) (Call, int, error) {
	control := float64(rating(r.m.Pitcher.Physical.Control)) * f
	if loc == Waste && random.Chance(r.src, hbpBase+(100-control)/100*hbpControl) {
		return CallHitByPitch, 0, nil
	}
	if !random.Chance(r.src, r.swingProbability(loc)) {
		if random.Chance(r.src, r.calledStrikeProbability(loc)) {
			return CallCalledStrike, 0, nil
		}
		return CallBall, 0, nil
	}

	pq := float64(r.pitchQuality(pt)) * f
	contact := float64(rating(r.m.Batter.Physical.Contact))
	skew := math.Max(0.4, math.Min(2.5, 1+(pq-contact)/100))
	roll, err := random.BoundedNormal(r.src, 0, 100, skew)
	if err != nil {
		return "", 0, fmt.Errorf("contact roll: %w", err)
	}
	q := roll + locationBonus[loc]
	switch {
	case q < whiffThreshold:
		return CallSwingingStrike, q, nil
	case q < solidThreshold:
		if random.Chance(r.src, 0.55) {
			return CallFoul, q, nil
		}
	default:
		if random.Chance(r.src, 0.3) {
			return CallFoul, q, nil
		}
	}
	return CallInPlay, q, nil
}

func (r *Resolver) pitchQuality(pt model.PitchType) int {
	if q, ok := r.m.Pitcher.Repertoire[pt]; ok && q > 0 {
		return q
	}
	return defaultRating
}

func (r *Resolver) swingProbability(loc Location) float64 {
	b := r.m.Batter
	var p float64
	switch loc {
	case Heart:
		p = 0.75
	case Edge:
		p = 0.55
	case Chase:
		p = 0.3
	default:
		p = 0.06
	}
	if loc == Chase || loc == Waste {
		judgment := float64(rating(b.Physical.Eye)+rating(b.Mental.Discipline)) / 2
		p -= judgment / 100 * 0.2
	}
	p += float64(rating(b.Mental.Aggression)-defaultRating) / 100 * 0.2
	if b.Alignment.Lawful < 0 {
		p += 0.02
	}
	if len(b.MyersBriggs) > 0 && b.MyersBriggs[0] == 'E' {
		p += 0.02
	}
	if r.count.Strikes == 2 && loc != Waste {
		p += 0.15 - float64(rating(b.Mental.Composure))/100*0.05
	}
	return math.Max(0.01, math.Min(0.98, p))
}

func (r *Resolver) calledStrikeProbability(loc Location) float64 {
	ump := r.m.Umpire
	zone := ump.ZoneSize
	if zone == 0 {
		zone = defaultZoneSize
	}
	cons := ump.Consistency
	if cons == 0 {
		cons = defaultConsistency
	}
	consistency := float64(cons) / 100
	switch loc {
	case Heart:
		return 1
	case Edge:
		p := 0.5 + float64(zone-defaultZoneSize)/100*0.5
		return clamp01(p*consistency + 0.5*(1-consistency))
	case Chase:
		p := 0.08 + float64(zone-defaultZoneSize)/200
		return clamp01(p*consistency + 0.2*(1-consistency))
	default:
		return 0
	}
}

// battedBall turns contact quality into an outcome. Spray angle picks the
// wall segment the ball is driven toward; deep or tall walls suppress home
// runs.
func (r *Resolver) battedBall(quality int) (Outcome, int, error) {
	angle, err := random.UniformInt(r.src, -45, 45)
	if err != nil {
		return OutcomeNone, 0, fmt.Errorf("spray angle: %w", err)
	}
	dist, height := r.m.Park.Wall(float64(angle))
	if dist <= 0 {
		dist = 1
	}
	parkFactor := math.Pow(380/float64(dist), 3) * math.Max(0.4, 1-float64(height-10)/100)

	q := float64(quality)
	power := float64(rating(r.m.Batter.Physical.Power))
	speed := float64(rating(r.m.Batter.Physical.Speed))
	def := float64(rating(r.m.DefenseFielding))
	sit := r.m.Situation

	fc, sac := 0.0, 0.0
	if sit.RunnerOnFirst && sit.Outs < 2 {
		fc = 5
	}
	if sit.RunnerOnThird && sit.Outs < 2 && quality < 70 {
		sac = 4
	}

	outcome, err := random.WeightedChoice(r.src, []random.Choice[Outcome]{
		{Item: OutcomeOut, Weight: math.Max(15, 62-q*0.25+(def-defaultRating)*0.1)},
		{Item: OutcomeSingle, Weight: 16 + q*0.05},
		{Item: OutcomeDouble, Weight: 4 + q*0.05 + power*0.03},
		{Item: OutcomeTriple, Weight: 0.5 + speed*0.015},
		{Item: OutcomeHomeRun, Weight: math.Max(0, q-50) * 0.25 * (0.5 + power/100) * parkFactor},
		{Item: OutcomeError, Weight: 1.5 * (1.5 - def/100)},
		{Item: OutcomeFieldersChoice, Weight: fc},
		{Item: OutcomeSacrifice, Weight: sac},
	})
	if err != nil {
		return OutcomeNone, 0, fmt.Errorf("batted ball: %w", err)
	}
	return outcome, angle, nil
}

// Result is a fully resolved plate appearance.
type Result struct {
	Outcome Outcome
	Pitches []PitchEvent
}

// Resolve runs the state machine to completion.
func Resolve(src random.Source, m Matchup) (Result, error) {
	r := New(src, m)
	var res Result
	for !r.Done() {
		if r.thrown >= MaxPitchesPerAtBat {
			return res, ErrPitchCap
		}
		ev, err := r.Step()
		if err != nil {
			return res, err
		}
		res.Pitches = append(res.Pitches, ev)
	}
	res.Outcome = r.Outcome()
	return res, nil
}

func rating(v int) int {
	if v <= 0 {
		return defaultRating
	}
	if v > 100 {
		return 100
	}
	return v
}

func clamp01(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}
