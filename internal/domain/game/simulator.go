// Package game simulates one baseball game from a self-contained package.
//
// Simulate is a pure function of the package and the random source: it
// reads nothing else, writes nothing shared, and returns either a complete
// result or a *SimulationError. Fatigue and injuries the game produces are
// returned as deltas for the scheduler to merge.
package game

import (
	"math"

	"github.com/okian/diamond/internal/domain/atbat"
	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/domain/random"
)

const defaultStamina = 50

type half int

const (
	top half = iota
	bottom
)

// runner is an occupied base: who is on it and which pitching line the run
// is charged to.
type runner struct {
	batting int
	charged int
}

type side struct {
	team      model.Team
	box       *model.TeamBox
	next      int
	pitcher   int
	pitchLine int
	fielding  int
}

type simulator struct {
	pkg        model.GamePackage
	src        random.Source
	cfg        settings
	regulation int

	home, away *side
	umpire     model.Umpire

	inning  int
	innings int
	outs    int
	bases   [3]*runner

	pitchCounts map[int64]int
	injuries    map[int64]int
}

// Engine runs simulations with a fixed set of options.
type Engine struct {
	opts []Option
}

// NewEngine returns an Engine applying opts to every simulation.
func NewEngine(opts ...Option) *Engine {
	return &Engine{opts: opts}
}

// Simulate runs one game.
func (e *Engine) Simulate(pkg model.GamePackage, src random.Source) (model.GameResult, error) {
	return Simulate(pkg, src, e.opts...)
}

// Simulate plays the game in pkg to completion using src for every random
// decision. The same package and source state always produce the same result.
func Simulate(pkg model.GamePackage, src random.Source, opts ...Option) (model.GameResult, error) {
	cfg := newSettings(opts)
	if pkg.Innings > 0 {
		cfg.innings = pkg.Innings
	}
	if err := validate(pkg, cfg); err != nil {
		return model.GameResult{}, err
	}

	s := newSimulator(pkg.Clone(), src, cfg)
	if err := s.play(); err != nil {
		return model.GameResult{}, err
	}
	return s.result(), nil
}

// Validate checks a package without simulating it.
func Validate(pkg model.GamePackage, opts ...Option) error {
	cfg := newSettings(opts)
	if pkg.Innings > 0 {
		cfg.innings = pkg.Innings
	}
	if err := validate(pkg, cfg); err != nil {
		return err
	}
	return nil
}

func validate(pkg model.GamePackage, cfg settings) *SimulationError {
	id := pkg.IDGame
	if id <= 0 {
		return violation(id, InvariantGameIdentity, "idGame must be positive")
	}
	if pkg.Home.IDTeam <= 0 || pkg.Away.IDTeam <= 0 || pkg.Home.IDTeam == pkg.Away.IDTeam {
		return violation(id, InvariantTeamIdentity, "home %d and away %d must be distinct positive ids", pkg.Home.IDTeam, pkg.Away.IDTeam)
	}
	if cfg.innings < 1 || cfg.innings > cfg.maxInnings {
		return violation(id, InvariantInningsRange, "innings %d outside [1, %d]", cfg.innings, cfg.maxInnings)
	}
	seen := make(map[int64]bool)
	for _, t := range []model.Team{pkg.Home, pkg.Away} {
		if len(t.Lineup) < minimumLineup {
			return violation(id, InvariantLineupSize, "team %d has %d batters, need %d", t.IDTeam, len(t.Lineup), minimumLineup)
		}
		if len(t.Pitchers) == 0 {
			return violation(id, InvariantPitcherMissing, "team %d has no pitcher", t.IDTeam)
		}
		for _, pid := range t.PlayerIDs() {
			if pid <= 0 {
				return violation(id, InvariantDuplicatePlayer, "team %d has player with id %d", t.IDTeam, pid)
			}
			if seen[pid] {
				return violation(id, InvariantDuplicatePlayer, "player %d appears twice", pid)
			}
			seen[pid] = true
		}
	}
	return nil
}

func newSimulator(pkg model.GamePackage, src random.Source, cfg settings) *simulator {
	s := &simulator{
		pkg:         pkg,
		src:         src,
		cfg:         cfg,
		regulation:  cfg.innings,
		home:        newSide(pkg.Home),
		away:        newSide(pkg.Away),
		pitchCounts: make(map[int64]int),
		injuries:    make(map[int64]int),
	}
	if len(pkg.Umpires) > 0 {
		s.umpire = pkg.Umpires[0]
	}
	return s
}

func newSide(t model.Team) *side {
	box := &model.TeamBox{
		IDTeam:  t.IDTeam,
		Batting: make([]model.BattingLine, len(t.Lineup)),
	}
	total := 0
	for i, p := range t.Lineup {
		box.Batting[i].IDPerson = p.IDPerson
		f := p.Physical.Fielding
		if f <= 0 {
			f = 50
		}
		total += f
	}
	box.Pitching = append(box.Pitching, newPitchingLine(t.Pitchers[0]))
	return &side{
		team:     t,
		box:      box,
		fielding: total / len(t.Lineup),
	}
}

func newPitchingLine(p model.Player) model.PitchingLine {
	return model.PitchingLine{IDPerson: p.IDPerson, PitchesByType: make(map[model.PitchType]int)}
}

func (s *simulator) play() error {
	for s.inning = 1; ; s.inning++ {
		if err := s.playHalf(top); err != nil {
			return err
		}
		// home leads after the top half of a deciding inning: no need to bat
		if s.inning >= s.regulation && s.home.box.Runs > s.away.box.Runs {
			break
		}
		if err := s.playHalf(bottom); err != nil {
			return err
		}
		if s.inning >= s.regulation && s.home.box.Runs != s.away.box.Runs {
			break
		}
		if s.inning >= s.cfg.maxInnings {
			break
		}
	}
	s.innings = s.inning
	return nil
}

func (s *simulator) playHalf(h half) error {
	off, def := s.away, s.home
	if h == bottom {
		off, def = s.home, s.away
	}
	s.outs = 0
	s.bases = [3]*runner{}
	before := off.box.Runs

	for s.outs < 3 {
		if err := s.plateAppearance(off, def); err != nil {
			return err
		}
		if s.outs < 0 || s.outs > 3 {
			return violation(s.pkg.IDGame, InvariantOutsRange, "%d outs in inning %d", s.outs, s.inning)
		}
		if h == bottom && s.inning >= s.regulation && s.home.box.Runs > s.away.box.Runs {
			break
		}
	}
	if s.outs == 3 {
		for _, r := range s.bases {
			if r != nil {
				off.box.LeftOnBase++
			}
		}
	}
	off.box.LineScore = append(off.box.LineScore, off.box.Runs-before)
	return nil
}

func (s *simulator) plateAppearance(off, def *side) error {
	s.maybeRelieve(def)

	idx := off.next
	off.next = (off.next + 1) % len(off.team.Lineup)
	batter := off.team.Lineup[idx]
	pitcher := def.team.Pitchers[def.pitcher]

	res, err := atbat.Resolve(s.src, atbat.Matchup{
		Batter:          batter,
		Pitcher:         pitcher,
		PitchesThrown:   s.pitchCounts[pitcher.IDPerson],
		Park:            s.pkg.Park,
		Umpire:          s.umpire,
		DefenseFielding: def.fielding,
		Situation: atbat.Situation{
			Outs:          s.outs,
			RunnerOnFirst: s.bases[0] != nil,
			RunnerOnThird: s.bases[2] != nil,
		},
	})
	if err != nil {
		return violation(s.pkg.IDGame, InvariantPitchModel, "batter %d vs pitcher %d: %w", batter.IDPerson, pitcher.IDPerson, err)
	}

	pl := &def.box.Pitching[def.pitchLine]
	for _, ev := range res.Pitches {
		pl.Pitches++
		pl.PitchesByType[ev.Type]++
		switch {
		case ev.Call == atbat.CallBall:
			pl.Balls++
		case ev.Call.IsStrike():
			pl.Strikes++
		}
	}
	s.pitchCounts[pitcher.IDPerson] += len(res.Pitches)
	pl.BattersFaced++
	off.box.Batting[idx].PlateAppearance++

	s.apply(res.Outcome, off, def, idx)
	return nil
}

// maybeRelieve brings in the next healthy pitcher once the current one has
// tired past the relief threshold. With no one left in the bullpen the
// current pitcher stays in.
func (s *simulator) maybeRelieve(def *side) {
	current := def.team.Pitchers[def.pitcher]
	f := atbat.FatigueFactor(s.pitchCounts[current.IDPerson], stamina(current), current.Condition.Fatigue)
	if f >= s.cfg.reliefFatigue {
		return
	}
	for next := def.pitcher + 1; next < len(def.team.Pitchers); next++ {
		if !def.team.Pitchers[next].Condition.Healthy() {
			continue
		}
		def.pitcher = next
		def.box.Pitching = append(def.box.Pitching, newPitchingLine(def.team.Pitchers[next]))
		def.pitchLine = len(def.box.Pitching) - 1
		return
	}
}

func (s *simulator) apply(o atbat.Outcome, off, def *side, idx int) {
	bl := &off.box.Batting[idx]
	pl := &def.box.Pitching[def.pitchLine]
	batter := &runner{batting: idx, charged: def.pitchLine}

	switch o {
	case atbat.OutcomeWalk:
		bl.Walks++
		pl.Walks++
		s.score(off, def, bl, s.force(batter), true)
	case atbat.OutcomeHitByPitch:
		bl.HitByPitch++
		pl.HitByPitch++
		s.score(off, def, bl, s.force(batter), true)
		s.maybeInjure(off.team.Lineup[idx].IDPerson)
	case atbat.OutcomeStrikeout:
		bl.AtBats++
		bl.Strikeouts++
		pl.Strikeouts++
		s.out(def)
	case atbat.OutcomeOut:
		bl.AtBats++
		s.out(def)
	case atbat.OutcomeSingle, atbat.OutcomeDouble, atbat.OutcomeTriple, atbat.OutcomeHomeRun:
		bl.AtBats++
		bl.Hits++
		pl.Hits++
		off.box.Hits++
		var scored []*runner
		switch o {
		case atbat.OutcomeSingle:
			scored = s.single(batter)
		case atbat.OutcomeDouble:
			bl.Doubles++
			scored = s.double(batter)
		case atbat.OutcomeTriple:
			bl.Triples++
			scored = s.clear(batter, 2)
		case atbat.OutcomeHomeRun:
			bl.HomeRuns++
			pl.HomeRuns++
			s.score(off, def, bl, append(s.clear(nil, 0), batter), true)
			return
		}
		s.score(off, def, bl, s.walkOff(off, scored), true)
	case atbat.OutcomeError:
		bl.AtBats++
		def.box.Errors++
		s.score(off, def, bl, s.walkOff(off, s.advanceAll(batter)), false)
	case atbat.OutcomeFieldersChoice:
		bl.AtBats++
		s.fieldersChoice(def, batter)
	case atbat.OutcomeSacrifice:
		if s.bases[2] == nil || s.outs >= 2 {
			bl.AtBats++
			s.out(def)
			return
		}
		bl.SacrificeFlies++
		s.out(def)
		s.score(off, def, bl, s.walkOff(off, s.advanceRunners()), true)
	}
}

// walkOff keeps only the runs the home side needs to win when a play ends
// the bottom of a deciding inning. Lead runners score first. A home run is
// never cut short.
func (s *simulator) walkOff(off *side, scored []*runner) []*runner {
	if off != s.home || s.inning < s.regulation {
		return scored
	}
	need := s.away.box.Runs - s.home.box.Runs + 1
	if need > 0 && len(scored) > need {
		return scored[:need]
	}
	return scored
}

func (s *simulator) out(def *side) {
	s.outs++
	def.box.Pitching[def.pitchLine].Outs++
}

func (s *simulator) score(off, def *side, bl *model.BattingLine, scored []*runner, rbi bool) {
	for _, r := range scored {
		off.box.Runs++
		off.box.Batting[r.batting].Runs++
		def.box.Pitching[r.charged].Runs++
	}
	if rbi {
		bl.RBI += len(scored)
	}
}

// force puts the batter on first and pushes forced runners ahead.
func (s *simulator) force(batter *runner) []*runner {
	var scored []*runner
	if s.bases[0] != nil {
		if s.bases[1] != nil {
			if s.bases[2] != nil {
				scored = append(scored, s.bases[2])
			}
			s.bases[2] = s.bases[1]
		}
		s.bases[1] = s.bases[0]
	}
	s.bases[0] = batter
	return scored
}

// single scores runners from second and third and moves the runner on first
// to second.
func (s *simulator) single(batter *runner) []*runner {
	var scored []*runner
	for _, b := range []int{2, 1} {
		if s.bases[b] != nil {
			scored = append(scored, s.bases[b])
		}
	}
	s.bases[2], s.bases[1], s.bases[0] = nil, s.bases[0], batter
	return scored
}

// double scores runners from second and third and sends the runner on first
// to third.
func (s *simulator) double(batter *runner) []*runner {
	var scored []*runner
	for _, b := range []int{2, 1} {
		if s.bases[b] != nil {
			scored = append(scored, s.bases[b])
		}
	}
	s.bases[2], s.bases[1], s.bases[0] = s.bases[0], batter, nil
	return scored
}

// clear scores every runner and leaves the batter on base b.
func (s *simulator) clear(batter *runner, b int) []*runner {
	var scored []*runner
	for i := 2; i >= 0; i-- {
		if s.bases[i] != nil {
			scored = append(scored, s.bases[i])
		}
	}
	s.bases = [3]*runner{}
	if batter != nil {
		s.bases[b] = batter
	}
	return scored
}

// advanceAll moves every runner up one base and puts the batter on first.
func (s *simulator) advanceAll(batter *runner) []*runner {
	scored := s.advanceRunners()
	s.bases[0] = batter
	return scored
}

func (s *simulator) advanceRunners() []*runner {
	var scored []*runner
	if s.bases[2] != nil {
		scored = append(scored, s.bases[2])
	}
	s.bases[2], s.bases[1], s.bases[0] = s.bases[1], s.bases[0], nil
	return scored
}

// fieldersChoice retires the lead forced runner; trailing forced runners
// move up one and the batter reaches first.
func (s *simulator) fieldersChoice(def *side, batter *runner) {
	if s.bases[0] == nil {
		s.out(def)
		return
	}
	lead := 0
	if s.bases[1] != nil {
		lead = 1
		if s.bases[2] != nil {
			lead = 2
		}
	}
	s.bases[lead] = nil
	for i := lead - 1; i >= 0; i-- {
		s.bases[i+1] = s.bases[i]
	}
	s.bases[0] = batter
	s.out(def)
}

func (s *simulator) maybeInjure(id int64) {
	if !random.Chance(s.src, s.cfg.injuryChance) {
		return
	}
	days, err := random.UniformInt(s.src, 1, s.cfg.maxInjuryDays)
	if err != nil {
		return
	}
	if days > s.injuries[id] {
		s.injuries[id] = days
	}
}

func (s *simulator) result() model.GameResult {
	box := model.BoxScore{
		IDGame:  s.pkg.IDGame,
		Innings: s.innings,
		Home:    *s.home.box,
		Away:    *s.away.box,
	}
	switch {
	case box.Home.Runs > box.Away.Runs:
		box.WinningTeam = box.Home.IDTeam
	case box.Away.Runs > box.Home.Runs:
		box.WinningTeam = box.Away.IDTeam
	}

	var deltas []model.PlayerDelta
	for _, sd := range []*side{s.home, s.away} {
		for _, p := range sd.team.Lineup {
			deltas = append(deltas, model.PlayerDelta{
				IDPerson:      p.IDPerson,
				IDTeam:        sd.team.IDTeam,
				InningsPlayed: s.innings,
				InjuryDays:    s.injuries[p.IDPerson],
			})
		}
		for _, line := range sd.box.Pitching {
			deltas = append(deltas, model.PlayerDelta{
				IDPerson:      line.IDPerson,
				IDTeam:        sd.team.IDTeam,
				Pitches:       line.Pitches,
				InningsPlayed: int(math.Ceil(float64(line.Outs) / 3)),
			})
		}
	}
	return model.GameResult{IDGame: s.pkg.IDGame, BoxScore: box, Deltas: deltas}
}

func stamina(p model.Player) int {
	if p.Physical.Stamina <= 0 {
		return defaultStamina
	}
	return p.Physical.Stamina
}
