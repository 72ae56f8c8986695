// Package league builds reproducible demo universes and drives a running
// server through them.
//
// Every draw goes through the statistical primitives with one seeded
// source, so the same Config always yields the same league.
package league

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/domain/random"
)

// Rating bounds.
const (
	ratingMin      = 20
	ratingMax      = 95
	pitcherBatMin  = 5
	pitcherBatMax  = 30
	starterMin     = 55
	starterMax     = 95
	relieverMin    = 20
	relieverMax    = 55
	rotationSize   = 5
	minSecondaries = 2
	maxSecondaries = 4
)

// Id layout. Team t owns persons t*100+1..t*100+99; batters start at +1 and
// pitchers at +51. Umpires live above every roster.
const (
	personsPerTeam = 100
	pitcherOffset  = 50
	umpireBase     = 10_000
)

// Park shape.
const (
	wallSegments  = 5
	foulLineMin   = 310
	foulLineMax   = 345
	centerMin     = 390
	centerMax     = 420
	wallJitter    = 8
	wallHeightMin = 8
	wallHeightMax = 14
	tallWallMin   = 25
	tallWallMax   = 37
	tallWallOdds  = 0.15
)

// generator carries the source and the first error of a run, so draws can
// be chained without checking each one.
type generator struct {
	cfg Config
	src random.Source
	err error
}

// Generate builds a league: one park per team, rosters of nine batters and
// a pitching staff, an umpire pool, and a round-robin schedule with one game
// per team per day. All games of a day share one timestamp, and the universe
// clock starts on the first of them.
func Generate(opts ...Option) (model.League, error) {
	cfg := newConfig(opts...)
	if err := cfg.Validate(); err != nil {
		return model.League{}, err
	}

	g := &generator{cfg: cfg, src: random.NewSource(cfg.Seed)}

	lg := model.League{Universe: model.Universe{CurrentDateTime: cfg.Start}}
	for t := 1; t <= cfg.Teams; t++ {
		team := g.team(int64(t))
		lg.Teams = append(lg.Teams, team)
		lg.Parks = append(lg.Parks, g.park(int64(t), team.Name))
	}
	lg.Games = g.schedule(g.umpires(cfg.Teams / 2 * CrewSize))

	if g.err != nil {
		return model.League{}, fmt.Errorf("generate league: %w", g.err)
	}
	return lg, nil
}

func (g *generator) normal(min, max int) int {
	v, err := random.BoundedNormal(g.src, float64(min), float64(max), 1)
	if err != nil && g.err == nil {
		g.err = err
	}
	return v
}

func (g *generator) uniform(min, max int) int {
	v, err := random.UniformInt(g.src, min, max)
	if err != nil && g.err == nil {
		g.err = err
	}
	return v
}

func (g *generator) pick(list []string) string {
	return list[g.uniform(0, len(list)-1)]
}

func (g *generator) personName() string {
	return g.pick(firstNames) + " " + g.pick(lastNames)
}

func teamName(t int64) string {
	i := int(t-1) % len(cities)
	name := cities[i] + " " + nicknames[i]
	if lap := int(t-1) / len(cities); lap > 0 {
		name = fmt.Sprintf("%s %d", name, lap+1)
	}
	return name
}

func (g *generator) team(id int64) model.Team {
	team := model.Team{IDTeam: id, Name: teamName(id)}
	base := id * personsPerTeam
	for i := 0; i < LineupSize; i++ {
		team.Lineup = append(team.Lineup, g.batter(base+int64(i)+1, fieldOrder[i]))
	}
	for i := 0; i < g.cfg.Pitchers; i++ {
		team.Pitchers = append(team.Pitchers, g.pitcher(base+pitcherOffset+int64(i)+1, i < rotationSize))
	}
	return team
}

func (g *generator) person(id int64, pos model.Position) model.Player {
	return model.Player{
		IDPerson: id,
		Name:     g.personName(),
		Position: pos,
		Mental: model.Mental{
			Composure:  g.normal(ratingMin, ratingMax),
			Discipline: g.normal(ratingMin, ratingMax),
			Aggression: g.normal(ratingMin, ratingMax),
		},
		Alignment: model.Alignment{
			Lawful: g.uniform(-100, 100),
			Good:   g.uniform(-100, 100),
		},
		MyersBriggs: g.myersBriggs(),
	}
}

func (g *generator) batter(id int64, pos model.Position) model.Player {
	p := g.person(id, pos)
	p.Physical = model.Physical{
		Contact:  g.normal(ratingMin, ratingMax),
		Power:    g.normal(ratingMin, ratingMax),
		Eye:      g.normal(ratingMin, ratingMax),
		Speed:    g.normal(ratingMin, ratingMax),
		Fielding: g.normal(ratingMin, ratingMax),
		Arm:      g.normal(ratingMin, ratingMax),
	}
	return p
}

func (g *generator) pitcher(id int64, starter bool) model.Player {
	p := g.person(id, model.Pitcher)
	stamina := g.normal(relieverMin, relieverMax)
	if starter {
		stamina = g.normal(starterMin, starterMax)
	}
	p.Physical = model.Physical{
		Contact:  g.normal(pitcherBatMin, pitcherBatMax),
		Power:    g.normal(pitcherBatMin, pitcherBatMax),
		Eye:      g.normal(pitcherBatMin, pitcherBatMax),
		Speed:    g.normal(ratingMin, ratingMax),
		Fielding: g.normal(ratingMin, ratingMax),
		Arm:      g.normal(ratingMin, ratingMax),
		Velocity: g.normal(ratingMin, ratingMax),
		Control:  g.normal(ratingMin, ratingMax),
		Stamina:  stamina,
	}
	p.Repertoire = g.repertoire()
	return p
}

// repertoire always has a fastball plus two to four secondary pitches drawn
// without replacement.
func (g *generator) repertoire() map[model.PitchType]int {
	rep := map[model.PitchType]int{model.Fastball: g.normal(ratingMin, ratingMax)}

	n := g.uniform(minSecondaries, maxSecondaries)
	for len(rep) < n+1 {
		choices := make([]random.Choice[model.PitchType], 0, len(model.PitchTypes))
		for _, pt := range model.PitchTypes {
			w := pitchWeights[pt]
			if _, taken := rep[pt]; taken {
				w = 0
			}
			choices = append(choices, random.Choice[model.PitchType]{Item: pt, Weight: w})
		}
		pt, err := random.WeightedChoice(g.src, choices)
		if err != nil {
			if g.err == nil {
				g.err = err
			}
			return rep
		}
		rep[pt] = g.normal(ratingMin, ratingMax)
	}
	return rep
}

func (g *generator) myersBriggs() string {
	var b strings.Builder
	for _, axis := range [...]string{"EI", "SN", "TF", "JP"} {
		if random.Chance(g.src, 0.5) {
			b.WriteByte(axis[0])
		} else {
			b.WriteByte(axis[1])
		}
	}
	return b.String()
}

// park builds a field whose walls follow the foul-line and center distances
// with some noise, occasionally with one tall stretch.
func (g *generator) park(id int64, teamName string) model.Park {
	p := model.Park{
		IDPark:      id,
		Name:        teamName + " Park",
		LeftField:   g.uniform(foulLineMin, foulLineMax),
		CenterField: g.uniform(centerMin, centerMax),
		RightField:  g.uniform(foulLineMin, foulLineMax),
	}
	tall := -1
	if random.Chance(g.src, tallWallOdds) {
		tall = g.uniform(0, wallSegments-1)
	}

	width := 90.0 / wallSegments
	for i := 0; i < wallSegments; i++ {
		start := -45 + float64(i)*width
		end := start + width
		mid := (start + end) / 2

		var dist float64
		if mid < 0 {
			dist = float64(p.LeftField) + (mid+45)/45*float64(p.CenterField-p.LeftField)
		} else {
			dist = float64(p.CenterField) + mid/45*float64(p.RightField-p.CenterField)
		}
		height := g.uniform(wallHeightMin, wallHeightMax)
		if i == tall {
			height = g.uniform(tallWallMin, tallWallMax)
		}
		p.WallSegments = append(p.WallSegments, model.WallSegment{
			StartAngle: start,
			EndAngle:   end,
			Distance:   int(dist) + g.uniform(-wallJitter, wallJitter),
			Height:     height,
		})
	}
	return p
}

func (g *generator) umpires(n int) []model.Umpire {
	umps := make([]model.Umpire, n)
	for i := range umps {
		umps[i] = model.Umpire{
			IDPerson:    umpireBase + int64(i) + 1,
			Name:        g.personName(),
			ZoneSize:    g.normal(85, 115),
			Consistency: g.normal(60, 98),
		}
	}
	return umps
}

// schedule pairs teams with the circle method: one team stays put while the
// rest rotate, so over Teams-1 days (Teams with an odd count) every pair
// meets once. Home and away alternate by round and slot. An odd count gets a
// bye slot; the team drawn against it sits the day out.
func (g *generator) schedule(umps []model.Umpire) []model.Game {
	slots := make([]int64, 0, g.cfg.Teams+1)
	for t := 1; t <= g.cfg.Teams; t++ {
		slots = append(slots, int64(t))
	}
	if len(slots)%2 == 1 {
		slots = append(slots, 0)
	}
	n := len(slots)

	var games []model.Game
	var nextID int64 = 1
	for day := 0; day < g.cfg.Days; day++ {
		round := day % (n - 1)
		order := make([]int64, n)
		order[0] = slots[0]
		for i := 1; i < n; i++ {
			order[i] = slots[1+(i-1+round)%(n-1)]
		}

		at := g.cfg.Start.AddDate(0, 0, day)
		crewOffset := (day * CrewSize) % max(len(umps), 1)
		crew := 0
		for i := 0; i < n/2; i++ {
			a, b := order[i], order[n-1-i]
			if a == 0 || b == 0 {
				continue
			}
			home, away := a, b
			if (round+i)%2 == 1 {
				home, away = b, a
			}
			game := model.Game{
				IDGame:      nextID,
				IDGameGroup: int64(day) + 1,
				IDTeamHome:  home,
				IDTeamAway:  away,
				IDPark:      home,
				DateTime:    at,
			}
			for j := 0; j < CrewSize && len(umps) > 0; j++ {
				game.Umpires = append(game.Umpires, umps[(crewOffset+crew*CrewSize+j)%len(umps)])
			}
			crew++
			nextID++
			games = append(games, game)
		}
	}
	return games
}

// Span returns the first and last game dates of a league.
func Span(lg model.League) (first, last time.Time) {
	for i, g := range lg.Games {
		if i == 0 || g.DateTime.Before(first) {
			first = g.DateTime
		}
		if g.DateTime.After(last) {
			last = g.DateTime
		}
	}
	return first, last
}
