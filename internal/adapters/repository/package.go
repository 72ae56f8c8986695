package repository

import (
	"fmt"
	"sort"

	"github.com/okian/diamond/internal/domain/model"
)

// Assemble builds a game package from stored rows. Teams are deep-copied,
// each player carries its current condition and the bullpen is ordered so
// the freshest healthy pitcher starts.
func Assemble(game model.Game, park model.Park, home, away model.Team, conds map[int64]model.Condition) model.GamePackage {
	pkg := model.GamePackage{
		DateTime:    game.DateTime,
		IDGame:      game.IDGame,
		IDGameGroup: game.IDGameGroup,
		Park:        park,
		Home:        withConditions(home, conds),
		Away:        withConditions(away, conds),
		Umpires:     game.Umpires,
	}
	return pkg.Clone()
}

func withConditions(t model.Team, conds map[int64]model.Condition) model.Team {
	out := t.Clone()
	for i := range out.Lineup {
		out.Lineup[i].Condition = conds[out.Lineup[i].IDPerson]
	}
	for i := range out.Pitchers {
		out.Pitchers[i].Condition = conds[out.Pitchers[i].IDPerson]
	}
	sort.SliceStable(out.Pitchers, func(i, j int) bool {
		a, b := out.Pitchers[i].Condition, out.Pitchers[j].Condition
		if a.Healthy() != b.Healthy() {
			return a.Healthy()
		}
		return a.Fatigue < b.Fatigue
	})
	return out
}

// ValidateLeague checks ids and references before anything is written.
func ValidateLeague(l model.League) error {
	parks := make(map[int64]bool, len(l.Parks))
	for _, p := range l.Parks {
		if p.IDPark <= 0 || parks[p.IDPark] {
			return fmt.Errorf("%w: park id %d", ErrInvalidLeague, p.IDPark)
		}
		parks[p.IDPark] = true
	}
	teams := make(map[int64]bool, len(l.Teams))
	players := make(map[int64]bool)
	for _, t := range l.Teams {
		if t.IDTeam <= 0 || teams[t.IDTeam] {
			return fmt.Errorf("%w: team id %d", ErrInvalidLeague, t.IDTeam)
		}
		teams[t.IDTeam] = true
		for _, id := range t.PlayerIDs() {
			if id <= 0 || players[id] {
				return fmt.Errorf("%w: player id %d", ErrInvalidLeague, id)
			}
			players[id] = true
		}
	}
	games := make(map[int64]bool, len(l.Games))
	for _, g := range l.Games {
		switch {
		case g.IDGame <= 0 || games[g.IDGame]:
			return fmt.Errorf("%w: game id %d", ErrInvalidLeague, g.IDGame)
		case !teams[g.IDTeamHome] || !teams[g.IDTeamAway] || g.IDTeamHome == g.IDTeamAway:
			return fmt.Errorf("%w: game %d teams %d/%d", ErrInvalidLeague, g.IDGame, g.IDTeamHome, g.IDTeamAway)
		case !parks[g.IDPark]:
			return fmt.Errorf("%w: game %d park %d", ErrInvalidLeague, g.IDGame, g.IDPark)
		}
		games[g.IDGame] = true
	}
	return nil
}
