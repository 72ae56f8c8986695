package repository

import (
	"sort"

	"github.com/okian/diamond/internal/domain/model"
)

// Snapshot is an immutable view of the standings, rebuilt after every
// box score write.
type Snapshot struct {
	Standings []model.Standing
}

// ComputeStandings ranks teams by winning percentage, then wins, then team
// id ascending so the order is deterministic.
func ComputeStandings(teams []model.Team, boxes []model.BoxScore) []model.Standing {
	byTeam := make(map[int64]*model.Standing, len(teams))
	out := make([]model.Standing, len(teams))
	for i, t := range teams {
		out[i] = model.Standing{IDTeam: t.IDTeam, Name: t.Name}
		byTeam[t.IDTeam] = &out[i]
	}

	for _, b := range boxes {
		home, away := byTeam[b.Home.IDTeam], byTeam[b.Away.IDTeam]
		if home == nil || away == nil {
			continue
		}
		home.RunsFor += b.Home.Runs
		home.RunsAgainst += b.Away.Runs
		away.RunsFor += b.Away.Runs
		away.RunsAgainst += b.Home.Runs
		switch b.WinningTeam {
		case b.Home.IDTeam:
			home.Wins++
			away.Losses++
		case b.Away.IDTeam:
			away.Wins++
			home.Losses++
		default:
			home.Ties++
			away.Ties++
		}
	}

	for i := range out {
		s := &out[i]
		if played := s.Wins + s.Losses + s.Ties; played > 0 {
			s.Pct = (float64(s.Wins) + 0.5*float64(s.Ties)) / float64(played)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Pct != b.Pct {
			return a.Pct > b.Pct
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.IDTeam < b.IDTeam
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func newSnapshot(standings []model.Standing) *Snapshot {
	return &Snapshot{Standings: standings}
}
