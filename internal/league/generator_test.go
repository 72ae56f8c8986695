package league_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/diamond/internal/adapters/repository"
	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/league"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given the default generator", t, func() {
		lg, err := league.Generate()
		So(err, ShouldBeNil)

		Convey("Then it builds the default league", func() {
			So(len(lg.Teams), ShouldEqual, league.DefaultTeams)
			So(len(lg.Parks), ShouldEqual, league.DefaultTeams)
			So(len(lg.Games), ShouldEqual, league.DefaultDays*league.DefaultTeams/2)
			So(lg.Universe.CurrentDateTime, ShouldEqual, league.DefaultStart)
			So(repository.ValidateLeague(lg), ShouldBeNil)
		})

		Convey("Then every roster is complete", func() {
			for _, team := range lg.Teams {
				So(len(team.Lineup), ShouldEqual, league.LineupSize)
				So(len(team.Pitchers), ShouldEqual, league.DefaultPitchers)
				for _, p := range team.Pitchers {
					So(p.Position, ShouldEqual, model.Pitcher)
					So(p.Repertoire, ShouldContainKey, model.Fastball)
					So(len(p.Repertoire), ShouldBeBetweenOrEqual, 3, 5)
					So(p.Physical.Stamina, ShouldBeGreaterThan, 0)
					So(len(p.MyersBriggs), ShouldEqual, 4)
				}
				for _, p := range team.Lineup {
					So(p.Repertoire, ShouldBeNil)
					So(p.Physical.Contact, ShouldBeBetweenOrEqual, 20, 95)
				}
			}
		})

		Convey("Then the starters outlast the bullpen", func() {
			for _, team := range lg.Teams {
				So(team.Pitchers[0].Physical.Stamina, ShouldBeGreaterThanOrEqualTo, 55)
				So(team.Pitchers[len(team.Pitchers)-1].Physical.Stamina, ShouldBeLessThanOrEqualTo, 55)
			}
		})

		Convey("Then park walls cover foul line to foul line", func() {
			for _, p := range lg.Parks {
				So(len(p.WallSegments), ShouldEqual, 5)
				So(p.WallSegments[0].StartAngle, ShouldEqual, -45.0)
				So(p.WallSegments[4].EndAngle, ShouldEqual, 45.0)
				for i := 1; i < len(p.WallSegments); i++ {
					So(p.WallSegments[i].StartAngle, ShouldEqual, p.WallSegments[i-1].EndAngle)
				}
			}
		})

		Convey("Then each team plays at most once a day", func() {
			byDay := map[int64]map[int64]bool{}
			for _, g := range lg.Games {
				day := byDay[g.IDGameGroup]
				if day == nil {
					day = map[int64]bool{}
					byDay[g.IDGameGroup] = day
				}
				So(day[g.IDTeamHome], ShouldBeFalse)
				So(day[g.IDTeamAway], ShouldBeFalse)
				day[g.IDTeamHome], day[g.IDTeamAway] = true, true
				So(g.IDPark, ShouldEqual, g.IDTeamHome)
				So(g.DateTime, ShouldEqual, league.DefaultStart.AddDate(0, 0, int(g.IDGameGroup-1)))
			}
		})

		Convey("Then every pair meets once per round-robin cycle", func() {
			met := map[[2]int64]int{}
			for _, g := range lg.Games {
				if g.IDGameGroup > league.DefaultTeams-1 {
					continue
				}
				a, b := g.IDTeamHome, g.IDTeamAway
				if a > b {
					a, b = b, a
				}
				met[[2]int64{a, b}]++
			}
			So(len(met), ShouldEqual, league.DefaultTeams*(league.DefaultTeams-1)/2)
			for _, n := range met {
				So(n, ShouldEqual, 1)
			}
		})

		Convey("Then umpire crews never overlap within a day", func() {
			byDay := map[int64]map[int64]bool{}
			for _, g := range lg.Games {
				So(len(g.Umpires), ShouldEqual, league.CrewSize)
				day := byDay[g.IDGameGroup]
				if day == nil {
					day = map[int64]bool{}
					byDay[g.IDGameGroup] = day
				}
				for _, u := range g.Umpires {
					So(day[u.IDPerson], ShouldBeFalse)
					day[u.IDPerson] = true
				}
			}
		})
	})

	Convey("Given the same seed twice", t, func() {
		a, err := league.Generate(league.WithSeed(42), league.WithDays(5))
		So(err, ShouldBeNil)
		b, err := league.Generate(league.WithSeed(42), league.WithDays(5))
		So(err, ShouldBeNil)
		c, err := league.Generate(league.WithSeed(43), league.WithDays(5))
		So(err, ShouldBeNil)

		Convey("Then the leagues are identical", func() {
			So(a, ShouldResemble, b)
		})

		Convey("Then a different seed changes the players", func() {
			So(a.Teams[0].Lineup, ShouldNotResemble, c.Teams[0].Lineup)
		})
	})

	Convey("Given an odd number of teams", t, func() {
		lg, err := league.Generate(league.WithTeams(5), league.WithDays(10))
		So(err, ShouldBeNil)

		Convey("Then one team rests each day", func() {
			So(len(lg.Games), ShouldEqual, 10*2)
			So(repository.ValidateLeague(lg), ShouldBeNil)
		})
	})

	Convey("Given a custom start", t, func() {
		start := time.Date(2031, time.May, 2, 18, 0, 0, 0, time.UTC)
		lg, err := league.Generate(league.WithStart(start), league.WithTeams(2), league.WithDays(3), league.WithPitchers(2))
		So(err, ShouldBeNil)

		Convey("Then the schedule begins there", func() {
			first, last := league.Span(lg)
			So(first, ShouldEqual, start)
			So(last, ShouldEqual, start.AddDate(0, 0, 2))
			So(lg.Universe.CurrentDateTime, ShouldEqual, start)
			So(len(lg.Teams[0].Pitchers), ShouldEqual, 2)
		})
	})

	Convey("Given invalid options", t, func() {
		for _, opts := range [][]league.Option{
			{league.WithTeams(1)},
			{league.WithTeams(500)},
			{league.WithDays(0)},
			{league.WithPitchers(0)},
		} {
			_, err := league.Generate(opts...)
			So(errors.Is(err, league.ErrInvalidConfig), ShouldBeTrue)
		}
	})
}
