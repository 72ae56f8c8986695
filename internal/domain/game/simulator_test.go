package game_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/diamond/internal/domain/game"
	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/domain/random"
	. "github.com/smartystreets/goconvey/convey"
)

func testTeam(idTeam int64, pitchers int) model.Team {
	t := model.Team{IDTeam: idTeam, Name: "team"}
	base := idTeam * 100
	for i := 0; i < 9; i++ {
		t.Lineup = append(t.Lineup, model.Player{
			IDPerson: base + int64(i) + 1,
			Position: model.Designated,
			Physical: model.Physical{Contact: 50 + i, Power: 45 + i*2, Eye: 50, Speed: 50, Fielding: 55},
			Mental:   model.Mental{Discipline: 50, Aggression: 50, Composure: 50},
		})
	}
	for i := 0; i < pitchers; i++ {
		t.Pitchers = append(t.Pitchers, model.Player{
			IDPerson: base + 50 + int64(i),
			Position: model.Pitcher,
			Physical: model.Physical{Velocity: 60, Control: 55, Stamina: 60},
			Repertoire: map[model.PitchType]int{
				model.Fastball:  65,
				model.Slider:    55,
				model.Curveball: 45,
				model.Changeup:  50,
			},
		})
	}
	return t
}

func testPackage(idGame int64) model.GamePackage {
	return model.GamePackage{
		DateTime:    time.Date(2030, 4, 1, 19, 0, 0, 0, time.UTC),
		IDGame:      idGame,
		IDGameGroup: 1,
		Park: model.Park{
			IDPark: 1, LeftField: 330, CenterField: 400, RightField: 330,
			WallSegments: []model.WallSegment{
				{StartAngle: -45, EndAngle: -15, Distance: 330, Height: 37},
				{StartAngle: -15, EndAngle: 15, Distance: 400, Height: 10},
				{StartAngle: 15, EndAngle: 45, Distance: 325, Height: 8},
			},
		},
		Home:    testTeam(1, 1),
		Away:    testTeam(2, 1),
		Umpires: []model.Umpire{{IDPerson: 900, ZoneSize: 100, Consistency: 85}},
	}
}

func sumOuts(lines []model.PitchingLine) int {
	n := 0
	for _, l := range lines {
		n += l.Outs
	}
	return n
}

func sumInts(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

func TestSimulateValidation(t *testing.T) {
	Convey("Given malformed packages", t, func() {
		src := random.NewSource(1)
		check := func(pkg model.GamePackage, invariant string) {
			_, err := game.Simulate(pkg, src)
			var simErr *game.SimulationError
			So(errors.As(err, &simErr), ShouldBeTrue)
			So(simErr.Invariant, ShouldEqual, invariant)
			So(simErr.IDGame, ShouldEqual, pkg.IDGame)
			So(errors.Is(err, game.ErrSimulation), ShouldBeTrue)
		}

		Convey("Then a missing game id fails", func() {
			check(testPackage(0), game.InvariantGameIdentity)
		})

		Convey("Then a team playing itself fails", func() {
			pkg := testPackage(1)
			pkg.Away.IDTeam = pkg.Home.IDTeam
			check(pkg, game.InvariantTeamIdentity)
		})

		Convey("Then a short lineup fails", func() {
			pkg := testPackage(1)
			pkg.Away.Lineup = pkg.Away.Lineup[:8]
			check(pkg, game.InvariantLineupSize)
		})

		Convey("Then a team without a pitcher fails", func() {
			pkg := testPackage(1)
			pkg.Home.Pitchers = nil
			check(pkg, game.InvariantPitcherMissing)
		})

		Convey("Then a player on both rosters fails", func() {
			pkg := testPackage(1)
			pkg.Away.Lineup[0].IDPerson = pkg.Home.Lineup[0].IDPerson
			check(pkg, game.InvariantDuplicatePlayer)
		})

		Convey("Then an innings count above the cap fails", func() {
			pkg := testPackage(1)
			pkg.Innings = game.DefaultMaxInnings + 1
			check(pkg, game.InvariantInningsRange)
		})

		Convey("Then a pitcher with no usable pitch fails the pitch model", func() {
			pkg := testPackage(1)
			pkg.Home.Pitchers[0].Repertoire = map[model.PitchType]int{model.Fastball: 0}
			check(pkg, game.InvariantPitchModel)
		})

		Convey("Then Validate accepts a sound package", func() {
			So(game.Validate(testPackage(1)), ShouldBeNil)
		})
	})
}

func TestSimulateNineInnings(t *testing.T) {
	Convey("Given a nine-inning game between two nine-batter, one-pitcher teams", t, func() {
		for seed := uint64(1); seed <= 40; seed++ {
			pkg := testPackage(int64(seed))
			before := pkg.Clone()
			res, err := game.Simulate(pkg, random.NewSource(seed))
			So(err, ShouldBeNil)
			So(pkg, ShouldResemble, before)

			box := res.BoxScore
			So(res.IDGame, ShouldEqual, pkg.IDGame)
			So(box.Innings, ShouldBeGreaterThanOrEqualTo, 9)

			homeOuts := sumOuts(box.Home.Pitching) // outs on the away batters
			awayOuts := sumOuts(box.Away.Pitching)
			So(homeOuts, ShouldEqual, 3*box.Innings)
			So(len(box.Away.LineScore), ShouldEqual, box.Innings)

			switch {
			case len(box.Home.LineScore) == box.Innings-1:
				// home led after the top of the last inning
				So(box.Home.Runs, ShouldBeGreaterThan, box.Away.Runs)
				So(awayOuts, ShouldEqual, 3*(box.Innings-1))
			case box.Home.Runs > box.Away.Runs:
				// walk-off
				So(awayOuts, ShouldBeBetweenOrEqual, 3*(box.Innings-1), 3*box.Innings)
			default:
				So(awayOuts, ShouldEqual, 3*box.Innings)
			}
			if box.Innings == 9 {
				So(homeOuts+awayOuts, ShouldBeLessThanOrEqualTo, 54)
				So(homeOuts+awayOuts, ShouldBeGreaterThanOrEqualTo, 48)
			}

			for _, tb := range []struct{ bat, pitch model.TeamBox }{{box.Home, box.Away}, {box.Away, box.Home}} {
				So(sumInts(tb.bat.LineScore), ShouldEqual, tb.bat.Runs)
				runs, hits, pa := 0, 0, 0
				for _, l := range tb.bat.Batting {
					runs += l.Runs
					hits += l.Hits
					pa += l.PlateAppearance
					So(l.AtBats+l.Walks+l.HitByPitch+l.SacrificeFlies, ShouldEqual, l.PlateAppearance)
					So(l.Doubles+l.Triples+l.HomeRuns, ShouldBeLessThanOrEqualTo, l.Hits)
				}
				So(runs, ShouldEqual, tb.bat.Runs)
				So(hits, ShouldEqual, tb.bat.Hits)

				allowed, faced, ph := 0, 0, 0
				for _, l := range tb.pitch.Pitching {
					allowed += l.Runs
					faced += l.BattersFaced
					ph += l.Hits
					byType := 0
					for _, n := range l.PitchesByType {
						byType += n
					}
					So(byType, ShouldEqual, l.Pitches)
					So(l.Strikes+l.Balls, ShouldBeLessThanOrEqualTo, l.Pitches)
				}
				So(allowed, ShouldEqual, tb.bat.Runs)
				So(faced, ShouldEqual, pa)
				So(ph, ShouldEqual, tb.bat.Hits)
			}

			switch {
			case box.Home.Runs > box.Away.Runs:
				So(box.WinningTeam, ShouldEqual, pkg.Home.IDTeam)
			case box.Away.Runs > box.Home.Runs:
				So(box.WinningTeam, ShouldEqual, pkg.Away.IDTeam)
			default:
				So(box.Innings, ShouldEqual, game.DefaultMaxInnings)
				So(box.WinningTeam, ShouldEqual, int64(0))
			}

			So(len(res.Deltas), ShouldEqual, 9+9+len(box.Home.Pitching)+len(box.Away.Pitching))
			So(res.Deltas[9].Pitches, ShouldEqual, box.Home.Pitching[0].Pitches)
		}
	})

	Convey("Given many seeds", t, func() {
		skipped := false
		for seed := uint64(100); seed < 300 && !skipped; seed++ {
			res, err := game.Simulate(testPackage(1), random.NewSource(seed))
			So(err, ShouldBeNil)
			box := res.BoxScore
			if box.Innings == 9 && len(box.Home.LineScore) == 8 {
				skipped = true
				So(sumOuts(box.Home.Pitching)+sumOuts(box.Away.Pitching), ShouldEqual, 51)
			}
		}
		Convey("Then the home team sometimes skips the bottom of the ninth", func() {
			So(skipped, ShouldBeTrue)
		})
	})
}

func TestSimulateDeterminism(t *testing.T) {
	Convey("Given the same package and seed", t, func() {
		a, errA := game.Simulate(testPackage(7), random.NewSource(random.DeriveSeed(42, 7)))
		b, errB := game.Simulate(testPackage(7), random.NewSource(random.DeriveSeed(42, 7)))
		So(errA, ShouldBeNil)
		So(errB, ShouldBeNil)

		Convey("Then the encoded results are byte-identical", func() {
			ja, err := json.Marshal(a)
			So(err, ShouldBeNil)
			jb, err := json.Marshal(b)
			So(err, ShouldBeNil)
			So(string(ja), ShouldEqual, string(jb))
		})
	})

	Convey("Given an Engine with options", t, func() {
		e := game.NewEngine(game.WithInnings(1), game.WithMaxInnings(1))
		res, err := e.Simulate(testPackage(3), random.NewSource(3))
		So(err, ShouldBeNil)

		Convey("Then the game stops at the cap, possibly tied", func() {
			So(res.BoxScore.Innings, ShouldEqual, 1)
			if res.BoxScore.Home.Runs == res.BoxScore.Away.Runs {
				So(res.BoxScore.WinningTeam, ShouldEqual, int64(0))
			}
		})
	})

	Convey("Given a package that sets its own length", t, func() {
		pkg := testPackage(4)
		pkg.Innings = 5
		res, err := game.Simulate(pkg, random.NewSource(4), game.WithInnings(9))
		So(err, ShouldBeNil)
		So(res.BoxScore.Innings, ShouldBeGreaterThanOrEqualTo, 5)
		So(len(res.BoxScore.Away.LineScore), ShouldEqual, res.BoxScore.Innings)
	})
}

func TestSimulateBullpen(t *testing.T) {
	Convey("Given a low-stamina starter and a deep bullpen", t, func() {
		pkg := testPackage(5)
		pkg.Home = testTeam(1, 5)
		pkg.Home.Pitchers[0].Physical.Stamina = 5
		pkg.Home.Pitchers[1].Condition.InjuryDays = 3

		res, err := game.Simulate(pkg, random.NewSource(5))
		So(err, ShouldBeNil)

		Convey("Then relievers appear and the injured one does not", func() {
			lines := res.BoxScore.Home.Pitching
			So(len(lines), ShouldBeGreaterThan, 1)
			So(lines[0].IDPerson, ShouldEqual, pkg.Home.Pitchers[0].IDPerson)
			for _, l := range lines {
				So(l.IDPerson, ShouldNotEqual, pkg.Home.Pitchers[1].IDPerson)
			}
		})
	})

	Convey("Given a certain injury chance", t, func() {
		res, err := game.Simulate(testPackage(6), random.NewSource(6), game.WithInjuryChance(1))
		So(err, ShouldBeNil)
		hbp := 0
		for _, l := range append(res.BoxScore.Home.Batting, res.BoxScore.Away.Batting...) {
			hbp += l.HitByPitch
		}
		injured := 0
		for _, d := range res.Deltas {
			if d.InjuryDays > 0 {
				injured++
				So(d.InjuryDays, ShouldBeBetweenOrEqual, 1, game.DefaultMaxInjuryDays)
			}
		}
		Convey("Then every hit batsman carries an injury", func() {
			if hbp > 0 {
				So(injured, ShouldBeGreaterThan, 0)
			} else {
				So(injured, ShouldEqual, 0)
			}
		})
	})
}
