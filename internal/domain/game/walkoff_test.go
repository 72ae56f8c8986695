package game

import (
	"testing"

	"github.com/okian/diamond/internal/domain/atbat"
	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/domain/random"
	. "github.com/smartystreets/goconvey/convey"
)

func lineupTeam(idTeam int64) model.Team {
	t := model.Team{IDTeam: idTeam}
	for i := int64(1); i <= 9; i++ {
		t.Lineup = append(t.Lineup, model.Player{IDPerson: idTeam*100 + i})
	}
	t.Pitchers = []model.Player{{IDPerson: idTeam*100 + 50}}
	return t
}

// basesLoaded sets up the home side batting with the bases full.
func basesLoaded(inning, home, away int) *simulator {
	pkg := model.GamePackage{IDGame: 1, Home: lineupTeam(1), Away: lineupTeam(2)}
	s := newSimulator(pkg, &random.Fixed{Values: []float64{0.5}}, newSettings(nil))
	s.inning = inning
	s.home.box.Runs = home
	s.away.box.Runs = away
	s.bases = [3]*runner{{batting: 0}, {batting: 1}, {batting: 2}}
	return s
}

func TestWalkOff(t *testing.T) {
	Convey("Given a tie in the bottom of the ninth with the bases loaded", t, func() {
		Convey("When the batter doubles", func() {
			s := basesLoaded(9, 4, 4)
			s.apply(atbat.OutcomeDouble, s.home, s.away, 3)

			Convey("Then only the winning run counts", func() {
				So(s.home.box.Runs, ShouldEqual, 5)
				So(s.home.box.Batting[2].Runs, ShouldEqual, 1)
				So(s.home.box.Batting[1].Runs, ShouldEqual, 0)
				So(s.home.box.Batting[3].RBI, ShouldEqual, 1)
				So(s.away.box.Pitching[0].Runs, ShouldEqual, 1)
			})
		})

		Convey("When the batter homers", func() {
			s := basesLoaded(9, 4, 4)
			s.apply(atbat.OutcomeHomeRun, s.home, s.away, 3)

			Convey("Then every run counts", func() {
				So(s.home.box.Runs, ShouldEqual, 8)
				So(s.home.box.Batting[3].RBI, ShouldEqual, 4)
			})
		})
	})

	Convey("Given the bases loaded before the deciding inning", t, func() {
		s := basesLoaded(5, 4, 4)
		s.apply(atbat.OutcomeDouble, s.home, s.away, 3)

		Convey("Then every runner who crosses scores", func() {
			So(s.home.box.Runs, ShouldEqual, 6)
		})
	})

	Convey("Given the home side trailing by two in the ninth", t, func() {
		s := basesLoaded(9, 2, 4)
		s.apply(atbat.OutcomeError, s.home, s.away, 3)

		Convey("Then a run that only narrows the gap counts", func() {
			So(s.home.box.Runs, ShouldEqual, 3)
		})
	})
}
