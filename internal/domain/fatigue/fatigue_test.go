package fatigue_test

import (
	"math"
	"testing"

	"github.com/okian/diamond/internal/domain/fatigue"
	"github.com/okian/diamond/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMerge(t *testing.T) {
	Convey("Given the default merger", t, func() {
		m := fatigue.NewMerger()

		Convey("When a starter throws 100 pitches over 6 innings", func() {
			got := m.Merge(model.Condition{Fatigue: 10}, model.PlayerDelta{Pitches: 100, InningsPlayed: 6})

			Convey("Then fatigue rises by both terms", func() {
				So(got.Fatigue, ShouldAlmostEqual, 10+100*fatigue.DefaultPerPitch+6*fatigue.DefaultPerInning)
			})
		})

		Convey("When deltas are merged repeatedly", func() {
			c := model.Condition{}
			prev := c.Fatigue
			for i := 0; i < 50; i++ {
				c = m.Merge(c, model.PlayerDelta{Pitches: 30, InningsPlayed: 2})
				So(c.Fatigue, ShouldBeGreaterThanOrEqualTo, prev)
				prev = c.Fatigue
			}

			Convey("Then fatigue saturates at the maximum", func() {
				So(c.Fatigue, ShouldEqual, fatigue.FatigueMax)
			})
		})

		Convey("When a delta is negative", func() {
			got := m.Merge(model.Condition{Fatigue: 40}, model.PlayerDelta{Pitches: -10, InningsPlayed: -1})
			So(got.Fatigue, ShouldEqual, 40)
		})

		Convey("When the game injures a player", func() {
			got := m.Merge(model.Condition{InjuryDays: 2}, model.PlayerDelta{InjuryDays: 5})
			So(got.InjuryDays, ShouldEqual, 5)
			So(got.Healthy(), ShouldBeFalse)

			kept := m.Merge(model.Condition{InjuryDays: 7}, model.PlayerDelta{InjuryDays: 3})
			So(kept.InjuryDays, ShouldEqual, 7)
		})

		Convey("When the stored fatigue is corrupt", func() {
			got := m.Merge(model.Condition{Fatigue: math.NaN()}, model.PlayerDelta{})
			So(got.Fatigue, ShouldEqual, fatigue.FatigueMin)
		})
	})
}

func TestRecover(t *testing.T) {
	Convey("Given a tired, injured player", t, func() {
		m := fatigue.NewMerger(fatigue.WithRecoveryPerDay(15))
		c := model.Condition{Fatigue: 40, InjuryDays: 3}

		Convey("Then one day removes a day's recovery and one injury day", func() {
			got := m.Recover(c, 1)
			So(got.Fatigue, ShouldEqual, 25)
			So(got.InjuryDays, ShouldEqual, 2)
		})

		Convey("Then long rest floors at zero", func() {
			got := m.Recover(c, 10)
			So(got.Fatigue, ShouldEqual, fatigue.FatigueMin)
			So(got.InjuryDays, ShouldEqual, 0)
			So(got.Healthy(), ShouldBeTrue)
		})

		Convey("Then zero days changes nothing", func() {
			So(m.Recover(c, 0), ShouldResemble, c)
		})
	})

	Convey("Given options with invalid values", t, func() {
		m := fatigue.NewMerger(fatigue.WithPerPitch(-1), fatigue.WithPerInning(-1), fatigue.WithRecoveryPerDay(-1))
		So(m.PerPitch, ShouldEqual, fatigue.DefaultPerPitch)
		So(m.PerInning, ShouldEqual, fatigue.DefaultPerInning)
		So(m.RecoveryPerDay, ShouldEqual, fatigue.DefaultRecoveryPerDay)
	})
}
