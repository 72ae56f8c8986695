package league_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/diamond/internal/league"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExport(t *testing.T) {
	Convey("Given a generated league", t, func() {
		lg, err := league.Generate(league.WithTeams(4), league.WithDays(3), league.WithPitchers(3))
		So(err, ShouldBeNil)

		Convey("When it is exported and loaded back", func() {
			var buf bytes.Buffer
			So(league.Export(&buf, lg), ShouldBeNil)
			loaded, err := league.Load(&buf)

			Convey("Then nothing is lost", func() {
				So(err, ShouldBeNil)
				So(loaded, ShouldResemble, lg)
			})
		})

		Convey("When it goes through a file", func() {
			path := filepath.Join(t.TempDir(), "league.yaml")
			So(league.SaveFile(path, lg), ShouldBeNil)
			loaded, err := league.LoadFile(path)

			Convey("Then nothing is lost", func() {
				So(err, ShouldBeNil)
				So(loaded, ShouldResemble, lg)
			})
		})
	})

	Convey("Given YAML with an unknown key", t, func() {
		_, err := league.Load(strings.NewReader("universe:\n  currentDateTime: 2030-04-01T00:00:00Z\nstadiums: []\n"))

		Convey("Then loading fails", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := league.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		So(err, ShouldNotBeNil)
	})
}
