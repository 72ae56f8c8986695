package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { _ = Sync() }()

		Convey("Then Get returns a usable logger", func() {
			l := Get()
			So(l, ShouldNotBeNil)
			So(func() { l.Info(context.Background(), "hello", String("k", "v")) }, ShouldNotPanic)
		})

		Convey("Then Named returns a grouped logger", func() {
			So(Named("scheduler"), ShouldNotBeNil)
		})
	})

	Convey("Given a nil writer", t, func() {
		So(InitWriter(nil), ShouldNotBeNil)
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWriter(&buf), ShouldBeNil)
		defer func() { _ = Init() }()
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Named("worker").With(GameID(42)).Warn(ctx, "simulation failed",
				Error(errors.New("boom")),
				Bool("retry", true),
			)

			Convey("Then the record carries the message and fields", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "simulation failed")
				So(out, ShouldContainSubstring, "id_game=42")
				So(out, ShouldContainSubstring, "retry=true")
				So(out, ShouldContainSubstring, "boom")
				So(out, ShouldContainSubstring, "source=")
			})
		})

		Convey("When the level filters debug records", func() {
			Get().Debug(ctx, "hidden")
			So(buf.String(), ShouldNotContainSubstring, "hidden")

			So(SetLevelString("debug"), ShouldBeNil)
			Get().Debug(ctx, "visible")
			So(buf.String(), ShouldContainSubstring, "visible")
			So(SetLevelString("info"), ShouldBeNil)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		for _, lvl := range []string{"debug", "INFO", " warn ", "warning", "error", ""} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)
	})
}
