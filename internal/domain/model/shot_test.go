package model_test

import (
	"testing"

	"github.com/okian/bullseye/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseSessionType(t *testing.T) {
	Convey("Given session type names", t, func() {
		Convey("When parsing known names in any case", func() {
			practice, err1 := model.ParseSessionType("Practice")
			match, err2 := model.ParseSessionType("")
			final, err3 := model.ParseSessionType(" FINAL ")

			Convey("Then they map to the matching constants", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldBeNil)
				So(practice, ShouldEqual, model.Practice)
				So(match, ShouldEqual, model.Match)
				So(final, ShouldEqual, model.Final)
			})
		})

		Convey("When parsing an unknown name", func() {
			_, err := model.ParseSessionType("warmup")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "warmup")
			})
		})

		Convey("When formatting", func() {
			So(model.Practice.String(), ShouldEqual, "practice")
			So(model.SessionType(42).String(), ShouldEqual, "SessionType(42)")
		})
	})
}
