package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/gogpu/gg"
	"github.com/okian/bullseye/internal/config"
	"github.com/okian/bullseye/internal/render"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Target, convey.ShouldEqual, "pistol_25m_rf")
			convey.So(cfg.Dimension, convey.ShouldEqual, 550)
			convey.So(cfg.MaxDimension, convey.ShouldEqual, render.DefaultMaxDimension)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.ReportColumns, convey.ShouldEqual, 5)
			convey.So(cfg.DrawMeanGroup, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the default theme should match the renderer's", func() {
			theme, err := cfg.Theme.RenderTheme()
			convey.So(err, convey.ShouldBeNil)
			convey.So(theme, convey.ShouldResemble, render.DefaultTheme())
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When max_dimension is zero", func() {
			cfg.MaxDimension = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When dimension exceeds max_dimension", func() {
			cfg.Dimension = cfg.MaxDimension + 1
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When report_columns is zero", func() {
			cfg.ReportColumns = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a theme colour is malformed", func() {
			cfg.Theme.MeanGroupColor = "#GG0000"
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err, render.ErrInvalidColor), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "theme.mean_group_color")
		})

		convey.Convey("When a theme colour uses the short form", func() {
			cfg.Theme.TargetColor = "f00"
			theme, err := cfg.Theme.RenderTheme()
			convey.So(err, convey.ShouldBeNil)
			convey.So(theme.Target, convey.ShouldResemble, gg.Hex("#FF0000"))
		})
	})
}
