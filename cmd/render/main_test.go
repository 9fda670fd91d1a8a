package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/bullseye/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithWriter(&bytes.Buffer{}); err != nil {
		panic(err)
	}
}

func decodeFile(path string) (int, int) {
	b, err := os.ReadFile(path)
	convey.So(err, convey.ShouldBeNil)
	img, err := png.Decode(bytes.NewReader(b))
	convey.So(err, convey.ShouldBeNil)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestRenderCommand(t *testing.T) {
	convey.Convey("Given the render command", t, func() {
		dir := t.TempDir()
		out := filepath.Join(dir, "out.png")

		convey.Convey("When rendering a generated sample", func() {
			err := newApp().Run([]string{"render", "--out", out, "--dimension", "120", "--shots", "6", "--seed", "9", "--practice"})

			convey.Convey("Then a PNG of the requested size should be written", func() {
				convey.So(err, convey.ShouldBeNil)
				w, h := decodeFile(out)
				convey.So(w, convey.ShouldEqual, 120)
				convey.So(h, convey.ShouldEqual, 120)
			})
		})

		convey.Convey("When rendering a contact sheet", func() {
			err := newApp().Run([]string{"render", "--out", out, "--dimension", "40", "--shots", "7", "--report"})

			convey.Convey("Then frames should be tiled five per row", func() {
				convey.So(err, convey.ShouldBeNil)
				w, h := decodeFile(out)
				convey.So(w, convey.ShouldEqual, 200)
				convey.So(h, convey.ShouldEqual, 80)
			})
		})

		convey.Convey("When reading a request file", func() {
			in := filepath.Join(dir, "req.json")
			body := `{"target":"air_rifle_10m","dimension":64,"zoom":2,"session":{"type":"final"},
				"shots":[{"x":0.5,"y":0.2,"index":0,"score":10,"decimal":10.6}]}`
			convey.So(os.WriteFile(in, []byte(body), 0o600), convey.ShouldBeNil)

			err := newApp().Run([]string{"render", "--in", in, "--out", out, "--disconnected"})

			convey.Convey("Then the file should drive the render", func() {
				convey.So(err, convey.ShouldBeNil)
				w, _ := decodeFile(out)
				convey.So(w, convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When the target is unknown", func() {
			err := newApp().Run([]string{"render", "--out", out, "--target", "clay_pigeon"})
			convey.So(err, convey.ShouldNotBeNil)
			_, statErr := os.Stat(out)
			convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
		})

		convey.Convey("When the dimension is zero", func() {
			err := newApp().Run([]string{"render", "--out", out, "--dimension", "0"})
			convey.So(err, convey.ShouldBeNil)
			_, statErr := os.Stat(out)
			convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
		})
	})
}
