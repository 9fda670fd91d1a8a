package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/bullseye/internal/config"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainWiring(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		_ = os.Setenv("BULLSEYE_TARGET", "air_pistol_10m")
		_ = os.Setenv("BULLSEYE_DIMENSION", "96")
		_ = os.Setenv("BULLSEYE_WORKER_COUNT", "2")
		defer func() {
			_ = os.Unsetenv("BULLSEYE_TARGET")
			_ = os.Unsetenv("BULLSEYE_DIMENSION")
			_ = os.Unsetenv("BULLSEYE_WORKER_COUNT")
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)

		svc, err := newService(cfg, logger.NewNop())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := newMux(ctx, svc, logger.NewNop())

		convey.Convey("When rendering with an empty request", func() {
			req := httptest.NewRequest(http.MethodPost, "/render", strings.NewReader(`{}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then the configured target and dimension should be used", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "image/png")
				convey.So(svc.GetStats()["defaultTarget"], convey.ShouldEqual, "air_pistol_10m")
				convey.So(svc.DefaultDimension(), convey.ShouldEqual, 96)
			})
		})

		convey.Convey("When fetching the API description", func() {
			req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("When scraping metrics", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "bullseye_render_queue_capacity")
		})
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	convey.Convey("Given a server on an ephemeral port", t, func() {
		_ = os.Setenv("BULLSEYE_ADDR", "127.0.0.1:0")
		defer func() { _ = os.Unsetenv("BULLSEYE_ADDR") }()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, logger.NewNop()) }()

		convey.Convey("When the context is canceled", func() {
			time.Sleep(100 * time.Millisecond)
			cancel()

			convey.Convey("Then run should return cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(35 * time.Second):
					convey.So("run did not return", convey.ShouldBeEmpty)
				}
			})
		})
	})
}
