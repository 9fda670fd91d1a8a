package service_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	service "github.com/okian/bullseye/internal/app"
	"github.com/okian/bullseye/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sequence(n int) []model.Shot {
	shots := make([]model.Shot, n)
	for i := range shots {
		shots[i] = model.Shot{
			X:            float64(40 + i),
			Y:            float64(-30 + 2*i),
			Index:        i,
			Score:        9,
			DecimalScore: 9.3,
		}
	}
	return shots
}

func decode(b []byte) image.Image {
	img, err := png.Decode(bytes.NewReader(b))
	So(err, ShouldBeNil)
	return img
}

func rgb(img image.Image, x, y int) (uint32, uint32, uint32) {
	r, g, b, _ := img.At(x, y).RGBA()
	return r >> 8, g >> 8, b >> 8
}

func TestServiceReport(t *testing.T) {
	Convey("Given a started service with a worker pool", t, func() {
		svc := started(
			service.WithWorkerCount(3),
			service.WithQueueSize(64),
			service.WithReportColumns(5),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When a report of seven shots is requested", func() {
			rep, err := svc.Report(ctx, service.ReportInput{Dimension: 100, Shots: sequence(7)})

			Convey("Then one frame per shot should be tiled five per row", func() {
				So(err, ShouldBeNil)
				So(rep.ID, ShouldNotBeEmpty)
				So(rep.Frames, ShouldEqual, 7)
				So(rep.Columns, ShouldEqual, 5)
				So(rep.ZoomFactor, ShouldEqual, 0.5)

				img := decode(rep.PNG)
				So(img.Bounds().Dx(), ShouldEqual, 500)
				So(img.Bounds().Dy(), ShouldEqual, 200)
			})

			Convey("And the frame cells should show the black aiming disc", func() {
				img := decode(rep.PNG)
				for _, at := range []image.Point{{50, 50}, {450, 50}, {150, 150}} {
					r, g, b := rgb(img, at.X, at.Y)
					So(r+g+b, ShouldBeLessThan, 30)
				}
			})

			Convey("And unused cells should stay white", func() {
				img := decode(rep.PNG)
				r, g, b := rgb(img, 350, 150)
				So([]uint32{r, g, b}, ShouldResemble, []uint32{255, 255, 255})
			})
		})

		Convey("When a report has no shots", func() {
			rep, err := svc.Report(ctx, service.ReportInput{Dimension: 80})

			Convey("Then a single empty frame at the default factor is returned", func() {
				So(err, ShouldBeNil)
				So(rep.Frames, ShouldEqual, 1)
				So(rep.Columns, ShouldEqual, 1)
				So(rep.ZoomFactor, ShouldEqual, 1)
				So(decode(rep.PNG).Bounds().Dx(), ShouldEqual, 80)
			})
		})

		Convey("When the frame dimension is zero", func() {
			rep, err := svc.Report(ctx, service.ReportInput{Shots: sequence(3)})
			So(err, ShouldBeNil)
			So(rep, ShouldBeNil)
		})

		Convey("When the frame dimension is negative", func() {
			_, err := svc.Report(ctx, service.ReportInput{Dimension: -5, Shots: sequence(2)})
			So(err, ShouldNotBeNil)
		})

		Convey("When several reports run concurrently", func() {
			var wg sync.WaitGroup
			errs := make([]error, 4)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = svc.Report(ctx, service.ReportInput{Dimension: 60, Shots: sequence(i + 2)})
				}(i)
			}
			wg.Wait()

			Convey("Then all of them should succeed", func() {
				for _, err := range errs {
					So(err, ShouldBeNil)
				}
			})
		})
	})

	Convey("Given a service with a one-slot queue", t, func() {
		svc := started(service.WithWorkerCount(1), service.WithQueueSize(1))
		defer svc.Stop()

		Convey("When a long report floods the queue", func() {
			_, err := svc.Report(context.Background(), service.ReportInput{Dimension: 300, Shots: sequence(200)})

			Convey("Then it should be rejected with backpressure", func() {
				So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service that is not started", t, func() {
		svc := service.New()

		Convey("Then reports should be refused", func() {
			_, err := svc.Report(context.Background(), service.ReportInput{Dimension: 100})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a report in flight on a single worker", t, func() {
		svc := started(service.WithWorkerCount(1), service.WithQueueSize(256))

		done := make(chan error, 1)
		go func() {
			_, err := svc.Report(context.Background(), service.ReportInput{Dimension: 550, Shots: sequence(200)})
			done <- err
		}()
		time.Sleep(100 * time.Millisecond)

		Convey("When the service stops", func() {
			svc.Stop()

			Convey("Then the report returns promptly with ErrNotStarted", func() {
				select {
				case err := <-done:
					So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				case <-time.After(10 * time.Second):
					So("report still waiting after Stop", ShouldBeEmpty)
				}
			})
		})
	})

	Convey("Given a service started with a context that has ended", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithCancel(context.Background())
		So(svc.Start(ctx), ShouldBeNil)
		cancel()
		defer svc.Stop()

		Convey("Then the workers keep rendering reports", func() {
			rctx, rcancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer rcancel()
			rep, err := svc.Report(rctx, service.ReportInput{Dimension: 60, Shots: sequence(3)})
			So(err, ShouldBeNil)
			So(rep.Frames, ShouldEqual, 3)
		})
	})
}
