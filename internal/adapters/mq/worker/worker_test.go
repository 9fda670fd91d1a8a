package worker_test

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	queue "github.com/okian/bullseye/internal/adapters/mq/queue"
	worker "github.com/okian/bullseye/internal/adapters/mq/worker"
	"github.com/okian/bullseye/internal/render"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 16)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockRenderer struct {
	calls atomic.Int64
	fail  map[string]error
}

func (m *mockRenderer) RenderImage(ctx context.Context, target string, caliber float64, req render.Request) (*image.RGBA, error) {
	m.calls.Add(1)
	if err, ok := m.fail[target]; ok {
		return nil, err
	}
	return image.NewRGBA(image.Rect(0, 0, req.Dimension, req.Dimension)), nil
}

// gateRenderer blocks every render until gate is closed.
type gateRenderer struct {
	gate chan struct{}
}

func (g *gateRenderer) RenderImage(ctx context.Context, target string, caliber float64, req render.Request) (*image.RGBA, error) {
	<-g.gate
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func waitResult(ch <-chan queue.Result) (queue.Result, bool) {
	select {
	case r := <-ch:
		return r, true
	case <-time.After(2 * time.Second):
		return queue.Result{}, false
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := newMockQueue()
		r := &mockRenderer{fail: map[string]error{"broken": errors.New("no profile")}}
		w := worker.NewInMemoryWorker(q, r, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a frame job arrives", func() {
			results := make(chan queue.Result, 1)
			q.jobs <- queue.Job{
				ReportID: "r1",
				Frame:    2,
				Target:   "pistol_25m_rf",
				Request:  render.Request{Dimension: 8},
				Result:   results,
			}

			convey.Convey("Then the rendered frame is delivered", func() {
				res, ok := waitResult(results)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(res.Err, convey.ShouldBeNil)
				convey.So(res.Frame, convey.ShouldEqual, 2)
				convey.So(res.Image.Bounds().Dx(), convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When rendering fails", func() {
			results := make(chan queue.Result, 1)
			q.jobs <- queue.Job{ReportID: "r2", Target: "broken", Result: results}

			convey.Convey("Then the error is delivered and the worker keeps running", func() {
				res, ok := waitResult(results)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(res.Err, convey.ShouldNotBeNil)

				again := make(chan queue.Result, 1)
				q.jobs <- queue.Job{ReportID: "r3", Target: "pistol_25m_rf", Result: again}
				res, ok = waitResult(again)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(res.Err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When shutting down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then it stops gracefully", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker whose queue closes", t, func() {
		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, &mockRenderer{})
		done := make(chan struct{})
		go func() {
			w.Run(context.Background())
			close(done)
		}()
		_ = q.Close()

		convey.Convey("Then the loop exits", func() {
			select {
			case <-done:
				convey.So(true, convey.ShouldBeTrue)
			case <-time.After(time.Second):
				convey.So("worker still running", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		r := &mockRenderer{}
		pool := worker.NewPool(4, q, r)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When many frames are queued", func() {
			const frames = 40
			results := make(chan queue.Result, frames)
			for i := 0; i < frames; i++ {
				err := q.Enqueue(ctx, queue.Job{ReportID: "sheet", Frame: i, Request: render.Request{Dimension: 4}, Result: results})
				convey.So(err, convey.ShouldBeNil)
			}

			convey.Convey("Then every frame comes back exactly once", func() {
				seen := make(map[int]bool)
				for i := 0; i < frames; i++ {
					res, ok := waitResult(results)
					convey.So(ok, convey.ShouldBeTrue)
					seen[res.Frame] = true
				}
				convey.So(len(seen), convey.ShouldEqual, frames)
				convey.So(r.calls.Load(), convey.ShouldEqual, frames)
			})
		})

		convey.Convey("When shutting down", func() {
			err := pool.Shutdown(context.Background())

			convey.Convey("Then the queue is closed and workers stop", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a busy single-worker pool with frames waiting", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		r := &gateRenderer{gate: make(chan struct{})}
		pool := worker.NewPool(1, q, r)
		pool.Start(context.Background())

		const frames = 4
		results := make(chan queue.Result, frames)
		for i := 0; i < frames; i++ {
			convey.So(q.Enqueue(context.Background(), queue.Job{ReportID: "busy", Frame: i, Result: results}), convey.ShouldBeNil)
		}

		convey.Convey("When the pool shuts down", func() {
			shut := make(chan error, 1)
			go func() { shut <- pool.Shutdown(context.Background()) }()
			time.Sleep(20 * time.Millisecond)
			close(r.gate)

			convey.Convey("Then every frame gets exactly one result", func() {
				seen := make(map[int]bool)
				for i := 0; i < frames; i++ {
					res, ok := waitResult(results)
					convey.So(ok, convey.ShouldBeTrue)
					if res.Frame == 0 {
						convey.So(res.Err, convey.ShouldBeNil)
					}
					seen[res.Frame] = true
				}
				convey.So(len(seen), convey.ShouldEqual, frames)
				convey.So(<-shut, convey.ShouldBeNil)
				convey.So(q.Len(context.Background()), convey.ShouldEqual, 0)
			})
		})
	})

	convey.Convey("Given a pool whose context ends", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		r := &gateRenderer{gate: make(chan struct{})}
		pool := worker.NewPool(1, q, r)
		ctx, cancel := context.WithCancel(context.Background())
		pool.Start(ctx)

		results := make(chan queue.Result, 3)
		for i := 0; i < 3; i++ {
			convey.So(q.Enqueue(ctx, queue.Job{ReportID: "late", Frame: i, Result: results}), convey.ShouldBeNil)
		}
		time.Sleep(20 * time.Millisecond)
		cancel()
		close(r.gate)

		convey.Convey("Then waiting frames are failed and the queue is closed", func() {
			for i := 0; i < 3; i++ {
				_, ok := waitResult(results)
				convey.So(ok, convey.ShouldBeTrue)
			}
			deadline := time.Now().Add(2 * time.Second)
			for !q.IsClosed() && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a pool that was never started", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		pool := worker.NewPool(1, q, &mockRenderer{})
		results := make(chan queue.Result, 1)
		convey.So(q.Enqueue(context.Background(), queue.Job{Frame: 0, Result: results}), convey.ShouldBeNil)

		convey.Convey("Then Shutdown fails the queued frame", func() {
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			res, ok := waitResult(results)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(errors.Is(res.Err, queue.ErrQueueClosed), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a pool with a non-positive size", t, func() {
		pool := worker.NewPool(0, newMockQueue(), &mockRenderer{})

		convey.Convey("Then it falls back to one worker per CPU", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
