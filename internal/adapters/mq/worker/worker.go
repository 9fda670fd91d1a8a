// Package worker renders queued report frames.
package worker

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/bullseye/internal/adapters/mq/queue"
	"github.com/okian/bullseye/internal/render"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Renderer draws one frame for a named target.
type Renderer interface {
	RenderImage(ctx context.Context, target string, caliber float64, req render.Request) (*image.RGBA, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker consumes frame jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand. Jobs still queued
	// stay in the queue.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker renders jobs from a queue one at a time.
type InMemoryWorker struct {
	queue    Queue
	renderer Renderer
	name     string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, r Renderer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		renderer: r,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop. It returns when ctx ends, Shutdown is
// called or the queue is closed and empty.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	// ends the dequeue goroutine with the loop
	feedCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	jobs := w.queue.Dequeue(feedCtx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "frame render failed",
					logger.String("report_id", job.ReportID),
					logger.Int("frame", job.Frame),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) (err error) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	img, err := w.renderer.RenderImage(ctx, job.Target, job.Caliber, job.Request)
	job.Deliver(img, err)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "render_error")
		return fmt.Errorf("render frame %d of %s: %w", job.Frame, job.ReportID, err)
	}
	return nil
}

// Pool manages multiple workers. Once every worker has exited, the pool
// closes the queue and fails whatever is left in it, so no caller waits
// on a frame nobody will render.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger

	startOnce sync.Once
	stopped   chan struct{}
}

// NewPool creates workerCount workers reading from q. A count below 1
// uses one worker per CPU.
func NewPool(workerCount int, q Queue, r Renderer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	probe := &InMemoryWorker{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(probe)
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  probe.logger.Named("worker-pool"),
		stopped: make(chan struct{}),
	}
	for i := range p.workers {
		wopts := append(append([]Option(nil), opts...), WithName("worker-"+strconv.Itoa(i)))
		p.workers[i] = NewInMemoryWorker(q, r, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool. Workers run until ctx ends or
// Shutdown is called.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for _, w := range p.workers {
			go w.Run(ctx)
		}
		go p.reap(context.WithoutCancel(ctx))
	})
}

// reap waits for every worker to exit, then settles the queue.
func (p *Pool) reap(ctx context.Context) {
	defer close(p.stopped)
	for _, w := range p.workers {
		<-w.done
	}
	p.settle(ctx)
}

// settle closes the queue and fails the jobs left in it.
func (p *Pool) settle(ctx context.Context) {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if drainer, ok := p.queue.(interface{ Drain(error) int }); ok {
		if n := drainer.Drain(queue.ErrQueueClosed); n > 0 {
			p.logger.Warn(ctx, "failed queued frames on shutdown", logger.Int("frames", n))
		}
	}
}

// Shutdown closes the queue, stops the workers after the frame each one
// has in hand and fails every frame still queued.
func (p *Pool) Shutdown(ctx context.Context) error {
	started := true
	p.startOnce.Do(func() {
		started = false
		close(p.stopped)
	})
	if !started {
		p.settle(ctx)
		return nil
	}

	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	for _, w := range p.workers {
		w.stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	select {
	case <-p.stopped:
		return nil
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		return fmt.Errorf("pool shutdown: %w", shutdownCtx.Err())
	}
}
