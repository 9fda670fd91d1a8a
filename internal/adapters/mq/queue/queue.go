// Package queue holds report frames waiting for a render worker.
package queue

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/okian/bullseye/internal/render"
	"github.com/okian/bullseye/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Job is one frame of a report.
type Job struct {
	ReportID string
	Frame    int
	Target   string
	Caliber  float64
	Request  render.Request
	// Result receives exactly one Result. It must be buffered.
	Result chan<- Result
}

// Result is the outcome of a Job.
type Result struct {
	ReportID string
	Frame    int
	Image    *image.RGBA
	Err      error
}

// Fail delivers err as the job's result without blocking.
func (j Job) Fail(err error) {
	j.Deliver(nil, err)
}

// Deliver hands the outcome back to the waiting report. A full result
// channel drops the value.
func (j Job) Deliver(img *image.RGBA, err error) {
	if j.Result == nil {
		return
	}
	select {
	case j.Result <- Result{ReportID: j.ReportID, Frame: j.Frame, Image: img, Err: err}:
	default:
	}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job or returns ErrQueueFull / ErrQueueClosed.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns a channel that receives jobs until the queue is closed.
	Dequeue(ctx context.Context) <-chan Job

	Len(ctx context.Context) int
	Capacity() int

	// Drain fails every waiting job with err.
	Drain(err error) int

	// Close stops accepting jobs; queued jobs are still handed out.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue adds a job without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("enqueue frame %d: %w", j.Frame, err)
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrQueueFull
	}
}

// Dequeue returns a channel fed from the queue until it is closed or ctx
// ends. A job taken off the queue when ctx ends is failed, not dropped.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			var (
				j  Job
				ok bool
			)
			select {
			case <-ctx.Done():
				return
			case j, ok = <-q.jobs:
				if !ok {
					return
				}
			}
			select {
			case out <- j:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				j.Fail(ctx.Err())
				return
			}
		}
	}()
	return out
}

// Drain fails every job still waiting with err and returns how many it
// failed. Jobs enqueued concurrently may be missed unless the queue is
// closed first.
func (q *InMemoryQueue) Drain(err error) int {
	n := 0
	for {
		select {
		case j, ok := <-q.jobs:
			if !ok {
				q.observe()
				return n
			}
			j.Fail(err)
			n++
		default:
			q.observe()
			return n
		}
	}
}

func (q *InMemoryQueue) observe() {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Len returns the number of waiting jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.observe()
	return len(q.jobs)
}

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting jobs.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
