package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/okian/bullseye/internal/adapters/mq/queue"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/render"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
	xdraw "golang.org/x/image/draw"
)

// ReportInput asks for a contact sheet of a shot sequence.
type ReportInput struct {
	Target       string
	Caliber      float64
	Dimension    int // frame edge in pixels
	Disconnected bool
	Session      model.Session
	Shots        []model.Shot
	MeanGroup    *bool
}

// Report is a rendered contact sheet. Frame k shows shots[0..k].
type Report struct {
	ID         string
	Frames     int
	Columns    int
	ZoomFactor float64
	PNG        []byte
}

// Report renders one frame per shot prefix at the profile's report zoom
// factor and tiles them row by row. Frames go through the worker pool; a
// full queue fails with ErrBackpressure. A zero dimension returns nil.
func (s *Service) Report(ctx context.Context, in ReportInput) (*Report, error) {
	c, err := s.composer(in.Target, in.Caliber)
	if err != nil {
		return nil, err
	}
	if in.Dimension == 0 {
		return nil, nil
	}

	s.mu.RLock()
	q, columns, stop := s.queue, s.reportColumns, s.stopCh
	s.mu.RUnlock()

	start := time.Now()
	p := c.Profile()
	factor := p.PDFZoomFactor(in.Shots)
	frames := len(in.Shots)
	if frames == 0 {
		frames = 1
	}
	id := uuid.NewString()

	results := make(chan queue.Result, frames)
	for k := 0; k < frames; k++ {
		req := render.Request{
			Dimension:    in.Dimension,
			ZoomFactor:   factor,
			Disconnected: in.Disconnected,
			Session:      in.Session,
			Shots:        prefix(in.Shots, k),
		}
		if s.meanGroupConfigurable {
			req.MeanGroup = in.MeanGroup
		}
		job := queue.Job{
			ReportID: id,
			Frame:    k,
			Target:   p.Name(),
			Caliber:  p.Caliber(),
			Request:  req,
			Result:   results,
		}
		if err := q.Enqueue(ctx, job); err != nil {
			metrics.RecordReport("rejected", 0)
			switch {
			case errors.Is(err, queue.ErrQueueFull):
				s.logger.Warn(ctx, "report rejected, queue full",
					logger.String("report_id", id),
					logger.Int("frames", frames),
				)
				return nil, fmt.Errorf("%w: frame %d of %d", ErrBackpressure, k+1, frames)
			case errors.Is(err, queue.ErrQueueClosed):
				return nil, ErrNotStarted
			default:
				return nil, fmt.Errorf("enqueue frame %d: %w", k, err)
			}
		}
	}

	imgs := make([]*image.RGBA, frames)
	for received := 0; received < frames; received++ {
		select {
		case <-ctx.Done():
			metrics.RecordReport("canceled", 0)
			return nil, ctx.Err()
		case <-stop:
			metrics.RecordReport("canceled", 0)
			return nil, ErrNotStarted
		case r := <-results:
			if errors.Is(r.Err, queue.ErrQueueClosed) {
				metrics.RecordReport("canceled", 0)
				return nil, ErrNotStarted
			}
			if r.Err != nil {
				metrics.RecordReport("error", 0)
				return nil, fmt.Errorf("frame %d: %w", r.Frame, r.Err)
			}
			imgs[r.Frame] = r.Image
		}
	}

	sheet, columns := contactSheet(imgs, in.Dimension, columns)
	b, err := encodePNG(sheet)
	if err != nil {
		metrics.RecordReport("error", 0)
		return nil, err
	}
	metrics.RecordReport("ok", frames)
	s.logger.Info(ctx, "report rendered",
		logger.String("report_id", id),
		logger.String("target", p.Name()),
		logger.Int("frames", frames),
		logger.Float64("zoom_factor", factor),
		logger.Duration("took", time.Since(start)),
	)
	return &Report{ID: id, Frames: frames, Columns: columns, ZoomFactor: factor, PNG: b}, nil
}

// prefix returns shots[0..k], or nil for an empty list.
func prefix(shots []model.Shot, k int) []model.Shot {
	if len(shots) == 0 {
		return nil
	}
	return shots[:k+1:k+1]
}

// contactSheet tiles square frames of the given edge, columns per row, on
// a white background.
func contactSheet(frames []*image.RGBA, edge, columns int) (*image.RGBA, int) {
	if columns > len(frames) {
		columns = len(frames)
	}
	rows := (len(frames) + columns - 1) / columns
	sheet := image.NewRGBA(image.Rect(0, 0, columns*edge, rows*edge))
	xdraw.Draw(sheet, sheet.Bounds(), image.White, image.Point{}, xdraw.Src)
	for i, f := range frames {
		at := image.Pt((i%columns)*edge, (i/columns)*edge)
		xdraw.Draw(sheet, image.Rectangle{Min: at, Max: at.Add(f.Bounds().Size())}, f, f.Bounds().Min, xdraw.Src)
	}
	return sheet, columns
}
