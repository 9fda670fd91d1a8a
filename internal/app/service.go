// Package service renders scored targets for the HTTP API and the offline
// renderer.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"runtime"
	"sync"
	"time"

	"github.com/okian/bullseye/internal/adapters/cache"
	"github.com/okian/bullseye/internal/adapters/mq/queue"
	"github.com/okian/bullseye/internal/adapters/mq/worker"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/target"
	"github.com/okian/bullseye/internal/render"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

const runtimeSampleInterval = 15 * time.Second

// RenderInput is one repaint request.
type RenderInput struct {
	Target       string
	Caliber      float64 // mm, 0 selects the default projectile
	Dimension    int
	Zoom         int // 0 selects the profile's default level
	Disconnected bool
	Session      model.Session
	Shots        []model.Shot
	MeanGroup    *bool // ignored unless the mean group is configurable
}

// TargetInfo describes a built-in profile.
type TargetInfo struct {
	Name           string    `json:"name"`
	DefaultCaliber float64   `json:"default_caliber"`
	Size           float64   `json:"size"`
	Rings          []float64 `json:"rings"`
	RingNumbers    []int     `json:"ring_numbers"`
	ZoomMin        int       `json:"zoom_min"`
	ZoomMax        int       `json:"zoom_max"`
	ZoomDefault    int       `json:"zoom_default"`
	RapidFire      bool      `json:"rapid_fire"`
	PDFZoomFactor  float64   `json:"pdf_zoom_factor"`
}

// Service owns the composers, the PNG cache and the report worker pool.
type Service struct {
	mu sync.RWMutex

	// Core components
	fonts     *render.Fonts
	composers map[string]*render.Composer
	cache     cache.Cache
	queue     *queue.InMemoryQueue
	pool      *worker.Pool

	// Configuration
	defaultTarget         string
	defaultCaliber        float64
	dimension             int
	maxDimension          int
	drawMeanGroup         bool
	meanGroupConfigurable bool
	theme                 render.Theme
	cacheSize             int
	workerCount           int
	queueSize             int
	reportColumns         int

	// State
	started bool
	stopCh  chan struct{}

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultTarget:         target.DefaultName,
		dimension:             550,
		maxDimension:          render.DefaultMaxDimension,
		drawMeanGroup:         true,
		meanGroupConfigurable: true,
		theme:                 render.DefaultTheme(),
		cacheSize:             256,
		workerCount:           runtime.NumCPU(),
		queueSize:             1024,
		reportColumns:         5,
		logger:                logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads fonts and starts the report workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if _, err := target.Lookup(s.defaultTarget, s.defaultCaliber); err != nil {
		return fmt.Errorf("default target: %w", err)
	}

	s.logger.Info(ctx, "starting render service...")

	fonts, err := render.LoadFonts()
	if err != nil {
		return fmt.Errorf("load fonts: %w", err)
	}
	s.fonts = fonts
	s.composers = make(map[string]*render.Composer)
	s.cache = cache.NewInMemory(cache.WithMaxEntries(s.cacheSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s, worker.WithLogger(s.logger))
	// workers live until Stop, not until the caller's ctx ends
	s.pool.Start(context.WithoutCancel(ctx))

	s.stopCh = make(chan struct{})
	go s.sampleRuntime(s.stopCh)

	s.started = true
	s.logger.Info(ctx, "render service started",
		logger.String("default_target", s.defaultTarget),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("cache_size", s.cacheSize),
	)
	return nil
}

// Stop drains the report workers and releases fonts.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	pool, fonts, composers := s.pool, s.fonts, s.composers
	s.composers = nil
	s.mu.Unlock()

	// Workers call back into the service, so the lock is released first.
	ctx := context.Background()
	s.logger.Info(ctx, "stopping render service...")
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	for _, c := range composers {
		_ = c.Close()
	}
	if err := fonts.Close(); err != nil {
		s.logger.Warn(ctx, "closing fonts", logger.Error(err))
	}
	s.logger.Info(ctx, "render service stopped")
}

// DefaultDimension is the edge used when a request gives none.
func (s *Service) DefaultDimension() int { return s.dimension }

// Render paints one frame and returns it PNG-encoded. A zero dimension
// returns nil bytes and no error.
func (s *Service) Render(ctx context.Context, in RenderInput) ([]byte, error) {
	c, err := s.composer(in.Target, in.Caliber)
	if err != nil {
		return nil, err
	}
	req := s.request(c.Profile(), in)
	if req.Dimension == 0 {
		return nil, nil
	}

	key, err := renderKey(c.Profile(), req)
	if err != nil {
		return nil, err
	}
	store := s.pngCache()
	if b, ok := store.Get(ctx, key); ok {
		metrics.RecordCacheHit()
		return b, nil
	}
	metrics.RecordCacheMiss()

	img, err := s.draw(ctx, c, req)
	if err != nil {
		return nil, err
	}
	b, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	store.Put(ctx, key, b)
	return b, nil
}

// RenderImage paints one frame for the named target. Report workers call it.
func (s *Service) RenderImage(ctx context.Context, name string, caliber float64, req render.Request) (*image.RGBA, error) {
	c, err := s.composer(name, caliber)
	if err != nil {
		return nil, err
	}
	return s.draw(ctx, c, req)
}

// PDFZoomFactor returns the report zoom factor for shots on the named
// target. Nil and empty lists give the profile default.
func (s *Service) PDFZoomFactor(_ context.Context, name string, caliber float64, shots []model.Shot) (float64, error) {
	p, err := s.profile(name, caliber)
	if err != nil {
		return 0, err
	}
	return p.PDFZoomFactor(shots), nil
}

// Targets lists the built-in profiles.
func (s *Service) Targets() []TargetInfo {
	names := target.Names()
	out := make([]TargetInfo, 0, len(names))
	for _, name := range names {
		caliber, err := target.DefaultCaliber(name)
		if err != nil {
			continue
		}
		p, err := target.Lookup(name, caliber)
		if err != nil {
			continue
		}
		out = append(out, TargetInfo{
			Name:           p.Name(),
			DefaultCaliber: p.Caliber(),
			Size:           p.Size(),
			Rings:          p.Rings(),
			RingNumbers:    p.RingNumbers(),
			ZoomMin:        p.ZoomMin(),
			ZoomMax:        p.ZoomMax(),
			ZoomDefault:    p.ZoomDefault(),
			RapidFire:      p.RapidFire(),
			PDFZoomFactor:  p.DefaultPDFZoomFactor(),
		})
	}
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"defaultTarget": s.defaultTarget,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"cacheSize":     s.cacheSize,
		"reportColumns": s.reportColumns,
	}

	if s.started {
		queueLen := s.queue.Len(context.Background())
		stats["queueLength"] = queueLen
		stats["cachedImages"] = s.cache.Size()
		stats["composers"] = len(s.composers)

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	return stats
}

// profile resolves a target name and caliber, applying the configured
// defaults.
func (s *Service) profile(name string, caliber float64) (*target.Profile, error) {
	if name == "" {
		name = s.defaultTarget
	}
	if caliber == 0 && name == s.defaultTarget {
		caliber = s.defaultCaliber
	}
	return target.Lookup(name, caliber)
}

// composer returns the shared composer for a profile, building it on first
// use.
func (s *Service) composer(name string, caliber float64) (*render.Composer, error) {
	p, err := s.profile(name, caliber)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s@%g", p.Name(), p.Caliber())

	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		return nil, ErrNotStarted
	}
	c, ok := s.composers[key]
	s.mu.RUnlock()
	if ok {
		return c, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	if c, ok := s.composers[key]; ok {
		return c, nil
	}
	c, err = render.NewComposer(p,
		render.WithFonts(s.fonts),
		render.WithTheme(s.theme),
		render.WithMeanGroup(s.drawMeanGroup),
		render.WithMaxDimension(s.maxDimension),
		render.WithLogger(s.logger.Named("render")),
	)
	if err != nil {
		return nil, err
	}
	s.composers[key] = c
	return c, nil
}

func (s *Service) request(p *target.Profile, in RenderInput) render.Request {
	zoom := in.Zoom
	if zoom == 0 {
		zoom = p.ZoomDefault()
	}
	req := render.Request{
		Dimension:    in.Dimension,
		Zoom:         zoom,
		Disconnected: in.Disconnected,
		Session:      in.Session,
		Shots:        in.Shots,
	}
	if s.meanGroupConfigurable {
		req.MeanGroup = in.MeanGroup
	}
	return req
}

func (s *Service) pngCache() cache.Cache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache
}

// draw renders req and records render metrics.
func (s *Service) draw(ctx context.Context, c *render.Composer, req render.Request) (*image.RGBA, error) {
	start := time.Now()
	img, err := c.Render(ctx, req)
	ms := float64(time.Since(start).Microseconds()) / 1000
	name := c.Profile().Name()
	if err != nil {
		metrics.RecordRender(name, "error", ms)
		metrics.RecordErrorByComponent("render", errorKind(err))
		return nil, err
	}
	metrics.RecordRender(name, "ok", ms)
	metrics.RecordShotsDrawn(drawnShots(req.Shots))
	return img, nil
}

func (s *Service) sampleRuntime(stop <-chan struct{}) {
	ticker := time.NewTicker(runtimeSampleInterval)
	defer ticker.Stop()

	metrics.SampleRuntime()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			metrics.SampleRuntime()
		}
	}
}

// renderKey hashes everything that affects the rendered pixels.
func renderKey(p *target.Profile, req render.Request) (uint64, error) {
	b, err := json.Marshal(struct {
		Target  string
		Caliber float64
		Request render.Request
	}{p.Name(), p.Caliber(), req})
	if err != nil {
		return 0, fmt.Errorf("encode cache key: %w", err)
	}
	return cache.Key(b), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawnShots(shots []model.Shot) int {
	n := 0
	for _, sh := range shots {
		if !sh.Miss {
			n++
		}
	}
	return n
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, render.ErrInvalidZoom):
		return "invalid_zoom"
	case errors.Is(err, render.ErrNegativeDimension), errors.Is(err, render.ErrDimensionTooLarge):
		return "invalid_dimension"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "render_error"
	}
}
