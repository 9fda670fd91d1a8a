package service

import (
	"github.com/okian/bullseye/internal/config"
	"github.com/okian/bullseye/internal/render"
	"github.com/okian/bullseye/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDefaultTarget sets the profile used when a request names none.
// A caliber of 0 keeps the profile's default projectile.
func WithDefaultTarget(name string, caliber float64) Option {
	return func(s *Service) {
		if name != "" {
			s.defaultTarget = name
		}
		if caliber >= 0 {
			s.defaultCaliber = caliber
		}
	}
}

// WithDimension sets the image edge used when a request gives none.
func WithDimension(px int) Option {
	return func(s *Service) {
		if px >= 0 {
			s.dimension = px
		}
	}
}

// WithMaxDimension caps the image edge length.
func WithMaxDimension(px int) Option {
	return func(s *Service) {
		if px > 0 {
			s.maxDimension = px
		}
	}
}

// WithMeanGroup sets whether the group mean is drawn and whether a request
// may override it.
func WithMeanGroup(draw, configurable bool) Option {
	return func(s *Service) {
		s.drawMeanGroup = draw
		s.meanGroupConfigurable = configurable
	}
}

// WithTheme sets the colour palette.
func WithTheme(t render.Theme) Option {
	return func(s *Service) {
		s.theme = t
	}
}

// WithCacheSize bounds the PNG cache. Zero disables it.
func WithCacheSize(entries int) Option {
	return func(s *Service) {
		if entries >= 0 {
			s.cacheSize = entries
		}
	}
}

// WithWorkerCount sets the number of report frame workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the frame queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithReportColumns sets the number of frames per contact-sheet row.
func WithReportColumns(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.reportColumns = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// FromConfig maps loaded configuration onto service options.
func FromConfig(cfg *config.Config) ([]Option, error) {
	theme, err := cfg.Theme.RenderTheme()
	if err != nil {
		return nil, err
	}
	return []Option{
		WithDefaultTarget(cfg.Target, cfg.Caliber),
		WithDimension(cfg.Dimension),
		WithMaxDimension(cfg.MaxDimension),
		WithMeanGroup(cfg.DrawMeanGroup, cfg.MeanGroupConfigurable),
		WithTheme(theme),
		WithCacheSize(cfg.CacheSize),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithReportColumns(cfg.ReportColumns),
	}, nil
}
