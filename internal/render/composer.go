// Package render turns a target profile and a list of scored shots into a
// raster image.
//
// A Composer is safe for concurrent use; every call to Render gets its own
// canvas and releases it before returning.
package render

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/okian/bullseye/internal/domain/geometry"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/target"
	"github.com/okian/bullseye/pkg/logger"
)

// DefaultMaxDimension bounds the output size unless overridden.
const DefaultMaxDimension = 4096

// Request is one paint call.
type Request struct {
	Dimension    int
	Zoom         int
	ZoomFactor   float64 // > 0 bypasses the zoom level, used for report frames
	Disconnected bool
	Session      model.Session
	Shots        []model.Shot
	MeanGroup    *bool // nil uses the composer default
}

// Composer runs the ring pass, the shot pass and post-processing for one
// profile.
type Composer struct {
	profile       *target.Profile
	theme         Theme
	fonts         *Fonts
	ownFonts      bool
	drawMeanGroup bool
	maxDimension  int
	logger        logger.Logger

	rings *RingRenderer
	shots *ShotRenderer
}

// NewComposer builds a composer for p. Fonts are loaded unless WithFonts
// supplies them.
func NewComposer(p *target.Profile, opts ...Option) (*Composer, error) {
	if p == nil {
		return nil, fmt.Errorf("render: nil profile")
	}
	c := &Composer{
		profile:       p,
		theme:         DefaultTheme(),
		drawMeanGroup: true,
		maxDimension:  DefaultMaxDimension,
		logger:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fonts == nil {
		f, err := LoadFonts()
		if err != nil {
			return nil, err
		}
		c.fonts, c.ownFonts = f, true
	}
	c.rings = NewRingRenderer(p, c.theme)
	c.shots = NewShotRenderer(p, c.theme)
	return c, nil
}

// Profile returns the profile the composer draws.
func (c *Composer) Profile() *target.Profile { return c.profile }

// Render paints one frame. A zero dimension returns a nil image and no
// error.
func (c *Composer) Render(ctx context.Context, req Request) (*image.RGBA, error) {
	switch {
	case req.Dimension == 0:
		return nil, nil
	case req.Dimension < 0:
		return nil, fmt.Errorf("%w: %d", ErrNegativeDimension, req.Dimension)
	case req.Dimension > c.maxDimension:
		return nil, fmt.Errorf("%w: %d > %d", ErrDimensionTooLarge, req.Dimension, c.maxDimension)
	}

	factor := req.ZoomFactor
	if factor <= 0 {
		if !c.profile.ValidZoom(req.Zoom) {
			return nil, fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidZoom, req.Zoom, c.profile.ZoomMin(), c.profile.ZoomMax())
		}
		factor = c.profile.ZoomFactor(req.Zoom)
	}
	tf, err := geometry.NewTransform(req.Dimension, c.profile.Size(), factor)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	cv := newCanvas(req.Dimension, c.fonts)
	defer cv.close()

	if err := c.rings.Draw(cv, c.rings.Layout(tf, req.Session)); err != nil {
		return nil, fmt.Errorf("draw rings: %w", err)
	}
	marks := c.shots.Plan(tf, req.Shots)
	if err := c.shots.Draw(cv, marks); err != nil {
		return nil, fmt.Errorf("draw shots: %w", err)
	}
	drawMean := c.drawMeanGroup
	if req.MeanGroup != nil {
		drawMean = *req.MeanGroup
	}
	if drawMean {
		if g, ok := c.shots.Mean(tf, req.Session, req.Shots); ok {
			if err := c.shots.DrawMean(cv, g); err != nil {
				return nil, fmt.Errorf("draw mean group: %w", err)
			}
		}
	}

	img, err := cv.finish()
	if err != nil {
		return nil, err
	}
	if req.Disconnected {
		Grayscale(img)
	}

	c.logger.Debug(ctx, "target rendered",
		logger.String("target", c.profile.Name()),
		logger.Int("dimension", req.Dimension),
		logger.Float64("zoom_factor", factor),
		logger.Int("shots_drawn", len(marks)),
		logger.Bool("grayscale", req.Disconnected),
		logger.Duration("took", time.Since(start)),
	)
	return img, nil
}

// Close releases fonts owned by the composer.
func (c *Composer) Close() error {
	if c.ownFonts {
		return c.fonts.Close()
	}
	return nil
}
