package render

import "github.com/okian/bullseye/pkg/logger"

// Option configures a Composer.
type Option func(*Composer)

// WithTheme sets the colour palette.
func WithTheme(t Theme) Option {
	return func(c *Composer) {
		c.theme = t
	}
}

// WithFonts shares an already loaded font set. The composer does not
// close shared fonts.
func WithFonts(f *Fonts) Option {
	return func(c *Composer) {
		if f != nil {
			c.fonts = f
		}
	}
}

// WithMeanGroup sets the default for drawing the group-mean overlay.
func WithMeanGroup(enabled bool) Option {
	return func(c *Composer) {
		c.drawMeanGroup = enabled
	}
}

// WithMaxDimension caps the output edge length.
func WithMaxDimension(px int) Option {
	return func(c *Composer) {
		if px > 0 {
			c.maxDimension = px
		}
	}
}

// WithLogger sets the logger used for per-render debug lines.
func WithLogger(l logger.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}
