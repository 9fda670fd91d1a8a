package render

import (
	"image"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// canvas is the per-render drawing surface. img shares its pixel buffer
// with the gg pixmap so label tiles can be composited in place.
type canvas struct {
	dc    *gg.Context
	pm    *gg.Pixmap
	img   *image.RGBA
	fonts *Fonts
}

func newCanvas(dimension int, fonts *Fonts) *canvas {
	pm := gg.NewPixmap(dimension, dimension)
	return &canvas{
		dc: gg.NewContext(dimension, dimension, gg.WithPixmap(pm)),
		pm: pm,
		img: &image.RGBA{
			Pix:    pm.Data(),
			Stride: dimension * 4,
			Rect:   image.Rect(0, 0, dimension, dimension),
		},
		fonts: fonts,
	}
}

// finish flushes pending work and hands the raster to the caller. The
// canvas must not be used afterwards.
func (c *canvas) finish() (*image.RGBA, error) {
	if err := c.dc.FlushGPU(); err != nil {
		return nil, err
	}
	return c.img, nil
}

func (c *canvas) close() {
	_ = c.dc.Close()
}

func (c *canvas) clear(col gg.RGBA) {
	c.dc.ClearWithColor(col)
}

func (c *canvas) fillCircle(cx, cy, diameter float64, col gg.RGBA) error {
	c.dc.DrawCircle(cx, cy, diameter/2)
	c.dc.SetColor(col.Color())
	return c.dc.Fill()
}

func (c *canvas) strokeCircle(cx, cy, diameter, width float64, col gg.RGBA) error {
	c.dc.DrawCircle(cx, cy, diameter/2)
	c.dc.SetColor(col.Color())
	c.dc.SetLineWidth(width)
	return c.dc.Stroke()
}

func (c *canvas) fillRect(r Rect, col gg.RGBA) error {
	c.dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	c.dc.SetColor(col.Color())
	return c.dc.Fill()
}

func (c *canvas) strokeRect(r Rect, width float64, col gg.RGBA) error {
	c.dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	c.dc.SetColor(col.Color())
	c.dc.SetLineWidth(width)
	return c.dc.Stroke()
}

func (c *canvas) fillPolygon(pts []gg.Point, col gg.RGBA) error {
	if len(pts) < 3 {
		return nil
	}
	c.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	c.dc.ClosePath()
	c.dc.SetColor(col.Color())
	return c.dc.Fill()
}

func (c *canvas) line(x1, y1, x2, y2, width float64, col gg.RGBA) error {
	c.dc.DrawLine(x1, y1, x2, y2)
	c.dc.SetColor(col.Color())
	c.dc.SetLineWidth(width)
	return c.dc.Stroke()
}

// text draws s centred on (x, y), rotated clockwise by angle degrees.
func (c *canvas) text(s string, x, y, px, angle float64, col gg.RGBA) {
	face := c.fonts.Face(px)
	if face == nil || s == "" {
		return
	}
	m := face.Metrics()
	w := face.Advance(s)
	// digits sit between the baseline and the cap height
	lift := m.CapHeight / 2
	if lift <= 0 {
		lift = m.Ascent * 0.35
	}

	if math.Mod(angle, 360) == 0 {
		c.dc.SetFont(face)
		c.dc.SetColor(col.Color())
		c.dc.DrawString(s, x-w/2, y+lift)
		return
	}

	// gg draws glyphs without the context matrix, so rotated labels are
	// rendered upright into a tile and warped onto the canvas.
	const pad = 1
	tw := int(math.Ceil(w)) + 2*pad
	th := int(math.Ceil(m.Ascent+m.Descent)) + 2*pad
	tile := image.NewRGBA(image.Rect(0, 0, tw, th))
	baseline := pad + m.Ascent
	text.Draw(tile, s, face, pad, baseline, col.Color())

	tcx, tcy := pad+w/2, baseline-lift
	mat := gg.Translate(x, y).
		Multiply(gg.Rotate(angle * math.Pi / 180)).
		Multiply(gg.Translate(-tcx, -tcy))
	s2d := f64.Aff3{mat.A, mat.B, mat.C, mat.D, mat.E, mat.F}
	xdraw.BiLinear.Transform(c.img, s2d, tile, tile.Bounds(), xdraw.Over, nil)
}

// Rect is an axis-aligned rectangle in pixels.
type Rect struct {
	X, Y, W, H float64
}
