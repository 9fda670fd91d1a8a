package render

import (
	"math"
	"strconv"

	"github.com/gogpu/gg"
	"github.com/okian/bullseye/internal/domain/geometry"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/target"
)

// minLabelPixels is the smallest label that is still drawn.
const minLabelPixels = 1.0

// Ring is one scoring circle in pixel space.
type Ring struct {
	Number   int
	Diameter float64
	Solid    bool
	Pen      gg.RGBA
}

// Label is a ring number placed at its final pixel position.
type Label struct {
	Text  string
	X, Y  float64
	Angle float64 // clockwise degrees
	Size  float64 // pixels
	Ink   gg.RGBA
}

// RingLayout is everything the ring pass draws, computed without touching
// a canvas.
type RingLayout struct {
	Center        float64
	BlackDiameter float64
	Rings         []Ring
	Labels        []Label
	Bars          []Rect
	Practice      []gg.Point // corner triangle, empty outside practice
	Border        Rect
}

// RingRenderer draws the target face: black disc, rings, labels and
// decorations.
type RingRenderer struct {
	profile *target.Profile
	theme   Theme
}

// NewRingRenderer binds a profile to a theme.
func NewRingRenderer(p *target.Profile, theme Theme) *RingRenderer {
	return &RingRenderer{profile: p, theme: theme}
}

// Layout computes ring geometry, label placement and overlays for one
// render.
func (r *RingRenderer) Layout(tf geometry.Transform, session model.Session) RingLayout {
	p := r.profile
	dim := float64(tf.Dimension())
	center := tf.Center()
	out := RingLayout{
		Center:        center,
		BlackDiameter: tf.Length(p.BlackDiameter()),
		Border:        Rect{X: 0.5, Y: 0.5, W: dim - 1, H: dim - 1},
	}

	rings := p.Rings()
	number := p.FirstRing()
	for i, mm := range rings {
		circle := tf.Length(mm)
		pen := r.theme.Target
		if number < p.BlackRings() {
			pen = gg.Black
		}
		out.Rings = append(out.Rings, Ring{
			Number:   number,
			Diameter: circle,
			Solid:    p.SolidInner() && i == len(rings)-1,
			Pen:      pen,
		})

		if number <= p.TextCutoff() {
			// past the innermost ring the gap runs to the centre
			next := 0.0
			if i+1 < len(rings) {
				next = tf.Length(rings[i+1])
			}
			out.Labels = append(out.Labels, r.labels(center, number, circle, circle-next, pen)...)
		}
		number++
	}

	if session.Type == model.Practice {
		sixth := dim / 6
		out.Practice = []gg.Point{gg.Pt(5*sixth, 0), gg.Pt(dim, sixth), gg.Pt(dim, 0)}
	}

	if p.RapidFire() {
		h := tf.Length(5)
		w := tf.Length(125)
		y := center - h/2
		half := tf.Length(p.OuterRing() / 2)
		out.Bars = []Rect{
			{X: center - half, Y: y, W: w, H: h},
			{X: center + half - w, Y: y, W: w, H: h},
		}
	}
	return out
}

// labels places the number of one ring. The top and bottom labels are
// always drawn; side labels only on non rapid-fire targets.
func (r *RingRenderer) labels(center float64, number int, circle, gap float64, ink gg.RGBA) []Label {
	p := r.profile
	size := p.FontSize(gap) * pointsToPixels
	if size < minLabelPixels {
		return nil
	}
	d := circle/2 - gap/4 + p.TextOffset(gap, number)
	theta := float64(p.TextRotation())
	rot := gg.Translate(center, center).Multiply(gg.Rotate(theta * math.Pi / 180))

	type slot struct {
		dx, dy float64
		turn   float64
	}
	slots := []slot{{0, -d, 0}, {0, d, 180}}
	if !p.RapidFire() {
		slots = append(slots, slot{d, 0, 90}, slot{-d, 0, 270})
	}

	txt := strconv.Itoa(number)
	out := make([]Label, 0, len(slots))
	for _, s := range slots {
		pt := rot.TransformPoint(gg.Pt(s.dx, s.dy))
		angle := theta
		if theta > 0 {
			angle += s.turn
		}
		out = append(out, Label{Text: txt, X: pt.X, Y: pt.Y, Angle: angle, Size: size, Ink: ink})
	}
	return out
}

// Draw paints a layout onto c.
func (r *RingRenderer) Draw(c *canvas, l RingLayout) error {
	c.clear(r.theme.Target)
	if err := c.fillCircle(l.Center, l.Center, l.BlackDiameter, gg.Black); err != nil {
		return err
	}
	for _, ring := range l.Rings {
		var err error
		if ring.Solid {
			err = c.fillCircle(l.Center, l.Center, ring.Diameter, r.theme.Target)
		} else {
			err = c.strokeCircle(l.Center, l.Center, ring.Diameter, 1, ring.Pen)
		}
		if err != nil {
			return err
		}
	}
	for _, lb := range l.Labels {
		c.text(lb.Text, lb.X, lb.Y, lb.Size, lb.Angle, lb.Ink)
	}
	if err := c.fillPolygon(l.Practice, r.theme.PracticeMarker); err != nil {
		return err
	}
	for _, bar := range l.Bars {
		if err := c.fillRect(bar, r.theme.Target); err != nil {
			return err
		}
	}
	return c.strokeRect(l.Border, 1, gg.Black)
}
