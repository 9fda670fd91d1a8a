// Package target describes the geometry and drawing rules of physical
// shooting targets.
//
// A Profile is built once from a Layout table and never changes afterwards,
// so a single instance can be shared by any number of concurrent renders.
package target

import (
	"fmt"

	"github.com/okian/bullseye/internal/domain/model"
)

// Layout is the static table describing one target type. Ring diameters are
// listed outermost first, in millimetres.
type Layout struct {
	Name           string
	DefaultCaliber float64

	Size          float64
	Rings         []float64
	FirstRing     int
	BlackRings    int // rings numbered below this are drawn dark-on-light
	BlackDiameter float64
	SolidInner    bool
	RapidFire     bool

	TextCutoff   int // highest ring number that gets a label
	TextRotation int // degrees
	FontSize     func(gap float64) float64
	TextOffset   func(gap float64, ring int) float64

	ZoomMin     int
	ZoomMax     int
	ZoomDefault int

	PDFThreshold     int
	PDFReducedFactor float64
	PDFDefaultFactor float64
}

// Profile is a validated Layout bound to a projectile caliber.
type Profile struct {
	layout  Layout
	caliber float64
	rings   []float64
}

// New validates layout and binds it to caliber (mm).
func New(layout Layout, caliber float64) (*Profile, error) {
	if err := validate(layout, caliber); err != nil {
		return nil, err
	}
	p := &Profile{
		layout:  layout,
		caliber: caliber,
		rings:   append([]float64(nil), layout.Rings...),
	}
	p.layout.Rings = nil
	return p, nil
}

func validate(s Layout, caliber float64) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidProfile, s.Name, fmt.Sprintf(format, args...))
	}
	switch {
	case caliber <= 0:
		return fail("caliber must be > 0, got %v", caliber)
	case s.Size <= 0:
		return fail("size must be > 0, got %v", s.Size)
	case len(s.Rings) == 0:
		return fail("ring table is empty")
	case s.BlackDiameter <= 0:
		return fail("black diameter must be > 0")
	case s.FontSize == nil:
		return fail("font size function is required")
	case s.ZoomMin < 1 || s.ZoomMax < s.ZoomMin:
		return fail("zoom bounds [%d,%d] are invalid", s.ZoomMin, s.ZoomMax)
	case s.ZoomDefault < s.ZoomMin || s.ZoomDefault > s.ZoomMax:
		return fail("default zoom %d outside [%d,%d]", s.ZoomDefault, s.ZoomMin, s.ZoomMax)
	case s.PDFReducedFactor <= 0 || s.PDFDefaultFactor <= 0:
		return fail("pdf zoom factors must be > 0")
	case s.FirstRing < 1:
		return fail("first ring must be >= 1, got %d", s.FirstRing)
	}
	last := s.FirstRing + len(s.Rings) - 1
	if s.BlackRings < s.FirstRing || s.BlackRings > last {
		return fail("black ring cutoff %d outside rings %d..%d", s.BlackRings, s.FirstRing, last)
	}
	if s.TextCutoff < s.FirstRing || s.TextCutoff > last {
		return fail("text cutoff %d outside rings %d..%d", s.TextCutoff, s.FirstRing, last)
	}
	for i, d := range s.Rings {
		if d <= 0 {
			return fail("ring %d has non-positive diameter %v", i, d)
		}
		if i > 0 && d >= s.Rings[i-1] {
			return fail("ring diameters must strictly decrease (%v after %v)", d, s.Rings[i-1])
		}
	}
	return nil
}

func (p *Profile) Name() string { return p.layout.Name }

// Caliber returns the projectile diameter in mm.
func (p *Profile) Caliber() float64 { return p.caliber }

// Size returns the physical edge length of the target card in mm.
func (p *Profile) Size() float64 { return p.layout.Size }

// Rings returns a copy of the ring diameters, outermost first.
func (p *Profile) Rings() []float64 { return append([]float64(nil), p.rings...) }

// RingCount returns the number of rings in the table.
func (p *Profile) RingCount() int { return len(p.rings) }

// RingDiameter returns the diameter of the i-th ring (0 = outermost).
func (p *Profile) RingDiameter(i int) float64 { return p.rings[i] }

// OuterRing returns the diameter of the outermost scoring ring.
func (p *Profile) OuterRing() float64 { return p.rings[0] }

func (p *Profile) FirstRing() int         { return p.layout.FirstRing }
func (p *Profile) BlackRings() int        { return p.layout.BlackRings }
func (p *Profile) BlackDiameter() float64 { return p.layout.BlackDiameter }
func (p *Profile) SolidInner() bool       { return p.layout.SolidInner }
func (p *Profile) RapidFire() bool        { return p.layout.RapidFire }
func (p *Profile) TextCutoff() int        { return p.layout.TextCutoff }
func (p *Profile) TextRotation() int      { return p.layout.TextRotation }
func (p *Profile) ZoomMin() int           { return p.layout.ZoomMin }
func (p *Profile) ZoomMax() int           { return p.layout.ZoomMax }
func (p *Profile) ZoomDefault() int       { return p.layout.ZoomDefault }

// RingNumbers returns the score value of every ring, outermost first.
func (p *Profile) RingNumbers() []int {
	out := make([]int, len(p.rings))
	for i := range out {
		out[i] = p.layout.FirstRing + i
	}
	return out
}

// RadiusOf returns the caliber-adjusted scoring radius of ring number ring
// (edge of the hole touching the line counts).
func (p *Profile) RadiusOf(ring int) (float64, bool) {
	i := ring - p.layout.FirstRing
	if i < 0 || i >= len(p.rings) {
		return 0, false
	}
	return p.rings[i]/2 + p.caliber/2, true
}

// OuterRadius is the scoring radius of the outermost ring.
func (p *Profile) OuterRadius() float64 {
	return p.rings[0]/2 + p.caliber/2
}

// NineRadius is the scoring radius of the 9 ring, or 0 when the profile
// has no ring numbered 9.
func (p *Profile) NineRadius() float64 {
	r, _ := p.RadiusOf(9)
	return r
}

// InnerTenRadius is the scoring radius of the innermost ring.
func (p *Profile) InnerTenRadius() float64 {
	return p.rings[len(p.rings)-1]/2 + p.caliber/2
}

// ZoomFactor maps a zoom level to the fraction of the card that is visible.
// Levels below 1 are treated as 1.
func (p *Profile) ZoomFactor(level int) float64 {
	if level < 1 {
		level = 1
	}
	return 1 / float64(level)
}

// ValidZoom reports whether level lies within the profile's zoom bounds.
func (p *Profile) ValidZoom(level int) bool {
	return level >= p.layout.ZoomMin && level <= p.layout.ZoomMax
}

// FontSize returns the label size for a ring gap measured in pixels.
func (p *Profile) FontSize(gap float64) float64 { return p.layout.FontSize(gap) }

// TextOffset returns the extra radial label offset for ring.
func (p *Profile) TextOffset(gap float64, ring int) float64 {
	if p.layout.TextOffset == nil {
		return 0
	}
	return p.layout.TextOffset(gap, ring)
}

// DefaultPDFZoomFactor is the report zoom used when no shots are known.
func (p *Profile) DefaultPDFZoomFactor() float64 { return p.layout.PDFDefaultFactor }

// PDFZoomFactor zooms report images in when every shot landed at or above
// the profile threshold, which an empty list always satisfies. A nil list
// means no shots are known and gives the default factor.
func (p *Profile) PDFZoomFactor(shots []model.Shot) float64 {
	if shots == nil {
		return p.layout.PDFDefaultFactor
	}
	for _, s := range shots {
		if s.Score < p.layout.PDFThreshold {
			return 1
		}
	}
	return p.layout.PDFReducedFactor
}
