package render

import (
	"strconv"

	"github.com/gogpu/gg"
	"github.com/okian/bullseye/internal/domain/geometry"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/target"
)

// Tier is the colour class of a drawn shot.
type Tier int

const (
	TierOld Tier = iota
	TierTen
	TierNine
	TierDefault
)

func (t Tier) String() string {
	switch t {
	case TierOld:
		return "old"
	case TierTen:
		return "ten"
	case TierNine:
		return "nine"
	case TierDefault:
		return "default"
	}
	return "Tier(" + strconv.Itoa(int(t)) + ")"
}

// TierFor classifies a decimal score.
func TierFor(decimal float64) Tier {
	switch {
	case decimal > 9.9:
		return TierTen
	case decimal > 8.9:
		return TierNine
	default:
		return TierDefault
	}
}

// labelNudgeX and labelNudgeY shift the sequence number so it looks centred
// in the disc.
const (
	labelNudgeX = 0.2
	labelNudgeY = 1.0
)

// ShotMark is one shot disc in pixel space.
type ShotMark struct {
	Index    int // position in the input list
	X, Y     float64
	Diameter float64
	Tier     Tier
	Fill     gg.RGBA
	Pen      gg.RGBA
	Label    string
	FontSize float64
}

// MeanGroup is the group centroid overlay in pixel space.
type MeanGroup struct {
	X, Y     float64
	Diameter float64
	Cross    float64
	Width    float64
	Color    gg.RGBA
}

// meanGroupCross is the crosshair arm length in pixels at every zoom.
const meanGroupCross = 5.0

// ShotRenderer draws shot discs and the mean-group overlay.
type ShotRenderer struct {
	profile *target.Profile
	theme   Theme
}

// NewShotRenderer binds a profile to a theme.
func NewShotRenderer(p *target.Profile, theme Theme) *ShotRenderer {
	return &ShotRenderer{profile: p, theme: theme}
}

// Plan maps shots to discs in input order. Misses produce no mark. Only
// the shot at the last list position gets tier colouring.
func (r *ShotRenderer) Plan(tf geometry.Transform, shots []model.Shot) []ShotMark {
	diameter := tf.Length(r.profile.Caliber())
	marks := make([]ShotMark, 0, len(shots))
	for i, s := range shots {
		if s.Miss {
			continue
		}
		x, y := tf.ToPixel(s.X, s.Y)
		tier := TierOld
		if i == len(shots)-1 {
			tier = TierFor(s.DecimalScore)
		}
		fill, pen := r.colors(tier)
		marks = append(marks, ShotMark{
			Index:    i,
			X:        x,
			Y:        y,
			Diameter: diameter,
			Tier:     tier,
			Fill:     fill,
			Pen:      pen,
			Label:    strconv.Itoa(s.Index + 1),
			FontSize: diameter / 3 * pointsToPixels,
		})
	}
	return marks
}

func (r *ShotRenderer) colors(t Tier) (fill, pen gg.RGBA) {
	switch t {
	case TierTen:
		return r.theme.Score10Background, r.theme.Score10Pen
	case TierNine:
		return r.theme.Score9Background, r.theme.Score9Pen
	case TierDefault:
		return r.theme.ScoreDefaultBackground, r.theme.ScoreDefaultPen
	}
	return withAlpha(r.theme.ScoreOldBackground, oldShotAlpha), r.theme.ScoreOldPen
}

// Mean returns the centroid overlay, or false when fewer than two shots
// are listed.
func (r *ShotRenderer) Mean(tf geometry.Transform, session model.Session, shots []model.Shot) (MeanGroup, bool) {
	if len(shots) < 2 {
		return MeanGroup{}, false
	}
	x, y := tf.ToPixel(session.XBar, session.YBar)
	return MeanGroup{
		X:        x,
		Y:        y,
		Diameter: tf.Length(session.RBar * 2),
		Cross:    meanGroupCross,
		Width:    2,
		Color:    r.theme.MeanGroup,
	}, true
}

// Draw paints marks in order, so later shots cover earlier ones.
func (r *ShotRenderer) Draw(c *canvas, marks []ShotMark) error {
	for _, m := range marks {
		if err := c.fillCircle(m.X, m.Y, m.Diameter, m.Fill); err != nil {
			return err
		}
		if err := c.strokeCircle(m.X, m.Y, m.Diameter, 1, m.Pen); err != nil {
			return err
		}
		if m.FontSize >= minLabelPixels {
			c.text(m.Label, m.X+labelNudgeX, m.Y+labelNudgeY, m.FontSize, 0, m.Pen)
		}
	}
	return nil
}

// DrawMean paints the centroid circle and crosshair.
func (r *ShotRenderer) DrawMean(c *canvas, g MeanGroup) error {
	if err := c.strokeCircle(g.X, g.Y, g.Diameter, g.Width, g.Color); err != nil {
		return err
	}
	if err := c.line(g.X-g.Cross, g.Y, g.X+g.Cross, g.Y, g.Width, g.Color); err != nil {
		return err
	}
	return c.line(g.X, g.Y-g.Cross, g.X, g.Y+g.Cross, g.Width, g.Color)
}
