package render

import (
	"fmt"
	"strings"

	"github.com/gogpu/gg"
)

// Theme holds the colours injected by the host application.
type Theme struct {
	Target                 gg.RGBA
	Score10Pen             gg.RGBA
	Score10Background      gg.RGBA
	Score9Pen              gg.RGBA
	Score9Background       gg.RGBA
	ScoreDefaultPen        gg.RGBA
	ScoreDefaultBackground gg.RGBA
	ScoreOldPen            gg.RGBA
	ScoreOldBackground     gg.RGBA
	MeanGroup              gg.RGBA
	PracticeMarker         gg.RGBA
}

// oldShotAlpha is the opacity of every shot except the current one.
const oldShotAlpha = 200.0 / 255.0

// DefaultTheme returns the stock palette.
func DefaultTheme() Theme {
	return Theme{
		Target:                 gg.Hex("#FFFFFF"),
		Score10Pen:             gg.Hex("#000000"),
		Score10Background:      gg.Hex("#FFD700"),
		Score9Pen:              gg.Hex("#000000"),
		Score9Background:       gg.Hex("#32CD32"),
		ScoreDefaultPen:        gg.Hex("#FFFFFF"),
		ScoreDefaultBackground: gg.Hex("#1E90FF"),
		ScoreOldPen:            gg.Hex("#000000"),
		ScoreOldBackground:     gg.Hex("#D3D3D3"),
		MeanGroup:              gg.Hex("#FF0000"),
		PracticeMarker:         gg.Hex("#00008B"),
	}
}

// ParseColor parses #RGB, #RRGGBB or #RRGGBBAA. gg.Hex maps malformed
// input to black, so the digits are checked first.
func ParseColor(s string) (gg.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3, 6, 8:
	default:
		return gg.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	for _, r := range h {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return gg.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
	}
	return gg.Hex(h), nil
}

// withAlpha returns c with its alpha replaced.
func withAlpha(c gg.RGBA, a float64) gg.RGBA {
	c.A = a
	return c
}
