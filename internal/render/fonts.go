package render

import (
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// pointsToPixels converts typographic points to pixels at 96 dpi; label
// sizes are expressed in points.
const pointsToPixels = 96.0 / 72.0

// Fonts owns the label font and hands out faces per size. Safe for
// concurrent use.
type Fonts struct {
	mu     sync.Mutex
	source *text.FontSource
	faces  map[int64]text.Face
	closed bool
}

// LoadFonts parses the embedded Go Regular font.
func LoadFonts() (*Fonts, error) {
	src, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load label font: %w", err)
	}
	return &Fonts{source: src, faces: make(map[int64]text.Face)}, nil
}

// Face returns a face of the given pixel size, or nil after Close.
// Sizes are bucketed to 1/16 px.
func (f *Fonts) Face(px float64) text.Face {
	key := int64(math.Round(px * 16))
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	if face, ok := f.faces[key]; ok {
		return face
	}
	face := f.source.Face(float64(key) / 16)
	f.faces[key] = face
	return face
}

// Close releases the font source. Faces become invalid.
func (f *Fonts) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.faces = nil
	return f.source.Close()
}
