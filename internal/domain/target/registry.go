package target

import (
	"fmt"
	"sort"
)

// Built-in target names.
const (
	Pistol25mRF  = "pistol_25m_rf"
	AirPistol10m = "air_pistol_10m"
	AirRifle10m  = "air_rifle_10m"
)

// DefaultName is the profile used when a request names none.
const DefaultName = Pistol25mRF

var builtins = map[string]Layout{
	Pistol25mRF: {
		Name:           Pistol25mRF,
		DefaultCaliber: 5.6,
		Size:           550,
		Rings:          []float64{500, 420, 340, 260, 180, 100, 50},
		FirstRing:      5,
		BlackRings:     5,
		BlackDiameter:  500,
		RapidFire:      true,
		TextCutoff:     9,
		FontSize:       func(gap float64) float64 { return gap / 18 },
		ZoomMin:        1,
		ZoomMax:        5,
		ZoomDefault:    1,

		PDFThreshold:     6,
		PDFReducedFactor: 0.5,
		PDFDefaultFactor: 1,
	},
	AirPistol10m: {
		Name:           AirPistol10m,
		DefaultCaliber: 4.5,
		Size:           170,
		Rings:          []float64{155.5, 139.5, 123.5, 107.5, 91.5, 75.5, 59.5, 43.5, 27.5, 11.5, 5},
		FirstRing:      1,
		BlackRings:     7,
		BlackDiameter:  59.5,
		TextCutoff:     8,
		FontSize:       func(gap float64) float64 { return gap / 3 },
		ZoomMin:        1,
		ZoomMax:        5,
		ZoomDefault:    1,

		PDFThreshold:     7,
		PDFReducedFactor: 0.5,
		PDFDefaultFactor: 1,
	},
	AirRifle10m: {
		Name:           AirRifle10m,
		DefaultCaliber: 4.5,
		Size:           80,
		Rings:          []float64{45.5, 40.5, 35.5, 30.5, 25.5, 20.5, 15.5, 10.5, 5.5, 0.5},
		FirstRing:      1,
		BlackRings:     4,
		BlackDiameter:  30.5,
		SolidInner:     true,
		TextCutoff:     8,
		TextRotation:   45,
		FontSize:       func(gap float64) float64 { return gap / 2 },
		TextOffset:     rifleTextOffset,
		ZoomMin:        1,
		ZoomMax:        5,
		ZoomDefault:    1,

		PDFThreshold:     8,
		PDFReducedFactor: 0.5,
		PDFDefaultFactor: 1,
	},
}

// rifleTextOffset pulls the 8 label outwards; that band is narrow next to
// the ten dot.
func rifleTextOffset(gap float64, ring int) float64 {
	if ring == 8 {
		return gap / 8
	}
	return 0
}

// Names lists the built-in target names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup builds the named profile. A caliber of 0 selects the profile's
// default projectile.
func Lookup(name string, caliber float64) (*Profile, error) {
	if name == "" {
		name = DefaultName
	}
	layout, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}
	if caliber == 0 {
		caliber = layout.DefaultCaliber
	}
	return New(layout, caliber)
}

// DefaultCaliber returns the default projectile of the named target.
func DefaultCaliber(name string) (float64, error) {
	if name == "" {
		name = DefaultName
	}
	layout, ok := builtins[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}
	return layout.DefaultCaliber, nil
}
