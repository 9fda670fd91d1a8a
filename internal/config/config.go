// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() builds a Config holding the defaults.
//   - Load layers a YAML file and BULLSEYE_* env vars over the defaults.
//   - Load failures wrap ErrLoadConfig, validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"

	"github.com/gogpu/gg"
	"github.com/okian/bullseye/internal/domain/target"
	"github.com/okian/bullseye/internal/render"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Target names the profile used when a request omits one.
	Target string `koanf:"target"`

	// Caliber is the projectile diameter in mm; 0 selects the profile default.
	Caliber float64 `koanf:"caliber"`

	// Dimension is the default square image side in pixels.
	Dimension int `koanf:"dimension"`

	// MaxDimension caps requested image sizes.
	MaxDimension int `koanf:"max_dimension"`

	// DrawMeanGroup toggles the mean-group overlay.
	DrawMeanGroup bool `koanf:"draw_mean_group"`

	// MeanGroupConfigurable lets a request override DrawMeanGroup.
	MeanGroupConfigurable bool `koanf:"mean_group_configurable"`

	// CacheSize bounds the rendered PNG cache; 0 disables it.
	CacheSize int `koanf:"cache_size"`

	// WorkerCount sets the number of report frame workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the report frame queue.
	QueueSize int `koanf:"queue_size"`

	// ReportColumns is the number of frames per contact-sheet row.
	ReportColumns int `koanf:"report_columns"`

	Theme Theme `koanf:"theme"`
}

// Theme holds hex colours: #RGB, #RRGGBB or #RRGGBBAA.
type Theme struct {
	TargetColor                 string `koanf:"target_color"`
	Score10PenColor             string `koanf:"score10_pen_color"`
	Score10BackgroundColor      string `koanf:"score10_background_color"`
	Score9PenColor              string `koanf:"score9_pen_color"`
	Score9BackgroundColor       string `koanf:"score9_background_color"`
	ScoreDefaultPenColor        string `koanf:"score_default_pen_color"`
	ScoreDefaultBackgroundColor string `koanf:"score_default_background_color"`
	ScoreOldPenColor            string `koanf:"score_old_pen_color"`
	ScoreOldBackgroundColor     string `koanf:"score_old_background_color"`
	MeanGroupColor              string `koanf:"mean_group_color"`
	PracticeMarkerColor         string `koanf:"practice_marker_color"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		Target:                target.DefaultName,
		Dimension:             550,
		MaxDimension:          render.DefaultMaxDimension,
		DrawMeanGroup:         true,
		MeanGroupConfigurable: true,
		CacheSize:             256,
		WorkerCount:           runtime.NumCPU(),
		QueueSize:             1024,
		ReportColumns:         5,
		Theme: Theme{
			TargetColor:                 "#FFFFFF",
			Score10PenColor:             "#000000",
			Score10BackgroundColor:      "#FFD700",
			Score9PenColor:              "#000000",
			Score9BackgroundColor:       "#32CD32",
			ScoreDefaultPenColor:        "#FFFFFF",
			ScoreDefaultBackgroundColor: "#1E90FF",
			ScoreOldPenColor:            "#000000",
			ScoreOldBackgroundColor:     "#D3D3D3",
			MeanGroupColor:              "#FF0000",
			PracticeMarkerColor:         "#00008B",
		},
	}
}

// RenderTheme parses the configured colours.
func (t Theme) RenderTheme() (render.Theme, error) {
	var out render.Theme
	for _, c := range []struct {
		key string
		val string
		dst *gg.RGBA
	}{
		{"target_color", t.TargetColor, &out.Target},
		{"score10_pen_color", t.Score10PenColor, &out.Score10Pen},
		{"score10_background_color", t.Score10BackgroundColor, &out.Score10Background},
		{"score9_pen_color", t.Score9PenColor, &out.Score9Pen},
		{"score9_background_color", t.Score9BackgroundColor, &out.Score9Background},
		{"score_default_pen_color", t.ScoreDefaultPenColor, &out.ScoreDefaultPen},
		{"score_default_background_color", t.ScoreDefaultBackgroundColor, &out.ScoreDefaultBackground},
		{"score_old_pen_color", t.ScoreOldPenColor, &out.ScoreOldPen},
		{"score_old_background_color", t.ScoreOldBackgroundColor, &out.ScoreOldBackground},
		{"mean_group_color", t.MeanGroupColor, &out.MeanGroup},
		{"practice_marker_color", t.PracticeMarkerColor, &out.PracticeMarker},
	} {
		col, err := render.ParseColor(c.val)
		if err != nil {
			return render.Theme{}, fmt.Errorf("theme.%s: %w", c.key, err)
		}
		*c.dst = col
	}
	return out, nil
}
