// Command render draws a scored target to a PNG file without the HTTP
// server. Without -in it renders a seeded sample group.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	service "github.com/okian/bullseye/internal/app"
	"github.com/okian/bullseye/internal/config"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/target"
	"github.com/okian/bullseye/internal/sample"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/urfave/cli/v2"
)

const (
	defaultShots  = 10
	defaultSpread = 25.0
	defaultOut    = "target.png"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newApp().RunContext(ctx, os.Args)
	stop()
	if err != nil {
		logger.Get().Error(context.Background(), "render failed", logger.Error(err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "render",
		Usage: "draw a scored shooting target as PNG",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Usage: "JSON render request; omitted renders a generated sample"},
			&cli.StringFlag{Name: "out", Value: defaultOut, Usage: "output PNG path"},
			&cli.StringFlag{Name: "target", Usage: "target profile (default from config)"},
			&cli.Float64Flag{Name: "caliber", Usage: "projectile diameter in mm, 0 for the profile default"},
			&cli.IntFlag{Name: "dimension", Usage: "image edge in pixels (default from config)"},
			&cli.IntFlag{Name: "zoom", Usage: "zoom level, 0 for the profile default"},
			&cli.IntFlag{Name: "shots", Value: defaultShots, Usage: "generated shots"},
			&cli.Float64Flag{Name: "spread", Value: defaultSpread, Usage: "generated group spread in mm"},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "generator seed"},
			&cli.BoolFlag{Name: "disconnected", Usage: "render in grayscale"},
			&cli.BoolFlag{Name: "practice", Usage: "mark the session as practice"},
			&cli.BoolFlag{Name: "report", Usage: "render a contact sheet with one frame per shot"},
		},
		Action: render,
	}
}

func render(c *cli.Context) error {
	ctx := c.Context
	log := logger.Named("render")

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel))
	}

	opts, err := service.FromConfig(cfg)
	if err != nil {
		return err
	}
	svc := service.New(append(opts, service.WithLogger(log))...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	in, err := input(c, cfg)
	if err != nil {
		return err
	}

	var png []byte
	if c.Bool("report") {
		rep, err := svc.Report(ctx, service.ReportInput{
			Target:       in.Target,
			Caliber:      in.Caliber,
			Dimension:    in.Dimension,
			Disconnected: in.Disconnected,
			Session:      in.Session,
			Shots:        in.Shots,
			MeanGroup:    in.MeanGroup,
		})
		if err != nil {
			return err
		}
		if rep != nil {
			png = rep.PNG
		}
	} else if png, err = svc.Render(ctx, in); err != nil {
		return err
	}

	if png == nil {
		log.Warn(ctx, "dimension is 0, nothing written")
		return nil
	}
	out := c.String("out")
	if err := os.WriteFile(out, png, 0o644); err != nil { //nolint:gosec // output is a public image
		return fmt.Errorf("write %s: %w", out, err)
	}
	log.Info(ctx, "image written",
		logger.String("path", out),
		logger.String("target", in.Target),
		logger.Int("shots", len(in.Shots)),
		logger.Int("bytes", len(png)),
	)
	return nil
}

// input reads -in or generates a sample group, then applies flag
// overrides.
func input(c *cli.Context, cfg *config.Config) (service.RenderInput, error) {
	in := service.RenderInput{Target: cfg.Target, Caliber: cfg.Caliber, Dimension: cfg.Dimension}

	if path := c.String("in"); path != "" {
		f, err := readRequest(path)
		if err != nil {
			return in, err
		}
		in = f.apply(in)
	}
	if c.IsSet("target") {
		in.Target, in.Caliber = c.String("target"), 0
	}
	if c.IsSet("caliber") {
		in.Caliber = c.Float64("caliber")
	}
	if c.IsSet("dimension") {
		in.Dimension = c.Int("dimension")
	}
	if c.IsSet("zoom") {
		in.Zoom = c.Int("zoom")
	}
	if c.IsSet("disconnected") {
		in.Disconnected = c.Bool("disconnected")
	}

	if c.String("in") == "" {
		p, err := target.Lookup(in.Target, in.Caliber)
		if err != nil {
			return in, err
		}
		g := sample.Generate(p, sample.Options{
			Shots:  c.Int("shots"),
			Spread: c.Float64("spread"),
			Seed:   c.Uint64("seed"),
		})
		in.Session, in.Shots = g.Session, g.Shots
	}
	if c.Bool("practice") {
		in.Session.Type = model.Practice
	}
	return in, nil
}

// requestFile is the JSON accepted by -in; it matches the POST /render body.
type requestFile struct {
	Target       string  `json:"target"`
	Caliber      float64 `json:"caliber"`
	Dimension    *int    `json:"dimension"`
	Zoom         int     `json:"zoom"`
	Disconnected bool    `json:"disconnected"`
	Session      struct {
		Type string  `json:"type"`
		XBar float64 `json:"xbar"`
		YBar float64 `json:"ybar"`
		RBar float64 `json:"rbar"`
	} `json:"session"`
	Shots []struct {
		X       float64 `json:"x"`
		Y       float64 `json:"y"`
		Index   int     `json:"index"`
		Score   int     `json:"score"`
		Decimal float64 `json:"decimal"`
		Miss    bool    `json:"miss"`
	} `json:"shots"`
	MeanGroup *bool `json:"mean_group"`

	sessionType model.SessionType
}

func readRequest(path string) (*requestFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f requestFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if f.sessionType, err = model.ParseSessionType(f.Session.Type); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &f, nil
}

func (f *requestFile) apply(in service.RenderInput) service.RenderInput {
	if f.Target != "" {
		in.Target, in.Caliber = f.Target, 0
	}
	if f.Caliber != 0 {
		in.Caliber = f.Caliber
	}
	if f.Dimension != nil {
		in.Dimension = *f.Dimension
	}
	in.Zoom = f.Zoom
	in.Disconnected = f.Disconnected
	in.MeanGroup = f.MeanGroup
	in.Session = model.Session{Type: f.sessionType, XBar: f.Session.XBar, YBar: f.Session.YBar, RBar: f.Session.RBar}
	if f.Shots != nil {
		in.Shots = make([]model.Shot, len(f.Shots))
		for i, s := range f.Shots {
			in.Shots[i] = model.Shot{X: s.X, Y: s.Y, Index: s.Index, Score: s.Score, DecimalScore: s.Decimal, Miss: s.Miss}
		}
	}
	return in
}
