// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/bullseye/internal/app"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/target"
	"github.com/okian/bullseye/internal/render"
	"github.com/okian/bullseye/pkg/logger"
)

// maxBodyBytes bounds request bodies; a long shot list is a few KiB.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Render(ctx context.Context, in service.RenderInput) ([]byte, error)
	Report(ctx context.Context, in service.ReportInput) (*service.Report, error)
	PDFZoomFactor(ctx context.Context, name string, caliber float64, shots []model.Shot) (float64, error)
	Targets() []service.TargetInfo

	// DefaultDimension is used when a request omits "dimension".
	DefaultDimension() int
}

// Server wires HTTP routes for the render API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	renderHandler  *RenderHandler
	zoomHandler    *ZoomHandler
	targetsHandler *TargetsHandler
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	logger logger.Logger
}

// WithLogger sets the logger used for rejected and failed requests.
func WithLogger(l logger.Logger) ServerOption {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	cfg := serverConfig{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		renderHandler:  NewRenderHandler(deps, cfg.logger),
		zoomHandler:    NewZoomHandler(deps),
		targetsHandler: NewTargetsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(path, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(path, RequestIDMiddleware(MetricsMiddleware(h, endpoint)))
	}
	route("/healthz", "healthz", s.healthHandler.HandleHealth)
	route("/stats", "stats", s.statsHandler.HandleStats)
	route("/targets", "targets", s.targetsHandler.HandleGetTargets)
	route("/render", "render", s.renderHandler.HandleRender)
	route("/report", "report", s.renderHandler.HandleReport)
	route("/zoom/pdf", "zoom_pdf", s.zoomHandler.HandlePDFZoom)
}

// shotRequest mirrors the OpenAPI Shot schema. Coordinates are mm from the
// target centre, y up.
type shotRequest struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Index   int     `json:"index"`
	Score   int     `json:"score"`
	Decimal float64 `json:"decimal"`
	Miss    bool    `json:"miss"`
}

type sessionRequest struct {
	Type string  `json:"type"`
	XBar float64 `json:"xbar"`
	YBar float64 `json:"ybar"`
	RBar float64 `json:"rbar"`
}

// renderRequest mirrors the OpenAPI schema for POST /render and POST /report.
type renderRequest struct {
	Target       string         `json:"target"`
	Caliber      float64        `json:"caliber"`
	Dimension    *int           `json:"dimension"`
	Zoom         int            `json:"zoom"`
	Disconnected bool           `json:"disconnected"`
	Session      sessionRequest `json:"session"`
	Shots        []shotRequest  `json:"shots"`
	MeanGroup    *bool          `json:"mean_group"`
}

func (r renderRequest) validate() error {
	switch {
	case r.Caliber < 0:
		return errors.New("caliber must not be negative")
	case r.Dimension != nil && *r.Dimension < 0:
		return errors.New("dimension must not be negative")
	case r.Zoom < 0:
		return errors.New("zoom must not be negative")
	case r.Session.RBar < 0:
		return errors.New("session.rbar must not be negative")
	}
	for i, s := range r.Shots {
		if s.Index < 0 {
			return fmt.Errorf("shots[%d].index must not be negative", i)
		}
	}
	return nil
}

func (r renderRequest) session() (model.Session, error) {
	t, err := model.ParseSessionType(r.Session.Type)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{Type: t, XBar: r.Session.XBar, YBar: r.Session.YBar, RBar: r.Session.RBar}, nil
}

// toShots keeps nil for an absent list so the PDF policy sees "no shots".
func toShots(in []shotRequest) []model.Shot {
	if in == nil {
		return nil
	}
	out := make([]model.Shot, len(in))
	for i, s := range in {
		out[i] = model.Shot{X: s.X, Y: s.Y, Index: s.Index, Score: s.Score, DecimalScore: s.Decimal, Miss: s.Miss}
	}
	return out
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{ validate() error }) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return err
	}
	return v.validate()
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func writePNG(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// classify maps service errors onto a status and an error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, target.ErrUnknownTarget):
		return http.StatusNotFound, "unknown_target"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, target.ErrInvalidProfile),
		errors.Is(err, render.ErrInvalidZoom),
		errors.Is(err, render.ErrNegativeDimension),
		errors.Is(err, render.ErrDimensionTooLarge):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, method, op string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
	return false
}
