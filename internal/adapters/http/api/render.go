package api

import (
	"context"
	"net/http"
	"strconv"

	service "github.com/okian/bullseye/internal/app"
	"github.com/okian/bullseye/pkg/logger"
)

// RenderDependencies defines what the render and report handlers need.
type RenderDependencies interface {
	Render(ctx context.Context, in service.RenderInput) ([]byte, error)
	Report(ctx context.Context, in service.ReportInput) (*service.Report, error)
	DefaultDimension() int
}

// RenderHandler handles image requests.
type RenderHandler struct {
	deps   RenderDependencies
	logger logger.Logger
}

// NewRenderHandler creates a new render handler.
func NewRenderHandler(deps RenderDependencies, l logger.Logger) *RenderHandler {
	return &RenderHandler{deps: deps, logger: l}
}

// HandleRender handles POST /render requests. A zero dimension answers
// 204 with no body.
func (h *RenderHandler) HandleRender(w http.ResponseWriter, r *http.Request) {
	const op = "api.render"
	if !allowMethod(w, r, http.MethodPost, op) {
		return
	}
	var req renderRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.reject(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	session, err := req.session()
	if err != nil {
		h.reject(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}

	b, err := h.deps.Render(r.Context(), service.RenderInput{
		Target:       req.Target,
		Caliber:      req.Caliber,
		Dimension:    h.dimension(req),
		Zoom:         req.Zoom,
		Disconnected: req.Disconnected,
		Session:      session,
		Shots:        toShots(req.Shots),
		MeanGroup:    req.MeanGroup,
	})
	if err != nil {
		h.reject(w, r, op, err)
		return
	}
	if b == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writePNG(w, b)
}

// HandleReport handles POST /report requests: a contact sheet with one
// frame per shot.
func (h *RenderHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.report"
	if !allowMethod(w, r, http.MethodPost, op) {
		return
	}
	var req renderRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.reject(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	session, err := req.session()
	if err != nil {
		h.reject(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}

	rep, err := h.deps.Report(r.Context(), service.ReportInput{
		Target:       req.Target,
		Caliber:      req.Caliber,
		Dimension:    h.dimension(req),
		Disconnected: req.Disconnected,
		Session:      session,
		Shots:        toShots(req.Shots),
		MeanGroup:    req.MeanGroup,
	})
	if err != nil {
		h.reject(w, r, op, err)
		return
	}
	if rep == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("X-Report-ID", rep.ID)
	w.Header().Set("X-Report-Frames", strconv.Itoa(rep.Frames))
	w.Header().Set("X-Report-Zoom-Factor", strconv.FormatFloat(rep.ZoomFactor, 'g', -1, 64))
	writePNG(w, rep.PNG)
}

func (h *RenderHandler) dimension(req renderRequest) int {
	if req.Dimension == nil {
		return h.deps.DefaultDimension()
	}
	return *req.Dimension
}

func (h *RenderHandler) reject(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classify(err)
	fields := []logger.Field{
		logger.String("op", op),
		logger.String("request_id", RequestID(r.Context())),
		logger.Int("status", status),
		logger.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", fields...)
	} else {
		h.logger.Warn(r.Context(), "request rejected", fields...)
	}
	writeError(w, status, code, err)
}
