package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/bullseye/internal/domain/model"
)

// ZoomDependencies defines the interface for the report zoom policy.
type ZoomDependencies interface {
	PDFZoomFactor(ctx context.Context, name string, caliber float64, shots []model.Shot) (float64, error)
}

// ZoomHandler handles zoom policy requests.
type ZoomHandler struct {
	deps ZoomDependencies
}

// NewZoomHandler creates a new zoom handler.
func NewZoomHandler(deps ZoomDependencies) *ZoomHandler {
	return &ZoomHandler{deps: deps}
}

type zoomRequest struct {
	Target  string        `json:"target"`
	Caliber float64       `json:"caliber"`
	Shots   []shotRequest `json:"shots"`
}

func (z zoomRequest) validate() error {
	if z.Caliber < 0 {
		return errors.New("caliber must not be negative")
	}
	return nil
}

type zoomResponse struct {
	Factor float64 `json:"factor"`
}

// HandlePDFZoom handles POST /zoom/pdf requests.
func (h *ZoomHandler) HandlePDFZoom(w http.ResponseWriter, r *http.Request) {
	const op = "api.zoom_pdf"
	if !allowMethod(w, r, http.MethodPost, op) {
		return
	}
	var req zoomRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	factor, err := h.deps.PDFZoomFactor(r.Context(), req.Target, req.Caliber, toShots(req.Shots))
	if err != nil {
		status, code := classify(err)
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, zoomResponse{Factor: factor})
}
