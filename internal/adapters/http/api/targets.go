package api

import (
	"net/http"

	service "github.com/okian/bullseye/internal/app"
)

// TargetsDependencies lists the available profiles.
type TargetsDependencies interface {
	Targets() []service.TargetInfo
}

// TargetsHandler handles target catalogue requests.
type TargetsHandler struct {
	deps TargetsDependencies
}

// NewTargetsHandler creates a new targets handler.
func NewTargetsHandler(deps TargetsDependencies) *TargetsHandler {
	return &TargetsHandler{deps: deps}
}

// HandleGetTargets handles GET /targets requests.
func (h *TargetsHandler) HandleGetTargets(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet, "api.targets") {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Targets())
}
