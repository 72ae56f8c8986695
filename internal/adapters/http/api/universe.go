package api

import (
	"context"
	"net/http"

	"github.com/okian/diamond/internal/domain/model"
)

// UniverseDependencies reads the world clock.
type UniverseDependencies interface {
	Universe(ctx context.Context) (model.Universe, error)
}

// UniverseHandler handles universe requests.
type UniverseHandler struct {
	deps UniverseDependencies
}

// NewUniverseHandler creates a new universe handler.
func NewUniverseHandler(deps UniverseDependencies) *UniverseHandler {
	return &UniverseHandler{deps: deps}
}

// HandleGetUniverse handles GET /universe requests.
func (h *UniverseHandler) HandleGetUniverse(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_universe"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	u, err := h.deps.Universe(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, u)
}
