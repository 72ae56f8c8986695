package api

import (
	"context"
	"net/http"

	"github.com/okian/diamond/internal/domain/model"
)

// GamesDependencies reads resolved games.
type GamesDependencies interface {
	BoxScore(ctx context.Context, idGame int64) (model.BoxScore, error)
}

// GamesHandler handles box score requests.
type GamesHandler struct {
	deps GamesDependencies
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GamesDependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

// HandleGetBoxScore handles GET /games/{id_game} requests. Unplayed and
// unknown games are both 404.
func (h *GamesHandler) HandleGetBoxScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_box_score"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := pathID(op, r, "/games/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	box, err := h.deps.BoxScore(r.Context(), id)
	if err != nil {
		writeLookupError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, box)
}
