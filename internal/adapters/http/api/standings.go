// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/diamond/internal/domain/model"
)

// StandingsDependencies defines the interface for standings reads.
type StandingsDependencies interface {
	Standings(ctx context.Context) ([]model.Standing, error)
	Standing(ctx context.Context, idTeam int64) (model.Standing, error)
}

// StandingsHandler handles standings requests.
type StandingsHandler struct {
	deps StandingsDependencies
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps StandingsDependencies) *StandingsHandler {
	return &StandingsHandler{deps: deps}
}

// HandleGetStandings handles GET /standings requests.
func (h *StandingsHandler) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_standings"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	standings, err := h.deps.Standings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if standings == nil {
		standings = []model.Standing{}
	}
	writeJSON(w, http.StatusOK, standings)
}

// HandleGetStanding handles GET /standings/{id_team} requests.
func (h *StandingsHandler) HandleGetStanding(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_standing"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := pathID(op, r, "/standings/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	st, err := h.deps.Standing(r.Context(), id)
	if err != nil {
		writeLookupError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
