// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/diamond/internal/adapters/repository"
	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	BatchRunner
	StatsProvider

	Universe(ctx context.Context) (model.Universe, error)
	BoxScore(ctx context.Context, idGame int64) (model.BoxScore, error)
	Standings(ctx context.Context) ([]model.Standing, error)
	Standing(ctx context.Context, idTeam int64) (model.Standing, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	batchHandler     *BatchHandler
	universeHandler  *UniverseHandler
	gamesHandler     *GamesHandler
	standingsHandler *StandingsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(nil),
		statsHandler:     NewStatsHandler(deps),
		batchHandler:     NewBatchHandler(deps),
		universeHandler:  NewUniverseHandler(deps),
		gamesHandler:     NewGamesHandler(deps),
		standingsHandler: NewStandingsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/batch", MetricsMiddleware(s.batchHandler.HandleRunBatch, "batch"))
	mux.HandleFunc("/universe", MetricsMiddleware(s.universeHandler.HandleGetUniverse, "universe"))
	mux.HandleFunc("/games/", MetricsMiddleware(s.gamesHandler.HandleGetBoxScore, "games"))
	mux.HandleFunc("/standings", MetricsMiddleware(s.standingsHandler.HandleGetStandings, "standings"))
	mux.HandleFunc("/standings/", MetricsMiddleware(s.standingsHandler.HandleGetStanding, "standing"))
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stats mirrors the read shape of GET /stats.
type Stats = types.Stats

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
	tagErrorCode(w, code)
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeLookupError maps storage lookups to 404 and everything else to 500.
func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}

// pathID parses the single id segment after prefix.
func pathID(op string, r *http.Request, prefix string) (int64, error) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, NewKind(op, ErrBadRequest)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, WrapKind(op, ErrBadRequest, errors.New("id must be a positive integer"))
	}
	return id, nil
}
