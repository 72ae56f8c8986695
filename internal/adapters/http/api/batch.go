// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/diamond/internal/app"
	"github.com/okian/diamond/internal/domain/types"
)

// BatchRunner runs one scheduling pass.
type BatchRunner interface {
	RunBatch(ctx context.Context) (types.BatchReport, error)
}

// BatchHandler handles batch requests.
type BatchHandler struct {
	runner BatchRunner
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(runner BatchRunner) *BatchHandler {
	return &BatchHandler{runner: runner}
}

// HandleRunBatch handles POST /batch requests. A partial batch still
// answers 200; the report carries the failures.
func (h *BatchHandler) HandleRunBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.run_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	report, err := h.runner.RunBatch(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case errors.Is(err, service.ErrRosterConflict):
		writeError(w, http.StatusConflict, "roster_conflict", WrapKind(op, ErrConflict, err))
	case errors.Is(err, service.ErrBatchInProgress):
		writeError(w, http.StatusConflict, "batch_in_progress", WrapKind(op, ErrConflict, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_ready", WrapKind(op, ErrNotReady, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
