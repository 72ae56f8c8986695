// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/diamond/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	metrics http.Handler
}

// NewHealthHandler creates a new health handler. A nil gatherer serves the
// process-wide registry.
func NewHealthHandler(g prometheus.Gatherer) *HealthHandler {
	if g == nil {
		g = metrics.GetRegistry()
	}
	return &HealthHandler{metrics: promhttp.HandlerFor(g, promhttp.HandlerOpts{})}
}

// HandleHealth handles GET /healthz requests by serving the Prometheus
// exposition; a 200 doubles as the liveness signal.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h.metrics.ServeHTTP(w, r)
}
