// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/diamond/pkg/metrics"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
// Errors are counted under the code the handler answered with, such as
// batch_in_progress or roster_conflict.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(time.Since(start).Milliseconds()))

		if code := rec.errorCode(); code != "" {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, code)
			metrics.RecordErrorByComponent("http", code)
		}
	}
}

// recorder remembers the status and error code a handler wrote.
type recorder struct {
	http.ResponseWriter
	status int
	code   string
}

func (rec *recorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *recorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// errorCode is empty for successful responses. Responses that did not go
// through writeError, like http.NotFound, fall back to their status class.
func (rec *recorder) errorCode() string {
	switch {
	case rec.status < http.StatusBadRequest:
		return ""
	case rec.code != "":
		return rec.code
	case rec.status == http.StatusNotFound:
		return "not_found"
	case rec.status >= http.StatusInternalServerError:
		return "internal_error"
	default:
		return "bad_request"
	}
}

// tagErrorCode passes code to the metrics recorder wrapping w, if any.
func tagErrorCode(w http.ResponseWriter, code string) {
	if rec, ok := w.(*recorder); ok {
		rec.code = code
	}
}
