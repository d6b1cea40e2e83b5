package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/pairank/pkg/metrics"
)

// errorCoder is implemented by writers that remember the error code of the
// response written through them.
type errorCoder interface {
	setErrorCode(code string)
}

// MetricsMiddleware records request count and latency per endpoint, and
// counts failed requests under the error code the handler answered with
// (ranking_locked, inconsistent, backpressure, ...).
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(time.Since(start).Milliseconds()))

		if wrapped.statusCode >= http.StatusBadRequest {
			metrics.RecordErrorByComponent("http_"+endpoint, wrapped.errorType())
		}
	}
}

// statusClass labels an error response that carried no code of its own, such
// as the mux's 404 for an unsupported method.
func statusClass(statusCode int) string {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return "internal_error"
	case statusCode == http.StatusNotFound:
		return "not_found"
	default:
		return "client_error"
	}
}

// responseWriter captures the status and error code of a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	errCode    string
}

func (rw *responseWriter) setErrorCode(code string) {
	rw.errCode = code
}

func (rw *responseWriter) errorType() string {
	if rw.errCode != "" {
		return rw.errCode
	}
	return statusClass(rw.statusCode)
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}
