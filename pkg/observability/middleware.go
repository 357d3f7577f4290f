package observability

import (
	"net/http"
	"strconv"
	"time"
)

// MetricsMiddleware wraps an HTTP handler to record request metrics.
//
// It captures:
//   - xsltfn_requests_total (counter): status class and outcome
//   - xsltfn_request_duration_seconds (histogram): duration by outcome
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		outcome := Outcome(sw.status)
		RequestsTotal.WithLabelValues(strconv.Itoa(sw.status/100)+"xx", outcome).Inc()
		RequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	})
}

// Outcome maps an HTTP status to the outcome label.
func Outcome(status int) string {
	switch {
	case status < 400:
		return "success"
	case status == http.StatusUnauthorized:
		return "unauthorized"
	default:
		return "failure"
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
