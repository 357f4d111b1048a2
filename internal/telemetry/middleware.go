package telemetry

import (
	"net/http"
	"strings"
	"time"
)

// Middleware wraps HTTP handlers to automatically collect telemetry
type Middleware struct {
	telemetry *CartApiTelemetry
}

// NewMiddleware creates a new telemetry middleware
func NewMiddleware(telemetry *CartApiTelemetry) *Middleware {
	return &Middleware{telemetry: telemetry}
}

// Handler returns the HTTP middleware function
func (tm *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapper, r)

		metrics := RequestMetrics{
			Method:     r.Method,
			Endpoint:   normalizeEndpoint(r.URL.Path),
			StatusCode: wrapper.statusCode,
			Duration:   time.Since(start),
		}

		ctx := r.Context()
		if wrapper.statusCode >= 400 {
			metrics.ErrorMessage = http.StatusText(wrapper.statusCode)
			tm.telemetry.RegisterRequestError(ctx, metrics)
		} else {
			tm.telemetry.RegisterRequestReceived(ctx, metrics)
		}

		tm.telemetry.RegisterRequestDuration(ctx, metrics)
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(data []byte) (int, error) {
	return w.ResponseWriter.Write(data)
}

// normalizeEndpoint keeps metric cardinality low by collapsing paths to
// their route shape
func normalizeEndpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/cart"):
		return "/v1/cart"
	case path == "/health":
		return "/health"
	default:
		return "other"
	}
}
