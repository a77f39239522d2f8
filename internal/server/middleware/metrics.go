package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/manacube/manacube-go/internal/observability"
)

// HTTP metric names emitted for every request.
const (
	HTTPRequestsTotal       = "http_requests_total"
	HTTPRequestDuration     = "http_request_duration_ms"
	HTTPRequestSizeBytes    = "http_request_size_bytes"
	HTTPResponseSizeBytes   = "http_response_size_bytes"
	HTTPErrorsTotal         = "http_errors_total"
	HTTPRateLimitedResponse = "http_rate_limited_total"
)

// statusRecorder captures the status code and body size written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int64
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

// EndpointPattern returns a bounded-cardinality label for r: the chi route
// pattern when one matched, otherwise a coarse path category.
func EndpointPattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/v1/"):
		// Proxied API paths carry player UUIDs; never use them as labels
		return "/v1/*"
	case path == "/health", strings.HasPrefix(path, "/health/"):
		return "/health/*"
	case path == "/version", path == "/metrics", path == "/queue", path == "/":
		return path
	default:
		return "/unknown"
	}
}

// isProbe reports whether endpoint is polled by infrastructure rather than users.
func isProbe(endpoint string) bool {
	return strings.HasPrefix(endpoint, "/health") || endpoint == "/metrics"
}

// RequestMetrics records request counters, latency and sizes, then logs the
// completed request. Probe traffic logs at debug.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if observability.TelemetrySystem == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		duration := time.Since(start)

		endpoint := EndpointPattern(r)
		requestSize := r.ContentLength
		if requestSize < 0 {
			requestSize = 0
		}
		emitRequestMetrics(r.Method, endpoint, rec.status, duration, requestSize, rec.size)

		if observability.ServerLogger == nil {
			return
		}
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("endpoint", endpoint),
			zap.Int("status", rec.status),
			zap.Duration("duration", duration),
			zap.Int64("request_size", requestSize),
			zap.Int64("response_size", rec.size),
			zap.String("request_id", GetRequestID(r.Context())),
		}
		if isProbe(endpoint) {
			observability.ServerLogger.Debug("HTTP request completed", fields...)
		} else {
			observability.ServerLogger.Info("HTTP request completed", fields...)
		}
	})
}

func emitRequestMetrics(method, endpoint string, status int, duration time.Duration, requestSize, responseSize int64) {
	tel := observability.TelemetrySystem
	labels := map[string]string{
		"method":   method,
		"endpoint": endpoint,
		"status":   strconv.Itoa(status),
	}
	sizeLabels := map[string]string{
		"method":   method,
		"endpoint": endpoint,
	}

	_ = tel.Counter(HTTPRequestsTotal, 1, labels)
	_ = tel.Histogram(HTTPRequestDuration, duration, labels)
	_ = tel.Gauge(HTTPRequestSizeBytes, float64(requestSize), sizeLabels)
	_ = tel.Gauge(HTTPResponseSizeBytes, float64(responseSize), sizeLabels)

	if status < 400 {
		return
	}
	errorType := "client_error"
	if status >= 500 {
		errorType = "server_error"
	}
	_ = tel.Counter(HTTPErrorsTotal, 1, map[string]string{
		"method":     method,
		"endpoint":   endpoint,
		"status":     strconv.Itoa(status),
		"error_type": errorType,
	})
	if status == http.StatusTooManyRequests {
		_ = tel.Counter(HTTPRateLimitedResponse, 1, sizeLabels)
	}
}
