package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manacube/manacube-go/internal/observability"
)

func setupTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{
		Enabled: true,
		Emitter: collector,
	})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() { observability.TelemetrySystem = original })

	return collector
}

func TestRequestMetricsEmitsStandardSeries(t *testing.T) {
	collector := setupTelemetry(t)

	handler := RequestMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	req := httptest.NewRequest(http.MethodPost, "/v1/patrons/uuids", strings.NewReader("12345"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	for _, name := range []string{HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestSizeBytes, HTTPResponseSizeBytes} {
		assert.Greater(t, collector.CountMetricsByName(name), 0, name)
	}
	assert.Zero(t, collector.CountMetricsByName(HTTPErrorsTotal))
}

func TestRequestMetricsCountsErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
	}{
		{"server error", http.StatusBadGateway, false},
		{"not found", http.StatusNotFound, false},
		{"rate limited", http.StatusTooManyRequests, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := setupTelemetry(t)
			handler := RequestMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/x", nil))

			assert.Greater(t, collector.CountMetricsByName(HTTPErrorsTotal), 0)
			if tt.rateLimited {
				assert.Greater(t, collector.CountMetricsByName(HTTPRateLimitedResponse), 0)
			} else {
				assert.Zero(t, collector.CountMetricsByName(HTTPRateLimitedResponse))
			}
		})
	}
}

func TestRequestMetricsWithoutTelemetry(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = original })

	handler := RequestMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestEndpointPatternFallbacks(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/health", "/health/*"},
		{"/health/ready", "/health/*"},
		{"/version", "/version"},
		{"/metrics", "/metrics"},
		{"/queue", "/queue"},
		{"/v1/player/stats/069a79f4-44e9-4726-a5be-fca90e38aaf5", "/v1/*"},
		{"/api/users/123", "/unknown"},
		{"/", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, EndpointPattern(httptest.NewRequest(http.MethodGet, tt.path, nil)))
		})
	}
}

func TestRequestIDHonoursValidHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRequestIDReplacesUnusableHeader(t *testing.T) {
	for _, supplied := range []string{"", "has space", strings.Repeat("x", maxRequestIDLength+1)} {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if supplied != "" {
			req.Header.Set(RequestIDHeader, supplied)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Len(t, seen, 36, "supplied %q", supplied)
		assert.NotEqual(t, supplied, seen)
	}
}

func TestRecoveryHidesStackTrace(t *testing.T) {
	collector := setupTelemetry(t)

	handler := RequestID(Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))
	req := httptest.NewRequest(http.MethodGet, "/v1/x", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Equal(t, "req-1", body.Error.RequestID)
	assert.NotContains(t, body.Error.Details, "stack_trace")
	assert.Greater(t, collector.CountMetricsByName("manacube_panics_total"), 0)
}
