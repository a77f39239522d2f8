package server

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry/exporters"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manacube/manacube-go/internal/observability"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func stubExporter(t *testing.T, rt roundTripFunc) {
	t.Helper()
	originalClient := metricsProxyClient
	metricsProxyClient = &http.Client{Transport: rt}
	observability.PrometheusExporter = exporters.NewPrometheusExporter("test", ":9090")
	t.Cleanup(func() {
		metricsProxyClient = originalClient
		observability.PrometheusExporter = nil
	})
}

func TestMetricsHandlerProxiesPrometheusOutput(t *testing.T) {
	var target string
	stubExporter(t, func(req *http.Request) (*http.Response, error) {
		target = req.URL.String()
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("manacube_queue_depth 2\n")),
			Header:     make(http.Header),
		}
		resp.Header.Set("Connection", "keep-alive")
		resp.Header.Set("X-Exporter", "prom")
		return resp, nil
	})

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, target, "/metrics")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "prom", rec.Header().Get("X-Exporter"))
	assert.Empty(t, rec.Header().Get("Connection"))
	assert.Contains(t, rec.Body.String(), "manacube_queue_depth")
}

func TestMetricsHandlerReportsExporterFailure(t *testing.T) {
	stubExporter(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMetricsHandlerReturnsServiceUnavailableWithoutExporter(t *testing.T) {
	observability.PrometheusExporter = nil

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "SERVICE_UNAVAILABLE")
}

func TestMetricsURLFallsBackToConfig(t *testing.T) {
	viper.Set("metrics.port", 9311)
	t.Cleanup(viper.Reset)

	if observability.GetMetricsPort() == 0 {
		assert.Equal(t, "http://127.0.0.1:9311/metrics", metricsURL())
	}
}
