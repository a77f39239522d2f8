package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err error
}

func (s stubChecker) CheckHealth(ctx context.Context) error {
	return s.err
}

type errorBody struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func TestHealthHandlerReturnsHealthyStatus(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("ok", stubChecker{})

	rec := httptest.NewRecorder()
	manager.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, StatusHealthy, resp.Checks["ok"])
}

func TestHealthHandlerReturnsServiceUnavailableWhenUnhealthy(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("store", stubChecker{err: errors.New("down")})

	rec := httptest.NewRecorder()
	manager.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)
	assert.Equal(t, "aggregate", resp.Error.Details["probe"])
	checks, ok := resp.Error.Details["checks"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, StatusUnhealthy, checks["store"])
}

func TestHealthHandlerReportsDegradedCheck(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("upstream", stubChecker{err: fmt.Errorf("rate limited: %w", ErrDegraded)})

	rec := httptest.NewRecorder()
	manager.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, StatusDegraded, resp.Checks["upstream"])
}

func TestProbeHandlersShareChecks(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("ok", stubChecker{})

	for name, handler := range map[string]http.HandlerFunc{
		"live":    manager.LivenessHandler,
		"ready":   manager.ReadinessHandler,
		"startup": manager.StartupHandler,
	} {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/health/"+name, nil))

		require.Equal(t, http.StatusOK, rec.Code, name)
		var resp ProbeResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp), name)
		assert.Equal(t, StatusHealthy, resp.Status, name)
	}
}

func TestRunHealthChecksMarksTimeouts(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("a", stubChecker{})
	manager.RegisterChecker("b", stubChecker{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checks := manager.runHealthChecks(ctx)
	assert.Equal(t, map[string]string{"a": StatusTimeout, "b": StatusTimeout}, checks)
	assert.Equal(t, StatusDegraded, manager.determineOverallStatus(checks))
}

func TestGlobalHandlersWithoutManager(t *testing.T) {
	original := globalHealthManager
	globalHealthManager = nil
	t.Cleanup(func() { globalHealthManager = original })

	rec := httptest.NewRecorder()
	ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "health manager not initialized", resp.Error.Message)
	assert.Equal(t, "ready", resp.Error.Details["probe"])
}

func TestHealthFailuresUseInjectedResponder(t *testing.T) {
	var got error
	SetHTTPErrorResponder(func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	})
	t.Cleanup(ResetHTTPErrorResponder)

	manager := NewHealthManager("dev")
	manager.RegisterChecker("store", stubChecker{err: errors.New("down")})

	rec := httptest.NewRecorder()
	manager.ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	var envelope *gferrors.ErrorEnvelope
	require.True(t, errors.As(got, &envelope))
	assert.Equal(t, "SERVICE_UNAVAILABLE", envelope.Code)
	assert.Equal(t, "readiness probe failed", envelope.Message)
}
