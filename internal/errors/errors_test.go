package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manacube/manacube-go/internal/server/middleware"
)

func TestHTTPStatusFromCode(t *testing.T) {
	tests := map[string]int{
		CodeInvalidInput:       http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeRateLimited:        http.StatusTooManyRequests,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeExternalService:    http.StatusBadGateway,
		CodeServiceUnavailable: http.StatusServiceUnavailable,
		CodeConfigInvalid:      http.StatusInternalServerError,
		"SOMETHING_ELSE":       http.StatusInternalServerError,
	}
	for code, status := range tests {
		assert.Equal(t, status, HTTPStatusFromCode(code), code)
	}
}

func TestWrapCarriesRequestID(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDContextKey, "req-9")

	env := WrapTimeout(ctx, stderrors.New("deadline"), "Upstream request timed out")

	assert.Equal(t, CodeTimeout, env.Code)
	assert.Equal(t, "req-9", env.CorrelationID)
	assert.Equal(t, "deadline", env.Context["wrapped_error"])
}

func TestWrapWithoutRequestIDGeneratesOne(t *testing.T) {
	env := WrapInternal(context.Background(), nil, "boom")
	assert.Len(t, env.CorrelationID, 36)
	assert.NotContains(t, env.Context, "wrapped_error")
}

func TestEnsureEnvelope(t *testing.T) {
	original := NewNotFoundError("missing")
	assert.Same(t, original, EnsureEnvelope(original))

	plain := EnsureEnvelope(stderrors.New("disk full"))
	assert.Equal(t, CodeInternal, plain.Code)
	assert.Equal(t, "disk full", plain.Context["wrapped_error"])

	assert.Equal(t, CodeInternal, EnsureEnvelope(nil).Code)
}

func TestRespondWithErrorWritesEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/patrons/uuids", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDContextKey, "req-1"))
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, NewRateLimitedError("Rate limit hit, wait 4 seconds", 4))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeRateLimited, body.Error.Code)
	assert.Equal(t, "req-1", body.Error.RequestID)
	assert.Equal(t, float64(4), body.Error.Details["retry_after_seconds"])
}

func TestResponseDetailsPrefersDetails(t *testing.T) {
	env, err := NewExternalServiceError("bad gateway").WithContext(map[string]interface{}{
		"upstream_status": "context",
		"path":            "x",
	})
	require.NoError(t, err)
	env = env.WithDetails(map[string]interface{}{"upstream_status": 500})

	details := ResponseDetails(env)
	assert.Equal(t, 500, details["upstream_status"])
	assert.Equal(t, "x", details["path"])

	assert.Nil(t, ResponseDetails(NewNotFoundError("none")))
}
