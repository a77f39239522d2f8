package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	manacube "github.com/manacube/manacube-go"
	apperrors "github.com/manacube/manacube-go/internal/errors"
	"github.com/manacube/manacube-go/internal/metrics"
	"github.com/manacube/manacube-go/internal/observability"
	"github.com/manacube/manacube-go/internal/server/middleware"
)

// Upstream is the rate-limited API client the gateway forwards through.
type Upstream interface {
	MakeRequest(ctx context.Context, path string, opts ...manacube.RequestOption) ([]byte, error)
	Status() manacube.Status
}

type gateway struct {
	upstream Upstream
}

// proxy forwards GET /v1/<path> to the API. A "queue" query parameter
// overrides the client's queueing default for this request.
func (g *gateway) proxy(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if strings.TrimSpace(path) == "" {
		HandleError(w, r, apperrors.NewInvalidInputError("An API path is required"))
		return
	}
	query := r.URL.Query()
	queueValue := query.Get("queue")
	query.Del("queue")
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var opts []manacube.RequestOption
	if queueValue != "" {
		enabled, err := strconv.ParseBool(queueValue)
		if err != nil {
			HandleError(w, r, apperrors.NewInvalidInputError("queue must be true or false"))
			return
		}
		opts = append(opts, manacube.Queueing(enabled))
	}

	body, err := g.upstream.MakeRequest(r.Context(), path, opts...)
	if err != nil {
		if observability.ServerLogger != nil {
			observability.ServerLogger.Debug("Upstream request failed",
				zap.String("path", path),
				zap.String("request_id", middleware.GetRequestID(r.Context())),
				zap.Error(err))
		}
		g.respondUpstreamError(w, r, err)
		return
	}
	metrics.RecordGatewayRequest("ok")

	if json.Valid(body) {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// queueStatus reports the client's rate-limit window and queue activity.
func (g *gateway) queueStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(g.upstream.Status())
}

func (g *gateway) respondUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	envelope := upstreamEnvelope(r.Context(), err)
	metrics.RecordGatewayRequest(envelope.Code)
	if seconds, ok := envelope.Details["retry_after_seconds"].(int); ok && seconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	HandleError(w, r, envelope)
}

// upstreamEnvelope maps client errors onto gateway error codes.
func upstreamEnvelope(ctx context.Context, err error) *gferrors.ErrorEnvelope {
	var limited *manacube.RateLimitedError
	var apiErr *manacube.APIError

	switch {
	case errors.As(err, &limited):
		return apperrors.NewRateLimitedError(limited.Error(), limited.Seconds())
	case errors.Is(err, manacube.ErrClosed):
		return apperrors.NewServiceUnavailableError("Gateway is shutting down")
	case errors.Is(err, manacube.ErrMissingArgument), errors.Is(err, manacube.ErrInvalidUUID):
		return apperrors.WrapInvalidInput(ctx, err, "Invalid request")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.WrapTimeout(ctx, err, "Upstream request timed out")
	case errors.As(err, &apiErr):
		return apiErrorEnvelope(ctx, apiErr)
	default:
		return apperrors.WrapExternalService(ctx, err, "Upstream request failed")
	}
}

func apiErrorEnvelope(ctx context.Context, apiErr *manacube.APIError) *gferrors.ErrorEnvelope {
	var envelope *gferrors.ErrorEnvelope
	switch {
	case apiErr.StatusCode == http.StatusNotFound:
		envelope = apperrors.WrapNotFound(ctx, apiErr, "Upstream resource not found")
	case apiErr.StatusCode == http.StatusTooManyRequests:
		wait := 0
		if value := apiErr.Header.Get("Retry-After"); value != "" {
			wait, _ = strconv.Atoi(strings.TrimSpace(value))
		}
		return apperrors.NewRateLimitedError(apiErr.Error(), wait)
	case apiErr.StatusCode == http.StatusServiceUnavailable:
		envelope = apperrors.NewServiceUnavailableError("Upstream service unavailable")
	default:
		envelope = apperrors.WrapExternalService(ctx, apiErr, "Upstream request failed")
	}
	return envelope.WithDetails(map[string]interface{}{
		"upstream_status": apiErr.StatusCode,
	})
}
