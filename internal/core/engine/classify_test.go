package engine

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manacube/manacube-go/internal/core/transport"
)

func statusError(status int, header http.Header, message string) error {
	if header == nil {
		header = http.Header{}
	}
	return &transport.Error{Path: "patrons/uuids", StatusCode: status, Header: header, Message: message}
}

func TestClassify(t *testing.T) {
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)

	tests := []struct {
		name       string
		err        error
		rateLimit  bool
		retryAfter time.Duration
		minRetry   time.Duration
	}{
		{name: "nil", err: nil},
		{name: "429 without hint", err: statusError(429, nil, "Too Many Requests"), rateLimit: true},
		{name: "429 retry-after", err: statusError(429, http.Header{"Retry-After": {"6"}}, ""), rateLimit: true, retryAfter: 6 * time.Second},
		{name: "503 reset header", err: statusError(503, http.Header{"X-Ratelimit-Reset": {"12"}}, ""), rateLimit: true, retryAfter: 12 * time.Second},
		{name: "bad retry-after falls through", err: statusError(429, http.Header{"Retry-After": {"soon"}, "X-Ratelimit-Reset": {"3"}}, ""), rateLimit: true, retryAfter: 3 * time.Second},
		{name: "http date retry-after", err: statusError(429, http.Header{"Retry-After": {future}}, ""), rateLimit: true, minRetry: 80 * time.Second},
		{name: "wrapped 429", err: fmt.Errorf("fetch: %w", statusError(429, http.Header{"Retry-After": {"1"}}, "")), rateLimit: true, retryAfter: time.Second},
		{name: "404", err: statusError(404, nil, "Not Found")},
		{name: "500 mentioning rate limit", err: statusError(500, nil, "Rate limit exceeded for key"), rateLimit: true},
		{name: "400 too many requests text", err: statusError(400, nil, "TOO MANY REQUESTS"), rateLimit: true},
		{name: "404 on a path naming a rate limit", err: &transport.Error{Path: "guild/name/rate limit lovers", StatusCode: 404, Message: "Not Found"}},
		{name: "404 on a path naming too many requests", err: &transport.Error{Path: "uuid/name/too many requests", StatusCode: 404}},
		{name: "network error", err: errors.New("dial tcp: connection refused")},
		{name: "network error mentioning rate limit", err: errors.New("proxy rate limit reached")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := Classify(tt.err)
			require.Equal(t, tt.rateLimit, class.IsRateLimit)
			if tt.minRetry > 0 {
				require.GreaterOrEqual(t, class.RetryAfter, tt.minRetry)
				return
			}
			require.Equal(t, tt.retryAfter, class.RetryAfter)
		})
	}
}
