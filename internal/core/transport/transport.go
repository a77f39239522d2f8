package transport

import (
	"context"
	"fmt"
	"net/http"
)

// Transport performs read-only fetches of paths relative to an API base URL.
type Transport interface {
	Get(ctx context.Context, path string) (*Response, error)
}

// Response is a successful (2xx) API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Error is returned when the API answers with a non-2xx status.
//
// Header is the raw response header set so callers can inspect Retry-After and
// friends; Body holds the undecoded payload.
type Error struct {
	Path       string
	StatusCode int
	Header     http.Header
	Message    string
	Body       []byte
}

func (e *Error) Error() string {
	if e == nil {
		return "api error"
	}
	if e.Message == "" {
		return fmt.Sprintf("%s request failed: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed: status %d: %s", e.Path, e.StatusCode, e.Message)
}
