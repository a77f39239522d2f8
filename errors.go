package manacube

import (
	"errors"

	"github.com/manacube/manacube-go/internal/core/engine"
	"github.com/manacube/manacube-go/internal/core/transport"
)

var (
	// ErrMissingArgument is returned before any request when a required
	// argument is empty.
	ErrMissingArgument = errors.New("missing required argument")

	// ErrInvalidUUID is returned when the safe UUID check rejects an argument.
	ErrInvalidUUID = errors.New("invalid uuid")

	// ErrRateLimited matches fail-fast rejections while a backoff window is open.
	ErrRateLimited = engine.ErrRateLimited

	// ErrClosed is returned by calls made after Close, and by queued calls
	// still pending when Close runs.
	ErrClosed = engine.ErrClosed
)

// RateLimitedError carries the remaining backoff of a fail-fast rejection.
type RateLimitedError = engine.RateLimitedError

// APIError is a non-2xx response. StatusCode and Header are the server's.
type APIError = transport.Error
