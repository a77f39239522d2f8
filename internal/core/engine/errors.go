package engine

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrRateLimited matches every fail-fast rejection.
	ErrRateLimited = errors.New("server rate limit active")

	// ErrClosed is returned for calls made after, or still queued at, Close.
	ErrClosed = errors.New("client closed")
)

// RateLimitedError is returned without contacting the server while a backoff
// window is open and queueing is off.
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("Server rate limit active. Please wait %d seconds before making another request.", e.Seconds())
}

// Is reports ErrRateLimited as a match.
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// Seconds is the remaining wait rounded up to whole seconds.
func (e *RateLimitedError) Seconds() int {
	if e == nil || e.Wait <= 0 {
		return 0
	}
	return int(math.Ceil(e.Wait.Seconds()))
}
