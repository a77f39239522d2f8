package core

import "time"

// RateLimitState captures the server-imposed backoff window for an API host.
type RateLimitState struct {
	Hit       bool
	Until     time.Time
	HitCount  int
	LastHitAt *time.Time
}

// Active reports whether the window is still open at now.
func (s RateLimitState) Active(now time.Time) bool {
	return s.Hit && now.Before(s.Until)
}
