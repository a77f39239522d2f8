package engine

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/manacube/manacube-go/internal/core/transport"
)

// Classification is the verdict on a failed fetch.
type Classification struct {
	IsRateLimit bool

	// RetryAfter is the server's suggested backoff; zero means use the default.
	RetryAfter time.Duration
}

var rateLimitPhrases = []string{"rate limit", "too many requests"}

// Classify decides whether err represents server rate limiting.
//
// A 429 or 503 status is always a rate limit. A failure without an HTTP response
// never is. Any other HTTP failure is a rate limit when the server's message
// mentions one. The request path is not part of that message.
func Classify(err error) Classification {
	if err == nil {
		return Classification{}
	}

	var apiErr *transport.Error
	if !errors.As(err, &apiErr) || apiErr == nil {
		return Classification{}
	}

	switch apiErr.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return Classification{IsRateLimit: true, RetryAfter: retryAfterHeader(apiErr.Header)}
	}

	message := strings.ToLower(apiErr.Message)
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(message, phrase) {
			return Classification{IsRateLimit: true}
		}
	}
	return Classification{}
}

func retryAfterHeader(header http.Header) time.Duration {
	if header == nil {
		return 0
	}

	for _, key := range []string{"Retry-After", "X-Ratelimit-Reset"} {
		value := strings.TrimSpace(header.Get(key))
		if value == "" {
			continue
		}
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		if key == "Retry-After" {
			if parsed, err := http.ParseTime(value); err == nil {
				if wait := time.Until(parsed); wait > 0 {
					return wait
				}
			}
		}
	}
	return 0
}
