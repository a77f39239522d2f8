// Package manacube is a client for the ManaCube game statistics API.
//
// Every endpoint method goes through a shared dispatcher that watches for
// server rate limiting. While the server is limiting, calls either fail fast
// with a RateLimitedError or, with queueing enabled, wait in a queue that is
// drained in batches once the backoff window closes.
package manacube

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/manacube/manacube-go/internal/core/engine"
	"github.com/manacube/manacube-go/internal/core/transport"
)

// Client issues rate-limit-aware requests against the ManaCube API.
// It is safe for concurrent use.
type Client struct {
	dispatcher *engine.Dispatcher
	validator  Validator
	logger     Logger

	safeUUIDCheck atomic.Bool
}

// New builds a client. With a StateStore configured, a still-open backoff
// window recorded by an earlier client is restored before New returns.
func New(opts ...Option) (*Client, error) {
	s := defaultSettings()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&s); err != nil {
			return nil, err
		}
	}

	logger := s.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	t, endpoint, err := buildTransport(s)
	if err != nil {
		return nil, err
	}

	state := &engine.State{
		Store:          s.store,
		Endpoint:       endpoint,
		DefaultBackoff: s.queue.DefaultBackoff,
		Logger:         logger,
	}
	if err := state.Hydrate(context.Background()); err != nil {
		logger.Warn("Failed to restore rate limit state",
			zap.String("endpoint", endpoint),
			zap.Error(err))
	}

	c := &Client{
		dispatcher: engine.NewDispatcher(t, state, s.queue, logger, s.progress),
		validator:  s.validator,
		logger:     logger,
	}
	c.safeUUIDCheck.Store(s.safeUUIDCheck)
	return c, nil
}

func buildTransport(s settings) (transport.Transport, string, error) {
	if s.transport != nil {
		return s.transport, "", nil
	}

	t, err := transport.NewHTTP(s.baseURL)
	if err != nil {
		return nil, "", err
	}
	t.APIKey = s.apiKey
	t.UserAgent = s.userAgent
	t.Client = s.httpClient
	if s.limit != rate.Inf {
		t.Limiter = rate.NewLimiter(s.limit, s.burst)
	}
	return t, t.Host(), nil
}

// MakeRequest fetches path (relative to the base URL) and returns the raw
// response body.
//
// If the server is currently rate limiting and queueing is off for this call,
// MakeRequest returns a *RateLimitedError without contacting the server. If
// queueing is on, the call blocks until its queued request settles or ctx ends.
func (c *Client) MakeRequest(ctx context.Context, path string, opts ...RequestOption) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: path", ErrMissingArgument)
	}
	return c.dispatcher.Do(ctx, path, buildRequestOptions(opts))
}

// SetQueueing changes the default queueing mode and returns the new value.
func (c *Client) SetQueueing(enabled bool) bool {
	return c.dispatcher.SetQueueing(enabled)
}

// Queueing reports the default queueing mode.
func (c *Client) Queueing() bool {
	return c.dispatcher.Queueing()
}

// SetSafeUUIDCheck toggles UUID validation and returns the new value.
func (c *Client) SetSafeUUIDCheck(enabled bool) bool {
	c.safeUUIDCheck.Store(enabled)
	return enabled
}

// SafeUUIDCheck reports whether UUID arguments are validated.
func (c *Client) SafeUUIDCheck() bool {
	return c.safeUUIDCheck.Load()
}

// Status reports the rate-limit window and queue activity.
func (c *Client) Status() Status {
	return c.dispatcher.Status()
}

// Close rejects queued calls with ErrClosed and stops background work. Later
// calls fail with ErrClosed.
func (c *Client) Close() error {
	c.dispatcher.Close()
	return nil
}

func getJSON[T any](ctx context.Context, c *Client, path string, opts []RequestOption) (T, error) {
	var out T

	body, err := c.MakeRequest(ctx, path, opts...)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode %s response: %w", path, err)
	}
	if c.validator != nil {
		if err := c.validator.Validate(out); err != nil {
			return out, fmt.Errorf("validate %s response: %w", path, err)
		}
	}
	return out, nil
}
