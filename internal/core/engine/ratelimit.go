package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/manacube/manacube-go/internal/core"
)

// DefaultBackoff applies when a rate-limited response carries no usable hint.
const DefaultBackoff = 60 * time.Second

// StateStore persists rate-limit state between client instances.
type StateStore interface {
	GetRateLimit(ctx context.Context, endpoint string) (*core.RateLimitState, error)
	UpdateRateLimit(ctx context.Context, endpoint string, state *core.RateLimitState) error
}

// State tracks whether the API is currently rejecting requests, and until when.
//
// Record is the only write path. Reads lazily clear an expired window.
type State struct {
	Store          StateStore
	Endpoint       string
	DefaultBackoff time.Duration
	Clock          func() time.Time
	Logger         Logger

	mu       sync.Mutex
	hit      bool
	until    time.Time
	hitCount int
	lastHit  *time.Time
}

// IsRateLimited reports whether the server is believed to be rejecting requests.
func (s *State) IsRateLimited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(s.now())
}

// Wait returns the remaining backoff, or zero when not limited.
func (s *State) Wait() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.activeLocked(now) {
		return 0
	}
	return s.until.Sub(now)
}

// Record opens a backoff window of retryAfter, or DefaultBackoff when retryAfter <= 0.
func (s *State) Record(ctx context.Context, retryAfter time.Duration) {
	backoff := retryAfter
	if backoff <= 0 {
		backoff = s.defaultBackoff()
	}

	s.mu.Lock()
	now := s.now()
	s.hit = true
	s.until = now.Add(backoff)
	s.hitCount++
	s.lastHit = &now
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger().Info("Server rate limit detected",
		zap.Duration("backoff", backoff),
		zap.Time("until", snapshot.Until),
		zap.Int("hit_count", snapshot.HitCount))

	if s.Store == nil || s.Endpoint == "" {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.Store.UpdateRateLimit(ctx, s.Endpoint, &snapshot); err != nil {
		s.logger().Warn("Failed to persist rate limit state",
			zap.String("endpoint", s.Endpoint),
			zap.Error(err))
	}
}

// Snapshot returns a copy of the current state without clearing an expired window.
func (s *State) Snapshot() core.RateLimitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Hydrate loads a still-active window from the store.
func (s *State) Hydrate(ctx context.Context) error {
	if s.Store == nil || s.Endpoint == "" {
		return nil
	}

	stored, err := s.Store.GetRateLimit(ctx, s.Endpoint)
	if err != nil {
		return err
	}
	if stored == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hitCount = stored.HitCount
	s.lastHit = stored.LastHitAt
	if stored.Active(s.now()) {
		s.hit = true
		s.until = stored.Until
	}
	return nil
}

func (s *State) activeLocked(now time.Time) bool {
	if !s.hit {
		return false
	}
	if now.Before(s.until) {
		return true
	}
	s.hit = false
	s.until = time.Time{}
	return false
}

func (s *State) snapshotLocked() core.RateLimitState {
	state := core.RateLimitState{
		Hit:      s.hit,
		Until:    s.until,
		HitCount: s.hitCount,
	}
	if s.lastHit != nil {
		last := *s.lastHit
		state.LastHitAt = &last
	}
	return state
}

func (s *State) defaultBackoff() time.Duration {
	if s.DefaultBackoff > 0 {
		return s.DefaultBackoff
	}
	return DefaultBackoff
}

func (s *State) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

func (s *State) logger() Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return nopLogger
}
