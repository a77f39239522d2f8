package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/manacube/manacube-go/internal/core"
)

// GetRateLimit returns the stored backoff window for an API host.
func (s *Store) GetRateLimit(ctx context.Context, endpoint string) (*core.RateLimitState, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("endpoint is required")
	}

	var (
		hit       int
		untilMS   sql.NullInt64
		lastHitMS sql.NullInt64
		hitCount  int
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT hit, until_ms, last_hit_ms, hit_count
		FROM rate_limits
		WHERE endpoint = ?
	`, endpoint)

	if err := row.Scan(&hit, &untilMS, &lastHitMS, &hitCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch rate limit: %w", err)
	}

	state := stateFromRow(hit, untilMS, lastHitMS, hitCount)
	return &state, nil
}

// UpdateRateLimit persists the backoff window for an API host.
func (s *Store) UpdateRateLimit(ctx context.Context, endpoint string, state *core.RateLimitState) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return errors.New("endpoint is required")
	}
	if state == nil {
		return errors.New("rate limit state is required")
	}

	var untilMS sql.NullInt64
	if !state.Until.IsZero() {
		untilMS = sql.NullInt64{Int64: state.Until.UTC().UnixMilli(), Valid: true}
	}

	var lastHitMS sql.NullInt64
	if state.LastHitAt != nil {
		lastHitMS = sql.NullInt64{Int64: state.LastHitAt.UTC().UnixMilli(), Valid: true}
	}

	hit := 0
	if state.Hit {
		hit = 1
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO rate_limits (endpoint, hit, until_ms, last_hit_ms, hit_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET
			hit = excluded.hit,
			until_ms = excluded.until_ms,
			last_hit_ms = excluded.last_hit_ms,
			hit_count = excluded.hit_count,
			updated_at = excluded.updated_at
	`, endpoint, hit, untilMS, lastHitMS, state.HitCount, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("store rate limit: %w", err)
	}

	return nil
}

func stateFromRow(hit int, untilMS, lastHitMS sql.NullInt64, hitCount int) core.RateLimitState {
	state := core.RateLimitState{
		Hit:      hit != 0,
		HitCount: hitCount,
	}
	if untilMS.Valid {
		state.Until = time.UnixMilli(untilMS.Int64).UTC()
	}
	if lastHitMS.Valid {
		value := time.UnixMilli(lastHitMS.Int64).UTC()
		state.LastHitAt = &value
	}
	return state
}
