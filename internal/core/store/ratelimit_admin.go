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

// RateLimitEntry is one stored backoff window.
type RateLimitEntry struct {
	Endpoint string
	State    core.RateLimitState
}

// RateLimitQuery selects stored windows by exact host, host prefix, or all.
// ActiveAt keeps only windows still open at that instant; ExpiredAt keeps
// only windows closed by then. Zero times do not filter.
type RateLimitQuery struct {
	All       bool
	Endpoint  string
	Prefix    string
	ActiveAt  time.Time
	ExpiredAt time.Time
}

func (q RateLimitQuery) Validate() error {
	if !q.All && strings.TrimSpace(q.Endpoint) == "" && strings.TrimSpace(q.Prefix) == "" {
		return errors.New("must specify --all, --endpoint, or --prefix")
	}
	if !q.ActiveAt.IsZero() && !q.ExpiredAt.IsZero() {
		return errors.New("active and expired filters are mutually exclusive")
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (q RateLimitQuery) whereClause() (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	var (
		conds []string
		args  []any
	)
	switch {
	case q.All:
	case strings.TrimSpace(q.Endpoint) != "":
		conds = append(conds, "endpoint = ?")
		args = append(args, strings.TrimSpace(q.Endpoint))
	default:
		conds = append(conds, `endpoint LIKE ? ESCAPE '\'`)
		args = append(args, likeEscaper.Replace(strings.TrimSpace(q.Prefix))+"%")
	}
	if !q.ActiveAt.IsZero() {
		conds = append(conds, "hit = 1 AND until_ms > ?")
		args = append(args, q.ActiveAt.UnixMilli())
	}
	if !q.ExpiredAt.IsZero() {
		conds = append(conds, "(hit = 0 OR until_ms IS NULL OR until_ms <= ?)")
		args = append(args, q.ExpiredAt.UnixMilli())
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args, nil
}

func (s *Store) ready(ctx context.Context) (context.Context, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, nil
}

// ListRateLimits returns stored windows ordered by host.
func (s *Store) ListRateLimits(ctx context.Context, q RateLimitQuery) ([]RateLimitEntry, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	where, args, err := q.whereClause()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT endpoint, hit, until_ms, last_hit_ms, hit_count
		FROM rate_limits `+where+`
		ORDER BY endpoint`, args...)
	if err != nil {
		return nil, fmt.Errorf("list rate limits: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := []RateLimitEntry{}
	for rows.Next() {
		var (
			endpoint  string
			hit       int
			untilMS   sql.NullInt64
			lastHitMS sql.NullInt64
			hitCount  int
		)
		if err := rows.Scan(&endpoint, &hit, &untilMS, &lastHitMS, &hitCount); err != nil {
			return nil, fmt.Errorf("scan rate limits: %w", err)
		}
		entries = append(entries, RateLimitEntry{
			Endpoint: endpoint,
			State:    stateFromRow(hit, untilMS, lastHitMS, hitCount),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rate limits: %w", err)
	}
	return entries, nil
}

// CountRateLimits counts stored windows matching q.
func (s *Store) CountRateLimits(ctx context.Context, q RateLimitQuery) (int, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return 0, err
	}
	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM rate_limits "+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rate limits: %w", err)
	}
	return count, nil
}

// ResetRateLimits deletes stored windows matching q.
func (s *Store) ResetRateLimits(ctx context.Context, q RateLimitQuery) (int64, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return 0, err
	}
	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	result, err := s.DB.ExecContext(ctx, "DELETE FROM rate_limits "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("reset rate limits: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset rate limits: %w", err)
	}
	return affected, nil
}
