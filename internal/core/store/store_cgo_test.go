//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manacube/manacube-go/internal/config"
	"github.com/manacube/manacube-go/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	store, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: "file:" + t.TempDir() + "/manacube.db"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestOpenMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{
		Driver: "libsql",
		Path:   ":memory:",
	}

	store, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, store)
	require.Equal(t, "libsql", store.Driver())
	require.NoError(t, store.Close())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "postgres", Path: ":memory:"})
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.Migrate(ctx))

	version, err := store.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, SchemaVersion(), version)
}

func TestMigrateResumesFromRecordedVersion(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: "file:" + t.TempDir() + "/manacube.db"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.applyMigration(ctx, 1))
	version, err := store.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, version)

	require.NoError(t, store.Migrate(ctx))
	var hitCount int
	require.NoError(t, store.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pragma_table_info('rate_limits') WHERE name = 'hit_count'").Scan(&hitCount))
	require.Equal(t, 1, hitCount)
}

func TestRateLimitRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	missing, err := store.GetRateLimit(ctx, "api.manacube.com")
	require.NoError(t, err)
	require.Nil(t, missing)

	last := time.Date(2025, 3, 1, 12, 0, 0, 250*int(time.Millisecond), time.UTC)
	state := &core.RateLimitState{
		Hit:       true,
		Until:     last.Add(6 * time.Second),
		HitCount:  2,
		LastHitAt: &last,
	}
	require.NoError(t, store.UpdateRateLimit(ctx, "api.manacube.com", state))

	got, err := store.GetRateLimit(ctx, "api.manacube.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.Hit)
	require.True(t, state.Until.Equal(got.Until))
	require.Equal(t, 2, got.HitCount)
	require.NotNil(t, got.LastHitAt)
	require.True(t, last.Equal(*got.LastHitAt))

	state.Hit = false
	state.Until = time.Time{}
	state.HitCount = 3
	require.NoError(t, store.UpdateRateLimit(ctx, "api.manacube.com", state))

	got, err = store.GetRateLimit(ctx, "api.manacube.com")
	require.NoError(t, err)
	require.False(t, got.Hit)
	require.True(t, got.Until.IsZero())
	require.Equal(t, 3, got.HitCount)
}

func TestRateLimitValidation(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.GetRateLimit(ctx, " ")
	require.Error(t, err)
	require.Error(t, store.UpdateRateLimit(ctx, "api.manacube.com", nil))

	var nilStore *Store
	_, err = nilStore.GetRateLimit(ctx, "api.manacube.com")
	require.Error(t, err)
}

func TestRateLimitAdmin(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	until := time.Now().Add(time.Minute).UTC()
	for _, host := range []string{"api.manacube.com", "staging.manacube.com", "localhost:8080"} {
		require.NoError(t, store.UpdateRateLimit(ctx, host, &core.RateLimitState{Hit: true, Until: until, HitCount: 1}))
	}

	all, err := store.ListRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "api.manacube.com", all[0].Endpoint)

	count, err := store.CountRateLimits(ctx, RateLimitQuery{Prefix: "staging."})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	removed, err := store.ResetRateLimits(ctx, RateLimitQuery{Endpoint: "localhost:8080"})
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, err = store.ListRateLimits(ctx, RateLimitQuery{})
	require.Error(t, err)

	remaining, err := store.CountRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.Equal(t, 2, remaining)
}
