package manacube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingServer struct {
	*httptest.Server

	mu    sync.Mutex
	paths []string
	hits  atomic.Int32
}

func newRecordingServer(t *testing.T, handler func(call int, w http.ResponseWriter, r *http.Request)) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := int(rs.hits.Add(1))
		rs.mu.Lock()
		rs.paths = append(rs.paths, r.URL.EscapedPath())
		rs.mu.Unlock()
		handler(call, w, r)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) lastPath() string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.paths) == 0 {
		return ""
	}
	return rs.paths[len(rs.paths)-1]
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func newTestClient(t *testing.T, srv *recordingServer, opts ...Option) *Client {
	t.Helper()
	cfg := DefaultQueueConfig()
	cfg.WaitSlack = 5 * time.Millisecond
	cfg.IterationDelay = time.Millisecond

	all := append([]Option{WithBaseURL(srv.URL + "/api"), WithQueueConfig(cfg)}, opts...)
	client, err := New(all...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGetAllPatrons(t *testing.T) {
	srv := newRecordingServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `["a","b","c"]`)
	})
	client := newTestClient(t, srv)

	patrons, err := client.GetAllPatrons(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, patrons)
	require.Equal(t, "/api/patrons/uuids", srv.lastPath())
}

func TestRateLimitWithoutQueueing(t *testing.T) {
	srv := newRecordingServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	client := newTestClient(t, srv)

	_, err := client.GetAllPatrons(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)

	_, err = client.GetOnlineCount(context.Background())
	require.ErrorIs(t, err, ErrRateLimited)

	var limited *RateLimitedError
	require.True(t, errors.As(err, &limited))
	require.Equal(t, 1, limited.Seconds())
	require.EqualValues(t, 1, srv.hits.Load())

	status := client.Status()
	require.True(t, status.RateLimited)
	require.False(t, status.Queueing)
}

func TestRateLimitWithQueueing(t *testing.T) {
	srv := newRecordingServer(t, func(call int, w http.ResponseWriter, _ *http.Request) {
		if call == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, `["a","b","c"]`)
	})
	client := newTestClient(t, srv, WithQueueing(true))

	start := time.Now()
	patrons, err := client.GetAllPatrons(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, patrons)
	require.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
	require.EqualValues(t, 2, srv.hits.Load())
}

func TestPerCallQueueingOverride(t *testing.T) {
	srv := newRecordingServer(t, func(call int, w http.ResponseWriter, _ *http.Request) {
		if call == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, `42`)
	})
	client := newTestClient(t, srv)

	count, err := client.GetOnlineCount(context.Background(), Queueing(true))
	require.NoError(t, err)
	require.Equal(t, 42, count)
	require.False(t, client.Queueing())
}

func TestSetQueueing(t *testing.T) {
	srv := newRecordingServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) { writeJSON(w, `0`) })
	client := newTestClient(t, srv)

	require.False(t, client.Queueing())
	require.True(t, client.SetQueueing(true))
	require.True(t, client.Queueing())
}

func TestMissingArguments(t *testing.T) {
	srv := newRecordingServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) { writeJSON(w, `{}`) })
	client := newTestClient(t, srv)
	ctx := context.Background()

	_, err := client.GetGamemodeSvas(ctx, "")
	require.ErrorIs(t, err, ErrMissingArgument)
	_, err = client.GetSvaSalesData(ctx, "skyblock", " ")
	require.ErrorIs(t, err, ErrMissingArgument)
	_, err = client.GetPlayerStats(ctx, "")
	require.ErrorIs(t, err, ErrMissingArgument)
	_, err = client.MakeRequest(ctx, "")
	require.ErrorIs(t, err, ErrMissingArgument)

	require.Zero(t, srv.hits.Load())
}

func TestSafeUUIDCheck(t *testing.T) {
	srv := newRecordingServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"uuid":"069a79f4-44e9-4726-a5be-fca90e38aaf5","totalExp":10,"stats":[]}`)
	})
	client := newTestClient(t, srv)
	ctx := context.Background()

	stats, err := client.GetPlayerStats(ctx, "069A79F444E94726A5BEFCA90E38AAF5")
	require.NoError(t, err)
	require.Equal(t, int64(10), stats.TotalExp)
	require.Equal(t, "/api/stats/069a79f4-44e9-4726-a5be-fca90e38aaf5", srv.lastPath())

	_, err = client.GetPlayerStats(ctx, "not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidUUID)
	require.EqualValues(t, 1, srv.hits.Load())

	require.False(t, client.SetSafeUUIDCheck(false))
	require.False(t, client.SafeUUIDCheck())
	_, err = client.GetPlayerStats(ctx, "not-a-uuid")
	require.NoError(t, err)
	require.Equal(t, "/api/stats/not-a-uuid", srv.lastPath())
}

func TestResponseValidation(t *testing.T) {
	srv := newRecordingServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `[{"uuid":"","name":"ghost"}]`)
	})
	client := newTestClient(t, srv, WithValidator(NewStructValidator()))

	_, err := client.GetFriends(context.Background(), "069a79f4-44e9-4726-a5be-fca90e38aaf5")
	require.Error(t, err)
	require.Contains(t, err.Error(), "validate friends/")
}

func TestDecodeError(t *testing.T) {
	srv := newRecordingServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) { writeJSON(w, `not json`) })
	client := newTestClient(t, srv)

	_, err := client.GetOnlineCount(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode online/count response")
}

func TestCloseRejectsLaterCalls(t *testing.T) {
	srv := newRecordingServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) { writeJSON(w, `0`) })
	client := newTestClient(t, srv)
	require.NoError(t, client.Close())

	_, err := client.GetOnlineCount(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	require.Zero(t, srv.hits.Load())
}

type memoryStore struct {
	mu     sync.Mutex
	states map[string]*RateLimitState
}

func (m *memoryStore) GetRateLimit(_ context.Context, endpoint string) (*RateLimitState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[endpoint], nil
}

func (m *memoryStore) UpdateRateLimit(_ context.Context, endpoint string, state *RateLimitState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states == nil {
		m.states = map[string]*RateLimitState{}
	}
	m.states[endpoint] = state
	return nil
}

func TestStateStoreCarriesBackoffAcrossClients(t *testing.T) {
	srv := newRecordingServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	store := &memoryStore{}

	first := newTestClient(t, srv, WithStateStore(store))
	_, err := first.GetOnlineCount(context.Background())
	require.Error(t, err)

	second := newTestClient(t, srv, WithStateStore(store))
	_, err = second.GetOnlineCount(context.Background())
	require.ErrorIs(t, err, ErrRateLimited)
	require.EqualValues(t, 1, srv.hits.Load())
}

func TestProgressOptionReceivesUpdates(t *testing.T) {
	srv := newRecordingServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) { writeJSON(w, `1`) })

	var updates atomic.Int32
	cfg := DefaultQueueConfig()
	cfg.Queueing = true
	cfg.DefaultBackoff = 120 * time.Millisecond
	cfg.ProgressThreshold = 10 * time.Millisecond
	cfg.ProgressMinInterval = 10 * time.Millisecond
	cfg.ProgressMaxInterval = 10 * time.Millisecond

	client, err := New(
		WithBaseURL(srv.URL),
		WithQueueConfig(cfg),
		WithProgress(func(Progress) { updates.Add(1) }),
	)
	require.NoError(t, err)
	defer client.Close() // nolint:errcheck // test cleanup

	client.dispatcher.State().Record(context.Background(), 0)

	count, err := client.GetOnlineCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
	assert.Greater(t, updates.Load(), int32(0))
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(WithBaseURL("not a url"))
	require.Error(t, err)

	_, err = New(WithBaseURL(""))
	require.ErrorIs(t, err, ErrMissingArgument)
}

func TestConcurrentCallsWithoutRateLimitAllResolve(t *testing.T) {
	srv := newRecordingServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `["a","b","c"]`)
	})
	client := newTestClient(t, srv, WithQueueing(true))

	const callers = 50
	results := make([][]string, callers)
	errs := make([]error, callers)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = client.GetAllPatrons(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i], "caller %d", i)
		assert.Equal(t, []string{"a", "b", "c"}, results[i], "caller %d", i)
	}
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.EqualValues(t, callers, srv.hits.Load())

	status := client.Status()
	assert.False(t, status.RateLimited)
	assert.False(t, status.Processing)
	assert.Zero(t, status.QueueDepth)
	assert.Zero(t, status.HitCount)
}

func TestNotFoundOnPathNamingRateLimitDoesNotOpenWindow(t *testing.T) {
	srv := newRecordingServer(t, func(_ int, w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/online/count" {
			writeJSON(w, `7`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	client := newTestClient(t, srv)

	_, err := client.MakeRequest(context.Background(), "guild/name/rate limit lovers")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.False(t, client.Status().RateLimited)

	count, err := client.GetOnlineCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, count)
}
