package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProcessorParksAtIterationCeiling(t *testing.T) {
	var calls []string
	var mu sync.Mutex
	send := func(_ context.Context, path string) ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, path)
		return []byte(path), nil
	}

	cfg := testConfig(true)
	cfg.MaxIterations = 1
	state := &State{DefaultBackoff: 10 * time.Millisecond}
	state.Record(context.Background(), 0)

	q := &Queue{}
	p := NewProcessor(q, state, send, cfg, nil, nil)
	t.Cleanup(p.Close)

	first := p.Enqueue("first", 0)

	// The single iteration is spent waiting, so the item stays parked.
	require.Eventually(t, func() bool { return !q.Running() }, time.Second, time.Millisecond)
	require.Equal(t, 1, q.Len())

	// A fresh trigger restarts the loop and drains both.
	second := p.Enqueue("second", 0)
	for _, item := range []*QueuedRequest{first, second} {
		select {
		case result := <-item.Done():
			require.NoError(t, result.Err)
			require.Equal(t, item.Path, string(result.Body))
		case <-time.After(time.Second):
			t.Fatalf("%s did not settle", item.Path)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []string{"first", "second"}, calls)
}

func TestProcessorEmitsProgressDuringLongWait(t *testing.T) {
	var mu sync.Mutex
	var updates []Progress

	cfg := testConfig(true)
	cfg.DefaultBackoff = 150 * time.Millisecond
	cfg.ProgressThreshold = 20 * time.Millisecond
	cfg.ProgressMinInterval = 10 * time.Millisecond
	cfg.ProgressMaxInterval = 20 * time.Millisecond

	state := &State{DefaultBackoff: cfg.DefaultBackoff}
	state.Record(context.Background(), 0)

	send := func(context.Context, string) ([]byte, error) { return []byte("ok"), nil }
	p := NewProcessor(&Queue{}, state, send, cfg, nil, func(progress Progress) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, progress)
	})
	t.Cleanup(p.Close)

	result := <-p.Enqueue("online/count", 0).Done()
	require.NoError(t, result.Err)

	mu.Lock()
	count := len(updates)
	require.Greater(t, count, 0)
	require.Equal(t, 1, updates[0].QueueDepth)
	mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, count, len(updates))
}

func TestProcessorSkipsProgressForShortWait(t *testing.T) {
	called := false
	state := &State{DefaultBackoff: 10 * time.Millisecond}
	state.Record(context.Background(), 0)

	send := func(context.Context, string) ([]byte, error) { return nil, nil }
	p := NewProcessor(&Queue{}, state, send, testConfig(true), nil, func(Progress) { called = true })
	t.Cleanup(p.Close)

	result := <-p.Enqueue("online/count", 0).Done()
	require.NoError(t, result.Err)
	require.False(t, called)
}

func TestProcessorEnqueueAfterClose(t *testing.T) {
	send := func(context.Context, string) ([]byte, error) { return nil, nil }
	p := NewProcessor(&Queue{}, &State{}, send, testConfig(true), nil, nil)
	p.Close()

	result := <-p.Enqueue("online/count", 0).Done()
	require.ErrorIs(t, result.Err, ErrClosed)
}

func TestProcessorLateArrivalsFormNextBatch(t *testing.T) {
	firstGate := make(chan struct{})
	secondGate := make(chan struct{})
	firstBatch := map[string]bool{"a": true, "b": true, "c": true}

	var started, firstInFlight, secondInFlight atomic.Int32
	send := func(ctx context.Context, path string) ([]byte, error) {
		started.Add(1)
		gate := secondGate
		if firstBatch[path] {
			firstInFlight.Add(1)
			gate = firstGate
		} else {
			secondInFlight.Add(1)
		}
		select {
		case <-gate:
			return []byte(path), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// A short open window holds the loop until all three are queued.
	state := &State{DefaultBackoff: 20 * time.Millisecond}
	state.Record(context.Background(), 0)

	q := &Queue{}
	p := NewProcessor(q, state, send, testConfig(true), nil, nil)
	t.Cleanup(p.Close)

	var items []*QueuedRequest
	for _, path := range []string{"a", "b", "c"} {
		items = append(items, p.Enqueue(path, 0))
	}
	require.Eventually(t, func() bool { return firstInFlight.Load() == 3 }, time.Second, time.Millisecond)

	for _, path := range []string{"d", "e"} {
		items = append(items, p.Enqueue(path, 0))
	}
	require.Equal(t, 2, q.Len())
	require.Never(t, func() bool { return started.Load() > 3 }, 30*time.Millisecond, time.Millisecond)

	close(firstGate)
	require.Eventually(t, func() bool { return secondInFlight.Load() == 2 }, time.Second, time.Millisecond)
	require.EqualValues(t, 5, started.Load())
	require.Zero(t, q.Len())

	close(secondGate)
	for _, item := range items {
		select {
		case result := <-item.Done():
			require.NoError(t, result.Err)
			require.Equal(t, item.Path, string(result.Body))
		case <-time.After(time.Second):
			t.Fatalf("%s did not settle", item.Path)
		}
	}
}
