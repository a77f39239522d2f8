package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueuePushStartsProcessorOnce(t *testing.T) {
	q := &Queue{}

	require.True(t, q.push(newQueuedRequest("a", 0)))
	require.False(t, q.push(newQueuedRequest("b", 0)))
	require.True(t, q.Running())
	require.Equal(t, 2, q.Len())
}

func TestQueueDrainIsSnapshot(t *testing.T) {
	q := &Queue{}
	q.push(newQueuedRequest("a", 0))
	q.push(newQueuedRequest("b", 0))

	batch := q.drain()
	require.Len(t, batch, 2)
	require.Equal(t, "a", batch[0].Path)
	require.Equal(t, "b", batch[1].Path)

	// Arrivals during a batch wait for the next drain.
	q.push(newQueuedRequest("c", 0))
	require.Len(t, batch, 2)
	next := q.drain()
	require.Len(t, next, 1)
	require.Equal(t, "c", next[0].Path)
}

func TestQueueRequeueAppendsToTail(t *testing.T) {
	q := &Queue{}
	retried := newQueuedRequest("retry", 1)
	q.push(newQueuedRequest("first", 0))
	q.requeue(retried)
	q.push(newQueuedRequest("second", 0))

	batch := q.drain()
	require.Equal(t, []string{"first", "retry", "second"}, paths(batch))
}

func TestQueueStopIfEmpty(t *testing.T) {
	q := &Queue{}
	q.push(newQueuedRequest("a", 0))

	require.False(t, q.stopIfEmpty())
	require.True(t, q.Running())

	q.drain()
	require.True(t, q.stopIfEmpty())
	require.False(t, q.Running())

	require.True(t, q.push(newQueuedRequest("b", 0)))
}

func TestQueueParkKeepsItems(t *testing.T) {
	q := &Queue{}
	q.push(newQueuedRequest("a", 0))
	q.push(newQueuedRequest("b", 0))

	require.Equal(t, 2, q.park())
	require.False(t, q.Running())
	require.Equal(t, 2, q.Len())
}

func TestQueueAbortHandsBackItems(t *testing.T) {
	q := &Queue{}
	q.push(newQueuedRequest("a", 0))

	items := q.abort()
	require.Len(t, items, 1)
	require.Zero(t, q.Len())
	require.False(t, q.Running())
}

func TestQueuedRequestSettlesOnce(t *testing.T) {
	item := newQueuedRequest("a", 0)
	item.settle(Result{Body: []byte("first")})
	item.settle(Result{Body: []byte("second")})

	result := <-item.Done()
	require.Equal(t, "first", string(result.Body))

	select {
	case <-item.Done():
		t.Fatal("request settled twice")
	default:
	}
}

func paths(items []*QueuedRequest) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Path)
	}
	return out
}
