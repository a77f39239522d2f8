package engine

import "sync"

// Result settles a queued request.
type Result struct {
	Body []byte
	Err  error
}

// QueuedRequest is one caller's pending fetch.
type QueuedRequest struct {
	Path       string
	RetryCount int

	done chan Result
	once sync.Once
}

func newQueuedRequest(path string, retryCount int) *QueuedRequest {
	return &QueuedRequest{
		Path:       path,
		RetryCount: retryCount,
		done:       make(chan Result, 1),
	}
}

// Done delivers exactly one Result.
func (r *QueuedRequest) Done() <-chan Result {
	return r.done
}

func (r *QueuedRequest) settle(result Result) {
	r.once.Do(func() {
		r.done <- result
	})
}

// Queue is the FIFO of requests waiting for a clear-to-send signal. It also
// carries the processor's single-flight flag so that "queue is empty" and
// "processor stopped" change together.
type Queue struct {
	mu      sync.Mutex
	items   []*QueuedRequest
	running bool
}

// push appends item and reports whether the caller must start a processor.
func (q *Queue) push(item *QueuedRequest) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, item)
	if q.running {
		return false
	}
	q.running = true
	return true
}

// requeue appends a retried item to the tail.
func (q *Queue) requeue(item *QueuedRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
}

// drain takes a snapshot of everything queued so far.
func (q *Queue) drain() []*QueuedRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	batch := q.items
	q.items = nil
	return batch
}

// stopIfEmpty clears the running flag when nothing is left to do.
func (q *Queue) stopIfEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) > 0 {
		return false
	}
	q.running = false
	return true
}

// park clears the running flag and leaves remaining items in place.
func (q *Queue) park() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.running = false
	return len(q.items)
}

// abort clears the running flag and hands back everything still queued.
func (q *Queue) abort() []*QueuedRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	q.running = false
	return items
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Running reports whether a processor loop is active.
func (q *Queue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}
