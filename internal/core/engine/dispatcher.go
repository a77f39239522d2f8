package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/manacube/manacube-go/internal/core/transport"
	"github.com/manacube/manacube-go/internal/metrics"
)

// RequestOptions adjusts a single Do call.
type RequestOptions struct {
	// Queueing overrides the dispatcher default for this call only.
	Queueing *bool
}

// Status is a point-in-time view of the dispatcher.
type Status struct {
	RateLimited bool          `json:"rate_limited"`
	Wait        time.Duration `json:"wait"`
	Until       time.Time     `json:"until,omitempty"`
	HitCount    int           `json:"hit_count"`
	QueueDepth  int           `json:"queue_depth"`
	Processing  bool          `json:"processing"`
	Queueing    bool          `json:"queueing"`
}

// Dispatcher decides per call whether to send now, queue, or fail fast.
type Dispatcher struct {
	transport transport.Transport
	state     *State
	queue     *Queue
	processor *Processor
	logger    Logger

	queueing atomic.Bool
}

// NewDispatcher builds a dispatcher and its queue processor around t.
func NewDispatcher(t transport.Transport, state *State, cfg Config, logger Logger, progress ProgressFunc) *Dispatcher {
	if logger == nil {
		logger = nopLogger
	}
	if state == nil {
		state = &State{}
	}
	cfg = cfg.withDefaults()
	if state.DefaultBackoff <= 0 {
		state.DefaultBackoff = cfg.DefaultBackoff
	}
	if state.Logger == nil {
		state.Logger = logger
	}

	d := &Dispatcher{
		transport: t,
		state:     state,
		queue:     &Queue{},
		logger:    logger,
	}
	d.processor = NewProcessor(d.queue, state, d.send, cfg, logger, progress)
	d.queueing.Store(cfg.Queueing)
	return d
}

// Do fetches path and returns the response body.
func (d *Dispatcher) Do(ctx context.Context, path string, opts RequestOptions) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d.processor.done() {
		return nil, ErrClosed
	}

	queueing := d.Queueing()
	if opts.Queueing != nil {
		queueing = *opts.Queueing
	}

	if wait := d.state.Wait(); wait > 0 {
		if !queueing {
			metrics.RecordFailFast()
			return nil, &RateLimitedError{Wait: wait}
		}
		return d.await(ctx, d.processor.Enqueue(path, 0))
	}

	body, err := d.send(ctx, path)
	if err == nil {
		return body, nil
	}

	class := Classify(err)
	if !class.IsRateLimit {
		return nil, err
	}

	d.state.Record(ctx, class.RetryAfter)
	metrics.RecordRateLimitHit("direct")
	if !queueing {
		return nil, err
	}
	return d.await(ctx, d.processor.Enqueue(path, 1))
}

// SetQueueing changes the default for calls without an override and returns it.
func (d *Dispatcher) SetQueueing(enabled bool) bool {
	d.queueing.Store(enabled)
	return enabled
}

// Queueing reports the default queueing mode.
func (d *Dispatcher) Queueing() bool {
	return d.queueing.Load()
}

// State exposes the shared rate-limit state.
func (d *Dispatcher) State() *State {
	return d.state
}

// Status reports the rate-limit window and queue activity.
func (d *Dispatcher) Status() Status {
	wait := d.state.Wait()
	snapshot := d.state.Snapshot()

	status := Status{
		RateLimited: wait > 0,
		Wait:        wait,
		HitCount:    snapshot.HitCount,
		QueueDepth:  d.queue.Len(),
		Processing:  d.queue.Running(),
		Queueing:    d.Queueing(),
	}
	if wait > 0 {
		status.Until = snapshot.Until
	}
	return status
}

// Close rejects queued work with ErrClosed and waits for the processor to stop.
func (d *Dispatcher) Close() {
	d.processor.Close()
}

func (d *Dispatcher) send(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	resp, err := d.transport.Get(ctx, path)
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	var apiErr *transport.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}

	metrics.RecordRequest(status, duration)
	d.logger.Debug("ManaCube request",
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("duration", duration),
		zap.Error(err))

	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (d *Dispatcher) await(ctx context.Context, item *QueuedRequest) ([]byte, error) {
	select {
	case result := <-item.Done():
		return result.Body, result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
