package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/manacube/manacube-go/internal/metrics"
)

// SendFunc performs one upstream fetch.
type SendFunc func(ctx context.Context, path string) ([]byte, error)

// Processor drains the queue in batches while honouring the rate-limit state.
// At most one run loop is active at a time.
type Processor struct {
	queue    *Queue
	state    *State
	send     SendFunc
	cfg      Config
	logger   Logger
	progress ProgressFunc

	ctx    context.Context
	cancel context.CancelFunc

	// mu orders Close against loop start-up so wg.Add never races wg.Wait.
	mu      sync.Mutex
	closed  chan struct{}
	closing bool
	wg      sync.WaitGroup
}

// NewProcessor wires a processor to its queue, state and sender.
func NewProcessor(queue *Queue, state *State, send SendFunc, cfg Config, logger Logger, progress ProgressFunc) *Processor {
	if logger == nil {
		logger = nopLogger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		queue:    queue,
		state:    state,
		send:     send,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		progress: progress,
		ctx:      ctx,
		cancel:   cancel,
		closed:   make(chan struct{}),
	}
}

// Enqueue adds path to the tail of the queue and starts the loop if idle.
func (p *Processor) Enqueue(path string, retryCount int) *QueuedRequest {
	item := newQueuedRequest(path, retryCount)

	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		metrics.RecordRejection("closed")
		item.settle(Result{Err: ErrClosed})
		return item
	}
	start := p.queue.push(item)
	if start {
		p.wg.Add(1)
	}
	p.mu.Unlock()

	if start {
		go p.run()
	}
	metrics.SetQueueDepth(p.queue.Len())
	return item
}

// Close stops any in-progress wait and rejects everything still queued.
func (p *Processor) Close() {
	p.mu.Lock()
	if !p.closing {
		p.closing = true
		close(p.closed)
		p.cancel()
	}
	p.mu.Unlock()

	// Parked items have no loop to reject them.
	if !p.queue.Running() {
		p.reject(p.queue.abort(), ErrClosed, "closed")
	}
	p.wg.Wait()
}

func (p *Processor) run() {
	defer p.wg.Done()

	iterations := 0
	for {
		if p.done() {
			p.reject(p.queue.abort(), ErrClosed, "closed")
			return
		}
		if p.queue.stopIfEmpty() {
			metrics.SetQueueDepth(0)
			return
		}
		if iterations >= p.cfg.MaxIterations {
			parked := p.queue.park()
			p.logger.Warn("Queue processor hit iteration ceiling",
				zap.Int("iterations", iterations),
				zap.Int("parked", parked))
			metrics.RecordQueueAnomaly("iteration_ceiling")
			return
		}
		iterations++

		if p.state.IsRateLimited() {
			p.waitOut(p.state.Wait())
			continue
		}

		batch := p.queue.drain()
		metrics.SetQueueDepth(0)
		p.dispatch(batch)

		if p.queue.Len() > 0 {
			p.sleep(p.cfg.IterationDelay)
		}
	}
}

// dispatch issues every batch member concurrently and waits for all of them.
func (p *Processor) dispatch(batch []*QueuedRequest) {
	if len(batch) == 0 {
		return
	}
	p.logger.Debug("Dispatching queued batch", zap.Int("size", len(batch)))

	var g errgroup.Group
	for _, item := range batch {
		g.Go(func() error {
			p.attempt(item)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Processor) attempt(item *QueuedRequest) {
	body, err := p.send(p.ctx, item.Path)
	if err == nil {
		item.settle(Result{Body: body})
		return
	}

	if p.done() && errors.Is(err, context.Canceled) {
		metrics.RecordRejection("closed")
		item.settle(Result{Err: ErrClosed})
		return
	}

	class := Classify(err)
	if !class.IsRateLimit {
		item.settle(Result{Err: err})
		return
	}

	p.state.Record(p.ctx, class.RetryAfter)
	metrics.RecordRateLimitHit("queue")

	item.RetryCount++
	if item.RetryCount < p.cfg.MaxRetries {
		metrics.RecordRetry(item.RetryCount)
		p.queue.requeue(item)
		metrics.SetQueueDepth(p.queue.Len())
		return
	}

	p.logger.Warn("Queued request exceeded retry ceiling",
		zap.String("path", item.Path),
		zap.Int("retries", item.RetryCount))
	metrics.RecordRejection("max_retries")
	item.settle(Result{Err: err})
}

// waitOut sleeps through the backoff window plus slack, emitting progress for
// long waits.
func (p *Processor) waitOut(wait time.Duration) {
	total := wait + p.cfg.WaitSlack

	p.logger.Info("Waiting for rate limit to clear",
		zap.Duration("wait", total),
		zap.Int("queued", p.queue.Len()))

	var ticker *progressTicker
	if wait > p.cfg.ProgressThreshold {
		interval := progressInterval(total, p.cfg.ProgressMinInterval, p.cfg.ProgressMaxInterval)
		ticker = startProgress(total, interval, time.Now, p.queue.Len, p.notify)
	}
	defer ticker.Stop()

	p.sleep(total)
}

func (p *Processor) notify(progress Progress) {
	p.logger.Info("Rate limit wait in progress",
		zap.String("remaining", progress.RemainingText),
		zap.Float64("percent", progress.Percent),
		zap.Int("queued", progress.QueueDepth))
	if p.progress != nil {
		p.progress(progress)
	}
}

func (p *Processor) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-p.closed:
	}
}

func (p *Processor) reject(items []*QueuedRequest, err error, reason string) {
	for _, item := range items {
		metrics.RecordRejection(reason)
		item.settle(Result{Err: err})
	}
	metrics.SetQueueDepth(0)
}

func (p *Processor) done() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}
