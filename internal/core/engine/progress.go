package engine

import (
	"sync"
	"time"
)

// Progress is a periodic status update emitted while the processor waits out a
// long backoff window. It is purely informational.
type Progress struct {
	Elapsed       time.Duration
	Remaining     time.Duration
	Total         time.Duration
	Percent       float64
	RemainingText string
	QueueDepth    int
}

// ProgressFunc receives progress updates.
type ProgressFunc func(Progress)

// progressTicker emits Progress on a fixed cadence until stopped.
type progressTicker struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// progressInterval is a tenth of the wait, clamped to [min, max].
func progressInterval(total, min, max time.Duration) time.Duration {
	interval := total / 10
	if interval < min {
		interval = min
	}
	if interval > max {
		interval = max
	}
	return interval
}

func startProgress(total, interval time.Duration, now func() time.Time, depth func() int, notify ProgressFunc) *progressTicker {
	t := &progressTicker{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	started := now()

	go func() {
		defer close(t.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				notify(buildProgress(total, now().Sub(started), depth()))
			}
		}
	}()

	return t
}

// Stop cancels the ticker and waits for its goroutine to exit. Safe on nil.
func (t *progressTicker) Stop() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		close(t.stop)
	})
	<-t.done
}

func buildProgress(total, elapsed time.Duration, depth int) Progress {
	if elapsed > total {
		elapsed = total
	}
	remaining := total - elapsed

	percent := 100.0
	if total > 0 {
		percent = float64(elapsed) / float64(total) * 100
	}

	return Progress{
		Elapsed:       elapsed,
		Remaining:     remaining,
		Total:         total,
		Percent:       percent,
		RemainingText: formatRemaining(remaining),
		QueueDepth:    depth,
	}
}

func formatRemaining(d time.Duration) string {
	if d < time.Second {
		return "less than a second"
	}
	return d.Round(time.Second).String()
}
