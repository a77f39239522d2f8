package engine

import "time"

// Config tunes the dispatcher and queue processor.
type Config struct {
	// Queueing is the instance default for whether rate-limited calls wait in
	// the queue instead of failing fast.
	Queueing bool

	MaxRetries     int
	MaxIterations  int
	DefaultBackoff time.Duration

	// WaitSlack is added to every backoff sleep.
	WaitSlack time.Duration

	// IterationDelay pauses between batches while work remains.
	IterationDelay time.Duration

	ProgressThreshold   time.Duration
	ProgressMinInterval time.Duration
	ProgressMaxInterval time.Duration
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		MaxRetries:          3,
		MaxIterations:       1000,
		DefaultBackoff:      DefaultBackoff,
		WaitSlack:           100 * time.Millisecond,
		IterationDelay:      100 * time.Millisecond,
		ProgressThreshold:   5 * time.Second,
		ProgressMinInterval: time.Second,
		ProgressMaxInterval: 5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = def.MaxIterations
	}
	if c.DefaultBackoff <= 0 {
		c.DefaultBackoff = def.DefaultBackoff
	}
	if c.WaitSlack < 0 {
		c.WaitSlack = def.WaitSlack
	}
	if c.IterationDelay < 0 {
		c.IterationDelay = def.IterationDelay
	}
	if c.ProgressThreshold <= 0 {
		c.ProgressThreshold = def.ProgressThreshold
	}
	if c.ProgressMinInterval <= 0 {
		c.ProgressMinInterval = def.ProgressMinInterval
	}
	if c.ProgressMaxInterval < c.ProgressMinInterval {
		c.ProgressMaxInterval = c.ProgressMinInterval
	}
	return c
}
