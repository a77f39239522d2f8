package manacube

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/manacube/manacube-go/internal/core"
	"github.com/manacube/manacube-go/internal/core/engine"
	"github.com/manacube/manacube-go/internal/core/transport"
)

// DefaultBaseURL is the public ManaCube API root.
const DefaultBaseURL = "https://api.manacube.com/api/"

type (
	// Status is a point-in-time view of the rate-limit window and queue.
	Status = engine.Status

	// Progress is emitted while queued calls wait out a long backoff.
	Progress = engine.Progress

	// QueueConfig tunes retries, iteration ceiling, backoff and pacing.
	QueueConfig = engine.Config

	// StateStore persists the rate-limit window across client instances.
	StateStore = engine.StateStore

	// RateLimitState is the persisted form of the rate-limit window.
	RateLimitState = core.RateLimitState

	// Logger receives the client's structured log lines.
	Logger = engine.Logger

	// Transport performs the underlying GET requests.
	Transport = transport.Transport
)

// DefaultQueueConfig returns the stock queue tuning.
func DefaultQueueConfig() QueueConfig {
	return engine.DefaultConfig()
}

type settings struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	transport  Transport

	safeUUIDCheck bool
	queue         QueueConfig
	limit         rate.Limit
	burst         int

	progress  func(Progress)
	store     StateStore
	logger    Logger
	validator Validator
}

func defaultSettings() settings {
	return settings{
		baseURL:       DefaultBaseURL,
		safeUUIDCheck: true,
		queue:         engine.DefaultConfig(),
		limit:         rate.Inf,
	}
}

// Option configures a Client.
type Option func(*settings) error

// WithBaseURL points the client at another API root.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) error {
		if strings.TrimSpace(baseURL) == "" {
			return fmt.Errorf("base url: %w", ErrMissingArgument)
		}
		s.baseURL = baseURL
		return nil
	}
}

// WithAPIKey sends key as HTTP Basic credentials.
func WithAPIKey(key string) Option {
	return func(s *settings) error {
		s.apiKey = key
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *settings) error {
		s.userAgent = ua
		return nil
	}
}

// WithHTTPClient replaces the default net/http client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) error {
		s.httpClient = client
		return nil
	}
}

// WithTransport replaces the HTTP transport entirely. Base URL, API key,
// user agent, HTTP client and request rate options are then ignored.
func WithTransport(t Transport) Option {
	return func(s *settings) error {
		if t == nil {
			return fmt.Errorf("transport: %w", ErrMissingArgument)
		}
		s.transport = t
		return nil
	}
}

// WithSafeUUIDCheck toggles UUID validation and normalisation. On by default.
func WithSafeUUIDCheck(enabled bool) Option {
	return func(s *settings) error {
		s.safeUUIDCheck = enabled
		return nil
	}
}

// WithQueueing sets the default for whether rate-limited calls wait in the
// queue instead of failing fast. Off by default.
func WithQueueing(enabled bool) Option {
	return func(s *settings) error {
		s.queue.Queueing = enabled
		return nil
	}
}

// WithQueueConfig replaces the queue tuning. Its Queueing field is the default
// queueing mode.
func WithQueueConfig(cfg QueueConfig) Option {
	return func(s *settings) error {
		s.queue = cfg
		return nil
	}
}

// WithRequestRate paces outgoing requests to perSecond with the given burst.
// The default is unlimited.
func WithRequestRate(perSecond float64, burst int) Option {
	return func(s *settings) error {
		if perSecond <= 0 {
			s.limit = rate.Inf
			return nil
		}
		if burst < 1 {
			burst = 1
		}
		s.limit = rate.Limit(perSecond)
		s.burst = burst
		return nil
	}
}

// WithProgress receives updates while queued calls wait out a long backoff.
func WithProgress(fn func(Progress)) Option {
	return func(s *settings) error {
		s.progress = fn
		return nil
	}
}

// WithStateStore restores the rate-limit window at construction and saves it
// on every rate-limit hit.
func WithStateStore(store StateStore) Option {
	return func(s *settings) error {
		s.store = store
		return nil
	}
}

// WithLogger routes client logs to logger. Logs are discarded by default.
func WithLogger(logger Logger) Option {
	return func(s *settings) error {
		s.logger = logger
		return nil
	}
}

// WithValidator runs v against every decoded response.
func WithValidator(v Validator) Option {
	return func(s *settings) error {
		s.validator = v
		return nil
	}
}

// RequestOption adjusts a single call.
type RequestOption func(*engine.RequestOptions)

// Queueing overrides the client's queueing default for one call.
func Queueing(enabled bool) RequestOption {
	return func(o *engine.RequestOptions) {
		o.Queueing = &enabled
	}
}

func buildRequestOptions(opts []RequestOption) engine.RequestOptions {
	var out engine.RequestOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}
