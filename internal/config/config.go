package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration.
// Layer 1: built-in defaults (Defaults)
// Layer 2: user config file and environment, as read by viper
// Layer 3: explicit environment specs and runtime overrides
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Rate    RateConfig    `mapstructure:"rate"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Server  ServerConfig  `mapstructure:"server"`
	Health  HealthConfig  `mapstructure:"health"`
}

// APIConfig points the client at the ManaCube API.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url" validate:"required,url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	UserAgent string        `mapstructure:"user_agent"`

	// SafeUUIDCheck validates and normalises UUID arguments before sending.
	SafeUUIDCheck bool `mapstructure:"safe_uuid_check"`

	// ValidateResponses checks decoded payloads against their struct tags.
	ValidateResponses bool `mapstructure:"validate_responses"`
}

// QueueConfig controls rate-limit queueing.
type QueueConfig struct {
	// Enabled makes rate-limited calls wait in the queue instead of failing fast.
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=1,lte=20"`
	MaxIterations  int           `mapstructure:"max_iterations" validate:"gte=1"`
	DefaultBackoff time.Duration `mapstructure:"default_backoff" validate:"gt=0"`
	WaitSlack      time.Duration `mapstructure:"wait_slack" validate:"gte=0"`
	IterationDelay time.Duration `mapstructure:"iteration_delay" validate:"gte=0"`
}

// RateConfig paces outgoing requests on the client side. Zero disables pacing.
type RateConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver" validate:"omitempty,oneof=libsql"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`

	// PersistRateLimit saves the backoff window so later runs honour it.
	PersistRateLimit bool `mapstructure:"persist_rate_limit"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn warning error"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// ServerConfig contains HTTP gateway configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Defaults returns the built-in configuration layer as nested settings.
func Defaults() map[string]any {
	return map[string]any{
		"api": map[string]any{
			"base_url":           "https://api.manacube.com/api/",
			"api_key":            "",
			"timeout":            "10s",
			"user_agent":         "",
			"safe_uuid_check":    true,
			"validate_responses": false,
		},
		"queue": map[string]any{
			"enabled":         true,
			"max_retries":     3,
			"max_iterations":  1000,
			"default_backoff": "60s",
			"wait_slack":      "100ms",
			"iteration_delay": "100ms",
		},
		"rate": map[string]any{
			"requests_per_second": 0.0,
			"burst":               1,
		},
		"store": map[string]any{
			"driver":             "libsql",
			"path":               "",
			"url":                "",
			"auth_token":         "",
			"persist_rate_limit": true,
		},
		"logging": map[string]any{
			"level":   "info",
			"profile": "SIMPLE",
		},
		"metrics": map[string]any{
			"enabled": true,
			"port":    9090,
		},
		"server": map[string]any{
			"host":             "localhost",
			"port":             8080,
			"read_timeout":     "30s",
			"write_timeout":    "30s",
			"idle_timeout":     "120s",
			"shutdown_timeout": "10s",
		},
		"health": map[string]any{
			"enabled": true,
		},
	}
}
