package observability

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"
)

var (
	// CLILogger is used for CLI commands (SIMPLE profile)
	CLILogger *logging.Logger

	// ServerLogger is used for HTTP server (STRUCTURED profile)
	ServerLogger *logging.Logger
)

// InitCLILogger installs the console logger used by commands. Verbose
// lowers the level to debug.
func InitCLILogger(serviceName string, verbose bool) error {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		return fmt.Errorf("initialize CLI logger: %w", err)
	}
	if verbose {
		logger.SetLevel(logging.DEBUG)
	}
	CLILogger = logger
	return nil
}

// ServerLoggerOptions selects how the gateway logs.
type ServerLoggerOptions struct {
	Level string

	// Profile is SIMPLE (console lines) or STRUCTURED (JSON with correlation IDs).
	Profile string

	Namespace string

	// Upstream is the API host, stamped on every line.
	Upstream string
}

// InitServerLogger installs the gateway logger built from opts.
func InitServerLogger(serviceName string, opts ServerLoggerOptions) error {
	logger, err := logging.New(serverLoggerConfig(serviceName, opts))
	if err != nil {
		return fmt.Errorf("initialize server logger: %w", err)
	}
	ServerLogger = logger
	return nil
}

func serverLoggerConfig(serviceName string, opts ServerLoggerOptions) *logging.LoggerConfig {
	staticFields := make(map[string]any)
	if opts.Namespace != "" {
		staticFields["namespace"] = opts.Namespace
	}
	if opts.Upstream != "" {
		staticFields["upstream"] = opts.Upstream
	}

	config := &logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: parseLogLevel(opts.Level),
		Service:      serviceName,
		Environment:  "production",
		StaticFields: staticFields,
		Middleware: []logging.MiddlewareConfig{
			{
				Name:    "correlation",
				Enabled: true,
				Order:   100,
				Config:  make(map[string]any),
			},
		},
		Sinks: []logging.SinkConfig{
			{
				Type:   "console",
				Format: "json",
				Console: &logging.ConsoleSinkConfig{
					Stream:   "stderr",
					Colorize: false,
				},
			},
		},
		EnableCaller:     true,
		EnableStacktrace: true,
	}

	if strings.EqualFold(strings.TrimSpace(opts.Profile), "simple") {
		config.Profile = logging.ProfileSimple
		config.Middleware = nil
		config.Sinks[0].Format = "console"
		config.EnableCaller = false
		config.EnableStacktrace = false
	}

	return config
}

// parseLogLevel maps config level names onto gofulmen severities; unknown
// names log at INFO.
func parseLogLevel(levelStr string) string {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "trace":
		return "TRACE"
	case "debug":
		return "DEBUG"
	case "info":
		return "INFO"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	default:
		return "INFO"
	}
}
