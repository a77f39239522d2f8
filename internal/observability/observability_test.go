package observability

import (
	"testing"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitCLILogger(t *testing.T) {
	require.NoError(t, InitCLILogger("manacube-test", false))
	require.NotNil(t, CLILogger)

	CLILogger.Info("Test CLI log message", zap.String("test", "value"))
}

func TestInitServerLoggerStructured(t *testing.T) {
	require.NoError(t, InitServerLogger("manacube-test", ServerLoggerOptions{
		Level:     "debug",
		Profile:   "STRUCTURED",
		Namespace: "manacube",
		Upstream:  "api.manacube.com",
	}))
	require.NotNil(t, ServerLogger)

	ServerLogger.Info("Test structured log message",
		zap.String("component", "test"),
		zap.Int("queue_depth", 3))
}

func TestServerLoggerConfig(t *testing.T) {
	t.Run("structured", func(t *testing.T) {
		cfg := serverLoggerConfig("svc", ServerLoggerOptions{
			Level:     "warn",
			Profile:   "STRUCTURED",
			Namespace: "manacube",
			Upstream:  "api.manacube.com",
		})

		assert.Equal(t, logging.ProfileStructured, cfg.Profile)
		assert.Equal(t, "WARN", cfg.DefaultLevel)
		assert.Equal(t, "json", cfg.Sinks[0].Format)
		assert.Len(t, cfg.Middleware, 1)
		assert.Equal(t, "manacube", cfg.StaticFields["namespace"])
		assert.Equal(t, "api.manacube.com", cfg.StaticFields["upstream"])
	})

	t.Run("simple", func(t *testing.T) {
		cfg := serverLoggerConfig("svc", ServerLoggerOptions{Profile: "simple"})

		assert.Equal(t, logging.ProfileSimple, cfg.Profile)
		assert.Equal(t, "INFO", cfg.DefaultLevel)
		assert.Equal(t, "console", cfg.Sinks[0].Format)
		assert.Empty(t, cfg.Middleware)
		assert.Empty(t, cfg.StaticFields)

		logger, err := logging.New(cfg)
		require.NoError(t, err)
		logger.Info("Simple profile message")
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{
		"trace":   "TRACE",
		"DEBUG":   "DEBUG",
		" info ":  "INFO",
		"warning": "WARN",
		"error":   "ERROR",
		"bogus":   "INFO",
		"":        "INFO",
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestInitMetricsDisabled(t *testing.T) {
	t.Cleanup(func() { TelemetrySystem = nil })

	require.NoError(t, InitMetrics("manacube-test", MetricsOptions{Enabled: false, Port: 9999}))
	assert.NotNil(t, TelemetrySystem)
	assert.Nil(t, PrometheusExporter)
	assert.Zero(t, GetMetricsPort())
}

func TestResolvePort(t *testing.T) {
	port, err := resolvePort("127.0.0.1:9191")
	require.NoError(t, err)
	assert.Equal(t, 9191, port)

	_, err = resolvePort("no-port")
	assert.Error(t, err)
}

func TestEmbeddedCrucible(t *testing.T) {
	version := crucible.GetVersion()
	assert.NotEmpty(t, version.Gofulmen)
	assert.NotEmpty(t, version.Crucible)
}
