package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/manacube/manacube-go/internal/config"
	errwrap "github.com/manacube/manacube-go/internal/errors"
	"github.com/manacube/manacube-go/internal/metrics"
	"github.com/manacube/manacube-go/internal/observability"
	"github.com/manacube/manacube-go/internal/server"
	"github.com/manacube/manacube-go/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// signalHealthChecker implements HealthChecker for signal system
type signalHealthChecker struct{}

func (s signalHealthChecker) CheckHealth(ctx context.Context) error {
	// Check if signal system is responsive
	// This is a basic check - in production you might want more sophisticated checks
	return nil // Signal handlers are registered and ready
}

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.binaryName == "":
		return errwrap.NewConfigInvalidError("app identity missing binary name")
	case i.envPrefix == "":
		return errwrap.NewConfigInvalidError("app identity missing env prefix")
	case i.configName == "":
		return errwrap.NewConfigInvalidError("app identity missing config name")
	}
	return nil
}

func upstreamHost(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// upstreamHealthChecker reports an open rate-limit window. With queueing on
// callers still get answers, just later, so the check is only degraded.
type upstreamHealthChecker struct {
	client *apiClient
}

func (u upstreamHealthChecker) CheckHealth(ctx context.Context) error {
	status := u.client.Status()
	if !status.RateLimited {
		return nil
	}
	wait := status.Wait.Round(time.Second)
	if status.Queueing {
		return fmt.Errorf("upstream rate limited for %s: %w", wait, handlers.ErrDegraded)
	}
	return errwrap.NewServiceUnavailableError(fmt.Sprintf("upstream rate limited for %s", wait))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API gateway",
	Long: `Start an HTTP gateway that forwards GET /v1/<path> to the ManaCube API
through one shared rate-limited client. GET /queue reports the backoff window
and queue depth.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Re-read config and apply queue.enabled

The server will cleanly shut down the HTTP server and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get app identity for telemetry namespace
		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "config load failed")
		}

		// Initialize server logger with namespace
		if err := observability.InitServerLogger(identity.BinaryName, observability.ServerLoggerOptions{
			Level:     cfg.Logging.Level,
			Profile:   cfg.Logging.Profile,
			Namespace: namespace,
			Upstream:  upstreamHost(cfg.API.BaseURL),
		}); err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "server logger init failed")
		}
		if !cmd.Flags().Changed("host") && cfg.Server.Host != "" {
			serverHost = cfg.Server.Host
		}
		if !cmd.Flags().Changed("port") && cfg.Server.Port != 0 {
			serverPort = cfg.Server.Port
		}

		client, err := newAPIClientWith(cmd.Context(), cfg, observability.ServerLogger)
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "client initialization failed")
		}

		metricsPort := cfg.Metrics.Port
		if metricsPort == 0 {
			metricsPort = 9090
		}

		// Initialize metrics with namespace
		if err := observability.InitMetrics(identity.BinaryName, observability.MetricsOptions{
			Enabled:   cfg.Metrics.Enabled,
			Port:      metricsPort,
			Namespace: namespace,
		}); err != nil {
			observability.ServerLogger.Error("Failed to initialize metrics",
				zap.Error(err))
			return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
		}

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("host", serverHost),
			zap.Int("port", serverPort),
			zap.Int("metrics_port", metricsPort))

		// Initialize health manager
		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		hm.RegisterChecker("signal_handlers", signalHealthChecker{})
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}
		hm.RegisterChecker("app_identity", identityHealthChecker{
			binaryName: identity.BinaryName,
			envPrefix:  identity.EnvPrefix,
			configName: identity.ConfigName,
		})
		hm.RegisterChecker("upstream", upstreamHealthChecker{client: client})

		// Create server
		srv := server.New(serverHost, serverPort, client)
		srv.SetTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout)

		// Set app identity for handlers
		handlers.SetAppIdentity(identity)
		handlers.SetUpstreamInfo(handlers.UpstreamInfo{
			BaseURL:  cfg.API.BaseURL,
			Queueing: cfg.Queue.Enabled,
		})

		// Get shutdown timeout from config
		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Register graceful shutdown handlers (LIFO order - last registered, first executed)
		// Handler 1: Flush logger (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		// Handler 2: Reject queued calls and release the store
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Closing API client...")
			return client.Close()
		})

		// Handler 3: Shutdown HTTP server (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Register config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: attempting config reload")

			// Attempt to reload configuration
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					observability.ServerLogger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				observability.ServerLogger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			observability.ServerLogger.Info("Configuration reloaded successfully",
				zap.String("file", viper.ConfigFileUsed()))

			if viper.IsSet("queue.enabled") {
				enabled := client.SetQueueing(viper.GetBool("queue.enabled"))
				observability.ServerLogger.Info("Queueing mode applied", zap.Bool("queueing", enabled))
				handlers.SetUpstreamInfo(handlers.UpstreamInfo{BaseURL: cfg.API.BaseURL, Queueing: enabled})
			}

			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		metrics.SetServerStartTime(time.Now().Unix())

		// Start server in background goroutine
		errChan := make(chan error, 1)
		go func() {
			observability.ServerLogger.Info("Starting HTTP server...",
				zap.String("host", serverHost),
				zap.Int("port", serverPort))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Start signal listener in background
		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		// Wait for error or shutdown completion
		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "gateway host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "gateway port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
