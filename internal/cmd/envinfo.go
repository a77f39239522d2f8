package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/manacube/manacube-go/internal/config"
	"github.com/manacube/manacube-go/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display comprehensive environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		version := crucible.GetVersion()

		observability.CLILogger.Info("=== ManaCube Environment Information ===")
		observability.CLILogger.Info("")

		// Application Info
		identity := GetAppIdentity()
		observability.CLILogger.Info("Application:")
		observability.CLILogger.Info("  Name:       " + identity.BinaryName)
		observability.CLILogger.Info("  Version:    " + versionInfo.Version)
		observability.CLILogger.Info("  Commit:     " + versionInfo.Commit)
		observability.CLILogger.Info("  Built:      " + versionInfo.BuildDate)
		observability.CLILogger.Info("")

		// SSOT Info
		observability.CLILogger.Info("SSOT:")
		observability.CLILogger.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		observability.CLILogger.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		observability.CLILogger.Info("")

		// Runtime Info
		observability.CLILogger.Info("Runtime:")
		observability.CLILogger.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		observability.CLILogger.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		observability.CLILogger.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		observability.CLILogger.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		observability.CLILogger.Info("")

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			observability.CLILogger.Warn("Config load failed", zap.Error(err))
			return
		}

		// Configuration
		observability.CLILogger.Info("Configuration:")
		observability.CLILogger.Info("  API Base URL:   "+cfg.API.BaseURL, zap.String("base_url", cfg.API.BaseURL))
		observability.CLILogger.Info("  API Key:        "+secretStatus(cfg.API.APIKey))
		observability.CLILogger.Info("  API Timeout:    "+cfg.API.Timeout.String(), zap.Duration("timeout", cfg.API.Timeout))
		observability.CLILogger.Info(fmt.Sprintf("  UUID Check:     %t", cfg.API.SafeUUIDCheck), zap.Bool("safe_uuid_check", cfg.API.SafeUUIDCheck))
		observability.CLILogger.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		observability.CLILogger.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		observability.CLILogger.Info("  DB Driver:      "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		if strings.TrimSpace(cfg.Store.URL) != "" {
			observability.CLILogger.Info("  DB URL:         "+cfg.Store.URL, zap.String("db_url", cfg.Store.URL))
		} else {
			observability.CLILogger.Info("  DB Path:        "+cfg.Store.Path, zap.String("db_path", cfg.Store.Path))
		}
		observability.CLILogger.Info(fmt.Sprintf("  Server:         %s:%d", cfg.Server.Host, cfg.Server.Port))
		observability.CLILogger.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		observability.CLILogger.Info("  Config File:    "+config.DefaultConfigPath(), zap.String("config_file", config.DefaultConfigPath()))
		observability.CLILogger.Info("")

		// Rate limit queue
		observability.CLILogger.Info("Queue:")
		observability.CLILogger.Info(fmt.Sprintf("  Enabled:          %t", cfg.Queue.Enabled), zap.Bool("queue_enabled", cfg.Queue.Enabled))
		observability.CLILogger.Info(fmt.Sprintf("  Max Retries:      %d", cfg.Queue.MaxRetries))
		observability.CLILogger.Info(fmt.Sprintf("  Max Iterations:   %d", cfg.Queue.MaxIterations))
		observability.CLILogger.Info("  Default Backoff:  " + cfg.Queue.DefaultBackoff.String())
		observability.CLILogger.Info(fmt.Sprintf("  Persist Window:   %t", cfg.Store.PersistRateLimit))
		if cfg.Rate.RequestsPerSecond > 0 {
			observability.CLILogger.Info(fmt.Sprintf("  Request Rate:     %.2f/s (burst %d)", cfg.Rate.RequestsPerSecond, cfg.Rate.Burst))
		} else {
			observability.CLILogger.Info("  Request Rate:     unlimited")
		}
		observability.CLILogger.Info("")

		observability.CLILogger.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}

func secretStatus(value string) string {
	if strings.TrimSpace(value) != "" {
		return "(set)"
	}
	return "(not set)"
}
