package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/manacube/manacube-go/internal/config"
	errwrap "github.com/manacube/manacube-go/internal/errors"
	"github.com/manacube/manacube-go/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Run a self-health check to verify the application can load its config and build an API client.",
	Run: func(cmd *cobra.Command, args []string) {
		observability.CLILogger.Info("Running health check...")

		// Check 1: Version info available
		if versionInfo.Version == "" {
			observability.CLILogger.Error("❌ FAIL: Version information missing")
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		observability.CLILogger.Debug("Version check passed", zap.String("version", versionInfo.Version))
		observability.CLILogger.Info("✅ Version information available")

		// Check 2: Logger initialized
		if observability.CLILogger == nil {
			// Can't log if logger is nil, so use stderr
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Logger not initialized", errwrap.NewConfigInvalidError("Logger not initialized"))
			return
		}
		observability.CLILogger.Info("✅ Logger initialized")

		// Check 3: Configuration loaded
		cfg, err := config.Load(cmd.Context())
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(cmd.Context(), err, "config load failed"))
			return
		}
		observability.CLILogger.Info("✅ Configuration loaded", zap.String("base_url", cfg.API.BaseURL))

		// Check 4: Client builds from config
		client, err := newAPIClientWith(cmd.Context(), cfg, observability.CLILogger)
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "API client could not be built", errwrap.WrapConfigInvalid(cmd.Context(), err, "client init failed"))
			return
		}
		status := client.Status()
		_ = client.Close()
		if status.RateLimited {
			observability.CLILogger.Warn("⚠️  API rate limit window open", zap.Duration("wait", status.Wait))
		} else {
			observability.CLILogger.Info("✅ API client ready")
		}

		// Overall status
		observability.CLILogger.Info("")
		observability.CLILogger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
