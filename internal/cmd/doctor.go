package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	manacube "github.com/manacube/manacube-go"
	"github.com/manacube/manacube-go/internal/appid"
	"github.com/manacube/manacube-go/internal/config"
	"github.com/manacube/manacube-go/internal/core/store"
	errwrap "github.com/manacube/manacube-go/internal/errors"
	"github.com/manacube/manacube-go/internal/observability"
)

var doctorProbe bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Run diagnostic checks on the system and suggest fixes for common issues.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		identity := GetAppIdentity()
		bannerName := "doctor"
		if identity != nil && identity.BinaryName != "" {
			bannerName = identity.BinaryName + " doctor"
		}
		observability.CLILogger.Info("=== " + bannerName + " ===")
		observability.CLILogger.Info("")
		observability.CLILogger.Info("Running diagnostic checks...")
		observability.CLILogger.Info("")

		allChecks := true
		totalChecks := 7

		// Check 1: Go version
		goVersion := runtime.Version()
		if goVersion >= "go1.23" {
			observability.CLILogger.Info(fmt.Sprintf("[1/%d] Checking Go version... ✅ %s", totalChecks, goVersion), zap.String("go_version", goVersion))
		} else {
			observability.CLILogger.Warn(fmt.Sprintf("[1/%d] Checking Go version... ⚠️  %s (recommended: go1.23+)", totalChecks, goVersion), zap.String("go_version", goVersion))
			allChecks = false
		}

		// Check 2: Crucible access
		version := crucible.GetVersion()
		if version.Crucible != "" {
			observability.CLILogger.Info(fmt.Sprintf("[2/%d] Checking Crucible access... ✅ v%s", totalChecks, version.Crucible), zap.String("crucible_version", version.Crucible))
		} else {
			observability.CLILogger.Error(fmt.Sprintf("[2/%d] Checking Crucible access... ❌ Cannot access Crucible", totalChecks))
			ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Cannot access Crucible", errwrap.NewExternalServiceError("Crucible service unavailable"))
			allChecks = false
		}

		// Check 3: Config directory
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			observability.CLILogger.Error(fmt.Sprintf("[3/%d] Checking config directory... ❌ Cannot resolve config directory", totalChecks))
			ExitWithCode(observability.CLILogger, foundry.ExitFileNotFound, "Cannot resolve config directory", errwrap.NewInternalError("config directory not resolved"))
			allChecks = false
		} else {
			configDir := filepath.Dir(configPath)
			observability.CLILogger.Info(fmt.Sprintf("[3/%d] Checking config directory... ✅ %s", totalChecks, configDir), zap.String("config_dir", configDir))
		}

		// Check 4: Config
		cfg, cfgErr := config.Load(ctx)
		if cfgErr != nil {
			observability.CLILogger.Warn(fmt.Sprintf("[4/%d] Checking config... ⚠️  not loaded", totalChecks), zap.Error(cfgErr))
			allChecks = false
		} else {
			observability.CLILogger.Info(fmt.Sprintf("[4/%d] Checking config... ✅ %s", totalChecks, cfg.API.BaseURL), zap.String("base_url", cfg.API.BaseURL))
		}

		// Check 5: Database
		var db *store.Store
		switch {
		case cfgErr != nil:
			observability.CLILogger.Warn(fmt.Sprintf("[5/%d] Checking database... ⚠️  skipped (config not loaded)", totalChecks))
		case !cfg.Store.PersistRateLimit:
			observability.CLILogger.Info(fmt.Sprintf("[5/%d] Checking database... ✅ persistence disabled", totalChecks))
		default:
			opened, err := openStoreWith(ctx, cfg.Store)
			if err != nil {
				observability.CLILogger.Warn(fmt.Sprintf("[5/%d] Checking database... ⚠️  cannot open store", totalChecks), zap.Error(err))
				allChecks = false
				break
			}
			db = opened
			defer db.Close() //nolint:errcheck
			version, _ := db.Version(ctx)
			observability.CLILogger.Info(fmt.Sprintf("[5/%d] Checking database... ✅ %s (schema v%d/%d)", totalChecks, describeStore(cfg.Store), version, store.SchemaVersion()))
		}

		// Check 6: Stored rate limit windows
		if db != nil {
			entries, err := db.ListRateLimits(ctx, store.RateLimitQuery{All: true})
			if err != nil {
				observability.CLILogger.Warn(fmt.Sprintf("[6/%d] Checking rate limit state... ⚠️  cannot read", totalChecks), zap.Error(err))
				allChecks = false
			} else {
				active := 0
				now := time.Now()
				for _, entry := range entries {
					if entry.State.Active(now) {
						active++
						observability.CLILogger.Warn(fmt.Sprintf("       %s limited until %s", entry.Endpoint, entry.State.Until.Local().Format(time.Kitchen)))
					}
				}
				if active == 0 {
					observability.CLILogger.Info(fmt.Sprintf("[6/%d] Checking rate limit state... ✅ no open windows (%d stored)", totalChecks, len(entries)))
				} else {
					observability.CLILogger.Warn(fmt.Sprintf("[6/%d] Checking rate limit state... ⚠️  %d open window(s)", totalChecks, active))
				}
			}
		} else {
			observability.CLILogger.Info(fmt.Sprintf("[6/%d] Checking rate limit state... skipped", totalChecks))
		}

		// Check 7: API reachability
		switch {
		case !doctorProbe:
			observability.CLILogger.Info(fmt.Sprintf("[7/%d] Checking API... skipped (use --probe)", totalChecks))
		case cfgErr != nil:
			observability.CLILogger.Warn(fmt.Sprintf("[7/%d] Checking API... ⚠️  skipped (config not loaded)", totalChecks))
		default:
			if err := probeAPI(cmd, cfg); err != nil {
				observability.CLILogger.Warn(fmt.Sprintf("[7/%d] Checking API... ⚠️  %v", totalChecks, err))
				allChecks = false
			} else {
				observability.CLILogger.Info(fmt.Sprintf("[7/%d] Checking API... ✅ reachable", totalChecks))
			}
		}

		observability.CLILogger.Info("")
		if allChecks {
			appName := "manacube"
			if identity != nil && identity.BinaryName != "" {
				appName = identity.BinaryName
			}
			observability.CLILogger.Info(fmt.Sprintf("✅ All checks passed! Your %s installation is healthy.", appName))
		} else {
			observability.CLILogger.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
		observability.CLILogger.Info("")
		observability.CLILogger.Info("=== End Diagnostics ===")
	},
}

// probeAPI sends one cheap request without queueing so an open window is
// reported instead of waited out.
func probeAPI(cmd *cobra.Command, cfg *config.Config) error {
	probeCfg := *cfg
	probeCfg.Store.PersistRateLimit = false
	client, err := newAPIClientWith(cmd.Context(), &probeCfg, observability.CLILogger)
	if err != nil {
		return err
	}
	defer client.Close() // nolint:errcheck // best-effort cleanup

	_, err = client.GetOnlineCount(cmd.Context(), manacube.Queueing(false))
	var limited *manacube.RateLimitedError
	if errors.As(err, &limited) {
		return fmt.Errorf("rate limited for %ds", limited.Seconds())
	}
	return err
}

func describeStore(cfg config.StoreConfig) string {
	if cfg.URL != "" {
		return cfg.URL + " (remote)"
	}
	dbPath := cfg.Path
	if dbPath == "" {
		dbPath = config.DefaultStorePath()
	}
	absPath, _ := filepath.Abs(dbPath)
	if info, err := os.Stat(absPath); err == nil {
		return fmt.Sprintf("%s (%s)", absPath, formatFileSize(info.Size()))
	}
	return absPath
}

var (
	doctorInitForce   bool
	doctorInitAPIKey  string
	doctorResetConfig bool
	doctorResetData   bool
	doctorResetAll    bool
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}

		if _, err := os.Stat(configPath); err == nil && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		apiKey := strings.TrimSpace(doctorInitAPIKey)
		if strings.EqualFold(apiKey, "prompt") {
			key, err := promptForValue("Enter ManaCube API key (leave blank to skip): ")
			if err != nil {
				return err
			}
			apiKey = key
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		mode := os.FileMode(0644)
		if apiKey != "" {
			mode = 0600
		}

		if err := os.WriteFile(configPath, []byte(buildInitConfig(apiKey)), mode); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

var doctorConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration status and paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		dataDir := config.DefaultDataDir()

		observability.CLILogger.Info("Configuration:")
		observability.CLILogger.Info(fmt.Sprintf("  Config file:    %s (%s)", configPath, existenceStatus(fileExists(configPath))))
		if dataDir != "" {
			observability.CLILogger.Info(fmt.Sprintf("  Data directory: %s (%s)", dataDir, existenceStatus(fileExists(dataDir))))
		} else {
			observability.CLILogger.Info("  Data directory: (not resolved)")
		}

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			observability.CLILogger.Warn("Config load failed", zap.Error(err))
			return nil
		}
		observability.CLILogger.Info("  Database:       " + describeStore(cfg.Store))

		observability.CLILogger.Info("")
		observability.CLILogger.Info("Environment:")
		for _, suffix := range []string{"API_KEY", "BASE_URL", "QUEUE_ENABLED"} {
			name := appid.EnvVar(cmd.Context(), suffix)
			observability.CLILogger.Info(fmt.Sprintf("  %s: %s", name, envStatus(name)))
		}

		observability.CLILogger.Info("")
		observability.CLILogger.Info("Effective Settings:")
		observability.CLILogger.Info(fmt.Sprintf("  queue.enabled: %t", cfg.Queue.Enabled))
		observability.CLILogger.Info(fmt.Sprintf("  queue.max_retries: %d", cfg.Queue.MaxRetries))
		observability.CLILogger.Info(fmt.Sprintf("  store.persist_rate_limit: %t", cfg.Store.PersistRateLimit))
		return nil
	},
}

var doctorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset user configuration and/or data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if doctorResetAll {
			doctorResetConfig = true
			doctorResetData = true
		}

		if !doctorResetConfig && !doctorResetData {
			return fmt.Errorf("specify --config, --data, or --all")
		}

		if doctorResetConfig {
			configPath := config.DefaultConfigPath()
			if configPath == "" {
				observability.CLILogger.Warn("Config path not resolved; skipping config reset")
			} else if err := os.Remove(configPath); err == nil {
				observability.CLILogger.Info("Config removed", zap.String("path", configPath))
			} else if os.IsNotExist(err) {
				observability.CLILogger.Info("Config already removed", zap.String("path", configPath))
			} else {
				return fmt.Errorf("remove config file: %w", err)
			}
		}

		if doctorResetData {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Store.URL != "" {
				return fmt.Errorf("remote store configured; use 'rate-limit reset --all --yes' instead")
			}

			dbPath := cfg.Store.Path
			if dbPath == "" {
				dbPath = config.DefaultStorePath()
			}
			absPath, _ := filepath.Abs(dbPath)
			if err := os.Remove(absPath); err == nil {
				observability.CLILogger.Info("Database removed", zap.String("path", absPath))
			} else if os.IsNotExist(err) {
				observability.CLILogger.Info("Database already removed", zap.String("path", absPath))
			} else {
				return fmt.Errorf("remove database: %w", err)
			}
		}

		return nil
	},
}

var doctorValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", configPath)
		}

		if _, err := config.Load(cmd.Context()); err != nil {
			return err
		}

		observability.CLILogger.Info("Config is valid", zap.String("path", configPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)
	doctorCmd.AddCommand(doctorConfigCmd)
	doctorCmd.AddCommand(doctorResetCmd)
	doctorCmd.AddCommand(doctorValidateCmd)

	doctorCmd.Flags().BoolVar(&doctorProbe, "probe", false, "send one request to check the API is reachable")

	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
	doctorInitCmd.Flags().StringVar(&doctorInitAPIKey, "api-key", "", "set the API key or use 'prompt' to enter")

	doctorResetCmd.Flags().BoolVar(&doctorResetConfig, "config", false, "remove user config file")
	doctorResetCmd.Flags().BoolVar(&doctorResetData, "data", false, "remove local database")
	doctorResetCmd.Flags().BoolVar(&doctorResetAll, "all", false, "remove config and data")
}

// formatFileSize returns a human-readable file size
func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

func buildInitConfig(apiKey string) string {
	lines := []string{
		"# manacube config - created by 'manacube doctor init'",
		"api:",
		"  base_url: " + manacube.DefaultBaseURL,
	}

	if strings.TrimSpace(apiKey) != "" {
		lines = append(lines, fmt.Sprintf("  api_key: %q", apiKey))
	} else {
		lines = append(lines, "  # api_key: \"\"  # Set via MANACUBE_API_KEY or uncomment")
	}

	lines = append(lines,
		"queue:",
		"  enabled: true",
		"  max_retries: 3",
		"store:",
		"  persist_rate_limit: true",
	)

	return strings.Join(lines, "\n") + "\n"
}

func promptForValue(prompt string) (string, error) {
	if _, err := fmt.Fprint(os.Stdout, prompt); err != nil {
		return "", err
	}
	reader := bufio.NewReader(os.Stdin)
	value, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func existenceStatus(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}

func envStatus(name string) string {
	if strings.TrimSpace(os.Getenv(name)) != "" {
		return "(set)"
	}
	return "(not set)"
}
