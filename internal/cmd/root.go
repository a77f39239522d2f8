package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/manacube/manacube-go/internal/appid"
	"github.com/manacube/manacube-go/internal/config"
	"github.com/manacube/manacube-go/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// App identity loaded from .fulmen/app.yaml
	appIdentity *appidentity.Identity

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// GetAppIdentity returns the loaded app identity (only valid after initConfig)
func GetAppIdentity() *appidentity.Identity {
	return appIdentity
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	// NOTE: initConfig() overwrites these from app identity.
	Use:   filepath.Base(os.Args[0]),
	Short: "Rate-limit-aware client for the ManaCube statistics API",
	Long: `Query the ManaCube statistics API from the command line.

Requests share one rate-limit window. While the server is limiting, calls
either fail fast or wait in a queue until the window closes.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Disable global telemetry early to prevent config loading from emitting
	// metrics to stdout. Server mode will initialize proper telemetry later.
	if sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: false}); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	// Load app identity early for help text (before cobra processes --help)
	if identity, err := appid.Get(context.Background()); err == nil {
		applyIdentity(identity)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; defaults to app identity config path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// applyIdentity points the root command's help surfaces at identity.
func applyIdentity(identity *appidentity.Identity) {
	if identity == nil {
		return
	}
	appIdentity = identity
	if identity.BinaryName != "" {
		rootCmd.Use = identity.BinaryName
	}
	if identity.Description != "" {
		rootCmd.Short = identity.Description
	}
	if f := rootCmd.PersistentFlags().Lookup("config"); f != nil && identity.ConfigName != "" {
		f.Usage = fmt.Sprintf("config file (default is $XDG_CONFIG_HOME/%s/config.yaml)", identity.ConfigName)
	}
}

// initConfig resolves the config file, binds MANACUBE_* environment
// variables and registers defaults.
func initConfig() {
	identity, err := appid.Get(context.Background())
	if err != nil {
		ExitWithCodeStderr(foundry.ExitFileNotFound, "Failed to load app identity from .fulmen/app.yaml", err)
	}
	applyIdentity(identity)

	if err := observability.InitCLILogger(appIdentity.BinaryName, verbose); err != nil {
		ExitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize CLI logger", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		addConfigSearchPaths(appIdentity.ConfigName)
	}

	// MANACUBE_API_BASE_URL -> api.base_url
	viper.SetEnvPrefix(strings.TrimSuffix(appIdentity.EnvPrefix, "_"))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	switch {
	case err == nil:
		observability.CLILogger.Debug("Using config file", zap.String("path", viper.ConfigFileUsed()))
	case isConfigNotFound(err):
		observability.CLILogger.Debug("No config file found, using defaults and environment variables")
	default:
		observability.CLILogger.Warn("Error reading config file", zap.Error(err))
	}

	setDefaults()
}

// addConfigSearchPaths looks in the XDG config dir, falling back to a
// dotfile in the home directory, then ./config.
func addConfigSearchPaths(configName string) {
	if dir := gfconfig.GetAppConfigDir(configName); dir != "" {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
	} else {
		observability.CLILogger.Debug("Could not resolve XDG config directory, falling back to home directory")
		home, err := os.UserHomeDir()
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitFileNotFound, "Could not find home directory", err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName("." + configName)
	}
	viper.AddConfigPath("./config")
	viper.SetConfigType("yaml")
}

func isConfigNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return stderrors.As(err, &notFound)
}

// setDefaults registers the built-in config layer with viper so commands
// reading viper directly see the same values as config.Load.
func setDefaults() {
	for key, value := range flattenSettings("", config.Defaults()) {
		viper.SetDefault(key, value)
	}
	viper.SetDefault("store.path", config.DefaultStorePath())
}

func flattenSettings(prefix string, settings map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range settings {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenSettings(full, nested) {
				out[k] = v
			}
			continue
		}
		out[full] = value
	}
	return out
}
