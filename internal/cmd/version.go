package cmd

import (
	"fmt"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	manacube "github.com/manacube/manacube-go"
	"github.com/manacube/manacube-go/internal/config"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for build, runtime and API endpoint details.",
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := GetAppIdentity()

		if extended {
			fmt.Printf("%s %s\n", identity.BinaryName, versionInfo.Version)
			fmt.Printf("Commit: %s\n", versionInfo.Commit)
			fmt.Printf("Built: %s\n", versionInfo.BuildDate)
			fmt.Printf("Go: %s\n", runtime.Version())
			fmt.Printf("API: %s\n", apiBaseURL(cmd))
			fmt.Printf("\n")

			version := crucible.GetVersion()
			fmt.Printf("Gofulmen: %s\n", version.Gofulmen)
			fmt.Printf("Crucible: %s\n", version.Crucible)
		} else {
			fmt.Printf("%s %s\n", identity.BinaryName, versionInfo.Version)
		}
		return nil
	},
}

// apiBaseURL reports the configured API base URL, falling back to the
// built-in default when config cannot be loaded.
func apiBaseURL(cmd *cobra.Command) string {
	if cfg, err := config.Load(cmd.Context()); err == nil && cfg.API.BaseURL != "" {
		return cfg.API.BaseURL
	}
	if base := viper.GetString("api.base_url"); base != "" {
		return base
	}
	return manacube.DefaultBaseURL
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
}
