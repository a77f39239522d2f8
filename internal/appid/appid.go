// Package appid resolves the application identity, preferring an external
// .fulmen/app.yaml and falling back to the copy embedded in the binary.
package appid

import (
	"context"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/manacube/manacube-go/internal/assets/appidentity"
)

// DefaultEnvPrefix applies when no identity can be loaded.
const DefaultEnvPrefix = "MANACUBE_"

func init() {
	// FULMEN_APP_IDENTITY_PATH and explicit paths still win over this.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}

// EnvPrefix returns the identity's environment prefix, always ending in "_".
func EnvPrefix(ctx context.Context) string {
	prefix := DefaultEnvPrefix
	if identity, err := Get(ctx); err == nil && identity != nil && identity.EnvPrefix != "" {
		prefix = identity.EnvPrefix
	}
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return prefix
}

// EnvVar names an application environment variable, e.g. EnvVar(ctx, "API_KEY").
func EnvVar(ctx context.Context, suffix string) string {
	return EnvPrefix(ctx) + suffix
}
