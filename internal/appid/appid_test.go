package appid

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appidentityassets "github.com/manacube/manacube-go/internal/assets/appidentity"
)

// resetIdentity clears gofulmen's process-wide identity cache and
// re-registers the embedded copy.
func resetIdentity(t *testing.T) {
	t.Helper()
	appidentity.Reset()
	require.NoError(t, appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML))
	t.Cleanup(func() { appidentity.Reset() })
}

func chdirTemp(t *testing.T) {
	t.Helper()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
}

func TestEmbeddedIdentityOutsideRepo(t *testing.T) {
	resetIdentity(t)
	t.Setenv(appidentity.EnvIdentityPath, "")
	chdirTemp(t)

	identity, err := Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "manacube", identity.BinaryName)
	assert.Equal(t, "manacube", identity.ConfigName)
	assert.Equal(t, "MANACUBE_", identity.EnvPrefix)
	assert.Equal(t, "MANACUBE_API_KEY", EnvVar(context.Background(), "API_KEY"))
}

func TestExplicitIdentityPathIsAuthoritative(t *testing.T) {
	resetIdentity(t)
	t.Setenv(appidentity.EnvIdentityPath, filepath.Join(t.TempDir(), "missing-app.yaml"))

	_, err := Get(context.Background())
	var notFound *appidentity.NotFoundError
	require.True(t, errors.As(err, &notFound), "got %T: %v", err, err)

	assert.Equal(t, DefaultEnvPrefix, EnvPrefix(context.Background()))
}
