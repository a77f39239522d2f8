package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	manacube "github.com/manacube/manacube-go"
	errwrap "github.com/manacube/manacube-go/internal/errors"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want foundry.ExitCode
	}{
		{"config", errwrap.NewConfigInvalidError("bad"), foundry.ExitConfigInvalid},
		{"rate limited", fmt.Errorf("get: %w", &manacube.RateLimitedError{Wait: time.Second}), foundry.ExitExternalServiceUnavailable},
		{"api error", &manacube.APIError{Path: "x", StatusCode: http.StatusInternalServerError}, foundry.ExitExternalServiceUnavailable},
		{"missing file", fmt.Errorf("open: %w", os.ErrNotExist), foundry.ExitFileNotFound},
		{"other", fmt.Errorf("boom"), foundry.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeFor(tt.err))
		})
	}
}

func TestWriteExitReport(t *testing.T) {
	var buf bytes.Buffer
	code := writeExitReport(&buf, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.NewConfigInvalidError("api.base_url is empty"))

	assert.Equal(t, int(foundry.ExitConfigInvalid), code)
	assert.Contains(t, buf.String(), "FATAL: Configuration invalid [CONFIG_INVALID]: api.base_url is empty")
	assert.Contains(t, buf.String(), "Exit Code:")
}

func TestExitWithCodeStderrUsesExitHook(t *testing.T) {
	var got int
	original := exit
	exit = func(code int) { got = code }
	t.Cleanup(func() { exit = original })

	ExitWithCodeStderr(foundry.ExitFailure, "failed", nil)

	require.NotZero(t, got)
}
