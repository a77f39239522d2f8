package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	manacube "github.com/manacube/manacube-go"
	errwrap "github.com/manacube/manacube-go/internal/errors"
)

// exit is swapped in tests.
var exit = os.Exit

// ExitCodeFor picks the semantic exit code for a failed command. API
// failures, including an open rate-limit window, are reported as an
// unavailable external service.
func ExitCodeFor(err error) foundry.ExitCode {
	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope.Code == errwrap.CodeConfigInvalid {
		return foundry.ExitConfigInvalid
	}

	var limited *manacube.RateLimitedError
	var apiErr *manacube.APIError
	switch {
	case stderrors.As(err, &limited), stderrors.As(err, &apiErr):
		return foundry.ExitExternalServiceUnavailable
	case stderrors.Is(err, os.ErrNotExist):
		return foundry.ExitFileNotFound
	default:
		return foundry.ExitFailure
	}
}

// ExitWithCode logs err with the exit code's catalog metadata, then exits.
// A nil logger falls back to stderr.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	if logger == nil {
		ExitWithCodeStderr(exitCode, msg, err)
		return
	}

	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		logger.Error(msg, zap.Int("exit_code", int(exitCode)), zap.Error(err))
		exit(int(exitCode))
		return
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
	}
	fields = append(fields, envelopeFields(err)...)
	logger.Error(msg, fields...)
	exit(info.Code)
}

// ExitWithCodeStderr is ExitWithCode for failures before the logger exists.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	exit(writeExitReport(os.Stderr, exitCode, msg, err))
}

// writeExitReport prints the failure and returns the process exit status.
func writeExitReport(w io.Writer, exitCode foundry.ExitCode, msg string, err error) int {
	var envelope *errors.ErrorEnvelope
	switch {
	case err == nil:
		fmt.Fprintf(w, "FATAL: %s\n", msg)
	case stderrors.As(err, &envelope):
		fmt.Fprintf(w, "FATAL: %s [%s]: %s\n", msg, envelope.Code, envelope.Message)
		if cause, ok := envelope.Original.(error); ok && cause != nil {
			fmt.Fprintf(w, "Underlying error: %v\n", cause)
		}
	default:
		fmt.Fprintf(w, "FATAL: %s: %v\n", msg, err)
	}

	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(w, "Exit Code: %d\n", exitCode)
		return int(exitCode)
	}
	fmt.Fprintf(w, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	return info.Code
}

func envelopeFields(err error) []zap.Field {
	var envelope *errors.ErrorEnvelope
	if !stderrors.As(err, &envelope) {
		return []zap.Field{zap.Error(err)}
	}
	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.String("error_message", envelope.Message),
		zap.String("correlation_id", envelope.CorrelationID),
	}
	if envelope.Context != nil {
		fields = append(fields, zap.Any("error_context", envelope.Context))
	}
	if cause, ok := envelope.Original.(error); ok && cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	return fields
}
