package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	manacube "github.com/manacube/manacube-go"
	"github.com/manacube/manacube-go/internal/output"
)

var rateLimitCmd = &cobra.Command{
	Use:   "rate-limit",
	Short: "Inspect and manage rate limit state",
}

var rateLimitStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the rate limit window the client would start with",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		client, err := newAPIClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close() // nolint:errcheck // best-effort cleanup

		sink, err := openCommandSink(cmd, "rate-limit.status", format)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if format == output.FormatTable {
			return writeStatusBox(sink.writer, client.Status())
		}
		return writeRendered(sink.writer, format, client.Status())
	},
}

// statusLines renders a status snapshot for the boxed table view.
func statusLines(status manacube.Status) []string {
	lines := []string{"Rate Limit Status", ""}
	if status.RateLimited {
		lines = append(lines,
			fmt.Sprintf("limited:  yes, %s remaining", status.Wait.Round(time.Second)),
			"until:    "+status.Until.Local().Format(time.RFC3339))
	} else {
		lines = append(lines, "limited:  no")
	}
	mode := "fail fast"
	if status.Queueing {
		mode = "queue"
	}
	return append(lines,
		fmt.Sprintf("hits:     %d", status.HitCount),
		"mode:     "+mode)
}

func writeStatusBox(w io.Writer, status manacube.Status) error {
	_, err := fmt.Fprint(w, ascii.DrawBox(strings.Join(statusLines(status), "\n"), 0))
	return err
}

func init() {
	addOutputFlags(rateLimitStatusCmd)
	rateLimitCmd.AddCommand(rateLimitListCmd)
	rateLimitCmd.AddCommand(rateLimitResetCmd)
	rateLimitCmd.AddCommand(rateLimitStatusCmd)
	rootCmd.AddCommand(rateLimitCmd)
}
