package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/manacube/manacube-go/internal/core/store"
	"github.com/manacube/manacube-go/internal/output"
)

var (
	rateLimitResetAll      bool
	rateLimitResetEndpoint string
	rateLimitResetPrefix   string
	rateLimitResetYes      bool
	rateLimitResetDryRun   bool
	rateLimitResetExpired  bool
)

var rateLimitResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset stored rate limit state",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		query := store.RateLimitQuery{
			All:      rateLimitResetAll,
			Endpoint: strings.TrimSpace(rateLimitResetEndpoint),
			Prefix:   strings.TrimSpace(rateLimitResetPrefix),
		}
		if rateLimitResetExpired {
			query.ExpiredAt = time.Now()
		}
		if err := query.Validate(); err != nil {
			return err
		}

		// Pruning closed windows never changes client behaviour.
		if query.All && !rateLimitResetExpired && !rateLimitResetYes && !rateLimitResetDryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		matched, err := db.CountRateLimits(cmd.Context(), query)
		if err != nil {
			return err
		}

		sink, err := openCommandSink(cmd, "rate-limit.reset", format)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if rateLimitResetDryRun {
			return writeRateLimitResetResult(format, sink.writer, matched, 0, true)
		}

		deleted, err := db.ResetRateLimits(cmd.Context(), query)
		if err != nil {
			return err
		}

		return writeRateLimitResetResult(format, sink.writer, matched, deleted, false)
	},
}

type rateLimitResetResult struct {
	Matched int   `json:"matched" yaml:"matched"`
	Deleted int64 `json:"deleted" yaml:"deleted"`
	DryRun  bool  `json:"dry_run" yaml:"dry_run"`
}

func writeRateLimitResetResult(format output.Format, w io.Writer, matched int, deleted int64, dryRun bool) error {
	if format != output.FormatTable {
		return writeRendered(w, format, rateLimitResetResult{
			Matched: matched,
			Deleted: deleted,
			DryRun:  dryRun,
		})
	}

	if dryRun {
		_, err := fmt.Fprintf(w, "Would delete %d rate limit entr(ies)\n", matched)
		return err
	}
	_, err := fmt.Fprintf(w, "Deleted %d/%d rate limit entr(ies)\n", deleted, matched)
	return err
}

func init() {
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetAll, "all", false, "Reset all endpoints")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetEndpoint, "endpoint", "", "Reset a single endpoint (exact match)")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetPrefix, "prefix", "", "Reset endpoints with matching prefix")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetYes, "yes", false, "Confirm destructive reset")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetDryRun, "dry-run", false, "Show what would be deleted")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetExpired, "expired", false, "Only reset windows that have already closed")
	addOutputFlags(rateLimitResetCmd)
}
