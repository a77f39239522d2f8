package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/manacube/manacube-go/internal/core/store"
)

var (
	rateLimitListAll    bool
	rateLimitListPrefix string
	rateLimitListActive bool
)

// rateLimitRow is the rendered form of a stored backoff window.
type rateLimitRow struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	Active    bool   `json:"active" yaml:"active"`
	Until     string `json:"until,omitempty" yaml:"until,omitempty"`
	Remaining string `json:"remaining,omitempty" yaml:"remaining,omitempty"`
	HitCount  int    `json:"hit_count" yaml:"hit_count"`
	LastHitAt string `json:"last_hit_at,omitempty" yaml:"last_hit_at,omitempty"`
}

func newRateLimitRow(entry store.RateLimitEntry, now time.Time) rateLimitRow {
	row := rateLimitRow{
		Endpoint: entry.Endpoint,
		Active:   entry.State.Active(now),
		HitCount: entry.State.HitCount,
	}
	if !entry.State.Until.IsZero() {
		row.Until = entry.State.Until.UTC().Format(time.RFC3339)
	}
	if row.Active {
		row.Remaining = entry.State.Until.Sub(now).Round(time.Second).String()
	}
	if entry.State.LastHitAt != nil {
		row.LastHitAt = entry.State.LastHitAt.UTC().Format(time.RFC3339)
	}
	return row
}

var rateLimitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rate limit state",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		query := store.RateLimitQuery{
			All:    rateLimitListAll,
			Prefix: strings.TrimSpace(rateLimitListPrefix),
		}
		if !query.All && query.Prefix == "" {
			query.All = true
		}
		now := time.Now()
		if rateLimitListActive {
			query.ActiveAt = now
		}

		entries, err := db.ListRateLimits(cmd.Context(), query)
		if err != nil {
			return err
		}

		rows := make([]rateLimitRow, 0, len(entries))
		for _, entry := range entries {
			rows = append(rows, newRateLimitRow(entry, now))
		}

		sink, err := openCommandSink(cmd, "rate-limit.list", format)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		return writeRendered(sink.writer, format, rows)
	},
}

func init() {
	addOutputFlags(rateLimitListCmd)
	rateLimitListCmd.Flags().BoolVar(&rateLimitListAll, "all", false, "List all endpoints")
	rateLimitListCmd.Flags().StringVar(&rateLimitListPrefix, "prefix", "", "List endpoints with matching prefix")
	rateLimitListCmd.Flags().BoolVar(&rateLimitListActive, "active", false, "Only list windows that are still open")
}
