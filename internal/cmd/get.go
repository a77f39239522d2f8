package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/manacube/manacube-go/internal/output"
)

var getCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Fetch a raw API path",
	Long: `Fetch a path relative to api.base_url through the rate-limited client.

JSON bodies are decoded and rendered in the selected output format. Other
bodies are written as-is.`,
	Example: "  manacube get patrons/uuids --output-format json",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}
		opts, err := requestOptions(cmd)
		if err != nil {
			return err
		}

		client, err := newAPIClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close() // nolint:errcheck // best-effort cleanup

		body, err := client.MakeRequest(cmd.Context(), args[0], opts...)
		if err != nil {
			return fmt.Errorf("get %s: %w", args[0], err)
		}

		sink, err := openCommandSink(cmd, "get."+args[0], format)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		return writeBody(sink.writer, format, body)
	},
}

func writeBody(w io.Writer, format output.Format, body []byte) error {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		_, err := w.Write(body)
		return err
	}
	if format == output.FormatJSON {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err := buf.WriteTo(w)
		return err
	}
	return writeRendered(w, format, value)
}

func init() {
	addEndpointFlags(getCmd)
	rootCmd.AddCommand(getCmd)
}
