package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// ExportSummary is reported when records go to a file.
type ExportSummary struct {
	Path    string  `json:"path"`
	Records int     `json:"records"`
	Skipped int     `json:"skipped"`
	Bound   float64 `json:"boundary"`
}

func (s ExportSummary) String() string {
	return fmt.Sprintf("exported %d records up to %v to %s (%d skipped)", s.Records, s.Bound, s.Path, s.Skipped)
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the exportable batch as JSON",
		Long: `Write every message, rw-document, and sensor-data entry up to the sync
boundary as a JSON array of {"metadata", "data"} records. Nothing is cleared;
use sync for a full round.

Without --output the array is written to stdout.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)

	a, err := openApp(opts.RootOptions, out, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	res, err := a.engine.ExportBatch(cmd.Context())
	if err != nil {
		return out.Fail(ExitFailure, CodeStore, "export failed", err)
	}
	out.VerboseLog("boundary %v (fallback=%t)", res.Boundary.Ts, res.Boundary.Fallback)

	data, err := json.MarshalIndent(res.Records, "", "  ")
	if err != nil {
		return out.Fail(ExitFailure, CodeStore, "failed to encode records", err)
	}
	data = append(data, '\n')

	if opts.Output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
		return out.Fail(ExitCommandError, CodeInput, "failed to write output", err)
	}
	return out.Success(ExportSummary{
		Path:    opts.Output,
		Records: len(res.Records),
		Skipped: res.Skipped,
		Bound:   res.Boundary.Ts,
	})
}
