package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/transport"
)

// ImportResult is the output of the import command.
type ImportResult struct {
	Imported int `json:"imported"`
}

func (r ImportResult) String() string {
	return fmt.Sprintf("imported %d records", r.Imported)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import server records",
		Long: `Append every record in file with its metadata preserved. Either all
records are imported or none.

File is a JSON array of {"metadata", "data"} records, or a snappy-compressed
batch (*.json.sz) as written by the file transport.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runImport(opts *RootOptions, cmd *cobra.Command, path string) error {
	out := newFormatter(cmd, opts)

	records, err := readRecords(path)
	if err != nil {
		return out.Fail(ExitCommandError, CodeInput, "failed to read records", err)
	}

	a, err := openApp(opts, out, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	n, err := a.engine.Import(cmd.Context(), records)
	if err != nil {
		return out.Fail(ExitFailure, CodeStore, "import failed", err)
	}
	return out.Success(ImportResult{Imported: n})
}

func readRecords(path string) ([]entry.Record, error) {
	if strings.HasSuffix(path, transport.BatchExt) {
		return transport.ReadBatchFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records := []entry.Record{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}
