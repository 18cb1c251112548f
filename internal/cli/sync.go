package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/usercache/internal/syncer"
	"github.com/roach88/usercache/internal/transport"
)

// SyncResult wraps a sync report for text output.
type SyncResult struct {
	syncer.Report
}

// Text implements Texter.
func (r SyncResult) Text(w io.Writer) {
	if !r.Boundary.Found() {
		fmt.Fprintln(w, "no sync boundary: nothing exported")
	} else {
		fmt.Fprintf(w, "boundary %v", r.Boundary.Ts)
		if r.Boundary.Fallback {
			fmt.Fprint(w, " (fallback scan)")
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "exported %d records in batch %s (%d skipped)\n", r.Exported, r.BatchID, r.Skipped)
		fmt.Fprintf(w, "cleared %d obsolete rw-documents, %d entries in range\n",
			r.Cleared.ObsoletePurged, r.Cleared.RangeDeleted)
	}
	fmt.Fprintf(w, "imported %d records\n", r.Imported)
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync round",
		Long: `Run one sync round over the configured transport: export up to the
boundary, send the batch, clear what was sent, then import what the server
left for this device.

Requires transport.kind file or s3 in the config file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, cmd)
		},
	}
	return cmd
}

func runSync(opts *RootOptions, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts)

	a, err := openApp(opts, out, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	t, err := transport.FromConfig(cmd.Context(), a.cfg.Transport)
	if err != nil {
		if errors.Is(err, transport.ErrNotConfigured) {
			return out.Fail(ExitCommandError, CodeConfig, "sync needs transport.kind file or s3", err)
		}
		return out.Fail(ExitCommandError, CodeConfig, "failed to create transport", err)
	}

	rep, err := a.engine.Sync(cmd.Context(), t)
	if err != nil {
		return out.Fail(ExitFailure, CodeSync, "sync failed", err)
	}
	return out.Success(SyncResult{Report: rep})
}
