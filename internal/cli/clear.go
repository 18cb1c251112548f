package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/usercache"
)

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	All   bool
	Field string
	Start float64
	End   float64
}

// ClearResult is the output of the clear command.
type ClearResult struct {
	usercache.ClearStats
	Deleted int64 `json:"deleted"`
}

// Text implements Texter.
func (r ClearResult) Text(w io.Writer) {
	fmt.Fprintf(w, "deleted %d entries (%d obsolete rw-documents, %d in range)\n",
		r.Deleted, r.ObsoletePurged, r.RangeDeleted)
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Prune entries",
		Long: `Prune the cache.

Without --all: first every rw-document older than the latest document for its
key is deleted, then every entry with --field strictly inside (--start, --end)
except rw-documents and the latest document of each key.

With --all: every entry is deleted.

Examples:
  usercache clear --start 0 --end 1700000000
  usercache clear --all`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "delete every entry")
	cmd.Flags().StringVar(&opts.Field, "field", string(entry.WriteTs), "timestamp field (write_ts|read_ts)")
	cmd.Flags().Float64Var(&opts.Start, "start", 0, "range start, epoch seconds (exclusive)")
	cmd.Flags().Float64Var(&opts.End, "end", 0, "range end, epoch seconds (exclusive)")

	return cmd
}

func runClear(opts *ClearOptions, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)

	var tq entry.TimeQuery
	if !opts.All {
		field, err := entry.ParseTimeField(opts.Field)
		if err != nil {
			return out.Fail(ExitCommandError, CodeInput, "invalid time field", err)
		}
		tq = entry.TimeQuery{Field: field, Start: opts.Start, End: opts.End}
		if err := tq.Validate(); err != nil {
			return out.Fail(ExitCommandError, CodeInput, "invalid range", err)
		}
	}

	a, err := openApp(opts.RootOptions, out, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if opts.All {
		n, err := a.cache.ClearAll(cmd.Context())
		if err != nil {
			return out.Fail(ExitFailure, CodeStore, "clear failed", err)
		}
		return out.Success(ClearResult{Deleted: n})
	}

	stats, err := a.cache.Clear(cmd.Context(), tq)
	if err != nil {
		return out.Fail(ExitFailure, CodeStore, "clear failed", err)
	}
	return out.Success(ClearResult{
		ClearStats: stats,
		Deleted:    stats.ObsoletePurged + stats.RangeDeleted,
	})
}
