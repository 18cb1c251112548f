package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/usercache/internal/clock"
	"github.com/roach88/usercache/internal/entry"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Type  string
	Last  int
	Field string
	Start float64
	End   float64
}

// Records is a list of entries in their sync representation.
type Records []entry.Record

// Text implements Texter: one line per record.
func (rs Records) Text(w io.Writer) {
	if len(rs) == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}
	for _, r := range rs {
		local := clock.Local(r.Metadata.WriteTs, r.Metadata.TimeZone)
		fmt.Fprintf(w, "%s  %-11s %s  %s\n", local.Format("2006-01-02T15:04:05.000Z07:00"),
			r.Metadata.Type, r.Metadata.Key, r.Data)
	}
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <key>",
		Short: "List entries for a key",
		Long: `List entries of one type stored under key, newest first.

With --last N, the N most recent entries. Otherwise every entry whose
--field timestamp lies in [--start, --end].

Examples:
  usercache query background/battery --type sensor-data --last 5
  usercache query chat --type message --start 1700000000 --end 1700003600`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "entry type (required)")
	cmd.Flags().IntVarP(&opts.Last, "last", "n", 0, "return the N most recent entries")
	cmd.Flags().StringVar(&opts.Field, "field", string(entry.WriteTs), "timestamp field (write_ts|read_ts)")
	cmd.Flags().Float64Var(&opts.Start, "start", 0, "interval start, epoch seconds")
	cmd.Flags().Float64Var(&opts.End, "end", 0, "interval end, epoch seconds")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command, key string) error {
	out := newFormatter(cmd, opts.RootOptions)

	typ, err := entry.ParseType(opts.Type)
	if err != nil {
		return out.Fail(ExitCommandError, CodeInput, "invalid entry type", err)
	}

	var tq entry.TimeQuery
	if opts.Last <= 0 {
		field, err := entry.ParseTimeField(opts.Field)
		if err != nil {
			return out.Fail(ExitCommandError, CodeInput, "invalid time field", err)
		}
		tq = entry.TimeQuery{Field: field, Start: opts.Start, End: opts.End}
		if err := tq.Validate(); err != nil {
			return out.Fail(ExitCommandError, CodeInput, "invalid interval", err)
		}
	}

	a, err := openApp(opts.RootOptions, out, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	var entries []entry.Entry
	if opts.Last > 0 {
		entries, err = a.cache.LastEntries(cmd.Context(), key, typ, opts.Last)
	} else {
		entries, err = a.cache.Entries(cmd.Context(), key, typ, tq)
	}
	if err != nil {
		return out.Fail(ExitFailure, CodeStore, "query failed", err)
	}

	records := make(Records, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.ToRecord())
	}
	return out.Success(records)
}
