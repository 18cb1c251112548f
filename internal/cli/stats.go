package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/syncer"
)

// Stats summarizes the store.
type Stats struct {
	Database string           `json:"database"`
	Total    int64            `json:"total"`
	ByType   map[string]int64 `json:"by_type"`
	Errors   int              `json:"errors"`
	Boundary syncer.Boundary  `json:"boundary"`
}

// Text implements Texter.
func (s Stats) Text(w io.Writer) {
	fmt.Fprintf(w, "database: %s\n", s.Database)
	fmt.Fprintf(w, "entries:  %d\n", s.Total)
	for _, t := range entry.AllTypes {
		fmt.Fprintf(w, "  %-12s %d\n", t, s.ByType[string(t)])
	}
	fmt.Fprintf(w, "errors:   %d\n", s.Errors)
	if s.Boundary.Found() {
		fmt.Fprintf(w, "boundary: %v\n", s.Boundary.Ts)
	} else {
		fmt.Fprintln(w, "boundary: none")
	}
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Show entry counts and the current sync boundary",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)

			a, err := openApp(rootOpts, out, false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			stats, err := collectStats(cmd, a)
			if err != nil {
				return out.Fail(ExitFailure, CodeStore, "failed to collect stats", err)
			}
			return out.Success(stats)
		},
	}
	return cmd
}

func collectStats(cmd *cobra.Command, a *app) (Stats, error) {
	ctx := cmd.Context()
	s := Stats{Database: a.cfg.Database, ByType: map[string]int64{}}

	total, err := a.store.Count(ctx)
	if err != nil {
		return s, err
	}
	s.Total = total

	byType, err := a.store.CountByType(ctx)
	if err != nil {
		return s, err
	}
	for t, n := range byType {
		s.ByType[string(t)] = n
	}

	errRows, err := a.store.ReadErrors(ctx)
	if err != nil {
		return s, err
	}
	s.Errors = len(errRows)

	s.Boundary, err = a.engine.DetectBoundary(ctx)
	if err != nil {
		return s, err
	}
	return s, nil
}
