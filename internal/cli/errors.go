package cli

import (
	"github.com/spf13/cobra"
)

// NewErrorsCommand creates the errors command.
func NewErrorsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errors",
		Short: "List entries that failed to export",
		Long: `List the rows export set aside because their payload was not a JSON
object or array. They stay in the error table for inspection.`,
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

			rows, err := a.store.ReadErrors(cmd.Context())
			if err != nil {
				return out.Fail(ExitFailure, CodeStore, "failed to read error table", err)
			}
			records := make(Records, 0, len(rows))
			for _, row := range rows {
				records = append(records, row.ToRecord())
			}
			return out.Success(records)
		},
	}
	return cmd
}
