package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Updated  bool // only return the document if it changed since last read
	MarkRead bool // stamp read_ts after a successful read
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the current document for a key",
		Long: `Print the payload of the newest Document or RwDocument stored under key.

Exit codes:
  0 - Document printed
  1 - No document (or, with --updated, nothing new since the last read)
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Updated, "updated", false, "only print if written after the last read")
	cmd.Flags().BoolVar(&opts.MarkRead, "mark-read", false, "mark the key as read")

	return cmd
}

func runGet(opts *GetOptions, cmd *cobra.Command, key string) error {
	out := newFormatter(cmd, opts.RootOptions)

	a, err := openApp(opts.RootOptions, out, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := cmd.Context()
	var doc json.RawMessage
	var found bool
	if opts.Updated {
		found, err = a.cache.GetUpdatedDocument(ctx, key, &doc)
	} else {
		found, err = a.cache.GetDocument(ctx, key, &doc)
	}
	if err != nil {
		return out.Fail(ExitFailure, CodeStore, "failed to read document", err)
	}
	if !found {
		return out.Fail(ExitFailure, CodeNotFound, fmt.Sprintf("no document for %q", key), nil)
	}

	if opts.MarkRead {
		if err := a.cache.MarkRead(ctx, key); err != nil {
			return out.Fail(ExitFailure, CodeStore, "failed to mark read", err)
		}
	}

	if opts.Format == "json" {
		return out.Success(doc)
	}
	return out.Success(string(doc))
}
