package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/usercache/internal/entry"
)

// PutResult is the output of the put command.
type PutResult struct {
	ID   int64      `json:"id"`
	Type entry.Type `json:"type"`
	Key  string     `json:"key"`
}

// Text implements Texter.
func (r PutResult) Text(w io.Writer) {
	fmt.Fprintf(w, "appended %s %q (id %d)\n", r.Type, r.Key, r.ID)
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <type> <key> <json|->",
		Short: "Append an entry",
		Long: `Append one entry with the current time and timezone.

Type is one of sensor-data, message, rw-document, document. The payload is a
JSON value; "-" reads it from stdin.

Examples:
  usercache put sensor-data background/battery '{"pct":80}'
  usercache put rw-document config/consent - < consent.json`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(rootOpts, cmd, args[0], args[1], args[2])
		},
	}
	return cmd
}

func runPut(opts *RootOptions, cmd *cobra.Command, typeArg, key, payloadArg string) error {
	out := newFormatter(cmd, opts)

	typ, err := entry.ParseType(typeArg)
	if err != nil {
		return out.Fail(ExitCommandError, CodeInput, "invalid entry type", err)
	}

	payload := []byte(payloadArg)
	if payloadArg == "-" {
		payload, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return out.Fail(ExitCommandError, CodeInput, "failed to read stdin", err)
		}
	}

	a, err := openApp(opts, out, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	id, err := a.cache.Put(cmd.Context(), typ, key, json.RawMessage(payload))
	if err != nil {
		if entry.IsSerializationError(err) {
			return out.Fail(ExitCommandError, CodeInput, "payload is not valid JSON", err)
		}
		return out.Fail(ExitFailure, CodeStore, "failed to append entry", err)
	}

	return out.Success(PutResult{ID: id, Type: typ, Key: key})
}
