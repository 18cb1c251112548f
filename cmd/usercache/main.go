// Command usercache manages the on-device user cache: writes, document
// lookups, retention, and sync rounds against a file or S3 transport.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/usercache/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
