// Command procman supervises external processes, either one-shot from
// the command line or as a config-driven daemon with an HTTP API.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	root.AddCommand(newRunCmd(), newServeCmd(), newVersionCmd())
	if err := root.Execute(); err != nil {
		if code, ok := errIsExitCode(err); ok {
			os.Exit(code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "procman",
		Short:         "Supervise external processes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
}
