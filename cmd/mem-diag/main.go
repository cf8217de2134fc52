// Command mem-diag is a diagnostic CLI against a local-memory store: stats,
// a direct search, entry inspection, and a scripted smoke test.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mem-diag",
		Short:         "Diagnostics for a local-memory store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("storage-path", "", "override storage_path from config")

	root.AddCommand(
		newStatsCmd(),
		newSearchCmd(),
		newInspectCmd(),
		newTestCmd(),
	)
	return root
}
