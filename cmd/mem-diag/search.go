package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run the retrieval funnel against the configured store",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
	cmd.Flags().Int("top-k", 5, "number of results to return")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	topK, _ := cmd.Flags().GetInt("top-k")

	engine, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()

	results, err := engine.Search(context.Background(), args[0], topK, 0, 0)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, dimStyle.Render("no results"))
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%d. [%s] %s  %s\n", i+1, scoreStyle.Render(fmt.Sprintf("%.4f", r.Score)), r.ID, r.Text)
	}
	return nil
}
