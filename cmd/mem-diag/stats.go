package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entry counts by tier and storage size",
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig(cmd)
	engine, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()

	stats, err := engine.Stats(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("local-memory stats"))
	fmt.Fprintf(out, "storage path:    %s\n", cfg.StoragePath)
	if info, err := os.Stat(cfg.StoragePath + "/local-memory.db"); err == nil {
		fmt.Fprintf(out, "database size:   %d bytes\n", info.Size())
	}
	fmt.Fprintf(out, "total entries:   %d\n", stats.TotalCount)
	fmt.Fprintf(out, "semantic:        %d\n", stats.SemanticCount)
	fmt.Fprintf(out, "episodic:        %d\n", stats.EpisodicCount)
	fmt.Fprintf(out, "%s %d\n", dimStyle.Render("expired (uncollected):"), stats.ExpiredCount)
	return nil
}
