package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lmemory/memory"
	"github.com/lmemory/memory/config"
	"github.com/lmemory/memory/embed"
	"github.com/lmemory/memory/store/sqlite"
)

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run an insert-search-delete smoke sequence against a temporary store",
		RunE:  runTest,
	}
}

func runTest(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	dir, err := os.MkdirTemp("", "mem-diag-test-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	cfg := config.Default()
	cfg.StoragePath = dir

	st, err := sqlite.Open(dir+"/local-memory.db", cfg.EmbeddingDimension)
	if err != nil {
		return err
	}
	defer st.Close()

	engine, err := memory.New(cfg, embed.NewFake(cfg.EmbeddingDimension), st)
	if err != nil {
		return err
	}

	ctx := context.Background()
	fmt.Fprintln(out, titleStyle.Render("running smoke sequence..."))

	id, err := engine.Ingest(ctx, "mem-diag self-check entry", map[string]any{"source": "mem-diag"}, nil)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	fmt.Fprintf(out, "%s ingested %s\n", successStyle.Render("ok"), id)

	results, err := engine.Search(ctx, "self-check entry", 1, 0, 0)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if len(results) == 0 || results[0].ID != id {
		return fmt.Errorf("search did not return the freshly ingested entry")
	}
	fmt.Fprintf(out, "%s found via search with score %.4f\n", successStyle.Render("ok"), results[0].Score)

	existed, err := engine.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if !existed {
		return fmt.Errorf("delete reported the entry did not exist")
	}
	fmt.Fprintf(out, "%s deleted %s\n", successStyle.Render("ok"), id)

	fmt.Fprintln(out, successStyle.Render("smoke sequence passed"))
	return nil
}
