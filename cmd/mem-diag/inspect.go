package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lmemory/memory"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <id>",
		Short: "Print one entry's id, text, and metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("malformed id %q: %w", args[0], err)
	}

	engine, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()

	result, err := engine.Inspect(context.Background(), id)
	out := cmd.OutOrStdout()
	if errors.Is(err, memory.ErrNotFound) {
		fmt.Fprintln(out, errorStyle.Render("not found (absent or expired)"))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s %s\n", titleStyle.Render("id:"), result.ID)
	fmt.Fprintf(out, "%s %s\n", titleStyle.Render("text:"), result.Text)
	fmt.Fprintf(out, "%s %v\n", titleStyle.Render("metadata:"), result.Metadata)
	return nil
}
