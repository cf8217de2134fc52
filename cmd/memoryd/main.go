// Command memoryd is the process entrypoint: it loads configuration, opens
// the durable store, constructs the engine, and serves the JSON-RPC loop
// over stdin/stdout until EOF or an interrupt.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmemory/memory"
	"github.com/lmemory/memory/config"
	"github.com/lmemory/memory/embed"
	"github.com/lmemory/memory/rpc"
	"github.com/lmemory/memory/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "memoryd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	if err := os.MkdirAll(cfg.StoragePath, 0o755); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}

	dbPath := cfg.StoragePath + "/local-memory.db"
	st, err := sqlite.Open(dbPath, cfg.EmbeddingDimension)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	// No neural embedder ships in this repository (spec.md §1 treats it as
	// an external capability); embed.Fake stands in until a real model is
	// wired behind the same interface.
	embedder := embed.NewFake(cfg.EmbeddingDimension)

	logger := memory.NewJSONLogger(slog.LevelInfo)

	engine, err := memory.New(cfg, embedder, st,
		memory.WithLogger(logger),
		memory.WithMetricsCollector(&memory.BasicMetricsCollector{}),
	)
	if err != nil {
		st.Close()
		return fmt.Errorf("constructing engine: %w", err)
	}
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	server := rpc.NewServer(rpc.NewDispatcher(engine), logger)

	fmt.Fprintln(os.Stderr, "local-memory server starting...")
	return server.Serve(ctx, os.Stdin, os.Stdout)
}
