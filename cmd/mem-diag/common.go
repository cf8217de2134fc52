package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lmemory/memory"
	"github.com/lmemory/memory/config"
	"github.com/lmemory/memory/embed"
	"github.com/lmemory/memory/store/sqlite"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

// loadConfig resolves configuration from the environment, then applies the
// --storage-path override if the caller set one.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.Load()
	if path, _ := cmd.Flags().GetString("storage-path"); path != "" {
		cfg.StoragePath = path
	}
	return cfg
}

// openEngine opens the configured SQLite store and wraps it in an Engine
// using the deterministic fake embedder — mem-diag never loads a real
// neural model, it exercises the store and funnel directly.
func openEngine(cmd *cobra.Command) (*memory.Engine, func(), error) {
	cfg := loadConfig(cmd)

	st, err := sqlite.Open(cfg.StoragePath+"/local-memory.db", cfg.EmbeddingDimension)
	if err != nil {
		return nil, nil, err
	}

	embedder := embed.NewFake(cfg.EmbeddingDimension)
	engine, err := memory.New(cfg, embedder, st)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	return engine, func() { engine.Close() }, nil
}
