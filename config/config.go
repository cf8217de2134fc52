// Package config defines the enumerated knobs that govern ingestion and the
// search funnel, and loads them from an optional JSON file named by an
// environment variable.
package config

import (
	"encoding/json"
	"os"

	"github.com/lmemory/memory/tier"
)

// ConfigEnvVar names the environment variable that, if set, points at the
// JSON configuration file to load. Mirrors $LOCAL_MEMORY_CONFIG in the
// original implementation.
const ConfigEnvVar = "LOCAL_MEMORY_CONFIG"

// defaultConfigPath is tried when ConfigEnvVar is unset.
const defaultConfigPath = "local-memory.json"

// SearchStages names the candidate-set sizes retained by each stage of the
// retrieval funnel.
type SearchStages struct {
	Stage1K int `json:"stage1_k"`
	Stage2K int `json:"stage2_k"`
}

// Config is the complete, immutable-after-load configuration surface.
type Config struct {
	StoragePath  string       `json:"storage_path"`
	ModelPath    string       `json:"model_path"`
	SearchStages SearchStages `json:"search_stages"`
	Tier         tier.Config  `json:"tier"`
	// EmbeddingDimension is validated against the injected embedder's
	// declared dimension at Engine construction; a mismatch is fatal.
	EmbeddingDimension int `json:"embedding_dimension"`
}

// Default returns the documented defaults: ./storage, ./models, stage1_k
// 100, stage2_k 10, tier.Semantic with a one-hour episodic TTL, and a
// 768-dimensional embedding space.
func Default() Config {
	return Config{
		StoragePath:        "./storage",
		ModelPath:          "./models",
		SearchStages:       SearchStages{Stage1K: 100, Stage2K: 10},
		Tier:               tier.DefaultConfig(),
		EmbeddingDimension: 768,
	}
}

// Load reads the path named by $LOCAL_MEMORY_CONFIG (default
// "local-memory.json" when the variable is unset) if it exists, falling
// back to Default() when the file is missing or fails to parse.
func Load() Config {
	path := os.Getenv(ConfigEnvVar)
	if path == "" {
		path = defaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default()
	}
	return cfg
}
