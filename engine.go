// Package memory implements a local semantic memory engine: a durable,
// embedding-based store searched through a three-stage retrieval funnel
// (binary-quantized Hamming filtering, Matryoshka-truncated cosine
// refinement, full-precision cosine re-ranking).
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lmemory/memory/config"
	"github.com/lmemory/memory/embed"
	"github.com/lmemory/memory/funnel"
	"github.com/lmemory/memory/ingest"
	"github.com/lmemory/memory/store"
	"github.com/lmemory/memory/tier"
)

// Result is one ranked search hit.
type Result struct {
	ID       uuid.UUID
	Text     string
	Metadata map[string]any
	Score    float32
}

// Engine is the facade over ingestion, the retrieval funnel, and the
// durable store: the single entry point embedders of this package use.
type Engine struct {
	store    store.Store
	embedder embed.Embedder
	cfg      config.Config

	pipeline *ingest.Pipeline
	funnel   *funnel.Funnel

	metrics MetricsCollector
	logger  *Logger
}

// New constructs an Engine over st, embedding with embedder according to
// cfg. It fails if embedder's declared dimension does not match
// cfg.EmbeddingDimension: a silent mismatch would corrupt every downstream
// distance calculation.
func New(cfg config.Config, embedder embed.Embedder, st store.Store, opts ...Option) (*Engine, error) {
	if embedder.Dimension() != cfg.EmbeddingDimension {
		return nil, newError("New", ErrInvalidInput, fmt.Errorf(
			"embedder dimension %d does not match configured embedding_dimension %d",
			embedder.Dimension(), cfg.EmbeddingDimension))
	}

	o := applyOptions(opts)

	return &Engine{
		store:    st,
		embedder: embedder,
		cfg:      cfg,
		pipeline: ingest.New(embedder, st, cfg.Tier),
		funnel:   funnel.New(st, embedder),
		metrics:  o.metricsCollector,
		logger:   o.logger,
	}, nil
}

// Ingest embeds text, quantizes it, and writes a complete entry atomically.
// metadata may be nil. override, if non-nil, customizes this entry's tier
// and TTL; a nil override falls back to the engine's configured defaults.
func (e *Engine) Ingest(ctx context.Context, text string, metadata map[string]any, override *ingest.Override) (uuid.UUID, error) {
	start := time.Now()
	id, err := e.pipeline.Run(ctx, text, metadata, override)
	d := time.Since(start)

	e.metrics.RecordIngest(d, err)
	e.logger.LogIngest(ctx, len(text), d, err)

	if err != nil {
		return uuid.Nil, translateError("Ingest", err)
	}
	return id, nil
}

// Search runs the three-stage retrieval funnel for queryText and returns up
// to topK results in descending score order. stage1K and stage2K of 0 fall
// back to the engine's configured defaults; any supplied values are clamped
// so top_k <= stage2_k <= stage1_k always holds.
func (e *Engine) Search(ctx context.Context, queryText string, topK int, stage1K, stage2K int) ([]Result, error) {
	if stage1K <= 0 {
		stage1K = e.cfg.SearchStages.Stage1K
	}
	if stage2K <= 0 {
		stage2K = e.cfg.SearchStages.Stage2K
	}

	start := time.Now()
	results, stats, err := e.funnel.Search(ctx, queryText, topK, stage1K, stage2K)
	d := time.Since(start)

	e.metrics.RecordSearch(d, stats.Stage1Survivors, stats.Stage2Survivors, len(results), err)
	e.logger.LogSearch(ctx, topK, stats.Stage1Survivors, stats.Stage2Survivors, len(results), d, err)

	if err != nil {
		return nil, translateError("Search", err)
	}

	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{ID: r.ID, Text: r.Text, Metadata: r.Metadata, Score: r.Score}
	}
	return out, nil
}

// Delete removes id from every keyspace, reporting whether it existed.
func (e *Engine) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	start := time.Now()
	existed, err := e.store.Delete(ctx, id)
	d := time.Since(start)

	deleted := 0
	if existed {
		deleted = 1
	}
	e.metrics.RecordDelete(d, err)
	e.logger.LogDelete(ctx, deleted, d, err)

	if err != nil {
		return false, translateError("Delete", err)
	}
	return existed, nil
}

// DeleteByTier removes every entry of the given tier, returning how many
// were deleted. It scans the bit keyspace for ids (the only full-keyspace
// enumeration the store exposes) and deletes each whose metadata matches.
func (e *Engine) DeleteByTier(ctx context.Context, t tier.Tier) (int, error) {
	start := time.Now()
	entries, err := e.store.ScanBit(ctx)
	if err != nil {
		d := time.Since(start)
		e.metrics.RecordDelete(d, err)
		e.logger.LogDelete(ctx, 0, d, err)
		return 0, translateError("DeleteByTier", err)
	}

	deleted := 0
	for _, entry := range entries {
		meta, err := e.store.GetMeta(ctx, entry.ID)
		if err != nil {
			continue
		}
		if meta.Tier != t {
			continue
		}
		if existed, err := e.store.Delete(ctx, entry.ID); err == nil && existed {
			deleted++
		}
	}

	d := time.Since(start)
	e.metrics.RecordDelete(d, nil)
	e.logger.LogDelete(ctx, deleted, d, nil)
	return deleted, nil
}

// Stats is a snapshot of the store's contents by tier, for diagnostics.
type Stats struct {
	SemanticCount int
	EpisodicCount int
	ExpiredCount  int
	TotalCount    int
}

// Stats scans the bit keyspace and classifies every entry, counting expired
// episodic entries that are still stored (nothing deletes expired entries:
// there is no background sweeper, and reads only check expiry).
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	entries, err := e.store.ScanBit(ctx)
	if err != nil {
		return Stats{}, translateError("Stats", err)
	}

	now := time.Now().Unix()
	var s Stats
	for _, entry := range entries {
		meta, err := e.store.GetMeta(ctx, entry.ID)
		if err != nil {
			continue
		}
		s.TotalCount++
		switch meta.Tier {
		case tier.Semantic:
			s.SemanticCount++
		case tier.Episodic:
			s.EpisodicCount++
		}
		if tier.Expired(now, meta.ExpiresAt) {
			s.ExpiredCount++
		}
	}
	return s, nil
}

// Inspect returns the stored metadata for id without affecting any TTL or
// ranking state, or ErrNotFound if the id is absent or expired.
func (e *Engine) Inspect(ctx context.Context, id uuid.UUID) (Result, error) {
	meta, err := e.store.GetMeta(ctx, id)
	if err != nil {
		return Result{}, translateError("Inspect", err)
	}
	if tier.Expired(time.Now().Unix(), meta.ExpiresAt) {
		return Result{}, translateError("Inspect", store.ErrNotFound)
	}
	return Result{ID: id, Text: meta.Text, Metadata: meta.Metadata}, nil
}

// Close releases the engine's store resources.
func (e *Engine) Close() error {
	return e.store.Close()
}
