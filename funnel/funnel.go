package funnel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/lmemory/memory/embed"
	"github.com/lmemory/memory/store"
	"github.com/lmemory/memory/tier"
	"github.com/lmemory/memory/vector"
)

// matryoshkaDim is the truncated dimension Stage 2 refines against, fixed
// by the Matryoshka embedding's training (not a tunable knob). Query
// vectors shorter than this are refined at their full length.
const matryoshkaDim = 256

// Result is one ranked hit: the entry's id, text, metadata, and its final
// cosine score in [-1, 1].
type Result struct {
	ID       uuid.UUID
	Text     string
	Metadata map[string]any
	Score    float32
}

// Stats reports how many candidates survived each stage of one search, for
// metrics and the stage-budget testable property.
type Stats struct {
	Stage1Survivors int
	Stage2Survivors int
}

// Funnel orchestrates the three-stage retrieval funnel against a store and
// an embedder.
type Funnel struct {
	store    store.Store
	embedder embed.Embedder
	dedupe   singleflight.Group
}

// New returns a Funnel searching st with queries embedded by embedder.
func New(st store.Store, embedder embed.Embedder) *Funnel {
	return &Funnel{store: st, embedder: embedder}
}

// clampStages enforces top_k <= stage2_k <= stage1_k by raising any
// violating value, per the funnel's mandated clamping policy: callers never
// see an error for a misconfigured stage budget.
func clampStages(topK, stage1K, stage2K int) (int, int, int) {
	if topK < 1 {
		topK = 1
	}
	if stage2K < topK {
		stage2K = topK
	}
	if stage1K < stage2K {
		stage1K = stage2K
	}
	return topK, stage1K, stage2K
}

// Search runs the three-stage funnel for queryText and returns up to topK
// results in descending score order. stage1K and stage2K come from
// configuration but may be overridden per call; all three are clamped to
// satisfy top_k <= stage2_k <= stage1_k before the funnel runs.
func (f *Funnel) Search(ctx context.Context, queryText string, topK, stage1K, stage2K int) ([]Result, Stats, error) {
	topK, stage1K, stage2K = clampStages(topK, stage1K, stage2K)

	queryVector, err := f.embedQuery(ctx, queryText)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("funnel: embedding query: %w: %w", embed.ErrEmbedderFailure, err)
	}

	if isZero(queryVector) {
		return nil, Stats{}, nil
	}

	now := time.Now().Unix()
	queryBits := vector.Quantize(queryVector)

	stage1IDs, err := f.hammingScan(ctx, queryBits, now, stage1K)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("funnel: stage 1 scan: %w", err)
	}
	if len(stage1IDs) == 0 {
		return nil, Stats{}, nil
	}

	stage2Survivors, vectors, err := f.matryoshkaRefine(ctx, queryVector, stage1IDs, stage2K)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("funnel: stage 2 refinement: %w", err)
	}
	if len(stage2Survivors) == 0 {
		return nil, Stats{Stage1Survivors: len(stage1IDs)}, nil
	}

	results, err := f.fullRerank(ctx, queryVector, stage2Survivors, vectors, topK)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("funnel: stage 3 re-rank: %w", err)
	}

	return results, Stats{Stage1Survivors: len(stage1IDs), Stage2Survivors: len(stage2Survivors)}, nil
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}

// embedQuery embeds queryText, deduplicating concurrent identical-text
// searches so two callers searching for the same query share one embedder
// call.
func (f *Funnel) embedQuery(ctx context.Context, queryText string) ([]float32, error) {
	v, err, _ := f.dedupe.Do(queryText, func() (any, error) {
		return f.embedder.Embed(ctx, queryText)
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

// hammingScan is Stage 1: a bounded max-heap over (-distance, id), fed by a
// single consistent pass over the bit keyspace. Survivors whose metadata is
// missing or expired are skipped here, before any more expensive work is
// done downstream.
func (f *Funnel) hammingScan(ctx context.Context, queryBits []byte, now int64, stage1K int) ([]uuid.UUID, error) {
	entries, err := f.store.ScanBit(ctx)
	if err != nil {
		return nil, err
	}

	h := newBoundedMaxHeap(stage1K)
	for _, e := range entries {
		d := vector.Hamming(queryBits, e.Bit)
		h.offer(e.ID, -float32(d))
	}

	survivors := h.drain()
	ids := make([]uuid.UUID, 0, len(survivors))
	for _, it := range survivors {
		meta, err := f.store.GetMeta(ctx, it.id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if tier.Expired(now, meta.ExpiresAt) {
			continue
		}
		ids = append(ids, it.id)
	}
	return ids, nil
}

// matryoshkaRefine is Stage 2: fetch the full vector for each Stage 1
// survivor (fanned out concurrently, bounded by len(candidateIDs) <=
// stage1_k), slice+renormalize to matryoshkaDim, and keep the stage2K
// candidates with the highest truncated cosine. It returns the surviving
// ids in best-first order plus a cache of every full vector it fetched, for
// Stage 3 to reuse.
func (f *Funnel) matryoshkaRefine(ctx context.Context, queryVector []float32, candidateIDs []uuid.UUID, stage2K int) ([]uuid.UUID, map[uuid.UUID][]float32, error) {
	truncateDim := matryoshkaDim
	if len(queryVector) < truncateDim {
		truncateDim = len(queryVector)
	}

	q256, err := vector.SliceAndNormalize(queryVector, truncateDim)
	if err != nil {
		if errors.Is(err, vector.ErrDegenerateVector) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	type fetched struct {
		id  uuid.UUID
		vec []float32
		err error
	}
	results := make([]fetched, len(candidateIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range candidateIDs {
		i, id := i, id
		g.Go(func() error {
			v, err := f.store.GetVector(gctx, id)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			results[i] = fetched{id: id, vec: v, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	h := newBoundedMaxHeap(stage2K)
	cache := make(map[uuid.UUID][]float32, len(candidateIDs))
	for _, r := range results {
		if r.err != nil {
			continue
		}
		cache[r.id] = r.vec

		candidate256, err := vector.SliceAndNormalize(r.vec, truncateDim)
		score := float32(math.Inf(-1))
		if err == nil {
			score = vector.Cosine(q256, candidate256)
		} else if !errors.Is(err, vector.ErrDegenerateVector) {
			return nil, nil, err
		}
		h.offer(r.id, score)
	}

	survivors := h.drain()
	ids := make([]uuid.UUID, len(survivors))
	for i, it := range survivors {
		ids[i] = it.id
	}
	return ids, cache, nil
}

// fullRerank is Stage 3: compute full-precision cosine against the query
// for each Stage 2 survivor (reusing vectors already fetched in Stage 2
// where available), fetch metadata for the winners, and return the top topK
// results in descending score order with id-byte-order tie-breaking.
func (f *Funnel) fullRerank(ctx context.Context, queryVector []float32, candidateIDs []uuid.UUID, cache map[uuid.UUID][]float32, topK int) ([]Result, error) {
	type scored struct {
		id    uuid.UUID
		score float32
	}
	scoredIDs := make([]scored, 0, len(candidateIDs))

	for _, id := range candidateIDs {
		v, ok := cache[id]
		if !ok {
			fetched, err := f.store.GetVector(ctx, id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return nil, err
			}
			v = fetched
		}
		scoredIDs = append(scoredIDs, scored{id: id, score: vector.Cosine(queryVector, v)})
	}

	sort.SliceStable(scoredIDs, func(i, j int) bool {
		if c := vector.CompareScores(scoredIDs[i].score, scoredIDs[j].score); c != 0 {
			return c < 0
		}
		return bytes.Compare(scoredIDs[i].id[:], scoredIDs[j].id[:]) < 0
	})

	if len(scoredIDs) > topK {
		scoredIDs = scoredIDs[:topK]
	}

	out := make([]Result, 0, len(scoredIDs))
	for _, s := range scoredIDs {
		meta, err := f.store.GetMeta(ctx, s.id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, Result{ID: s.id, Text: meta.Text, Metadata: meta.Metadata, Score: s.score})
	}
	return out, nil
}
