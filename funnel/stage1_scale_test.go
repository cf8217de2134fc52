package funnel

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmemory/memory/embed"
	"github.com/lmemory/memory/store"
	"github.com/lmemory/memory/store/memstore"
	"github.com/lmemory/memory/tier"
	"github.com/lmemory/memory/util"
	"github.com/lmemory/memory/vector"
)

// TestSearchRespectsStageBudgetsAtScale inserts a large synthetic corpus
// directly (bypassing the embedder) to confirm the funnel's stage budgets
// hold independent of corpus size, not just the handful of entries the
// other funnel tests exercise.
func TestSearchRespectsStageBudgetsAtScale(t *testing.T) {
	ctx := context.Background()
	const dim = 768
	const corpusSize = 2000

	st := memstore.New()
	rng := util.NewRNG(7)
	vectors := rng.GenerateRandomUnitVectors(corpusSize, dim)

	for _, v := range vectors {
		entry := store.Entry{
			ID: uuid.New(),
			Meta: store.Meta{
				Text: "synthetic entry",
				Tier: tier.Semantic,
			},
			Vector: v,
			Bit:    vector.Quantize(v),
		}
		require.NoError(t, st.Put(ctx, entry))
	}

	f := New(st, embed.NewFake(dim))
	results, stats, err := f.Search(ctx, "any query text at all", 5, 50, 10)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(results), 5)
	assert.LessOrEqual(t, stats.Stage1Survivors, 50)
	assert.LessOrEqual(t, stats.Stage2Survivors, 10)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}
