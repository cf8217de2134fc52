package funnel

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmemory/memory/embed"
	"github.com/lmemory/memory/ingest"
	"github.com/lmemory/memory/store"
	"github.com/lmemory/memory/store/memstore"
	"github.com/lmemory/memory/tier"
)

func newFixture(t *testing.T) (*Funnel, *ingest.Pipeline, store.Store) {
	t.Helper()
	embedder := embed.NewFake(768)
	st := memstore.New()
	p := ingest.New(embedder, st, tier.DefaultConfig())
	return New(st, embedder), p, st
}

func TestSearchFindsRelatedTextOverUnrelatedText(t *testing.T) {
	ctx := context.Background()
	f, p, _ := newFixture(t)

	_, err := p.Run(ctx, "The user prefers vim for editing code", nil, nil)
	require.NoError(t, err)
	_, err = p.Run(ctx, "The weather today is sunny, warm", nil, nil)
	require.NoError(t, err)

	results, _, err := f.Search(ctx, "editor keybindings and vim configuration", 5, 100, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Text, "vim")
	assert.GreaterOrEqual(t, results[0].Score, float32(0.2))
}

func TestSearchOnEmptyCorpusReturnsEmptyNotError(t *testing.T) {
	f, _, _ := newFixture(t)
	results, stats, err := f.Search(context.Background(), "anything", 5, 100, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, stats.Stage1Survivors)
}

func TestSearchRespectsStageBudgets(t *testing.T) {
	ctx := context.Background()
	f, p, _ := newFixture(t)

	for i := 0; i < 20; i++ {
		_, err := p.Run(ctx, uuid.New().String(), nil, nil)
		require.NoError(t, err)
	}

	results, stats, err := f.Search(ctx, "some query text", 3, 10, 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 3)
	assert.LessOrEqual(t, stats.Stage1Survivors, 10)
	assert.LessOrEqual(t, stats.Stage2Survivors, 5)
}

func TestSearchResultsAreSortedDescendingByScore(t *testing.T) {
	ctx := context.Background()
	f, p, _ := newFixture(t)

	for i := 0; i < 10; i++ {
		_, err := p.Run(ctx, uuid.New().String(), nil, nil)
		require.NoError(t, err)
	}

	results, _, err := f.Search(ctx, "query", 10, 10, 10)
	require.NoError(t, err)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchSkipsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	f, p, _ := newFixture(t)

	episodic := tier.Episodic
	past := int64(0)
	_, err := p.Run(ctx, "expired note about vim", nil, &ingest.Override{Tier: &episodic, TTL: &past})
	require.NoError(t, err)
	_, err = p.Run(ctx, "fresh note about vim", nil, nil)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	results, _, err := f.Search(ctx, "vim notes", 5, 100, 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, "fresh note about vim", r.Text)
	}
}

func TestClampStagesEnforcesOrdering(t *testing.T) {
	topK, s1, s2 := clampStages(10, 5, 3)
	assert.Equal(t, 10, topK)
	assert.LessOrEqual(t, topK, s2)
	assert.LessOrEqual(t, s2, s1)
}

func TestClampStagesAcceptsAlreadyValidInput(t *testing.T) {
	topK, s1, s2 := clampStages(5, 100, 10)
	assert.Equal(t, 5, topK)
	assert.Equal(t, 100, s1)
	assert.Equal(t, 10, s2)
}
