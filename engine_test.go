package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmemory/memory/config"
	"github.com/lmemory/memory/embed"
	"github.com/lmemory/memory/store/memstore"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.EmbeddingDimension = 32
	cfg.SearchStages.Stage1K = 50
	cfg.SearchStages.Stage2K = 10

	e, err := New(cfg, embed.NewFake(32), memstore.New(), WithMetricsCollector(&BasicMetricsCollector{}))
	require.NoError(t, err)
	return e
}

func TestNewRejectsMismatchedEmbeddingDimension(t *testing.T) {
	cfg := config.Default()
	cfg.EmbeddingDimension = 999
	_, err := New(cfg, embed.NewFake(32), memstore.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIngestSearchDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	id, err := e.Ingest(ctx, "The user prefers vim for editing code", nil, nil)
	require.NoError(t, err)

	results, err := e.Search(ctx, "vim editor preferences", 5, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, id, results[0].ID)

	existed, err := e.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = e.Inspect(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUnknownIDReportsFalseNotError(t *testing.T) {
	e := newTestEngine(t)
	existed, err := e.Delete(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestIngestEmptyTextIsInvalidInput(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Ingest(context.Background(), "", nil, nil)
	require.Error(t, err)
	var memErr *Error
	require.True(t, errors.As(err, &memErr))
	assert.Equal(t, "Ingest", memErr.Op)
}

func TestSearchOnEmptyEngineReturnsNoResults(t *testing.T) {
	e := newTestEngine(t)
	results, err := e.Search(context.Background(), "anything at all", 5, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCloseReleasesStore(t *testing.T) {
	e := newTestEngine(t)
	assert.NoError(t, e.Close())
}

// TestConcurrentIngestAndSearchIsSafe interleaves many goroutines' worth of
// Ingest and Search calls against one Engine, checking the two halves of
// the thread-safety contract: a Search never returns an id this test never
// ingested, and every id an Ingest call returned is immediately visible to
// Inspect once that call has returned (no stale-read window).
func TestConcurrentIngestAndSearchIsSafe(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	const ingesters = 50
	ids := make([]uuid.UUID, ingesters)
	ingestErrs := make([]error, ingesters)

	var wg sync.WaitGroup
	wg.Add(ingesters)
	for i := 0; i < ingesters; i++ {
		go func(i int) {
			defer wg.Done()
			id, err := e.Ingest(ctx, fmt.Sprintf("concurrent memory entry number %d", i), nil, nil)
			ids[i] = id
			ingestErrs[i] = err
		}(i)
	}

	const searchers = 20
	searchErrs := make([]error, searchers)
	var searchWG sync.WaitGroup
	searchWG.Add(searchers)
	for i := 0; i < searchers; i++ {
		go func(i int) {
			defer searchWG.Done()
			_, err := e.Search(ctx, "concurrent memory entry", 10, 0, 0)
			searchErrs[i] = err
		}(i)
	}

	wg.Wait()
	searchWG.Wait()

	for i, err := range ingestErrs {
		require.NoError(t, err, "ingest %d", i)
	}
	for i, err := range searchErrs {
		require.NoError(t, err, "search %d", i)
	}

	known := make(map[uuid.UUID]bool, ingesters)
	for _, id := range ids {
		known[id] = true
		_, err := e.Inspect(ctx, id)
		assert.NoError(t, err, "id %s not visible immediately after its Ingest call returned", id)
	}

	results, err := e.Search(ctx, "concurrent memory entry", ingesters, 0, 0)
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, known[r.ID], "search returned id %s that this test never ingested", r.ID)
	}
}
