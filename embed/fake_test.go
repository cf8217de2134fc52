package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmemory/memory/vector"
)

func TestFakeEmbedIsUnitLength(t *testing.T) {
	f := NewFake(64)
	v, err := f.Embed(context.Background(), "the user prefers vim")
	require.NoError(t, err)
	assert.Len(t, v, 64)

	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sumSq, 1e-4)
}

func TestFakeEmbedIsDeterministic(t *testing.T) {
	f := NewFake(64)
	ctx := context.Background()
	v1, err := f.Embed(ctx, "hello world")
	require.NoError(t, err)
	v2, err := f.Embed(ctx, "hello world")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestFakeEmbedSharedVocabularyIsMoreSimilar(t *testing.T) {
	f := NewFake(256)
	ctx := context.Background()

	base, err := f.Embed(ctx, "the user prefers vim as their editor")
	require.NoError(t, err)
	related, err := f.Embed(ctx, "vim editor keybindings")
	require.NoError(t, err)
	unrelated, err := f.Embed(ctx, "quarterly revenue projections for finance")
	require.NoError(t, err)

	simRelated := vector.Cosine(base, related)
	simUnrelated := vector.Cosine(base, unrelated)
	assert.Greater(t, simRelated, simUnrelated)
}

func TestFakeEmbedEmptyTextIsStillUnitLength(t *testing.T) {
	f := NewFake(32)
	v, err := f.Embed(context.Background(), "")
	require.NoError(t, err)

	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sumSq, 1e-4)
}
