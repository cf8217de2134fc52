package funnel

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBoundedMaxHeapRetainsHighestScores(t *testing.T) {
	h := newBoundedMaxHeap(3)
	ids := make([]uuid.UUID, 5)
	scores := []float32{1, 5, 2, 9, 3}
	for i, s := range scores {
		ids[i] = uuid.New()
		h.offer(ids[i], s)
	}

	drained := h.drain()
	require := assert.New(t)
	require.Len(drained, 3)
	require.Equal(ids[3], drained[0].id) // score 9
	require.Equal(ids[1], drained[1].id) // score 5
	require.Equal(ids[4], drained[2].id) // score 3
}

func TestBoundedMaxHeapZeroCapacityDropsEverything(t *testing.T) {
	h := newBoundedMaxHeap(0)
	h.offer(uuid.New(), 10)
	assert.Empty(t, h.drain())
}

func TestBoundedMaxHeapExactTieFavorsEarlierArrival(t *testing.T) {
	h := newBoundedMaxHeap(1)
	first := uuid.New()
	second := uuid.New()
	h.offer(first, 5)
	h.offer(second, 5)

	drained := h.drain()
	require := assert.New(t)
	require.Len(drained, 1)
	require.Equal(first, drained[0].id)
}

func TestBoundedMaxHeapDrainIsBestFirst(t *testing.T) {
	h := newBoundedMaxHeap(10)
	scores := []float32{3, 1, 4, 1, 5, 9, 2, 6}
	for _, s := range scores {
		h.offer(uuid.New(), s)
	}

	drained := h.drain()
	for i := 1; i < len(drained); i++ {
		assert.GreaterOrEqual(t, drained[i-1].score, drained[i].score)
	}
}

func TestBoundedMaxHeapUnderCapacityKeepsEverything(t *testing.T) {
	h := newBoundedMaxHeap(100)
	for i := 0; i < 10; i++ {
		h.offer(uuid.New(), float32(i))
	}
	assert.Len(t, h.drain(), 10)
}
