package vector

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareScores(t *testing.T) {
	nan := float32(math.NaN())

	assert.Negative(t, CompareScores(0.9, 0.1))
	assert.Positive(t, CompareScores(0.1, 0.9))
	assert.Zero(t, CompareScores(0.5, 0.5))

	assert.Positive(t, CompareScores(nan, 0.0))
	assert.Negative(t, CompareScores(0.0, nan))
	assert.Zero(t, CompareScores(nan, nan))
}

func TestCompareScoresSortsNaNLast(t *testing.T) {
	scores := []float32{0.2, float32(math.NaN()), 0.9, -0.5}
	sort.Slice(scores, func(i, j int) bool {
		return CompareScores(scores[i], scores[j]) < 0
	})
	assert.Equal(t, float32(0.9), scores[0])
	assert.Equal(t, float32(0.2), scores[1])
	assert.Equal(t, float32(-0.5), scores[2])
	assert.True(t, math.IsNaN(float64(scores[3])))
}
