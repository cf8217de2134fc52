package vector

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceAndNormalize(t *testing.T) {
	t.Run("dimension", func(t *testing.T) {
		sliced, err := SliceAndNormalize([]float32{1, 2, 3, 4, 5}, 3)
		require.NoError(t, err)
		assert.Len(t, sliced, 3)
	})

	t.Run("renormalizes to unit length", func(t *testing.T) {
		sliced, err := SliceAndNormalize([]float32{1, 1, 1, 1}, 2)
		require.NoError(t, err)

		expected := float32(1.0 / math.Sqrt2)
		assert.InDelta(t, expected, sliced[0], 1e-6)
		assert.InDelta(t, expected, sliced[1], 1e-6)

		var norm float64
		for _, f := range sliced {
			norm += float64(f) * float64(f)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
	})

	t.Run("dimension too large", func(t *testing.T) {
		_, err := SliceAndNormalize([]float32{1, 2}, 3)
		var dimErr *ErrInvalidDimension
		require.ErrorAs(t, err, &dimErr)
	})

	t.Run("zero dimension", func(t *testing.T) {
		_, err := SliceAndNormalize([]float32{1, 2}, 0)
		var dimErr *ErrInvalidDimension
		require.ErrorAs(t, err, &dimErr)
	})

	t.Run("all-zero slice is degenerate", func(t *testing.T) {
		_, err := SliceAndNormalize([]float32{0, 0, 0}, 2)
		require.True(t, errors.Is(err, ErrDegenerateVector))
	})
}
