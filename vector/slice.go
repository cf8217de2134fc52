package vector

import (
	"fmt"
	"math"
)

// ErrDegenerateVector is returned by SliceAndNormalize when the requested
// slice has zero L2 norm and therefore cannot be renormalized to unit
// length. Callers on the search path treat a candidate that produces this
// error as having similarity -Inf rather than propagating the error.
var ErrDegenerateVector = fmt.Errorf("vector: degenerate (zero-norm) slice")

// ErrInvalidDimension is returned when the requested slice dimension is
// zero or exceeds the length of the source vector.
type ErrInvalidDimension struct {
	Requested int
	Available int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("vector: invalid slice dimension %d (source has %d)", e.Requested, e.Available)
}

// SliceAndNormalize returns the first dim components of v, re-normalized to
// unit L2 length (the Matryoshka truncation operation). It fails with
// *ErrInvalidDimension if dim is zero or greater than len(v), and with
// ErrDegenerateVector if the truncated prefix has zero norm.
func SliceAndNormalize(v []float32, dim int) ([]float32, error) {
	if dim == 0 || dim > len(v) {
		return nil, &ErrInvalidDimension{Requested: dim, Available: len(v)}
	}

	sliced := make([]float32, dim)
	copy(sliced, v[:dim])

	var sumSq float64
	for _, f := range sliced {
		sumSq += float64(f) * float64(f)
	}
	if sumSq == 0 {
		return nil, ErrDegenerateVector
	}

	inv := float32(1 / math.Sqrt(sumSq))
	for i := range sliced {
		sliced[i] *= inv
	}
	return sliced, nil
}
