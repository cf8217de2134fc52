package vector

import "math"

// CompareScores orders two similarity scores for ranking, descending: a
// real value greater than another sorts first, and any NaN sorts below
// every real value (never panics, never produces an undefined order). It
// returns a negative number if a should sort before b, a positive number
// if b should sort before a, and zero if they are equal.
func CompareScores(a, b float32) int {
	aNaN, bNaN := math.IsNaN(float64(a)), math.IsNaN(float64(b))
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
