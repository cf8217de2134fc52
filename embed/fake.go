package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Fake is a deterministic, hash-based Embedder with no neural dependency,
// used in tests in place of a real model. It implements a bag-of-words
// feature-hashing scheme: each lowercased token deterministically
// contributes to a handful of dimensions, so texts sharing vocabulary
// produce vectors with non-trivial cosine similarity, and unrelated texts
// do not.
type Fake struct {
	dim int
	// featuresPerToken controls how many dimensions each token perturbs.
	featuresPerToken int
}

var _ Embedder = (*Fake)(nil)

// NewFake returns a Fake embedder producing unit vectors of the given
// dimension.
func NewFake(dim int) *Fake {
	return &Fake{dim: dim, featuresPerToken: 8}
}

// Dimension returns the configured vector length.
func (f *Fake) Dimension() int {
	return f.dim
}

// Embed deterministically hashes text into a unit-length vector. It never
// fails.
func (f *Fake) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, f.dim)

	for _, tok := range tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		seed := h.Sum64()

		for i := 0; i < f.featuresPerToken; i++ {
			seed = splitmix64(seed)
			dim := int(seed % uint64(f.dim))
			sign := float32(1)
			if seed&1 == 0 {
				sign = -1
			}
			v[dim] += sign
		}
	}

	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		// Deterministic fallback so an empty or unrecognized text still
		// produces a valid unit vector rather than the zero vector.
		v[0] = 1
		return v, nil
	}

	inv := float32(1 / math.Sqrt(sumSq))
	for i := range v {
		v[i] *= inv
	}
	return v, nil
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	return fields
}

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}
