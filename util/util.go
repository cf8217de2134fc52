// Package util provides a seeded RNG for generating synthetic embeddings in
// tests and benchmarks, without depending on a real embedder.
package util

import (
	"math"
	"math/rand"
)

// RNG struct encapsulates the random number generator and seed.
type RNG struct {
	rand *rand.Rand
	seed int64
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// GenerateRandomVectors generates random vectors using the given RNG.
func (r *RNG) GenerateRandomVectors(num int, dimensions int) [][]float32 {
	vectors := make([][]float32, num)
	for i := range vectors {
		vectors[i] = make([]float32, dimensions)
		for j := range vectors[i] {
			vectors[i][j] = r.rand.Float32()
		}
	}

	return vectors
}

// GenerateRandomUnitVectors generates random vectors renormalized to unit
// L2 length, matching the invariant every embedding in this system carries.
func (r *RNG) GenerateRandomUnitVectors(num int, dimensions int) [][]float32 {
	vectors := r.GenerateRandomVectors(num, dimensions)
	for _, v := range vectors {
		var sumSq float64
		for _, f := range v {
			sumSq += float64(f) * float64(f)
		}
		if sumSq == 0 {
			v[0] = 1
			continue
		}
		inv := float32(1 / math.Sqrt(sumSq))
		for i := range v {
			v[i] *= inv
		}
	}
	return vectors
}
