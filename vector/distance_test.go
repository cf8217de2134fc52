package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHamming(t *testing.T) {
	assert.Equal(t, 0, Hamming([]byte{0xFF}, []byte{0xFF}))
	assert.Equal(t, 8, Hamming([]byte{0xFF}, []byte{0x00}))
	assert.Equal(t, 1, Hamming([]byte{0xA5}, []byte{0xA4}))

	a := Quantize([]float32{1, 1, 1, 1, 1, 1, 1, 1, 1})
	b := Quantize([]float32{1, 1, 1, 1, 1, 1, 1, 1, -1})
	assert.Equal(t, 1, Hamming(a, b))
}

func TestHammingAcrossWordBoundary(t *testing.T) {
	a := make([]byte, 10)
	b := make([]byte, 10)
	b[9] = 0x01
	assert.Equal(t, 1, Hamming(a, b))
}

func TestCosine(t *testing.T) {
	assert.Equal(t, float32(1), Cosine([]float32{1, 0, 0}, []float32{1, 0, 0}))
	assert.Equal(t, float32(0), Cosine([]float32{1, 0, 0}, []float32{0, 1, 0}))
	assert.Equal(t, float32(-1), Cosine([]float32{1, 0, 0}, []float32{-1, 0, 0}))
}
