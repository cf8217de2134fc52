// Package embed defines the embedding capability the core depends on
// without hard-binding to any specific neural runtime.
package embed

import (
	"context"
	"errors"
)

// ErrEmbedderFailure is the sentinel every Embed failure is wrapped in, so
// the core can classify it as kEmbedderFailure (retryable) rather than
// kStorageFailure.
var ErrEmbedderFailure = errors.New("embed: embedder failed")

// Embedder turns text into a unit-L2-normalized float vector. Implementers
// must be deterministic for a given model and must be safe to call
// concurrently; the core assumes this and does not serialize calls.
type Embedder interface {
	// Embed returns a unit-length vector of Dimension() floats for text.
	// Failures are treated by callers as transient (kEmbedderFailure) and
	// may be retried.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the length of every vector Embed returns.
	Dimension() int
}
