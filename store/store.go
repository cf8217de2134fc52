// Package store defines the durable multi-keyspace contract the funnel and
// ingestion pipeline are built against, and the errors common to every
// implementation.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/lmemory/memory/tier"
)

// ErrNotFound is returned by Get* operations when the requested id is not
// present in that keyspace. Delete does not return it; it reports an
// absent id as false.
var ErrNotFound = errors.New("store: not found")

// Meta is the metadata-keyspace value envelope: everything about an entry
// except its vector and bit-vector representations.
type Meta struct {
	Text      string
	Metadata  map[string]any
	Tier      tier.Tier
	ExpiresAt *int64
}

// Entry is a complete memory entry as written by a single atomic Put.
type Entry struct {
	ID     uuid.UUID
	Meta   Meta
	Vector []float32
	Bit    []byte
}

// BitEntry is one row of a Stage-1 scan: an id and its packed bit vector.
type BitEntry struct {
	ID  uuid.UUID
	Bit []byte
}

// Store is the durable multi-keyspace contract: three logically independent
// keyspaces (meta, vec, bit) sharing one key (the entry id) and one atomic
// write. Every implementation must satisfy:
//
//   - Put writes all three keyspaces atomically: on crash, either all three
//     are visible afterward or none are.
//   - For every id present in one keyspace, it is present in all three; a
//     successful Get returns all three or the entry is absent.
//   - Delete removes all three keyspaces atomically.
//   - ScanBit returns a point-in-time snapshot: concurrent writes during the
//     scan are not observed by it.
//
// Implementations are safe for concurrent use by multiple goroutines.
type Store interface {
	// Put writes a complete entry, replacing any existing entry with the
	// same id.
	Put(ctx context.Context, e Entry) error

	// GetMeta returns the metadata envelope for id, or ErrNotFound.
	GetMeta(ctx context.Context, id uuid.UUID) (Meta, error)

	// GetVector returns the full float vector for id, or ErrNotFound.
	GetVector(ctx context.Context, id uuid.UUID) ([]float32, error)

	// GetBit returns the packed bit vector for id, or ErrNotFound.
	GetBit(ctx context.Context, id uuid.UUID) ([]byte, error)

	// Delete removes id from all three keyspaces. It reports whether the id
	// was present.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// ScanBit returns every (id, bit) pair as a consistent, point-in-time
	// snapshot. Iteration order is unspecified but deterministic within one
	// call.
	ScanBit(ctx context.Context) ([]BitEntry, error)

	// Close releases any resources (file handles, connections) held by the
	// store.
	Close() error
}
