// Package memstore is an in-memory store.Store used by unit tests and the
// recall benchmark, where durability across process restarts is not
// required. It satisfies the same atomic cross-keyspace contract as
// store/sqlite by holding all three keyspaces behind one mutex.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/lmemory/memory/store"
)

// Store is a map-backed store.Store.
type Store struct {
	mu   sync.RWMutex
	meta map[uuid.UUID]store.Meta
	vec  map[uuid.UUID][]float32
	bit  map[uuid.UUID][]byte
}

var _ store.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		meta: make(map[uuid.UUID]store.Meta),
		vec:  make(map[uuid.UUID][]float32),
		bit:  make(map[uuid.UUID][]byte),
	}
}

// Put writes all three keyspaces under one lock, so a concurrent reader
// never observes a partially-written entry.
func (s *Store) Put(_ context.Context, e store.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meta[e.ID] = e.Meta
	s.vec[e.ID] = slices.Clone(e.Vector)
	s.bit[e.ID] = slices.Clone(e.Bit)
	return nil
}

// GetMeta returns the metadata envelope for id.
func (s *Store) GetMeta(_ context.Context, id uuid.UUID) (store.Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.meta[id]
	if !ok {
		return store.Meta{}, store.ErrNotFound
	}
	return m, nil
}

// GetVector returns the full float vector for id.
func (s *Store) GetVector(_ context.Context, id uuid.UUID) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vec[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slices.Clone(v), nil
}

// GetBit returns the packed bit vector for id.
func (s *Store) GetBit(_ context.Context, id uuid.UUID) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bit[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slices.Clone(b), nil
}

// Delete removes id from all three keyspaces under one lock.
func (s *Store) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.meta[id]
	delete(s.meta, id)
	delete(s.vec, id)
	delete(s.bit, id)
	return existed, nil
}

// ScanBit copies every (id, bit) pair while holding the read lock, so the
// result reflects a single consistent instant rather than a mix of states
// from concurrent writers.
func (s *Store) ScanBit(_ context.Context) ([]store.BitEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.BitEntry, 0, len(s.bit))
	for id, bit := range s.bit {
		out = append(out, store.BitEntry{ID: id, Bit: slices.Clone(bit)})
	}
	return out, nil
}

// Close is a no-op; memstore holds no external resources.
func (s *Store) Close() error {
	return nil
}
