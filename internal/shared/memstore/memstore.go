// Package memstore is the shared backing store of the in-memory repositories.
package memstore

import (
	"sync"

	"github.com/google/uuid"
)

// Store keeps values keyed by id in insertion order. Values are cloned on the
// way in and out so callers never share slices with the store.
type Store[T any] struct {
	mu    sync.RWMutex
	items map[uuid.UUID]T
	order []uuid.UUID
	clone func(T) T
}

// New creates a store. clone may be nil for values without reference fields.
func New[T any](clone func(T) T) *Store[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Store[T]{
		items: make(map[uuid.UUID]T),
		clone: clone,
	}
}

// Get returns the value stored under id.
func (s *Store[T]) Get(id uuid.UUID) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return s.clone(v), true
}

// Put inserts or replaces the value under id.
func (s *Store[T]) Put(id uuid.UUID, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; !exists {
		s.order = append(s.order, id)
	}
	s.items[id] = s.clone(v)
}

// Replace swaps the value under an existing id and reports whether it existed.
func (s *Store[T]) Replace(id uuid.UUID, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; !exists {
		return false
	}
	s.items[id] = s.clone(v)
	return true
}

// Delete removes id and reports whether it was present.
func (s *Store[T]) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; !exists {
		return false
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Filter returns clones of every value accepted by keep, in insertion order.
func (s *Store[T]) Filter(keep func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0)
	for _, id := range s.order {
		v := s.items[id]
		if keep == nil || keep(v) {
			out = append(out, s.clone(v))
		}
	}
	return out
}
