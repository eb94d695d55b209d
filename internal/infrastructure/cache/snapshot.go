package cache

import (
	"maps"
	"sync"
)

// Snapshot is a thread-safe map that is only ever replaced as a whole,
// tagged with the key of the input it was computed from. Readers never
// observe a partially built map.
type Snapshot[K comparable, V any] struct {
	mu        sync.RWMutex
	key       string
	entries   map[K]V
	populated bool
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot[K comparable, V any]() *Snapshot[K, V] {
	return &Snapshot[K, V]{entries: map[K]V{}}
}

// Get returns the entry for k.
func (s *Snapshot[K, V]) Get(k K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[k]
	return v, ok
}

// Key returns the input key of the current map, or false if nothing has
// been stored yet.
func (s *Snapshot[K, V]) Key() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.key, s.populated
}

// All returns a copy of the current map.
func (s *Snapshot[K, V]) All() map[K]V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.entries)
}

// Replace swaps in entries as the new map for key. The caller must not
// modify entries afterwards.
func (s *Snapshot[K, V]) Replace(key string, entries map[K]V) {
	if entries == nil {
		entries = map[K]V{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.key = key
	s.entries = entries
	s.populated = true
}

// Clear drops the map and its key.
func (s *Snapshot[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.key = ""
	s.entries = map[K]V{}
	s.populated = false
}
