package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store backed by a map.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

// Get returns a copy of the entry cached for path.
func (s *MemoryStore) Get(_ context.Context, path string) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[path]
	s.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues(LayerMemory).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(LayerMemory).Inc()
	cp := *entry
	return &cp, nil
}

// Set stores a copy of entry under path.
func (s *MemoryStore) Set(_ context.Context, path string, entry *Entry) error {
	if entry == nil {
		CacheErrors.WithLabelValues("set").Inc()
		return ErrNilEntry
	}

	cp := *entry
	s.mu.Lock()
	s.entries[path] = &cp
	n := len(s.entries)
	s.mu.Unlock()

	CacheEntries.WithLabelValues(LayerMemory).Set(float64(n))
	return nil
}

// Clear drops every entry.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]*Entry)
	s.mu.Unlock()

	CacheClears.WithLabelValues(LayerMemory).Inc()
	CacheEntries.WithLabelValues(LayerMemory).Set(0)
	return nil
}

// Len returns the number of cached entries.
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}
