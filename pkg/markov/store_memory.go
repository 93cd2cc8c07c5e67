package markov

import (
	"context"
	"sync"
)

// MemoryStore is a Store kept entirely in memory. It is safe for concurrent
// use and is mostly useful for tests and short-lived experiments.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]string)}
}

// Put appends word to the observations recorded for key.
func (m *MemoryStore) Put(_ context.Context, key, word string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append(m.entries[key], word)
	return nil
}

// PutBatch appends every entry under a single lock.
func (m *MemoryStore) PutBatch(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.entries[e.Key] = append(m.entries[e.Key], e.Word)
	}
	return nil
}

// Get returns a copy of the observations recorded for key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	words := m.entries[key]
	if len(words) == 0 {
		return nil, nil
	}
	out := make([]string, len(words))
	copy(out, words)
	return out, nil
}

// Count returns how many times word was recorded after key.
func (m *MemoryStore) Count(key, word string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int
	for _, w := range m.entries[key] {
		if w == word {
			n++
		}
	}
	return n
}

// Keys returns the number of distinct keys in the store.
func (m *MemoryStore) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Observations returns the total number of recorded observations.
func (m *MemoryStore) Observations() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int
	for _, words := range m.entries {
		n += len(words)
	}
	return n
}
