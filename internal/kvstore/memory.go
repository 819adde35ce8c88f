package kvstore

import (
	"context"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt *time.Time
}

// MemoryStore keeps values for the lifetime of the process.
type MemoryStore struct {
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if expired(m.now(), entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return slices.Clone(entry.value), true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		value:     slices.Clone(value),
		expiresAt: expiresAt(m.now(), ttl),
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
