package kvstore

import (
	"context"
	"strings"
	"sync"
)

type memoryEntry struct {
	value   []byte
	version uint64
}

// Memory is an in-process KV backend. It is the default store and mirrors
// the semantics of the other backends, including version tokens.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory constructs an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// Get returns the value and version stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, 0, ErrKeyNotFound
	}
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, entry.version, nil
}

// Set stores the value unconditionally, bumping the version.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := m.entries[key]
	m.entries[key] = memoryEntry{value: cloneBytes(value), version: entry.version + 1}
	return nil
}

// CompareAndSwap stores the value only when the current version matches.
func (m *Memory) CompareAndSwap(_ context.Context, key string, value []byte, version uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		if version != 0 {
			return ErrVersionConflict
		}
		m.entries[key] = memoryEntry{value: cloneBytes(value), version: 1}
		return nil
	}
	if entry.version != version {
		return ErrVersionConflict
	}
	m.entries[key] = memoryEntry{value: cloneBytes(value), version: entry.version + 1}
	return nil
}

// Delete removes the key if present.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Keys lists stored keys with the given prefix.
func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0)
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func cloneBytes(value []byte) []byte {
	cloned := make([]byte, len(value))
	copy(cloned, value)
	return cloned
}
