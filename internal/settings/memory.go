package settings

import (
	"context"
	"strings"
	"sync"
)

// MemoryStorage keeps flags in process memory. Used when no database is
// configured; values are lost on restart.
type MemoryStorage struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{flags: make(map[string]bool)}
}

func (m *MemoryStorage) LoadFlag(_ context.Context, key string) (bool, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.flags[key]
	return v, ok, nil
}

func (m *MemoryStorage) SaveFlag(_ context.Context, key string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[key] = value
	return nil
}

func (m *MemoryStorage) DeletePrefix(_ context.Context, prefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for k := range m.flags {
		if strings.HasPrefix(k, prefix) {
			delete(m.flags, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored keys.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.flags)
}
