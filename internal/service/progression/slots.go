package progression

import (
	"context"
	"sync"
)

// Slots is the durable string key-value store progression is written to.
type Slots interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// MemorySlots keeps values in process memory. Useful for tests and throwaway runs.
type MemorySlots struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySlots returns an empty MemorySlots.
func NewMemorySlots() *MemorySlots {
	return &MemorySlots{values: make(map[string]string)}
}

func (m *MemorySlots) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *MemorySlots) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemorySlots) Close() error { return nil }
