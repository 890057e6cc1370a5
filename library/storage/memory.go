package storage

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value    string
	expireAt time.Time
}

// Memory is a process-local Backend, contents vanish on exit.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemory returns an empty Memory backend
func NewMemory() *Memory {
	return &Memory{items: map[string]memoryItem{}, now: time.Now}
}

// Get reads key
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	if !item.expireAt.IsZero() && !m.now().Before(item.expireAt) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return "", ErrNotFound
	}

	return item.value, nil
}

// Set writes key
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expireAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

// Del removes key
func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Close is a no-op
func (m *Memory) Close(context.Context) error { return nil }
