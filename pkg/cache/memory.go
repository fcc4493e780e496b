package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value   []byte
	expires time.Time
}

// Memory is an in-process Store. Expired entries are dropped lazily on read.
type Memory struct {
	mu    sync.Mutex
	items map[string]memEntry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: map[string]memEntry{}, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.items, key)
		return nil, ErrMiss
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores value; a ttl <= 0 means no expiry.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.items[key] = e
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}
