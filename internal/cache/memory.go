package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMemorySize = 10000

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryBackend is an in-process LRU with per-key expiry. Sessions do not
// survive a restart and are not shared between replicas.
type MemoryBackend struct {
	cache *lru.Cache[string, memoryEntry]
	now   func() time.Time
}

func NewMemoryBackend(size int) (*MemoryBackend, error) {
	if size <= 0 {
		size = defaultMemorySize
	}
	cache, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &MemoryBackend{cache: cache, now: time.Now}, nil
}

// SetClock replaces the time source used for expiry.
func (m *MemoryBackend) SetClock(now func() time.Time) {
	m.now = now
}

func (m *MemoryBackend) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.cache.Add(key, memoryEntry{value: stored, expiresAt: m.now().Add(ttl)})
	return nil
}

func (m *MemoryBackend) Fetch(_ context.Context, key string) ([]byte, error) {
	entry, ok := m.cache.Get(key)
	if !ok {
		return nil, nil
	}
	if !m.now().Before(entry.expiresAt) {
		m.cache.Remove(key)
		return nil, nil
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

func (m *MemoryBackend) Remove(_ context.Context, key string) error {
	m.cache.Remove(key)
	return nil
}

func (m *MemoryBackend) Len() int {
	return m.cache.Len()
}
