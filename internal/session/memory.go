package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryBackend keeps slots in process memory. Slots are lost on restart and
// are not shared between instances.
type MemoryBackend struct {
	cache *cache.Cache
}

func NewMemoryBackend(cleanupInterval time.Duration) *MemoryBackend {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &MemoryBackend{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

func (m *MemoryBackend) Name() string {
	return "memory"
}

func (m *MemoryBackend) Load(_ context.Context, id string) ([]byte, error) {
	v, found := m.cache.Get(id)
	if !found {
		return nil, ErrNoSlot
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, ErrNoSlot
	}
	return data, nil
}

func (m *MemoryBackend) Save(_ context.Context, id string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	m.cache.Set(id, append([]byte(nil), data...), ttl)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

func (m *MemoryBackend) Ping(context.Context) error {
	return nil
}

// Len reports the number of live slots.
func (m *MemoryBackend) Len() int {
	return m.cache.ItemCount()
}
