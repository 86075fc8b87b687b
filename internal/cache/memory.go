package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryClient is an in-process Client used when no Redis address is configured.
type MemoryClient struct {
	mu      sync.Mutex
	data    map[string]memoryEntry
	maxSize int
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
	storedAt  time.Time
}

func NewMemoryClient(maxSize int) *MemoryClient {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &MemoryClient{
		data:    make(map[string]memoryEntry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (c *MemoryClient) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.data, key)
		return nil, ErrCacheMiss
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (c *MemoryClient) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxSize {
		c.evictOldest()
	}
	now := c.now()
	e := memoryEntry{value: append([]byte(nil), value...), storedAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	c.data[key] = e
	return nil
}

func (c *MemoryClient) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *MemoryClient) Close() error { return nil }

// evictOldest must be called with mu held.
func (c *MemoryClient) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, e := range c.data {
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey, oldest = k, e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.data, oldestKey)
	}
}
