package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache is the single-process Cache used when no Redis is configured.
// It holds at most max entries and evicts the one closest to expiry.
type MemoryCache struct {
	mu      sync.Mutex
	max     int
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache(max int) *MemoryCache {
	if max <= 0 {
		max = 256
	}
	return &MemoryCache{max: max, entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		_ = c.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

func (c *MemoryCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	e := memoryEntry{data: b}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.max {
		c.evictLocked()
	}
	c.entries[key] = e
	return nil
}

func (c *MemoryCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *MemoryCache) evictLocked() {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for k, e := range c.entries {
		// entries without a ttl go last
		exp := e.expires
		if exp.IsZero() {
			exp = time.Unix(1<<62, 0)
		}
		if !found || exp.Before(oldest) {
			victim, oldest, found = k, exp, true
		}
	}
	if found {
		delete(c.entries, victim)
	}
}
