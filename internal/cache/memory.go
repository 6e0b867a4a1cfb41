package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the staleness window applied when MemoryOptions.TTL is zero.
const DefaultTTL = 5 * time.Minute

type memEntry struct {
	value    []byte
	storedAt time.Time
}

// Memory is an in-process KV with lazy TTL expiry. Reads never evict: a
// stale entry is simply not returned, and the next Set for the same key
// overwrites it. There is no background sweep and no size bound; the cache
// lives for the lifetime of the process and holds at most one entry per key.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	ttl     time.Duration
	now     func() time.Time
	metrics Metrics
}

// MemoryOptions configures a Memory cache.
type MemoryOptions struct {
	// TTL is the freshness window. Zero means DefaultTTL; negative
	// disables expiry entirely.
	TTL time.Duration
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
	// Metrics receives hit/miss/write events. Defaults to no-op.
	Metrics Metrics
}

// NewMemory creates an empty in-process cache.
func NewMemory(opts MemoryOptions) *Memory {
	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	m := opts.Metrics
	if m == nil {
		m = NoopMetrics{}
	}
	return &Memory{
		entries: make(map[string]memEntry),
		ttl:     ttl,
		now:     now,
		metrics: m,
	}
}

func (c *Memory) fresh(e memEntry) bool {
	if c.ttl < 0 {
		return true
	}
	return c.now().Sub(e.storedAt) < c.ttl
}

func (c *Memory) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		c.metrics.Miss()
		return nil, false
	}
	if !c.fresh(e) {
		c.metrics.Stale()
		return nil, false
	}
	c.metrics.Hit()
	return e.value, true
}

func (c *Memory) Set(key string, value []byte) {
	c.mu.Lock()
	c.entries[key] = memEntry{value: value, storedAt: c.now()}
	c.mu.Unlock()
	c.metrics.Write()
}

func (c *Memory) Delete(keys ...string) {
	if len(keys) == 0 {
		return
	}
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
	c.metrics.Invalidate()
}

func (c *Memory) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]memEntry)
	c.mu.Unlock()
	c.metrics.Invalidate()
}

// Len reports the number of entries held, fresh or stale. Used by the
// admin surface; not part of the KV contract.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
