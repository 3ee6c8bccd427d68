package machines

import (
	"sync"
	"time"
)

// DefaultIPCacheTTL is how long a resolved machine address is trusted.
const DefaultIPCacheTTL = 30 * time.Minute

// CachedIP is a machine address and the moment it was resolved.
type CachedIP struct {
	Value      string
	CapturedAt time.Time
}

// Fresh reports whether the entry is still usable at now.
func (c CachedIP) Fresh(now time.Time, ttl time.Duration) bool {
	return c.Value != "" && now.Sub(c.CapturedAt) < ttl
}

// ipCache holds at most one CachedIP. Every invalidation bumps gen so a
// fetch that started before the invalidation cannot repopulate the cache
// with a stale address.
type ipCache struct {
	mu    sync.Mutex
	entry *CachedIP
	gen   uint64
}

func (c *ipCache) lookup(now time.Time, ttl time.Duration) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry == nil || !c.entry.Fresh(now, ttl) {
		return "", false
	}

	return c.entry.Value, true
}

func (c *ipCache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gen
}

// store saves ip unless the cache was invalidated since gen was read.
func (c *ipCache) store(gen uint64, ip string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}

	c.entry = &CachedIP{Value: ip, CapturedAt: now}
}

func (c *ipCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = nil
	c.gen++
}

func (c *ipCache) snapshot() (CachedIP, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry == nil {
		return CachedIP{}, false
	}

	return *c.entry, true
}
