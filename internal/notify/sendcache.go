package notify

import (
	"hash/fnv"
	"sync"
	"time"
)

const (
	defaultCacheCapacity = 100
	defaultHorizon       = time.Hour
	evictionInterval     = 10 * time.Minute
)

type sentEntry struct {
	hash   uint64
	sentAt time.Time
}

// SendCache remembers the hashes of recently sent texts so a sink can
// suppress an identical resend within the horizon. Capacity is fixed:
// when full, the oldest entry is overwritten. Expired entries are pruned
// lazily, at most once per eviction interval, so steady-state operations
// stay O(capacity) without a background goroutine.
type SendCache struct {
	mu        sync.Mutex
	entries   []sentEntry
	next      int
	capacity  int
	horizon   time.Duration
	lastEvict time.Time
	now       func() time.Time
}

// NewSendCache creates a cache with the default capacity and a one hour
// horizon.
func NewSendCache() *SendCache {
	return &SendCache{
		entries:  make([]sentEntry, 0, defaultCacheCapacity),
		capacity: defaultCacheCapacity,
		horizon:  defaultHorizon,
		now:      time.Now,
	}
}

func hashText(text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	return h.Sum64()
}

// WasSent reports whether an identical text was recorded within the
// horizon.
func (c *SendCache) WasSent(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.maybeEvict(now)

	hash := hashText(text)
	for _, e := range c.entries {
		if e.hash == hash && now.Sub(e.sentAt) < c.horizon {
			return true
		}
	}
	return false
}

// Record notes that a text was sent now.
func (c *SendCache) Record(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := sentEntry{hash: hashText(text), sentAt: c.now()}
	if len(c.entries) < c.capacity {
		c.entries = append(c.entries, entry)
		return
	}
	c.entries[c.next] = entry
	c.next = (c.next + 1) % c.capacity
}

// maybeEvict drops expired entries, at most once per eviction interval.
// Callers hold the mutex.
func (c *SendCache) maybeEvict(now time.Time) {
	if now.Sub(c.lastEvict) < evictionInterval {
		return
	}
	c.lastEvict = now

	kept := c.entries[:0]
	for _, e := range c.entries {
		if now.Sub(e.sentAt) < c.horizon {
			kept = append(kept, e)
		}
	}
	c.entries = kept
	if c.next >= len(c.entries) {
		c.next = 0
	}
}

// Len returns the number of cached entries, expired ones included until
// the next eviction pass.
func (c *SendCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
