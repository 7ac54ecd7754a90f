package client

import (
	"container/list"
	"sync"
	"time"
)

// DefaultCacheMaxEntries is the soft cap on cache size. TTL expiry is the
// primary eviction mechanism; the cap only bounds memory across long sessions.
const DefaultCacheMaxEntries = 1024

// Cache is an in-memory TTL cache for decoded API responses with
// least-recently-used eviction beyond a soft entry cap.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	order      *list.List // front is most recently used
	maxEntries int
	clock      func() time.Time
}

type cacheEntry struct {
	key       string
	value     any
	expiresAt time.Time
	elem      *list.Element
}

// NewCache creates a cache with the given soft entry cap.
// maxEntries <= 0 selects DefaultCacheMaxEntries.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return &Cache{
		entries:    make(map[string]*cacheEntry),
		order:      list.New(),
		maxEntries: maxEntries,
		clock:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the cached value for key. A stale entry is evicted and
// reported as a miss; a fresh-but-evicted entry is indistinguishable
// from a genuine miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if c.clock().After(entry.expiresAt) {
		c.removeLocked(entry)
		return nil, false
	}

	c.order.MoveToFront(entry.elem)
	return entry.value, true
}

// Put inserts or replaces the entry for key. TTL <= 0 stores nothing.
func (c *Cache) Put(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.value = value
		entry.expiresAt = c.clock().Add(ttl)
		c.order.MoveToFront(entry.elem)
		return
	}

	entry := &cacheEntry{
		key:       key,
		value:     value,
		expiresAt: c.clock().Add(ttl),
	}
	entry.elem = c.order.PushFront(entry)
	c.entries[key] = entry

	for len(c.entries) > c.maxEntries {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest.Value.(*cacheEntry))
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.order.Init()
}

// Len reports the number of entries, including any not yet expired lazily.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) removeLocked(entry *cacheEntry) {
	delete(c.entries, entry.key)
	c.order.Remove(entry.elem)
}
