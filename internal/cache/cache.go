// Package cache provides the time-bounded, capacity-bounded store for
// composed search responses.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/namisearch/nami/internal/metrics"
	"github.com/namisearch/nami/internal/search"
)

// Key identifies one cached response. Queries differing only by case or
// whitespace are distinct entries.
type Key struct {
	Query      string
	NumResults int
}

type entry struct {
	key      Key
	response search.Response
	storedAt time.Time
}

// ResultCache is an LRU cache with a fixed TTL per entry. Safe for
// concurrent use. Eviction is strict LRU: a Get refreshes recency, and
// inserting beyond capacity drops the least recently used entry.
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[Key]*list.Element
	order    *list.List // front = most recently used

	now func() time.Time
}

// New constructs a ResultCache with the given capacity and TTL.
func New(capacity int, ttl time.Duration) *ResultCache {
	if capacity <= 0 {
		capacity = 128
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ResultCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[Key]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the cached response for key. Expired entries are evicted
// here rather than returned.
func (c *ResultCache) Get(key Key) (search.Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return search.Response{}, false
	}
	ent := elem.Value.(*entry)
	if c.now().Sub(ent.storedAt) > c.ttl {
		c.removeLocked(elem)
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return search.Response{}, false
	}
	c.order.MoveToFront(elem)
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return ent.response, true
}

// Put stores a response under key, refreshing the TTL if the key already
// exists and evicting the least recently used entry at capacity.
func (c *ResultCache) Put(key Key, response search.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		ent := elem.Value.(*entry)
		ent.response = response
		ent.storedAt = c.now()
		c.order.MoveToFront(elem)
		return
	}
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.removeLocked(oldest)
		}
	}
	elem := c.order.PushFront(&entry{
		key:      key,
		response: response,
		storedAt: c.now(),
	})
	c.entries[key] = elem
}

// Len reports the current number of entries, expired or not.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *ResultCache) removeLocked(elem *list.Element) {
	ent := elem.Value.(*entry)
	delete(c.entries, ent.key)
	c.order.Remove(elem)
}
