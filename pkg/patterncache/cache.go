// Package patterncache caches compiled patterns. Pattern compilation
// requires a full tree-sitter parse of the pattern source; rule sets and
// scans reuse the same handful of patterns constantly, so an LRU pays for
// itself immediately.
package patterncache

import (
	"sync"
	"sync/atomic"

	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
)

// DefaultCapacity bounds the cache when the caller does not choose one.
const DefaultCapacity = 256

// Key identifies one compiled pattern. Two compilations with equal keys
// are interchangeable because patterns are immutable.
type Key struct {
	Language   string
	Source     string
	Selector   string
	Strictness matcher.Strictness
}

// entry is a doubly-linked list node holding one cached pattern.
type entry struct {
	key     Key
	pattern *matcher.Pattern
	prev    *entry
	next    *entry
}

// Cache is a thread-safe LRU cache of compiled patterns.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	head    *entry // Most recently used.
	tail    *entry // Least recently used.
	cap     int

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache bounded to capacity entries. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Cache{
		entries: make(map[Key]*entry, capacity),
		cap:     capacity,
	}
}

// Get returns the cached pattern for key, marking it most recently used.
func (c *Cache) Get(key Key) (*matcher.Pattern, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)

		return nil, false
	}

	c.hits.Add(1)
	c.moveToFront(e)

	return e.pattern, true
}

// Put stores a compiled pattern, evicting the least recently used entry
// when the cache is full.
func (c *Cache) Put(key Key, p *matcher.Pattern) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.pattern = p
		c.moveToFront(e)

		return
	}

	e := &entry{key: key, pattern: p}
	c.entries[key] = e
	c.pushFront(e)

	if len(c.entries) > c.cap {
		c.evictTail()
	}
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Stats returns cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) pushFront(e *entry) {
	e.next = c.head
	e.prev = nil

	if c.head != nil {
		c.head.prev = e
	}

	c.head = e

	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache) moveToFront(e *entry) {
	if c.head == e {
		return
	}

	if e.prev != nil {
		e.prev.next = e.next
	}

	if e.next != nil {
		e.next.prev = e.prev
	}

	if c.tail == e {
		c.tail = e.prev
	}

	c.pushFront(e)
}

func (c *Cache) evictTail() {
	victim := c.tail
	if victim == nil {
		return
	}

	if victim.prev != nil {
		victim.prev.next = nil
	}

	c.tail = victim.prev

	if c.head == victim {
		c.head = nil
	}

	delete(c.entries, victim.key)
}
