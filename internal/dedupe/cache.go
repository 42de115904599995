// ABOUTME: Bounded TTL set of recently seen webhook event ids
// ABOUTME: Lets the relay drop redelivered events before any side effect occurs

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	seenAt  time.Time
	element *list.Element
}

// Cache is a thread-safe, size-bounded, TTL-expiring set of event ids.
// Insertion order is kept in a linked list so eviction at capacity is O(1).
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   *list.List // oldest id at the front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a cache that remembers ids for ttl, holding at most maxSize of
// them. A background goroutine sweeps expired entries.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Seen atomically reports whether id was already recorded and, if not, records
// it. Returns true for a duplicate. The check and the mark happen under one
// lock so two concurrent deliveries of the same event cannot both pass.
func (c *Cache) Seen(id string) bool {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok && now.Sub(e.seenAt) < c.ttl {
		return true
	}

	if e, ok := c.entries[id]; ok {
		// Expired entry for the same id: refresh in place.
		e.seenAt = now
		c.order.MoveToBack(e.element)
		return false
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[id] = &entry{seenAt: now, element: c.order.PushBack(id)}
	return false
}

// evictOldest removes the entry at the front of the order list. Caller holds mu.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	id, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.entries, id)
}

// sweepLoop periodically drops expired entries until Close.
func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.entries {
		if now.Sub(e.seenAt) >= c.ttl {
			c.order.Remove(e.element)
			delete(c.entries, id)
		}
	}
}

// Close stops the sweep goroutine. Safe to call more than once.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
