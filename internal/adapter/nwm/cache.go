package nwm

import (
	"sync"
	"time"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// cycleCache is a small thread-safe LRU cache of fetched forecast cycles,
// keyed by reference time.
type cycleCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[time.Time]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   time.Time
	value domain.ForecastCycle
	prev  *entry
	next  *entry
}

func newCycleCache(maxEntries int) *cycleCache {
	return &cycleCache{
		maxEntries: maxEntries,
		entries:    make(map[time.Time]*entry),
	}
}

func (c *cycleCache) get(key time.Time) (domain.ForecastCycle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return domain.ForecastCycle{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *cycleCache) put(key time.Time, value domain.ForecastCycle) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	if len(c.entries) > c.maxEntries {
		lru := c.tail
		c.unlink(lru)
		delete(c.entries, lru.key)
	}
}

func (c *cycleCache) moveToFront(e *entry) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *cycleCache) pushFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *cycleCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
