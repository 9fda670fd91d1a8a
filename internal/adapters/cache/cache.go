// Package cache keeps recently rendered images so repeated repaint requests
// skip the raster pass.
package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Cache stores encoded images by request key.
type Cache interface {
	// Get returns the stored bytes for key. Callers must not modify them.
	Get(ctx context.Context, key uint64) ([]byte, bool)
	// Put stores val under key, evicting the oldest entry when full.
	Put(ctx context.Context, key uint64, val []byte)

	Size() int64
}

// Key hashes the canonical encoding of a request.
func Key(canonical []byte) uint64 {
	return xxhash.Sum64(canonical)
}

// entry is one cached image in insertion order, newest at head.
type entry struct {
	key  uint64
	val  []byte
	next *entry
}

func (e *entry) reset() {
	e.key = 0
	e.val = nil
	e.next = nil
}

// inMemoryCache bounds memory by entry count. With maxEntries <= 0 nothing
// is stored.
type inMemoryCache struct {
	mu         sync.RWMutex
	entries    map[uint64]*entry
	head       *entry
	maxEntries int
	size       atomic.Int64
	pool       sync.Pool
}

// NewInMemory creates a bounded in-memory cache.
func NewInMemory(opts ...Option) Cache {
	c := &inMemoryCache{
		maxEntries: 256,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[uint64]*entry)
	c.pool = sync.Pool{
		New: func() any {
			return &entry{}
		},
	}
	return c
}

func (c *inMemoryCache) Get(_ context.Context, key uint64) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.val, true
}

func (c *inMemoryCache) Put(_ context.Context, key uint64, val []byte) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.val = val
		return
	}
	if len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	e := c.pool.Get().(*entry)
	e.key = key
	e.val = val
	e.next = c.head
	c.head = e
	c.entries[key] = e
	c.size.Add(1)
}

// evictOldest drops the tail of the list. Caller holds c.mu.
func (c *inMemoryCache) evictOldest() {
	if c.head == nil {
		return
	}
	var prev *entry
	cur := c.head
	for cur.next != nil {
		prev = cur
		cur = cur.next
	}
	if prev == nil {
		c.head = nil
	} else {
		prev.next = nil
	}
	delete(c.entries, cur.key)
	cur.reset()
	c.pool.Put(cur)
	c.size.Add(-1)
}

func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}
