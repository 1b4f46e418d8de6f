// Package cache holds the bounded in-memory cache placed in front of the external services, and the
// retrying Caller that fills it.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// DefaultCapacity of a FIFO cache.
const DefaultCapacity = 1000

// FIFO is a bounded cache evicting the oldest inserted entry when full. It is safe for concurrent use.
//
// It is backed by an LRU cache that is only read with Peek: recency is never refreshed by reads,
// so the least recently used entry is the oldest inserted one.
type FIFO[V any] struct {
	lru *lru.Cache[string, V]
}

// NewFIFO creates a FIFO cache holding at most capacity entries.
func NewFIFO[V any](capacity int) (*FIFO[V], error) {
	if capacity <= 0 {
		return nil, errors.Errorf("cache capacity must be positive, got %d", capacity)
	}
	c, err := lru.New[string, V](capacity)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create cache of capacity %d", capacity)
	}
	return &FIFO[V]{lru: c}, nil
}

// Get returns the value for key, if present.
func (c *FIFO[V]) Get(key string) (V, bool) {
	return c.lru.Peek(key)
}

// Put inserts or replaces the value for key. Replacing counts as a new insertion. It returns true if
// an entry was evicted to make room.
func (c *FIFO[V]) Put(key string, value V) (evicted bool) {
	return c.lru.Add(key, value)
}

// Len returns the number of entries.
func (c *FIFO[V]) Len() int { return c.lru.Len() }

// Keys returns the keys, oldest first.
func (c *FIFO[V]) Keys() []string { return c.lru.Keys() }

// Purge removes all entries.
func (c *FIFO[V]) Purge() { c.lru.Purge() }
