// Package views holds the per-process cache of rendered view payloads and
// the invalidation side-channel mutating operations use to refresh them.
package views

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Logical view names. Mutations invalidate these instead of addressing
// individual cache entries.
const (
	Feed      = "feed"
	Dashboard = "dashboard"
	Admin     = "admin"
	Detail    = "prompt"
)

// Invalidator is the side-channel the services signal after a mutation.
type Invalidator interface {
	Invalidate(views ...string)
}

type item struct {
	data      any
	expiresAt time.Time
}

// Cache is a TTL'd LRU keyed by logical view. Entries register under their
// view segment so a whole view can be dropped at once.
type Cache struct {
	lru *lru.Cache[string, item]

	mu     sync.Mutex
	byView map[string]map[string]struct{}
}

func New(size int) *Cache {
	l, err := lru.New[string, item](size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &Cache{
		lru:    l,
		byView: make(map[string]map[string]struct{}),
	}
}

// Key builds a cache key scoped to a logical view.
func Key(view string, parts ...string) string {
	if len(parts) == 0 {
		return view
	}
	return view + ":" + strings.Join(parts, ":")
}

func (c *Cache) Set(key string, data any, ttl time.Duration) {
	c.lru.Add(key, item{data: data, expiresAt: time.Now().Add(ttl)})

	view, _, _ := strings.Cut(key, ":")
	c.mu.Lock()
	keys, ok := c.byView[view]
	if !ok {
		keys = make(map[string]struct{})
		c.byView[view] = keys
	}
	keys[key] = struct{}{}
	c.mu.Unlock()
}

// Get returns the cached data, or nil when missing or expired.
func (c *Cache) Get(key string) any {
	val, ok := c.lru.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(val.expiresAt) {
		c.lru.Remove(key)
		return nil
	}
	return val.data
}

// Invalidate drops every entry belonging to the named views.
func (c *Cache) Invalidate(views ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, view := range views {
		for key := range c.byView[view] {
			c.lru.Remove(key)
		}
		delete(c.byView, view)
	}
}
