// Package querycache is a per-session read-through cache of backend queries.
package querycache

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Kind names a query family. Invalidation works on whole families.
type Kind string

const (
	CurrentUser      Kind = "currentUser"
	Documents        Kind = "documents"
	Document         Kind = "document"
	DocumentAnalysis Kind = "documentAnalysis"
	ChatSuggestions  Kind = "chatSuggestions"
	MyLawyerProfile  Kind = "myLawyerProfile"
	Lawyers          Kind = "lawyers"
	Consultations    Kind = "consultations"
	Consultation     Kind = "consultation"
)

// DefaultLoadTimeout bounds a shared load once it no longer follows the
// request that started it.
const DefaultLoadTimeout = 30 * time.Second

// DefaultStaleTimes caches only the queries that tolerate staleness; every
// other kind is fetched on each read.
var DefaultStaleTimes = map[Kind]time.Duration{
	CurrentUser:      5 * time.Minute,
	DocumentAnalysis: 5 * time.Minute,
	ChatSuggestions:  10 * time.Minute,
}

// Key identifies one cached query result.
type Key struct {
	Session string
	Kind    Kind
	ID      string
}

func (k Key) String() string {
	return k.Session + "|" + string(k.Kind) + "|" + k.ID
}

func kindPrefix(sid string, kind Kind) string {
	return sid + "|" + string(kind) + "|"
}

// Cache holds query results keyed by session, kind and id.
type Cache struct {
	items       *cache.Cache
	group       singleflight.Group
	staleTimes  map[Kind]time.Duration
	loadTimeout time.Duration
}

// New builds a cache. A nil staleTimes uses DefaultStaleTimes.
func New(staleTimes map[Kind]time.Duration) *Cache {
	if staleTimes == nil {
		staleTimes = DefaultStaleTimes
	}
	return &Cache{
		items:       cache.New(cache.NoExpiration, 10*time.Minute),
		staleTimes:  staleTimes,
		loadTimeout: DefaultLoadTimeout,
	}
}

// Get returns the cached value for key or loads it. Concurrent loads of one
// key share a single backend call, which outlives the caller that started it
// up to the load timeout. A caller whose ctx ends stops waiting with ctx's
// error. Errors are never cached.
func Get[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	ttl, cacheable := c.staleTimes[key.Kind]
	id := key.String()
	if cacheable {
		if v, ok := c.items.Get(id); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}
	ch := c.group.DoChan(id, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if cacheable {
			c.items.Set(id, value, ttl)
		}
		return value, nil
	})
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Set stores a value directly, as after a mutation that returns the new state.
func (c *Cache) Set(key Key, value any) {
	if ttl, ok := c.staleTimes[key.Kind]; ok {
		c.items.Set(key.String(), value, ttl)
	}
}

// Invalidate drops every cached entry of the given kinds for one session.
func (c *Cache) Invalidate(sid string, kinds ...Kind) {
	for _, kind := range kinds {
		prefix := kindPrefix(sid, kind)
		for id := range c.items.Items() {
			if strings.HasPrefix(id, prefix) {
				c.items.Delete(id)
			}
		}
	}
}

// InvalidateKey drops one entry.
func (c *Cache) InvalidateKey(key Key) {
	c.items.Delete(key.String())
}

// Forget drops everything cached for a session.
func (c *Cache) Forget(sid string) {
	prefix := sid + "|"
	for id := range c.items.Items() {
		if strings.HasPrefix(id, prefix) {
			c.items.Delete(id)
		}
	}
}
