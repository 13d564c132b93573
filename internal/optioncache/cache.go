// Package optioncache caches filter-option (distinct value) lists so that
// reopening a filter editor does not re-issue an expensive distinct-values
// query. The cache is an injected object, constructed once at startup and
// shared by reference; entries expire after a fixed TTL and the whole cache
// is cleared whenever the active scope changes.
package optioncache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gyeh/claimscope/internal/remote"
)

// DefaultTTL matches the reference behavior: entries older than 5 minutes
// are treated as absent.
const DefaultTTL = 5 * time.Minute

// FetchFunc loads the option list on a cache miss.
type FetchFunc func(ctx context.Context) ([]remote.ValueCount, error)

type entry struct {
	data []remote.ValueCount
	at   time.Time
}

// Cache is a TTL cache of distinct-value lists keyed by endpoint plus
// serialized request params. Safe for concurrent use; concurrent misses on
// the same key are collapsed into one fetch via singleflight.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	flight  singleflight.Group

	now func() time.Time // overridable in tests
}

// New builds an empty cache. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: map[string]entry{},
		now:     time.Now,
	}
}

// Key derives the cache key for an endpoint and its request params. Params
// are serialized as JSON; Go maps marshal with sorted keys, so equal
// requests always produce equal keys.
func Key(endpoint string, params any) string {
	b, err := json.Marshal(params)
	if err != nil {
		// Unmarshalable params can't collide meaningfully; key on the error.
		return fmt.Sprintf("%s|!%v", endpoint, err)
	}
	return endpoint + "|" + string(b)
}

// Get returns the cached options for key, fetching on miss or when the
// entry is older than the TTL. Errors (including cancellation) are never
// cached; a partial fetch cannot corrupt the cache because only a
// successful result is stored.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) ([]remote.ValueCount, error) {
	if data, ok := c.lookup(key); ok {
		return data, nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		// Re-check under flight: another caller may have filled the entry
		// between our lookup and acquiring the flight slot.
		if data, ok := c.lookup(key); ok {
			return data, nil
		}
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]remote.ValueCount), nil
}

// Clear empties the cache unconditionally.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]entry{}
}

// Len returns the number of live entries (stale ones included).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) lookup(key string) ([]remote.ValueCount, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.at) > c.ttl {
		return nil, false
	}
	return e.data, true
}

func (c *Cache) store(key string, data []remote.ValueCount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{data: data, at: c.now()}
}
