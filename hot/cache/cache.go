// Package cache holds recently resolved command definitions so hot-path
// invocations skip the registry lookup. Entries expire after a TTL and are
// invalidated synchronously on every registry mutation, so a stale template
// is never executed after an update or delete returns.
package cache

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// DefaultTTL bounds how long a definition may be served without a registry
// round trip. Invalidation, not expiry, is the correctness mechanism; the
// TTL only caps memory held for commands that stopped being invoked.
const DefaultTTL = 5 * time.Minute

type entry struct {
	def      *types.CommandDefinition
	cachedAt time.Time
}

// Cache is a TTL map of active command definitions keyed by (owner, name).
// All methods are safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache with the given TTL. A non-positive ttl falls back to
// DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

func key(owner, name string) string {
	return owner + "\x00" + name
}

// SetTTL changes the expiry window for subsequent reads. Existing entries
// are judged against the new TTL on their next access.
func (c *Cache) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
}

// Get returns a deep copy of the cached definition, or nil on a miss or an
// expired entry. Callers receive clones so a cached definition can never be
// mutated in place. Lookups take only the read lock, so concurrent cached
// reads never block each other; expired entries are left for Put and Len to
// sweep.
func (c *Cache) Get(owner, name string) *types.CommandDefinition {
	c.mu.RLock()
	e, ok := c.entries[key(owner, name)]
	ttl := c.ttl
	c.mu.RUnlock()

	if !ok || time.Since(e.cachedAt) >= ttl {
		c.misses.Add(1)
		return nil
	}
	c.hits.Add(1)
	return e.def.Clone()
}

// Put stores a deep copy of the definition and sweeps out expired entries.
func (c *Cache) Put(def *types.CommandDefinition) {
	if def == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if time.Since(e.cachedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
	c.entries[key(def.Owner, def.Name)] = entry{def: def.Clone(), cachedAt: time.Now()}
}

// Invalidate drops one definition. Safe to call for entries never cached.
func (c *Cache) Invalidate(owner, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key(owner, name))
}

// InvalidateOwner drops every definition belonging to owner.
func (c *Cache) InvalidateOwner(owner string) {
	prefix := owner + "\x00"
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Stats reports cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of live entries, expiring stale ones as a side
// effect.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if time.Since(e.cachedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
	return len(c.entries)
}

// Fingerprint derives a stable key for one invocation's validated parameter
// set, for correlating repeated invocations in results caching and audit.
// Parameter names are sorted so map iteration order cannot change the key.
func Fingerprint(owner, name string, params types.ValidatedParams) string {
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(owner)
	b.WriteByte(0)
	b.WriteString(name)
	for _, n := range names {
		b.WriteByte(0)
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(params[n].CanonicalString())
	}
	return b.String()
}
