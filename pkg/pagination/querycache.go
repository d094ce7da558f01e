package pagination

import (
	"sort"
	"sync"
	"time"
)

// QueryKey identifies one query whose pages are cached.
type QueryKey string

// SpaceObjectsQuery is the key of the full space-objects listing.
const SpaceObjectsQuery QueryKey = "space-objects"

type queryEntry struct {
	pages      []Page
	generation uint64
	updatedAt  time.Time
}

// QueryCache holds the retained pages of each query. It is safe for
// concurrent use.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[QueryKey]*queryEntry
	now     func() time.Time
}

// NewQueryCache creates an empty cache.
func NewQueryCache() *QueryCache {
	return &QueryCache{
		entries: make(map[QueryKey]*queryEntry),
		now:     time.Now,
	}
}

// Pages returns a copy of the pages retained for key, in page order.
func (c *QueryCache) Pages(key QueryKey) []Page {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || len(e.pages) == 0 {
		return nil
	}
	return append([]Page(nil), e.pages...)
}

// Generation returns key's current generation. It starts at 0 and grows by
// one on every invalidation.
func (c *QueryCache) Generation(key QueryKey) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.entries[key]; ok {
		return e.generation
	}
	return 0
}

// UpdatedAt returns when key last changed, zero if never.
func (c *QueryCache) UpdatedAt(key QueryKey) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.entries[key]; ok {
		return e.updatedAt
	}
	return time.Time{}
}

// Append adds page to key if it was loaded under the current generation and
// directly follows the last retained page. It reports whether the page was
// stored.
func (c *QueryCache) Append(key QueryKey, generation uint64, page Page) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	if e.generation != generation {
		stalePagesDiscardedTotal.Inc()
		return false
	}
	if page.Number != len(e.pages)+1 {
		return false
	}
	e.pages = append(e.pages, page)
	e.updatedAt = c.now()
	return true
}

// Invalidate drops key's pages and bumps its generation, which it returns.
func (c *QueryCache) Invalidate(key QueryKey) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	e.pages = nil
	e.generation++
	e.updatedAt = c.now()
	return e.generation
}

// InvalidateAll invalidates every known key.
func (c *QueryCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, e := range c.entries {
		e.pages = nil
		e.generation++
		e.updatedAt = now
	}
}

// Keys returns the known keys in sorted order.
func (c *QueryCache) Keys() []QueryKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]QueryKey, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Invalidator returns a function that invalidates key.
func (c *QueryCache) Invalidator(key QueryKey) func() {
	return func() { c.Invalidate(key) }
}

func (c *QueryCache) entryLocked(key QueryKey) *queryEntry {
	e, ok := c.entries[key]
	if !ok {
		e = &queryEntry{}
		c.entries[key] = e
	}
	return e
}
