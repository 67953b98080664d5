package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/verdantlabs/phenocache/genetics"
)

// ExactCache is the L1 tier: a bounded TTL map keyed on the exact
// (genotype ID, environment) hash. It is the fastest path and the only
// tier consulted before any genetic math runs.
type ExactCache struct {
	mu      sync.RWMutex
	entries map[string]*exactEntry
	policy  TierPolicy
	now     func() time.Time
}

type exactEntry struct {
	result      genetics.TraitExpressionResult
	expiresAt   time.Time
	accessCount int64
	lastAccess  time.Time
}

// NewExactCache creates the L1 tier with the given policy.
func NewExactCache(policy TierPolicy) *ExactCache {
	return &ExactCache{
		entries: make(map[string]*exactEntry),
		policy:  policy,
		now:     time.Now,
	}
}

// Get retrieves a cached result. Returns (zero, false) on miss or expiry.
func (c *ExactCache) Get(key string) (genetics.TraitExpressionResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return genetics.TraitExpressionResult{}, false
	}

	now := c.now()
	if now.After(entry.expiresAt) {
		// Expired - clean up lazily.
		c.mu.Lock()
		if current, still := c.entries[key]; still && current == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return genetics.TraitExpressionResult{}, false
	}

	c.mu.Lock()
	entry.accessCount++
	entry.lastAccess = now
	result := entry.result
	c.mu.Unlock()
	return result, true
}

// Set stores a result under the key, evicting a batch of stale,
// little-used entries when the tier is over capacity.
func (c *ExactCache) Set(key string, result genetics.TraitExpressionResult) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &exactEntry{
		result:     result,
		expiresAt:  now.Add(c.policy.TTL),
		lastAccess: now,
	}
	if len(c.entries) > c.policy.MaxEntries {
		c.evictLocked(now)
	}
}

// evictLocked removes expired entries first, then the worst-scoring live
// entries until a batch has been freed. The score prefers evicting entries
// that are both old and rarely used, which is deliberately not strict LRU:
// a frequently hit but slightly stale entry outlives a fresh one-shot.
func (c *ExactCache) evictLocked(now time.Time) {
	budget := c.policy.batchSize()

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			budget--
		}
	}
	if budget <= 0 || len(c.entries) <= c.policy.MaxEntries {
		return
	}

	type scored struct {
		key   string
		score float64
	}
	candidates := make([]scored, 0, len(c.entries))
	for key, entry := range c.entries {
		staleness := now.Sub(entry.lastAccess).Seconds()
		candidates = append(candidates, scored{
			key:   key,
			score: staleness / float64(1+entry.accessCount),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	for i := 0; i < budget && i < len(candidates); i++ {
		delete(c.entries, candidates[i].key)
	}
}

// Clear drops every entry.
func (c *ExactCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*exactEntry)
	c.mu.Unlock()
}

// Len returns the current entry count.
func (c *ExactCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
