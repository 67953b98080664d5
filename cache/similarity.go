package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/verdantlabs/phenocache/genetics"
)

// Adaptive threshold bounds. OptimizeThresholds never tunes outside these.
const (
	minSimilarityThreshold = 0.70
	maxSimilarityThreshold = 0.95
	thresholdStep          = 0.01

	// Window signals driving adaptation.
	highFalsePositiveRate = 0.20
	lowHitRate            = 0.30
)

// SimilarityCache is the L2 tier. It stores full (genotype, environment,
// result) triples and answers queries by genetic similarity: the best
// stored genotype at or above the current threshold wins, but only when
// the environment key matches exactly - environments are never fuzzily
// matched.
type SimilarityCache struct {
	mu        sync.RWMutex
	entries   map[string]*similarityEntry
	policy    TierPolicy
	threshold float64
	now       func() time.Time

	// Optimization window counters, reset by OptimizeThresholds.
	hits           int64
	misses         int64
	feedbackTotal  int64
	falsePositives int64
}

type similarityEntry struct {
	genotype       *genetics.Genotype
	env            genetics.EnvironmentalSnapshot
	envKey         string
	result         genetics.TraitExpressionResult
	expiresAt      time.Time
	accessCount    int64
	lastAccess     time.Time
	lastSimilarity float64
}

// PromotionCandidate is an L2 entry eligible for write-back into L1.
type PromotionCandidate struct {
	Genotype   *genetics.Genotype
	Env        genetics.EnvironmentalSnapshot
	Result     genetics.TraitExpressionResult
	Similarity float64
}

// NewSimilarityCache creates the L2 tier with a starting match threshold.
func NewSimilarityCache(policy TierPolicy, threshold float64) *SimilarityCache {
	if threshold <= 0 {
		threshold = 0.85
	}
	return &SimilarityCache{
		entries:   make(map[string]*similarityEntry),
		policy:    policy,
		threshold: threshold,
		now:       time.Now,
	}
}

// FindSimilar returns the closest stored result whose genotype similarity
// meets the current threshold and whose environment matches exactly.
// The returned float is the similarity of the winning match.
func (c *SimilarityCache) FindSimilar(g *genetics.Genotype, env genetics.EnvironmentalSnapshot) (genetics.TraitExpressionResult, float64, bool) {
	if g == nil {
		return genetics.TraitExpressionResult{}, 0, false
	}
	envKey := env.Key()
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var best *similarityEntry
	var bestSim float64
	for _, entry := range c.entries {
		if entry.envKey != envKey || now.After(entry.expiresAt) {
			continue
		}
		sim := genetics.Similarity(g, entry.genotype)
		if sim > bestSim {
			best, bestSim = entry, sim
		}
	}

	if best == nil || bestSim < c.threshold {
		c.misses++
		return genetics.TraitExpressionResult{}, 0, false
	}

	best.accessCount++
	best.lastAccess = now
	best.lastSimilarity = bestSim
	c.hits++
	return best.result, bestSim, true
}

// Set stores a triple, replacing any prior entry for the same genotype and
// environment and evicting when over capacity.
func (c *SimilarityCache) Set(g *genetics.Genotype, env genetics.EnvironmentalSnapshot, result genetics.TraitExpressionResult) {
	if g == nil {
		return
	}
	now := c.now()
	key := g.ID + "|" + env.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &similarityEntry{
		genotype:   g,
		env:        env,
		envKey:     env.Key(),
		result:     result,
		expiresAt:  now.Add(c.policy.TTL),
		lastAccess: now,
	}
	if len(c.entries) > c.policy.MaxEntries {
		c.evictLocked(now)
	}
}

func (c *SimilarityCache) evictLocked(now time.Time) {
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

// RecordFeedback feeds downstream accuracy information back into the
// adaptive threshold: a fuzzy hit that later proved inaccurate counts as a
// false positive.
func (c *SimilarityCache) RecordFeedback(accurate bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feedbackTotal++
	if !accurate {
		c.falsePositives++
	}
}

// OptimizeThresholds adjusts the match threshold based on the observation
// window since the previous call: a high false-positive rate raises the
// threshold, a low hit rate lowers it. The window counters reset either
// way.
func (c *SimilarityCache) OptimizeThresholds() {
	c.mu.Lock()
	defer c.mu.Unlock()

	lookups := c.hits + c.misses
	switch {
	case c.feedbackTotal > 0 && float64(c.falsePositives)/float64(c.feedbackTotal) > highFalsePositiveRate:
		c.threshold += thresholdStep
		if c.threshold > maxSimilarityThreshold {
			c.threshold = maxSimilarityThreshold
		}
	case lookups > 0 && float64(c.hits)/float64(lookups) < lowHitRate:
		c.threshold -= thresholdStep
		if c.threshold < minSimilarityThreshold {
			c.threshold = minSimilarityThreshold
		}
	}

	c.hits, c.misses = 0, 0
	c.feedbackTotal, c.falsePositives = 0, 0
}

// Threshold returns the current match threshold.
func (c *SimilarityCache) Threshold() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.threshold
}

// PromotionCandidates returns live entries whose last recorded hit
// similarity meets the given promotion threshold.
func (c *SimilarityCache) PromotionCandidates(threshold float64) []PromotionCandidate {
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []PromotionCandidate
	for _, entry := range c.entries {
		if now.After(entry.expiresAt) || entry.lastSimilarity < threshold {
			continue
		}
		out = append(out, PromotionCandidate{
			Genotype:   entry.genotype,
			Env:        entry.env,
			Result:     entry.result,
			Similarity: entry.lastSimilarity,
		})
	}
	return out
}

// Clear drops every entry. The adapted threshold survives.
func (c *SimilarityCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*similarityEntry)
	c.mu.Unlock()
}

// Len returns the current entry count.
func (c *SimilarityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
