package cache

import (
	"errors"
	"fmt"
	"time"
)

// TierPolicy bounds a single cache tier.
type TierPolicy struct {
	// TTL is how long an entry stays live. Entries are expired lazily on
	// read and swept during write-path eviction.
	TTL time.Duration

	// MaxEntries caps the tier size. Exceeding it triggers a batch
	// eviction on the write path.
	MaxEntries int

	// EvictionBatch is how many entries one eviction pass removes.
	// If zero, a tenth of MaxEntries (at least one) is used.
	EvictionBatch int
}

// batchSize resolves the effective eviction batch.
func (p TierPolicy) batchSize() int {
	if p.EvictionBatch > 0 {
		return p.EvictionBatch
	}
	if n := p.MaxEntries / 10; n > 0 {
		return n
	}
	return 1
}

// Config configures the orchestrator and all three tiers.
type Config struct {
	Exact      TierPolicy
	Similarity TierPolicy
	Pattern    TierPolicy

	// SimilarityThreshold is the starting L2 match threshold. It adapts
	// at runtime within [MinSimilarityThreshold, MaxSimilarityThreshold].
	SimilarityThreshold float64

	// PatternOverlapThreshold is the minimum Jaccard overlap for an L3
	// template to be considered a match candidate.
	PatternOverlapThreshold float64

	// PromoteThreshold gates write-back promotion: L2 hits promote to L1
	// when similarity meets it, L3 hits promote to L1 when pattern
	// confidence meets it.
	PromoteThreshold float64

	// OptimizeInterval is the period of the background optimization pass.
	OptimizeInterval time.Duration

	// LatencySampleCap bounds the retained lookup latency samples.
	LatencySampleCap int
}

// DefaultConfig returns the production defaults: 30m/15m/60m tier TTLs,
// 0.85 similarity threshold, 0.8 pattern overlap, 0.9 promotion threshold,
// and a 5 minute optimization interval.
func DefaultConfig() Config {
	return Config{
		Exact:      TierPolicy{TTL: 30 * time.Minute, MaxEntries: 2000},
		Similarity: TierPolicy{TTL: 15 * time.Minute, MaxEntries: 1000},
		Pattern:    TierPolicy{TTL: 60 * time.Minute, MaxEntries: 500},

		SimilarityThreshold:     0.85,
		PatternOverlapThreshold: 0.8,
		PromoteThreshold:        0.9,
		OptimizeInterval:        5 * time.Minute,
		LatencySampleCap:        1024,
	}
}

// Validate checks the configuration for values the caches cannot operate
// with.
func (c Config) Validate() error {
	for _, tier := range []struct {
		name   string
		policy TierPolicy
	}{
		{"exact", c.Exact},
		{"similarity", c.Similarity},
		{"pattern", c.Pattern},
	} {
		if tier.policy.TTL <= 0 {
			return fmt.Errorf("cache: %s tier TTL must be positive", tier.name)
		}
		if tier.policy.MaxEntries <= 0 {
			return fmt.Errorf("cache: %s tier MaxEntries must be positive", tier.name)
		}
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return errors.New("cache: similarity threshold must be in (0, 1]")
	}
	if c.PatternOverlapThreshold <= 0 || c.PatternOverlapThreshold > 1 {
		return errors.New("cache: pattern overlap threshold must be in (0, 1]")
	}
	if c.PromoteThreshold <= 0 || c.PromoteThreshold > 1 {
		return errors.New("cache: promote threshold must be in (0, 1]")
	}
	if c.OptimizeInterval <= 0 {
		return errors.New("cache: optimize interval must be positive")
	}
	return nil
}
