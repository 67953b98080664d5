package cache

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/verdantlabs/phenocache/genetics"
)

func similarityPolicy() TierPolicy {
	return TierPolicy{TTL: time.Minute, MaxEntries: 100}
}

func TestSimilarityCache_ExactGenotypeMatches(t *testing.T) {
	c := NewSimilarityCache(similarityPolicy(), 0.85)
	env := testEnv(24)

	stored := testGenotype("g1", map[string]genetics.AllelePair{
		"THC": testPair("T1", true, "T2", false),
		"CBD": testPair("C1", false, "C1", false),
	})
	c.Set(stored, env, testResult("g1"))

	query := testGenotype("g2", map[string]genetics.AllelePair{
		"THC": testPair("T1", true, "T2", false),
		"CBD": testPair("C1", false, "C1", false),
	})
	result, sim, ok := c.FindSimilar(query, env)
	if !ok {
		t.Fatal("genetically identical genotype should match")
	}
	if sim != 1.0 {
		t.Errorf("similarity = %v, want 1.0", sim)
	}
	if result.GenotypeID != "g1" {
		t.Errorf("result genotype = %q, want g1", result.GenotypeID)
	}
}

func TestSimilarityCache_BelowThresholdMisses(t *testing.T) {
	c := NewSimilarityCache(similarityPolicy(), 0.85)
	env := testEnv(24)

	stored := testGenotype("g1", map[string]genetics.AllelePair{
		"THC": testPair("T1", true, "T2", false),
	})
	c.Set(stored, env, testResult("g1"))

	// Disjoint alleles: similarity 0.
	query := testGenotype("g2", map[string]genetics.AllelePair{
		"THC": testPair("X1", true, "X2", false),
	})
	if _, _, ok := c.FindSimilar(query, env); ok {
		t.Error("dissimilar genotype should not match")
	}
}

func TestSimilarityCache_EnvironmentMatchedExactly(t *testing.T) {
	c := NewSimilarityCache(similarityPolicy(), 0.85)

	stored := testGenotype("g1", map[string]genetics.AllelePair{
		"THC": testPair("T1", true, "T2", false),
	})
	c.Set(stored, testEnv(24), testResult("g1"))

	// Identical genotype, slightly different environment: no fuzzy env match.
	query := testGenotype("g2", map[string]genetics.AllelePair{
		"THC": testPair("T1", true, "T2", false),
	})
	if _, _, ok := c.FindSimilar(query, testEnv(24.5)); ok {
		t.Error("environment must match exactly; fuzzy env matching is not allowed")
	}
	if _, _, ok := c.FindSimilar(query, testEnv(24)); !ok {
		t.Error("same environment should match")
	}
}

func TestSimilarityCache_BestMatchWins(t *testing.T) {
	c := NewSimilarityCache(similarityPolicy(), 0.5)
	env := testEnv(24)

	close1 := testGenotype("close", map[string]genetics.AllelePair{
		"THC": testPair("T1", true, "T2", false),
		"CBD": testPair("C1", false, "C1", false),
	})
	far := testGenotype("far", map[string]genetics.AllelePair{
		"THC": testPair("T1", true, "X1", false),
		"CBD": testPair("X2", false, "X3", false),
	})
	c.Set(far, env, testResult("far"))
	c.Set(close1, env, testResult("close"))

	query := testGenotype("query", map[string]genetics.AllelePair{
		"THC": testPair("T1", true, "T2", false),
		"CBD": testPair("C1", false, "C1", false),
	})
	result, _, ok := c.FindSimilar(query, env)
	if !ok {
		t.Fatal("expected a match")
	}
	if result.GenotypeID != "close" {
		t.Errorf("best match = %q, want close", result.GenotypeID)
	}
}

func TestSimilarityCache_ThresholdRaisesOnFalsePositives(t *testing.T) {
	c := NewSimilarityCache(similarityPolicy(), 0.85)

	for i := 0; i < 10; i++ {
		c.RecordFeedback(i%2 == 0) // 50% false positives
	}
	before := c.Threshold()
	c.OptimizeThresholds()
	after := c.Threshold()

	if after <= before {
		t.Errorf("threshold should rise on high false-positive rate: %v -> %v", before, after)
	}
	if after > maxSimilarityThreshold {
		t.Errorf("threshold %v exceeds cap %v", after, maxSimilarityThreshold)
	}
}

func TestSimilarityCache_ThresholdLowersOnPoorHitRate(t *testing.T) {
	c := NewSimilarityCache(similarityPolicy(), 0.85)
	env := testEnv(24)
	query := testGenotype("q", map[string]genetics.AllelePair{
		"THC": testPair("T1", true, "T2", false),
	})

	// All lookups miss against an empty cache.
	for i := 0; i < 10; i++ {
		c.FindSimilar(query, env)
	}
	before := c.Threshold()
	c.OptimizeThresholds()
	after := c.Threshold()

	if after >= before {
		t.Errorf("threshold should drop on low hit rate: %v -> %v", before, after)
	}
	if after < minSimilarityThreshold {
		t.Errorf("threshold %v below floor %v", after, minSimilarityThreshold)
	}
}

func TestSimilarityCache_ThresholdClamped(t *testing.T) {
	c := NewSimilarityCache(similarityPolicy(), maxSimilarityThreshold)

	for round := 0; round < 20; round++ {
		for i := 0; i < 5; i++ {
			c.RecordFeedback(false)
		}
		c.OptimizeThresholds()
	}
	if got := c.Threshold(); got > maxSimilarityThreshold+1e-9 {
		t.Errorf("threshold %v escaped its cap", got)
	}
}

func TestSimilarityCache_PromotionCandidates(t *testing.T) {
	c := NewSimilarityCache(similarityPolicy(), 0.5)
	env := testEnv(24)

	stored := testGenotype("g1", map[string]genetics.AllelePair{
		"THC": testPair("T1", true, "T2", false),
	})
	c.Set(stored, env, testResult("g1"))

	// No hits recorded yet: nothing to promote.
	if got := c.PromotionCandidates(0.9); len(got) != 0 {
		t.Errorf("expected no candidates before any hit, got %d", len(got))
	}

	// A perfect-similarity hit qualifies the entry.
	identical := testGenotype("g2", map[string]genetics.AllelePair{
		"THC": testPair("T1", true, "T2", false),
	})
	if _, _, ok := c.FindSimilar(identical, env); !ok {
		t.Fatal("expected hit")
	}

	got := c.PromotionCandidates(0.9)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if math.Abs(got[0].Similarity-1.0) > 1e-12 {
		t.Errorf("candidate similarity = %v, want 1.0", got[0].Similarity)
	}
	if got[0].Result.GenotypeID != "g1" {
		t.Errorf("candidate result = %q, want g1", got[0].Result.GenotypeID)
	}
}

func TestSimilarityCache_EvictionBound(t *testing.T) {
	policy := TierPolicy{TTL: time.Hour, MaxEntries: 10}
	c := NewSimilarityCache(policy, 0.85)
	env := testEnv(24)

	for i := 0; i < 50; i++ {
		g := testGenotype(fmt.Sprintf("g-%d", i), map[string]genetics.AllelePair{
			"THC": testPair("T1", true, "T2", false),
		})
		c.Set(g, env, testResult(g.ID))
	}

	if limit := policy.MaxEntries + policy.batchSize(); c.Len() > limit {
		t.Errorf("cache size %d exceeds max+slack %d", c.Len(), limit)
	}
}

func TestSimilarityCache_ClearKeepsThreshold(t *testing.T) {
	c := NewSimilarityCache(similarityPolicy(), 0.85)
	for i := 0; i < 10; i++ {
		c.RecordFeedback(false)
	}
	c.OptimizeThresholds()
	adapted := c.Threshold()

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
	if c.Threshold() != adapted {
		t.Error("adapted threshold should survive Clear")
	}
}
