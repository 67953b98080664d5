package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/verdantlabs/phenocache/genetics"
)

func benchGenotype(i int) *genetics.Genotype {
	return testGenotype(fmt.Sprintf("bench-g%d", i), map[string]genetics.AllelePair{
		"THC":   testPair(fmt.Sprintf("T%d", i%8), true, "T2", false),
		"CBD":   testPair("C1", false, "C1", false),
		"YIELD": testPair("Y1", true, fmt.Sprintf("Y%d", i%4), false),
	})
}

// BenchmarkExactCache_GetHit measures a warm first-tier lookup.
func BenchmarkExactCache_GetHit(b *testing.B) {
	c := NewExactCache(DefaultConfig().Exact)
	c.Set("pheno:bench", testResult("bench-g0"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get("pheno:bench")
	}
}

// BenchmarkExactCache_Set measures the first-tier write path including
// eviction checks.
func BenchmarkExactCache_Set(b *testing.B) {
	c := NewExactCache(DefaultConfig().Exact)
	result := testResult("bench-g0")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("pheno:%d", i), result)
	}
}

// BenchmarkSimilarityCache_FindSimilar measures a second-tier scan over a
// populated cache.
func BenchmarkSimilarityCache_FindSimilar(b *testing.B) {
	c := NewSimilarityCache(DefaultConfig().Similarity, 0.85)
	env := testEnv(24)
	for i := 0; i < 64; i++ {
		c.Set(benchGenotype(i), env, testResult(fmt.Sprintf("bench-g%d", i)))
	}
	probe := benchGenotype(3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.FindSimilar(probe, env)
	}
}

// BenchmarkPatternCache_FindPatternMatch measures a third-tier signature
// match over registered patterns.
func BenchmarkPatternCache_FindPatternMatch(b *testing.B) {
	c := NewPatternCache(DefaultConfig().Pattern, 0.7)
	env := testEnv(24)
	for i := 0; i < 64; i++ {
		g := benchGenotype(i)
		c.SetPattern(genetics.Signature(g), env, testResult(g.ID))
	}
	probe := benchGenotype(3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.FindPatternMatch(probe, env)
	}
}

// BenchmarkOrchestrator_LookupHit measures the full tiered lookup on the
// exact-hit fast path.
func BenchmarkOrchestrator_LookupHit(b *testing.B) {
	o, err := New(DefaultConfig())
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	g := benchGenotype(0)
	env := testEnv(24)
	if _, err := o.Lookup(ctx, g, env); err != nil {
		b.Fatalf("warm-up Lookup: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = o.Lookup(ctx, g, env)
	}
}

// BenchmarkDefaultKeyer_ExactKey measures exact-key derivation.
func BenchmarkDefaultKeyer_ExactKey(b *testing.B) {
	k := NewDefaultKeyer()
	g := benchGenotype(0)
	env := testEnv(24)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = k.ExactKey(g, env)
	}
}
