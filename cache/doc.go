// Package cache implements the three-tier memoization cache for
// trait-expression results.
//
// Tier 1 (ExactCache) is a bounded TTL map keyed on (genotype ID,
// environment). Tier 2 (SimilarityCache) matches genotypes by genetic
// distance under an adaptive threshold. Tier 3 (PatternCache) matches
// abstract zygosity/dominance signatures and learns per-pattern prediction
// confidence online. The Orchestrator probes the tiers in order, promotes
// hits toward faster tiers, runs a single-flight periodic optimization
// pass, and warms the pattern tier through bounded-concurrency
// precomputation.
//
// Contract shared by all tiers:
//   - Concurrency: every exported method is safe for concurrent use.
//   - Misses are normal outcomes, reported as (zero, false), never errors.
//   - Capacity pressure is handled by internal eviction on the write path.
package cache
