package health

import (
	"context"
	"fmt"

	"github.com/verdantlabs/phenocache/cache"
)

// StatsSource is the slice of the cache orchestrator the checker reads.
// *cache.Orchestrator satisfies it.
type StatsSource interface {
	Metrics() cache.CacheMetrics
	TierSizes() (exact, similarity, pattern int)
}

// CacheCheckerConfig configures the cache health checker.
type CacheCheckerConfig struct {
	// MinRequests is the request volume below which the hit ratio is not
	// judged; a cold cache is healthy, not degraded. Default: 100.
	MinRequests int64

	// HitRatioFloor degrades the check when the overall hit ratio falls
	// below it after MinRequests. Default: 0.2.
	HitRatioFloor float64
}

// CacheChecker reports the cache orchestrator's health from its metrics
// snapshot. It never probes the tiers directly; reading the snapshot is
// cheap and lock-light.
type CacheChecker struct {
	source StatsSource
	config CacheCheckerConfig
}

// NewCacheChecker creates a cache health checker.
func NewCacheChecker(source StatsSource, config CacheCheckerConfig) *CacheChecker {
	if config.MinRequests <= 0 {
		config.MinRequests = 100
	}
	if config.HitRatioFloor <= 0 || config.HitRatioFloor >= 1 {
		config.HitRatioFloor = 0.2
	}
	return &CacheChecker{source: source, config: config}
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string {
	return "cache"
}

// Check reads the orchestrator's metrics snapshot and judges it.
func (c *CacheChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	if c.source == nil {
		return Unhealthy("no cache orchestrator wired", ErrCheckFailed)
	}

	metrics := c.source.Metrics()
	exact, similarity, pattern := c.source.TierSizes()

	details := map[string]any{
		"total_requests":    metrics.TotalRequests,
		"overall_hit_ratio": metrics.OverallHitRatio,
		"exact_entries":     exact,
		"similar_entries":   similarity,
		"pattern_entries":   pattern,
		"exact_hit_ratio":   metrics.Exact.HitRatio,
		"computes":          metrics.Computes,
		"optimizations":     metrics.Optimizations,
	}

	if metrics.TotalRequests < c.config.MinRequests {
		return Healthy(fmt.Sprintf("warming up: %d of %d requests observed",
			metrics.TotalRequests, c.config.MinRequests)).WithDetails(details)
	}

	if metrics.OverallHitRatio < c.config.HitRatioFloor {
		return Degraded(fmt.Sprintf("hit ratio %.2f below floor %.2f",
			metrics.OverallHitRatio, c.config.HitRatioFloor)).WithDetails(details)
	}

	return Healthy(fmt.Sprintf("hit ratio %.2f over %d requests",
		metrics.OverallHitRatio, metrics.TotalRequests)).WithDetails(details)
}

// Ensure CacheChecker implements Checker
var _ Checker = (*CacheChecker)(nil)
