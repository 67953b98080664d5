package health

import (
	"context"
	"testing"

	"github.com/verdantlabs/phenocache/cache"
)

type stubStats struct {
	metrics cache.CacheMetrics
	sizes   [3]int
}

func (s stubStats) Metrics() cache.CacheMetrics { return s.metrics }
func (s stubStats) TierSizes() (int, int, int)  { return s.sizes[0], s.sizes[1], s.sizes[2] }

func TestCacheChecker_WarmingUpIsHealthy(t *testing.T) {
	source := stubStats{metrics: cache.CacheMetrics{TotalRequests: 10, OverallHitRatio: 0}}
	checker := NewCacheChecker(source, CacheCheckerConfig{MinRequests: 100, HitRatioFloor: 0.2})

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("status below minimum volume = %v, want healthy", result.Status)
	}
}

func TestCacheChecker_DegradesOnLowHitRatio(t *testing.T) {
	source := stubStats{
		metrics: cache.CacheMetrics{TotalRequests: 500, OverallHitRatio: 0.05},
		sizes:   [3]int{10, 5, 2},
	}
	checker := NewCacheChecker(source, CacheCheckerConfig{MinRequests: 100, HitRatioFloor: 0.2})

	result := checker.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Fatalf("status = %v, want degraded", result.Status)
	}
	if result.Details["exact_entries"] != 10 {
		t.Errorf("details missing tier sizes: %v", result.Details)
	}
}

func TestCacheChecker_HealthyAboveFloor(t *testing.T) {
	source := stubStats{metrics: cache.CacheMetrics{TotalRequests: 500, OverallHitRatio: 0.6}}
	checker := NewCacheChecker(source, CacheCheckerConfig{MinRequests: 100, HitRatioFloor: 0.2})

	if result := checker.Check(context.Background()); result.Status != StatusHealthy {
		t.Errorf("status = %v, want healthy", result.Status)
	}
}

func TestCacheChecker_NilSourceIsUnhealthy(t *testing.T) {
	checker := NewCacheChecker(nil, CacheCheckerConfig{})
	if result := checker.Check(context.Background()); result.Status != StatusUnhealthy {
		t.Errorf("status with nil source = %v, want unhealthy", result.Status)
	}
}

func TestCacheChecker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := NewCacheChecker(stubStats{}, CacheCheckerConfig{})
	if result := checker.Check(ctx); result.Status != StatusUnhealthy {
		t.Errorf("status with cancelled context = %v, want unhealthy", result.Status)
	}
}

func TestCacheChecker_WiresToOrchestrator(t *testing.T) {
	o, err := cache.New(cache.DefaultConfig())
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	checker := NewCacheChecker(o, CacheCheckerConfig{})
	if result := checker.Check(context.Background()); result.Status != StatusHealthy {
		t.Errorf("fresh orchestrator = %v, want healthy", result.Status)
	}
}
