// Package health reports the operational state of the phenotype cache and
// its host process.
//
// A Checker is any component that can report its health: the CacheChecker
// reads the orchestrator's metrics and degrades when the overall hit ratio
// falls below a configured floor, and the MemoryChecker watches process
// allocations during large simulation batches. The Aggregator combines
// checkers into one composite result whose status is the worst of its
// parts.
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewCacheChecker(orchestrator, health.CacheCheckerConfig{}))
//	agg.Register(health.NewMemoryChecker(health.MemoryCheckerConfig{}))
//
//	result := agg.Check(ctx)
//	if result.Status != health.StatusHealthy {
//	    log.Printf("degraded: %s", result.Message)
//	}
package health
