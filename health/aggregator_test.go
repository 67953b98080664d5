package health

import (
	"context"
	"errors"
	"testing"
)

func staticChecker(name string, result Result) Checker {
	return NewCheckerFunc(name, func(context.Context) Result { return result })
}

func TestAggregator_WorstStatusWins(t *testing.T) {
	agg := NewAggregator()
	agg.Register(staticChecker("a", Healthy("fine")))
	agg.Register(staticChecker("b", Degraded("wobbly")))
	agg.Register(staticChecker("c", Healthy("fine")))

	result := agg.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("composite status = %v, want degraded", result.Status)
	}
	if len(result.Details) != 3 {
		t.Errorf("details hold %d results, want 3", len(result.Details))
	}

	agg.Register(staticChecker("d", Unhealthy("gone", ErrCheckFailed)))
	if result := agg.Check(context.Background()); result.Status != StatusUnhealthy {
		t.Errorf("composite status = %v, want unhealthy", result.Status)
	}
}

func TestAggregator_EmptyIsHealthy(t *testing.T) {
	if result := NewAggregator().Check(context.Background()); result.Status != StatusHealthy {
		t.Errorf("empty aggregator = %v, want healthy", result.Status)
	}
}

func TestAggregator_RegisterReplacesByName(t *testing.T) {
	agg := NewAggregator()
	agg.Register(staticChecker("cache", Degraded("old")))
	agg.Register(staticChecker("cache", Healthy("new")))

	if names := agg.CheckerNames(); len(names) != 1 || names[0] != "cache" {
		t.Fatalf("CheckerNames = %v, want [cache]", names)
	}
	if result := agg.Check(context.Background()); result.Status != StatusHealthy {
		t.Errorf("replacement not effective: %v", result.Status)
	}
}

func TestAggregator_CheckOne(t *testing.T) {
	agg := NewAggregator()
	agg.Register(staticChecker("memory", Healthy("fine")))

	result, err := agg.CheckOne(context.Background(), "memory")
	if err != nil || result.Status != StatusHealthy {
		t.Errorf("CheckOne = %+v, %v", result, err)
	}
	if _, err := agg.CheckOne(context.Background(), "missing"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("CheckOne(missing) err = %v, want ErrCheckerNotFound", err)
	}
}

func TestMemoryChecker_Defaults(t *testing.T) {
	checker := NewMemoryChecker(MemoryCheckerConfig{})
	if checker.Name() != "memory" {
		t.Errorf("Name() = %q, want memory", checker.Name())
	}
	result := checker.Check(context.Background())
	if result.Status == StatusUnhealthy && result.Error == nil {
		t.Errorf("unhealthy result without error: %+v", result)
	}
	if _, ok := result.Details["alloc_bytes"]; !ok {
		t.Errorf("details missing allocation stats: %v", result.Details)
	}
}
