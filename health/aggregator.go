package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Aggregator combines multiple health checkers into a single composite
// check. The composite status is the worst status among the parts.
type Aggregator struct {
	mu       sync.RWMutex
	checkers []Checker
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Register adds a checker. A checker whose name is already registered
// replaces the previous one.
func (a *Aggregator) Register(checker Checker) {
	if checker == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, existing := range a.checkers {
		if existing.Name() == checker.Name() {
			a.checkers[i] = checker
			return
		}
	}
	a.checkers = append(a.checkers, checker)
}

// CheckerNames returns the registered checker names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, len(a.checkers))
	for i, checker := range a.checkers {
		names[i] = checker.Name()
	}
	return names
}

// CheckOne runs a single named check.
func (a *Aggregator) CheckOne(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, checker := range a.checkers {
		if checker.Name() == name {
			return checker.Check(ctx), nil
		}
	}
	return Result{}, ErrCheckerNotFound
}

// Check runs every registered check sequentially and folds the outcomes
// into one result. Per-checker results land in the details map.
func (a *Aggregator) Check(ctx context.Context) Result {
	start := time.Now()

	a.mu.RLock()
	checkers := append([]Checker(nil), a.checkers...)
	a.mu.RUnlock()

	if len(checkers) == 0 {
		return Healthy("no checkers registered").WithDuration(time.Since(start))
	}

	worst := StatusHealthy
	worstName := ""
	details := make(map[string]any, len(checkers))
	for _, checker := range checkers {
		result := checker.Check(ctx)
		details[checker.Name()] = result
		if result.Status > worst {
			worst = result.Status
			worstName = checker.Name()
		}
	}

	composite := Result{
		Status:    worst,
		Message:   "all checks healthy",
		Timestamp: time.Now(),
	}
	if worst != StatusHealthy {
		composite.Message = fmt.Sprintf("%s is %s", worstName, worst)
	}
	return composite.WithDetails(details).WithDuration(time.Since(start))
}
