package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/verdantlabs/phenocache/genetics"
	"github.com/verdantlabs/phenocache/observe"
)

// Precompute warms the pattern tier: one task per (strain, environment)
// pair, bounded by maxConcurrency simultaneously in-flight tasks. Each
// task derives the strain's representative genotype, computes its pattern
// signature, and registers it in L3. No concrete result exists yet, so L1
// and L2 are not touched.
//
// Individual task failures are logged and do not abort sibling tasks.
// The call returns only after every scheduled task has completed; there
// is no cancellation of tasks already in flight, though a cancelled
// context stops further tasks from launching.
func (o *Orchestrator) Precompute(ctx context.Context, strains []genetics.PlantStrain, envs []genetics.EnvironmentalSnapshot, maxConcurrency int) error {
	if len(strains) == 0 {
		return ErrNoStrains
	}
	if len(envs) == 0 {
		return ErrNoEnvironments
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	limiter := newWorkLimiter(maxConcurrency)
	var wg sync.WaitGroup

	for _, strain := range strains {
		for _, env := range envs {
			if err := limiter.Acquire(ctx); err != nil {
				// Context ended; stop launching, wait for in-flight tasks.
				wg.Wait()
				return fmt.Errorf("cache: precompute interrupted: %w", err)
			}

			wg.Add(1)
			go func(strain genetics.PlantStrain, env genetics.EnvironmentalSnapshot) {
				defer wg.Done()
				defer limiter.Release()
				o.precomputeOne(ctx, strain, env)
			}(strain, env)
		}
	}

	wg.Wait()
	o.logger.Info(ctx, "precompute finished",
		observe.F("strains", len(strains)),
		observe.F("environments", len(envs)),
		observe.F("max_concurrency", maxConcurrency))
	return nil
}

// precomputeOne isolates a single task: any panic or derivation failure is
// contained here so sibling tasks proceed.
func (o *Orchestrator) precomputeOne(ctx context.Context, strain genetics.PlantStrain, env genetics.EnvironmentalSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			o.metrics.RecordPrecompute(false)
			o.logger.Error(ctx, "precompute task panicked",
				observe.F("strain_id", strain.ID),
				observe.F("panic", fmt.Sprint(r)))
		}
	}()

	genotype := strain.RepresentativeGenotype()
	signature := genetics.Signature(genotype)
	if signature == "" {
		o.metrics.RecordPrecompute(false)
		o.logger.Warn(ctx, "strain produced an empty pattern signature",
			observe.F("strain_id", strain.ID))
		return
	}

	o.registry.Register(genotype)
	o.pattern.RegisterPattern(signature, env)
	o.metrics.RecordPrecompute(true)
}
