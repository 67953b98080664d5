package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"github.com/verdantlabs/phenocache/genetics"
	"github.com/verdantlabs/phenocache/observe"
)

// Sentinel errors for orchestrator operations.
var (
	ErrNoStrains      = errors.New("cache: precompute requires at least one strain")
	ErrNoEnvironments = errors.New("cache: precompute requires at least one environment")
)

// Orchestrator owns the three cache tiers and the shared genotype
// registry, and coordinates tiered lookup, write-back promotion, periodic
// optimization, and precomputation.
type Orchestrator struct {
	cfg        Config
	keyer      Keyer
	exact      *ExactCache
	similarity *SimilarityCache
	pattern    *PatternCache
	registry   *Registry
	computer   TraitComputer
	logger     observe.Logger
	tracer     trace.Tracer
	inst       observe.Instruments
	metrics    *Metrics

	optimizeGroup singleflight.Group

	// set by WithObserver when instrument construction fails; surfaced by New.
	wireErr error

	lifecycleMu sync.Mutex
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger. Nil restores the noop logger.
func WithLogger(logger observe.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithComputer injects the external trait-expression function. When no
// computer is provided, a deterministic fallback is selected so lookups
// still complete.
func WithComputer(computer TraitComputer) Option {
	return func(o *Orchestrator) {
		if computer != nil {
			o.computer = computer
		}
	}
}

// WithKeyer overrides the cache key generator.
func WithKeyer(keyer Keyer) Option {
	return func(o *Orchestrator) {
		if keyer != nil {
			o.keyer = keyer
		}
	}
}

// WithTracer sets the tracer used for lookup spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithInstruments sets the OpenTelemetry instruments mirror.
func WithInstruments(inst observe.Instruments) Option {
	return func(o *Orchestrator) {
		if inst != nil {
			o.inst = inst
		}
	}
}

// WithObserver derives the logger, tracer, and instruments from a
// configured Observer in one step.
func WithObserver(obs observe.Observer) Option {
	return func(o *Orchestrator) {
		if obs == nil {
			return
		}
		o.logger = obs.Logger()
		o.tracer = obs.Tracer()
		inst, err := observe.NewInstruments(obs.Meter())
		if err != nil {
			o.wireErr = fmt.Errorf("cache: build instruments: %w", err)
			return
		}
		o.inst = inst
	}
}

// New creates an orchestrator with the given configuration.
func New(cfg Config, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:        cfg,
		keyer:      NewDefaultKeyer(),
		exact:      NewExactCache(cfg.Exact),
		similarity: NewSimilarityCache(cfg.Similarity, cfg.SimilarityThreshold),
		pattern:    NewPatternCache(cfg.Pattern, cfg.PatternOverlapThreshold),
		registry:   NewRegistry(),
		computer:   fallbackComputer{},
		logger:     observe.NopLogger(),
		tracer:     tracenoop.NewTracerProvider().Tracer("noop"),
		inst:       observe.NopInstruments(),
		metrics:    NewMetrics(cfg.LatencySampleCap),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.wireErr != nil {
		return nil, o.wireErr
	}
	return o, nil
}

// Init starts the background optimization ticker. Safe to call once;
// subsequent calls before Shutdown are no-ops.
func (o *Orchestrator) Init() {
	o.lifecycleMu.Lock()
	defer o.lifecycleMu.Unlock()
	if o.stopCh != nil {
		return
	}
	o.stopCh = make(chan struct{})
	o.doneCh = make(chan struct{})

	go o.optimizeLoop(o.stopCh, o.doneCh)
	o.logger.Info(context.Background(), "cache orchestrator started",
		observe.F("optimize_interval", o.cfg.OptimizeInterval.String()))
}

// Shutdown stops the background ticker and waits for the in-flight pass,
// if any, honoring the context deadline.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.lifecycleMu.Lock()
	stopCh, doneCh := o.stopCh, o.doneCh
	o.stopCh, o.doneCh = nil, nil
	o.lifecycleMu.Unlock()

	if stopCh == nil {
		return nil
	}
	close(stopCh)
	select {
	case <-doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) optimizeLoop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(o.cfg.OptimizeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.Tick(context.Background())
		case <-stopCh:
			return
		}
	}
}

// Tick runs one optimization pass synchronously. Concurrent callers
// collapse onto a single in-flight pass; cache reads and writes are never
// blocked for the duration, only the tiers' own bulk rewrite steps lock
// internally.
func (o *Orchestrator) Tick(ctx context.Context) {
	o.optimizeGroup.Do("optimize", func() (any, error) {
		o.similarity.OptimizeThresholds()
		o.pattern.OptimizeWeights()

		promoted := 0
		for _, cand := range o.similarity.PromotionCandidates(o.cfg.PromoteThreshold) {
			o.exact.Set(o.keyer.ExactKey(cand.Genotype, cand.Env), cand.Result)
			promoted++
		}

		o.metrics.RecordOptimization()
		o.logger.Debug(ctx, "optimization pass complete",
			observe.F("similarity_threshold", o.similarity.Threshold()),
			observe.F("promoted", promoted))
		return nil, nil
	})
}

// TryGet probes L1, then L2, then L3, promoting hits toward faster tiers:
// an L2 hit is written back to L1 when its similarity meets the promotion
// threshold; an L3 hit is always written back to L2 and additionally to
// L1 when the pattern's confidence meets the promotion threshold.
func (o *Orchestrator) TryGet(ctx context.Context, g *genetics.Genotype, env genetics.EnvironmentalSnapshot) (genetics.TraitExpressionResult, bool) {
	ctx, span := o.tracer.Start(ctx, "cache.TryGet")
	defer span.End()
	start := time.Now()
	defer func() { o.metrics.RecordLatency(time.Since(start)) }()

	key := o.keyer.ExactKey(g, env)
	if result, ok := o.exact.Get(key); ok {
		o.metrics.RecordHit(TierExact)
		o.inst.RecordLookup(ctx, TierExact.String(), true, time.Since(start))
		return result, true
	}
	o.metrics.RecordMiss(TierExact)

	if result, sim, ok := o.similarity.FindSimilar(g, env); ok {
		o.metrics.RecordHit(TierSimilarity)
		o.inst.RecordLookup(ctx, TierSimilarity.String(), true, time.Since(start))
		if sim >= o.cfg.PromoteThreshold {
			o.exact.Set(key, result)
			o.metrics.RecordSet(TierExact)
		}
		return result, true
	}
	o.metrics.RecordMiss(TierSimilarity)

	if result, signature, ok := o.pattern.FindPatternMatch(g, env); ok {
		o.metrics.RecordHit(TierPattern)
		o.inst.RecordLookup(ctx, TierPattern.String(), true, time.Since(start))

		o.similarity.Set(g, env, result)
		o.metrics.RecordSet(TierSimilarity)
		if o.pattern.Confidence(signature) >= o.cfg.PromoteThreshold {
			o.exact.Set(key, result)
			o.metrics.RecordSet(TierExact)
		}
		return result, true
	}
	o.metrics.RecordMiss(TierPattern)

	o.inst.RecordLookup(ctx, TierPattern.String(), false, time.Since(start))
	return genetics.TraitExpressionResult{}, false
}

// Lookup resolves a trait-expression result through the cache, invoking
// the external computer on a total miss and writing the result back into
// every applicable tier.
func (o *Orchestrator) Lookup(ctx context.Context, g *genetics.Genotype, env genetics.EnvironmentalSnapshot) (genetics.TraitExpressionResult, error) {
	if result, ok := o.TryGet(ctx, g, env); ok {
		return result, nil
	}

	o.metrics.RecordCompute()
	result, err := o.computer.Compute(ctx, g, env)
	if err != nil {
		return genetics.TraitExpressionResult{}, fmt.Errorf("cache: trait computation failed: %w", err)
	}
	o.CacheResult(ctx, g, env, result)
	return result, nil
}

// CacheResult writes a computed result into L1 and L2 unconditionally and
// into L3 only when the genotype yields a non-empty pattern signature.
func (o *Orchestrator) CacheResult(ctx context.Context, g *genetics.Genotype, env genetics.EnvironmentalSnapshot, result genetics.TraitExpressionResult) {
	if g == nil {
		return
	}
	o.registry.Register(g)

	o.exact.Set(o.keyer.ExactKey(g, env), result)
	o.metrics.RecordSet(TierExact)

	o.similarity.Set(g, env, result)
	o.metrics.RecordSet(TierSimilarity)

	if signature := genetics.Signature(g); signature != "" {
		o.pattern.SetPattern(signature, env, result)
		o.metrics.RecordSet(TierPattern)
	} else {
		o.logger.Debug(ctx, "skipping pattern tier for genotype without loci",
			observe.F("genotype_id", g.ID))
	}
}

// RecordFeedback forwards downstream accuracy signals to the adaptive
// tiers: similarity-threshold tuning and pattern confidence both consume
// it.
func (o *Orchestrator) RecordFeedback(signature string, accurate bool) {
	o.similarity.RecordFeedback(accurate)
	if signature != "" {
		o.pattern.RecordOutcome(signature, accurate)
	}
}

// ClearAll clears the bounded entry caches of every tier. Learned pattern
// templates and confidence survive; they are knowledge, not cache.
func (o *Orchestrator) ClearAll() {
	o.exact.Clear()
	o.similarity.Clear()
	o.pattern.Clear()
	o.logger.Info(context.Background(), "all cache tiers cleared")
}

// Metrics returns a point-in-time snapshot of cache activity.
func (o *Orchestrator) Metrics() CacheMetrics {
	return o.metrics.Snapshot()
}

// TierSizes reports the current entry counts of L1, L2, and L3.
func (o *Orchestrator) TierSizes() (exact, similarity, pattern int) {
	return o.exact.Len(), o.similarity.Len(), o.pattern.Len()
}

// Registry exposes the orchestrator-owned genotype registry for
// collaborators such as the breeding engine.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Pattern exposes the L3 tier for direct registration and inspection.
func (o *Orchestrator) Pattern() *PatternCache {
	return o.pattern
}

// Registry is the orchestrator-owned genotype book. Components that need
// shared genotype state receive this handle explicitly; there is no
// ambient global.
type Registry struct {
	mu        sync.RWMutex
	genotypes map[string]*genetics.Genotype
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{genotypes: make(map[string]*genetics.Genotype)}
}

// Register stores a genotype by ID.
func (r *Registry) Register(g *genetics.Genotype) {
	if g == nil || g.ID == "" {
		return
	}
	r.mu.Lock()
	r.genotypes[g.ID] = g
	r.mu.Unlock()
}

// Lookup returns a registered genotype.
func (r *Registry) Lookup(id string) (*genetics.Genotype, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.genotypes[id]
	return g, ok
}

// Len returns the number of registered genotypes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.genotypes)
}
