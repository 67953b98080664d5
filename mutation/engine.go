// Package mutation generates stochastic mutation events for breeding
// gametes. The engine classifies each event by type and phenotypic effect
// and samples a signed magnitude; it records what happened without
// rewriting the allele itself, so genetic identity stays stable and the
// magnitude feeds downstream viability scoring.
package mutation

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/verdantlabs/phenocache/genetics"
	"github.com/verdantlabs/phenocache/observe"
)

// Categorical weights for mutation type selection. They are renormalized
// at draw time, so the list can change without keeping the sum at one.
var typeWeights = []struct {
	mutationType genetics.MutationType
	weight       float64
}{
	{genetics.MutationPoint, 0.70},
	{genetics.MutationRegulatory, 0.15},
	{genetics.MutationCopyNumber, 0.08},
	{genetics.MutationChromosomal, 0.05},
	{genetics.MutationEpigenetic, 0.02},
}

// Effect class probabilities: most mutations are neutral, harmful ones
// outnumber beneficial ones three to one.
const (
	beneficialProbability = 0.10
	harmfulProbability    = 0.30
)

// Per-type magnitude multipliers. Chromosomal events disturb many loci at
// once and hit twice as hard; epigenetic changes are comparatively mild.
const (
	chromosomalMagnitudeScale = 2.0
	copyNumberMagnitudeScale  = 1.5
	epigeneticMagnitudeScale  = 0.8
)

// Config bounds the sampled magnitudes.
type Config struct {
	// MaxMagnitude caps the absolute fitness impact of a single mutation
	// before type multipliers apply.
	MaxMagnitude float64

	// NeutralDamping scales down the magnitude of neutral mutations.
	NeutralDamping float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxMagnitude:   0.2,
		NeutralDamping: 0.25,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxMagnitude <= 0 {
		return errors.New("mutation: MaxMagnitude must be positive")
	}
	if c.NeutralDamping <= 0 || c.NeutralDamping > 1 {
		return errors.New("mutation: NeutralDamping must be in (0, 1]")
	}
	return nil
}

// Engine draws mutation events. Safe for concurrent use; draws for one
// gamete are taken under a lock so an injected seeded source stays
// deterministic for sequential callers.
type Engine struct {
	cfg    Config
	logger observe.Logger

	mu  sync.Mutex
	rng *rand.Rand

	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Nil restores the noop logger.
func WithLogger(logger observe.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRand injects the random source. Tests pass a seeded source for
// reproducible draws.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// New creates a mutation engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		logger: observe.NopLogger(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ApplyToGamete draws one mutation check for a single gamete allele at the
// given per-gamete rate. On a trigger it returns the allele together with a
// record describing the event; otherwise the record is nil. The allele is
// returned unchanged either way.
func (e *Engine) ApplyToGamete(ctx context.Context, allele genetics.Allele, locus string, rate float64) (genetics.Allele, *genetics.MutationRecord) {
	if rate <= 0 {
		return allele, nil
	}
	if rate > 1 {
		rate = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rng.Float64() >= rate {
		return allele, nil
	}

	mutationType := e.drawTypeLocked()
	effect := e.drawEffectLocked()
	magnitude := e.rng.Float64() * e.cfg.MaxMagnitude

	switch mutationType {
	case genetics.MutationChromosomal:
		// Whole-chromosome damage is never advantageous.
		if effect == genetics.EffectBeneficial {
			effect = genetics.EffectHarmful
		}
		magnitude *= chromosomalMagnitudeScale
		locus = genetics.ChromosomeWide
	case genetics.MutationCopyNumber:
		magnitude *= copyNumberMagnitudeScale
	case genetics.MutationEpigenetic:
		magnitude *= epigeneticMagnitudeScale
	}

	switch effect {
	case genetics.EffectHarmful:
		magnitude = -magnitude
	case genetics.EffectNeutral:
		magnitude *= e.cfg.NeutralDamping
		if e.rng.Float64() < 0.5 {
			magnitude = -magnitude
		}
	}

	record := &genetics.MutationRecord{
		ID:         genetics.NewMutationID(),
		Locus:      locus,
		Type:       mutationType,
		Magnitude:  magnitude,
		Effect:     effect,
		OccurredAt: e.now(),
	}
	e.logger.Debug(ctx, "mutation event",
		observe.F("locus", record.Locus),
		observe.F("type", record.Type.String()),
		observe.F("effect", record.Effect.String()))
	return allele, record
}

func (e *Engine) drawTypeLocked() genetics.MutationType {
	total := 0.0
	for _, tw := range typeWeights {
		total += tw.weight
	}
	draw := e.rng.Float64() * total
	for _, tw := range typeWeights {
		if draw < tw.weight {
			return tw.mutationType
		}
		draw -= tw.weight
	}
	return typeWeights[len(typeWeights)-1].mutationType
}

func (e *Engine) drawEffectLocked() genetics.MutationEffect {
	draw := e.rng.Float64()
	switch {
	case draw < beneficialProbability:
		return genetics.EffectBeneficial
	case draw < beneficialProbability+harmfulProbability:
		return genetics.EffectHarmful
	default:
		return genetics.EffectNeutral
	}
}
