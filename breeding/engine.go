// Package breeding crosses pairs of genotypes into offspring. Inheritance
// is Mendelian per locus, mutation events come from the mutation engine,
// and inbreeding accumulates across generations through ancestry tracking.
// Invalid pairings produce failure results with a diagnostic note; the
// engine never returns an error for biology, only values.
package breeding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/verdantlabs/phenocache/genetics"
	"github.com/verdantlabs/phenocache/mutation"
	"github.com/verdantlabs/phenocache/observe"
)

// Inbreeding accumulation penalties applied to offspring coefficients.
const (
	sameOriginPenalty     = 0.125
	directRelationPenalty = 0.25
)

// optimalDistance is the genetic distance at which crosses empirically do
// best: close enough to combine well, far enough for heterosis.
const optimalDistance = 0.3

// Mutation-rate multipliers. The effective per-gamete rate is the base
// rate scaled by environmental stress, parental inbreeding, generational
// accumulation, and a small jitter.
const (
	inbreedingRateWeight  = 1.0
	generationRateStep    = 0.01
	rateJitter            = 0.10
	maxEffectiveRate      = 1.0
	viabilityBaseline     = 0.5
	heterosisFitnessBonus = 0.3
	inbreedingFitnessCost = 0.4
)

// Config bounds a breeding engine.
type Config struct {
	// BaseMutationRate is the per-gamete mutation probability before
	// multipliers, used when a request does not set its own rate.
	BaseMutationRate float64

	// MinViableFitness drops offspring whose internal fitness estimate
	// falls below it.
	MinViableFitness float64

	// MaxOffspring caps how many offspring a single breeding produces.
	MaxOffspring int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BaseMutationRate: 0.02,
		MinViableFitness: 0.2,
		MaxOffspring:     20,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BaseMutationRate < 0 || c.BaseMutationRate > 1 {
		return errors.New("breeding: BaseMutationRate must be in [0, 1]")
	}
	if c.MinViableFitness < 0 || c.MinViableFitness > 1 {
		return errors.New("breeding: MinViableFitness must be in [0, 1]")
	}
	if c.MaxOffspring <= 0 {
		return errors.New("breeding: MaxOffspring must be positive")
	}
	return nil
}

// BreedingRequest parameterizes one breeding event.
type BreedingRequest struct {
	// OffspringCount is the requested litter size. It is clamped to
	// [1, MaxOffspring].
	OffspringCount int

	// EnableMutations turns the mutation engine on for this breeding.
	EnableMutations bool

	// MutationRate overrides the engine's base rate when positive.
	MutationRate float64

	// EnvironmentalStress in [0, 1] raises the effective mutation rate.
	EnvironmentalStress float64
}

// Engine performs breeding. Safe for concurrent use.
type Engine struct {
	cfg     Config
	mutator *mutation.Engine
	logger  observe.Logger
	inst    observe.Instruments

	mu  sync.Mutex
	rng *rand.Rand

	now func() time.Time

	// set by WithObserver when instrument construction fails; surfaced by New.
	wireErr error
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

// WithRand injects the random source used for gamete sampling and rate
// jitter. Tests pass a seeded source.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithInstruments sets the OpenTelemetry instruments mirror.
func WithInstruments(inst observe.Instruments) Option {
	return func(e *Engine) {
		if inst != nil {
			e.inst = inst
		}
	}
}

// WithObserver derives the logger and instruments from a configured
// Observer in one step.
func WithObserver(obs observe.Observer) Option {
	return func(e *Engine) {
		if obs == nil {
			return
		}
		e.logger = obs.Logger()
		inst, err := observe.NewInstruments(obs.Meter())
		if err != nil {
			e.wireErr = fmt.Errorf("breeding: build instruments: %w", err)
			return
		}
		e.inst = inst
	}
}

// New creates a breeding engine around the given mutation engine.
func New(cfg Config, mutator *mutation.Engine, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if mutator == nil {
		return nil, errors.New("breeding: mutation engine is required")
	}
	e := &Engine{
		cfg:     cfg,
		mutator: mutator,
		logger:  observe.NopLogger(),
		inst:    observe.NopInstruments(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.wireErr != nil {
		return nil, e.wireErr
	}
	return e, nil
}

// Breed crosses two parents. Invalid parents yield a zero-offspring result
// with a diagnostic note rather than an error.
func (e *Engine) Breed(ctx context.Context, p1, p2 *genetics.Genotype, req BreedingRequest) genetics.BreedingResult {
	start := e.now()

	if note, ok := validateParents(p1, p2); !ok {
		e.logger.Warn(ctx, "breeding rejected", observe.F("reason", note))
		return genetics.BreedingResult{
			Parent1:     p1,
			Parent2:     p2,
			Notes:       note,
			CompletedAt: e.now(),
		}
	}

	count := req.OffspringCount
	if count < 1 {
		count = 1
		e.logger.Warn(ctx, "offspring count raised to minimum",
			observe.F("requested", req.OffspringCount))
	} else if count > e.cfg.MaxOffspring {
		count = e.cfg.MaxOffspring
		e.logger.Warn(ctx, "offspring count clamped to maximum",
			observe.F("requested", req.OffspringCount),
			observe.F("max", e.cfg.MaxOffspring))
	}

	compat := e.AnalyzeCompatibility(p1, p2)
	rate := 0.0
	if req.EnableMutations {
		rate = e.effectiveMutationRate(p1, p2, req)
	}

	var (
		offspring    []*genetics.Genotype
		allMutations []genetics.MutationRecord
		fitnessSum   float64
		culled       int
	)
	for i := 0; i < count; i++ {
		child, records := e.conceive(ctx, p1, p2, rate)
		fitness := e.viability(compat, records)
		if fitness < e.cfg.MinViableFitness {
			culled++
			e.logger.Debug(ctx, "offspring below viability floor removed",
				observe.F("fitness", fitness),
				observe.F("floor", e.cfg.MinViableFitness))
			continue
		}
		offspring = append(offspring, child)
		allMutations = append(allMutations, records...)
		fitnessSum += fitness
	}

	avgFitness := 0.0
	if len(offspring) > 0 {
		avgFitness = fitnessSum / float64(len(offspring))
	}

	result := genetics.BreedingResult{
		Parent1:     p1,
		Parent2:     p2,
		Offspring:   offspring,
		Mutations:   allMutations,
		SuccessRate: successRate(compat),
		Notes: fmt.Sprintf("%d offspring (%d conceived, %d culled), %d mutations, avg fitness %.2f",
			len(offspring), count, culled, len(allMutations), avgFitness),
		CompletedAt: e.now(),
	}

	e.inst.RecordBreeding(ctx, len(offspring), len(allMutations), e.now().Sub(start))
	e.logger.Info(ctx, "breeding complete",
		observe.F("parent1", p1.ID),
		observe.F("parent2", p2.ID),
		observe.F("offspring", len(offspring)),
		observe.F("mutations", len(allMutations)),
		observe.F("success_rate", result.SuccessRate))
	return result
}

func validateParents(p1, p2 *genetics.Genotype) (string, bool) {
	switch {
	case p1 == nil || p2 == nil:
		return "breeding requires two parents", false
	case len(p1.Loci) == 0:
		return "parent 1 carries no loci", false
	case len(p2.Loci) == 0:
		return "parent 2 carries no loci", false
	}
	return "", true
}

// AnalyzeCompatibility scores a pairing without breeding it.
func (e *Engine) AnalyzeCompatibility(p1, p2 *genetics.Genotype) genetics.CompatibilityReport {
	if p1 == nil || p2 == nil {
		return genetics.CompatibilityReport{Recommendation: "not recommended: missing parent"}
	}

	distance := genetics.Distance(p1, p2)
	risk := inbreedingRisk(p1, p2)

	// Heterosis peaks at intermediate distance and collapses toward both
	// identical and fully unrelated pairs.
	heterosis := 4 * distance * (1 - distance)

	score := clamp01(0.5*heterosis + 0.5*(1-risk) - 0.3*math.Abs(distance-optimalDistance))

	var recommendation string
	switch {
	case score >= 0.75:
		recommendation = "excellent pairing"
	case score >= 0.5:
		recommendation = "good pairing"
	case score >= 0.3:
		recommendation = "marginal pairing"
	default:
		recommendation = "not recommended"
	}

	return genetics.CompatibilityReport{
		GeneticDistance:   distance,
		InbreedingRisk:    risk,
		HeterosisEstimate: heterosis,
		Score:             score,
		Recommendation:    recommendation,
	}
}

// inbreedingRisk combines parental coefficients with relationship signals.
func inbreedingRisk(p1, p2 *genetics.Genotype) float64 {
	risk := (p1.InbreedingCoefficient + p2.InbreedingCoefficient) / 2
	if sameOrigin(p1, p2) {
		risk += sameOriginPenalty
	}
	if directlyRelated(p1, p2) {
		risk += directRelationPenalty
	}
	return clamp01(risk)
}

func sameOrigin(p1, p2 *genetics.Genotype) bool {
	return p1.StrainID != "" && p1.StrainID == p2.StrainID
}

func directlyRelated(p1, p2 *genetics.Genotype) bool {
	return p1.HasAncestor(p2.ID) || p2.HasAncestor(p1.ID) || p1.SharesAncestorWith(p2)
}

// effectiveMutationRate scales the base rate by environmental stress,
// parental inbreeding, generational accumulation, and jitter.
func (e *Engine) effectiveMutationRate(p1, p2 *genetics.Genotype, req BreedingRequest) float64 {
	rate := req.MutationRate
	if rate <= 0 {
		rate = e.cfg.BaseMutationRate
	}

	stress := clamp01(req.EnvironmentalStress)
	rate *= 1 + stress

	meanInbreeding := (p1.InbreedingCoefficient + p2.InbreedingCoefficient) / 2
	rate *= 1 + inbreedingRateWeight*meanInbreeding

	rate *= 1 + generationRateStep*float64(maxGeneration(p1, p2))

	e.mu.Lock()
	jitter := 1 - rateJitter + 2*rateJitter*e.rng.Float64()
	e.mu.Unlock()
	rate *= jitter

	if rate > maxEffectiveRate {
		rate = maxEffectiveRate
	}
	return rate
}

// conceive produces one offspring by sampling a gamete from each parent at
// every locus of the union locus set.
func (e *Engine) conceive(ctx context.Context, p1, p2 *genetics.Genotype, rate float64) (*genetics.Genotype, []genetics.MutationRecord) {
	loci := make(map[string]genetics.AllelePair, len(p1.Loci))
	var records []genetics.MutationRecord

	for locus := range unionLoci(p1, p2) {
		pair1, ok1 := p1.Loci[locus]
		pair2, ok2 := p2.Loci[locus]
		// A locus absent in one parent inherits both gametes from the
		// other.
		if !ok1 {
			pair1 = pair2
		}
		if !ok2 {
			pair2 = pair1
		}

		gamete1 := e.sampleAllele(pair1)
		gamete2 := e.sampleAllele(pair2)

		if rate > 0 {
			var record *genetics.MutationRecord
			gamete1, record = e.mutator.ApplyToGamete(ctx, gamete1, locus, rate)
			if record != nil {
				records = append(records, *record)
			}
			gamete2, record = e.mutator.ApplyToGamete(ctx, gamete2, locus, rate)
			if record != nil {
				records = append(records, *record)
			}
		}

		loci[locus] = genetics.AllelePair{First: gamete1, Second: gamete2}
	}

	child := &genetics.Genotype{
		ID:                    genetics.NewGenotypeID(),
		StrainID:              p1.StrainID,
		Generation:            maxGeneration(p1, p2) + 1,
		InbreedingCoefficient: offspringInbreeding(p1, p2),
		Mutations:             records,
		Loci:                  loci,
		AncestorIDs:           ancestry(p1, p2),
	}
	return child, records
}

func unionLoci(p1, p2 *genetics.Genotype) map[string]struct{} {
	union := make(map[string]struct{}, len(p1.Loci)+len(p2.Loci))
	for locus := range p1.Loci {
		union[locus] = struct{}{}
	}
	for locus := range p2.Loci {
		union[locus] = struct{}{}
	}
	return union
}

// sampleAllele picks one of the pair's two alleles uniformly.
func (e *Engine) sampleAllele(pair genetics.AllelePair) genetics.Allele {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rng.Float64() < 0.5 {
		return pair.First
	}
	return pair.Second
}

func maxGeneration(p1, p2 *genetics.Genotype) int {
	if p1.Generation > p2.Generation {
		return p1.Generation
	}
	return p2.Generation
}

// offspringInbreeding blends the parental coefficients and adds the
// accumulation penalties for same-origin and directly related pairings.
func offspringInbreeding(p1, p2 *genetics.Genotype) float64 {
	coefficient := (p1.InbreedingCoefficient + p2.InbreedingCoefficient) / 2
	if sameOrigin(p1, p2) {
		coefficient += sameOriginPenalty
	}
	if directlyRelated(p1, p2) {
		coefficient += directRelationPenalty
	}
	return clamp01(coefficient)
}

// ancestry lists the parents followed by their recorded ancestors, with
// duplicates removed.
func ancestry(p1, p2 *genetics.Genotype) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(p1.ID)
	add(p2.ID)
	for _, id := range p1.AncestorIDs {
		add(id)
	}
	for _, id := range p2.AncestorIDs {
		add(id)
	}
	return out
}

// viability estimates offspring fitness from the pairing report and the
// signed magnitudes of this offspring's mutation events.
func (e *Engine) viability(compat genetics.CompatibilityReport, records []genetics.MutationRecord) float64 {
	fitness := viabilityBaseline +
		heterosisFitnessBonus*compat.HeterosisEstimate -
		inbreedingFitnessCost*compat.InbreedingRisk
	for _, record := range records {
		fitness += record.Magnitude
	}
	return clamp01(fitness)
}

// successRate scores the breeding as a whole: advisory only, offspring are
// never rejected because of it.
func successRate(compat genetics.CompatibilityReport) float64 {
	return clamp01(1 - 0.6*compat.InbreedingRisk - math.Abs(compat.GeneticDistance-optimalDistance))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
