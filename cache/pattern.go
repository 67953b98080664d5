package cache

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/verdantlabs/phenocache/genetics"
)

// Pattern learning parameters. The template knowledge base is small and
// slow-growing, so tuning touches only the best-evidenced patterns.
const (
	defaultBaselineReliability = 0.5
	defaultTraitWeight         = 0.5
	reliabilitySmoothing       = 0.1
	traitWeightStep            = 0.05
	optimizeTopN               = 10
	optimizeMinSamples         = 5
)

// traitNames are the per-trait weight keys carried by every template.
var traitNames = []string{"height", "thc", "cbd", "yield", "fitness"}

// PatternTemplate is the long-lived learned knowledge about one signature.
// Templates are never evicted by the entry sweep and survive Clear.
type PatternTemplate struct {
	Signature           string
	Components          []string
	TraitWeights        map[string]float64
	BaselineReliability float64
	UsageCount          int64
}

// PatternConfidence tracks online prediction accuracy for one signature,
// independently of its template.
type PatternConfidence struct {
	Predictions int64
	Successes   int64
}

// Accuracy is successes over predictions, or zero before any prediction.
func (c PatternConfidence) Accuracy() float64 {
	if c.Predictions == 0 {
		return 0
	}
	return float64(c.Successes) / float64(c.Predictions)
}

// PatternCache is the L3 tier. It abstracts genotypes into zygosity and
// dominance signatures, matches them by component-set overlap, and keeps
// per-pattern confidence that is refreshed on every hit.
type PatternCache struct {
	mu               sync.RWMutex
	templates        map[string]*PatternTemplate
	confidence       map[string]*PatternConfidence
	entries          map[string]*patternEntry
	policy           TierPolicy
	overlapThreshold float64
	keyer            Keyer
	now              func() time.Time
}

type patternEntry struct {
	signature   string
	result      genetics.TraitExpressionResult
	expiresAt   time.Time
	accessCount int64
}

// NewPatternCache creates the L3 tier.
func NewPatternCache(policy TierPolicy, overlapThreshold float64) *PatternCache {
	if overlapThreshold <= 0 {
		overlapThreshold = 0.8
	}
	return &PatternCache{
		templates:        make(map[string]*PatternTemplate),
		confidence:       make(map[string]*PatternConfidence),
		entries:          make(map[string]*patternEntry),
		policy:           policy,
		overlapThreshold: overlapThreshold,
		keyer:            NewDefaultKeyer(),
		now:              time.Now,
	}
}

// RegisterPattern records a signature as known without storing a concrete
// result. Precompute uses this to warm the knowledge base before any
// simulation has run for the pattern.
func (c *PatternCache) RegisterPattern(signature string, env genetics.EnvironmentalSnapshot) {
	if signature == "" {
		return
	}
	_ = env // registration is environment-independent; entries are not

	c.mu.Lock()
	c.ensureTemplateLocked(signature)
	c.mu.Unlock()
}

// SetPattern stores a result under (signature, coarse environment).
func (c *PatternCache) SetPattern(signature string, env genetics.EnvironmentalSnapshot, result genetics.TraitExpressionResult) {
	if signature == "" {
		return
	}
	now := c.now()
	key := c.keyer.PatternKey(signature, env)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureTemplateLocked(signature)
	c.entries[key] = &patternEntry{
		signature: signature,
		result:    result,
		expiresAt: now.Add(c.policy.TTL),
	}
	if len(c.entries) > c.policy.MaxEntries {
		c.evictLocked(now)
	}
}

func (c *PatternCache) ensureTemplateLocked(signature string) *PatternTemplate {
	if tmpl, ok := c.templates[signature]; ok {
		return tmpl
	}
	weights := make(map[string]float64, len(traitNames))
	for _, name := range traitNames {
		weights[name] = defaultTraitWeight
	}
	tmpl := &PatternTemplate{
		Signature:           signature,
		Components:          genetics.SignatureComponents(signature),
		TraitWeights:        weights,
		BaselineReliability: defaultBaselineReliability,
	}
	c.templates[signature] = tmpl
	if _, ok := c.confidence[signature]; !ok {
		c.confidence[signature] = &PatternConfidence{}
	}
	return tmpl
}

// FindPatternMatch derives the query's signature, ranks known templates by
// component overlap, and returns the first live entry among candidates at
// or above the overlap threshold, tried in descending overlap order. A hit
// updates the winning pattern's confidence counters.
func (c *PatternCache) FindPatternMatch(g *genetics.Genotype, env genetics.EnvironmentalSnapshot) (genetics.TraitExpressionResult, string, bool) {
	querySig := genetics.Signature(g)
	if querySig == "" {
		return genetics.TraitExpressionResult{}, "", false
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	type candidate struct {
		signature string
		overlap   float64
	}
	candidates := make([]candidate, 0, len(c.templates))
	for sig := range c.templates {
		overlap := genetics.SignatureOverlap(querySig, sig)
		if overlap >= c.overlapThreshold {
			candidates = append(candidates, candidate{signature: sig, overlap: overlap})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].overlap != candidates[j].overlap {
			return candidates[i].overlap > candidates[j].overlap
		}
		return candidates[i].signature < candidates[j].signature
	})

	for _, cand := range candidates {
		key := c.keyer.PatternKey(cand.signature, env)
		entry, ok := c.entries[key]
		if !ok || now.After(entry.expiresAt) {
			continue
		}
		entry.accessCount++
		conf := c.confidence[cand.signature]
		if conf == nil {
			conf = &PatternConfidence{}
			c.confidence[cand.signature] = conf
		}
		conf.Predictions++
		conf.Successes++
		if tmpl := c.templates[cand.signature]; tmpl != nil {
			tmpl.UsageCount++
		}
		return entry.result, cand.signature, true
	}
	return genetics.TraitExpressionResult{}, "", false
}

// Confidence returns the prediction confidence for a signature: observed
// accuracy once predictions exist, the template's baseline reliability
// before that, zero for unknown signatures.
func (c *PatternCache) Confidence(signature string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	conf, ok := c.confidence[signature]
	if ok && conf.Predictions > 0 {
		return conf.Accuracy()
	}
	if tmpl, known := c.templates[signature]; known {
		return tmpl.BaselineReliability
	}
	return 0
}

// RecordOutcome feeds external accuracy feedback for a signature whose
// prediction was served earlier. Failures increment predictions only.
func (c *PatternCache) RecordOutcome(signature string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conf, ok := c.confidence[signature]
	if !ok {
		conf = &PatternConfidence{}
		c.confidence[signature] = conf
	}
	conf.Predictions++
	if success {
		conf.Successes++
	}
}

// OptimizeWeights nudges the best-evidenced templates toward their
// observed accuracy: baseline reliability by exponential smoothing, trait
// weights by a small step toward the accuracy signal. Only the top
// templates by accuracy with a minimum sample count are touched.
func (c *PatternCache) OptimizeWeights() {
	c.mu.Lock()
	defer c.mu.Unlock()

	type ranked struct {
		template *PatternTemplate
		accuracy float64
	}
	eligible := make([]ranked, 0, len(c.templates))
	for sig, tmpl := range c.templates {
		conf := c.confidence[sig]
		if conf == nil || conf.Predictions < optimizeMinSamples {
			continue
		}
		eligible = append(eligible, ranked{template: tmpl, accuracy: conf.Accuracy()})
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].accuracy > eligible[j].accuracy
	})
	if len(eligible) > optimizeTopN {
		eligible = eligible[:optimizeTopN]
	}

	for _, r := range eligible {
		tmpl := r.template
		tmpl.BaselineReliability += reliabilitySmoothing * (r.accuracy - tmpl.BaselineReliability)
		for name, weight := range tmpl.TraitWeights {
			tmpl.TraitWeights[name] = weight + traitWeightStep*(r.accuracy-weight)
		}
	}
}

// evictLocked expires dead entries, then removes the entries with the
// lowest (confidence x access count) product. Templates and confidence
// are never evicted here.
func (c *PatternCache) evictLocked(now time.Time) {
	budget := c.policy.batchSize()

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			budget--
		}
	}
	if budget <= 0 || len(c.entries) <= c.policy.MaxEntries {
		return
	}

	type scored struct {
		key   string
		score float64
	}
	candidates := make([]scored, 0, len(c.entries))
	for key, entry := range c.entries {
		conf := defaultBaselineReliability
		if pc, ok := c.confidence[entry.signature]; ok && pc.Predictions > 0 {
			conf = pc.Accuracy()
		}
		candidates = append(candidates, scored{
			key:   key,
			score: conf * float64(entry.accessCount),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].key < candidates[j].key
	})
	for i := 0; i < budget && i < len(candidates); i++ {
		delete(c.entries, candidates[i].key)
	}
}

// Clear drops the entry cache. Templates and confidence represent learned
// knowledge and survive.
func (c *PatternCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*patternEntry)
	c.mu.Unlock()
}

// Len returns the current entry count.
func (c *PatternCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TemplateCount returns how many patterns the knowledge base holds.
func (c *PatternCache) TemplateCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}

// Template returns a copy of the learned template for a signature.
func (c *PatternCache) Template(signature string) (PatternTemplate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tmpl, ok := c.templates[signature]
	if !ok {
		return PatternTemplate{}, false
	}
	copied := *tmpl
	copied.Components = append([]string(nil), tmpl.Components...)
	copied.TraitWeights = make(map[string]float64, len(tmpl.TraitWeights))
	for k, v := range tmpl.TraitWeights {
		copied.TraitWeights[k] = v
	}
	return copied, true
}

// String renders a template compactly for logs.
func (t PatternTemplate) String() string {
	return t.Signature + " (reliability " + strconv.FormatFloat(t.BaselineReliability, 'f', 2, 64) + ")"
}
