package genetics

import (
	"time"

	"github.com/google/uuid"
)

// ChromosomeWide is the locus sentinel for mutations affecting an entire
// chromosome rather than a single locus.
const ChromosomeWide = "*chromosome*"

// MutationType classifies a mutation event.
type MutationType int

const (
	MutationPoint MutationType = iota
	MutationChromosomal
	MutationRegulatory
	MutationCopyNumber
	MutationEpigenetic
)

// String returns the string representation of the mutation type.
func (t MutationType) String() string {
	switch t {
	case MutationPoint:
		return "point"
	case MutationChromosomal:
		return "chromosomal"
	case MutationRegulatory:
		return "regulatory"
	case MutationCopyNumber:
		return "copy_number"
	case MutationEpigenetic:
		return "epigenetic"
	default:
		return "unknown"
	}
}

// MutationEffect classifies the phenotypic direction of a mutation.
// The classes are mutually exclusive.
type MutationEffect int

const (
	EffectNeutral MutationEffect = iota
	EffectBeneficial
	EffectHarmful
)

// String returns the string representation of the mutation effect.
func (e MutationEffect) String() string {
	switch e {
	case EffectBeneficial:
		return "beneficial"
	case EffectHarmful:
		return "harmful"
	case EffectNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// MutationRecord describes a single mutation event applied to a gamete.
type MutationRecord struct {
	ID         string
	Locus      string
	Type       MutationType
	Magnitude  float64
	Effect     MutationEffect
	OccurredAt time.Time
}

// NewMutationID returns a fresh unique mutation-record identifier.
func NewMutationID() string {
	return "mut-" + uuid.NewString()
}

// BreedingResult is the canonical outcome of one breeding event. Failed
// breedings carry zero offspring, a zero success rate, and a diagnostic
// note; they are values, not errors.
type BreedingResult struct {
	Parent1     *Genotype
	Parent2     *Genotype
	Offspring   []*Genotype
	Mutations   []MutationRecord
	SuccessRate float64
	Notes       string
	CompletedAt time.Time
}

// Succeeded reports whether the breeding produced at least one viable
// offspring.
func (r BreedingResult) Succeeded() bool {
	return len(r.Offspring) > 0
}

// CompatibilityReport summarizes how well two genotypes pair for breeding.
type CompatibilityReport struct {
	GeneticDistance   float64
	InbreedingRisk    float64
	HeterosisEstimate float64
	Score             float64
	Recommendation    string
}
