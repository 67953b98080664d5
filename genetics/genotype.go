package genetics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Allele is one variant of a gene. Equality is by Code; the dominance flag
// determines how the pair expresses.
type Allele struct {
	Code     string
	Dominant bool
}

// AllelePair holds the two alleles present at a locus.
type AllelePair struct {
	First  Allele
	Second Allele
}

// Homozygous reports whether both alleles carry the same code.
func (p AllelePair) Homozygous() bool {
	return p.First.Code == p.Second.Code
}

// HasDominant reports whether at least one allele in the pair is dominant.
func (p AllelePair) HasDominant() bool {
	return p.First.Dominant || p.Second.Dominant
}

// Genotype is a single individual's genetic makeup.
//
// Locus sets need not match between any two genotypes: a locus present in
// one parent may be absent in the other, and all comparison code must
// tolerate that.
type Genotype struct {
	ID                    string
	StrainID              string
	Generation            int
	InbreedingCoefficient float64
	Mutations             []MutationRecord
	Loci                  map[string]AllelePair

	// AncestorIDs holds direct ancestor genotype IDs (parents and
	// grandparents) used for relationship detection during breeding.
	AncestorIDs []string
}

// SortedLoci returns the locus names in lexicographic order for canonical
// iteration. The Loci map itself is unordered.
func (g *Genotype) SortedLoci() []string {
	names := make([]string, 0, len(g.Loci))
	for name := range g.Loci {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasAncestor reports whether id appears in the genotype's ancestor list.
func (g *Genotype) HasAncestor(id string) bool {
	for _, a := range g.AncestorIDs {
		if a == id {
			return true
		}
	}
	return false
}

// SharesAncestorWith reports whether the two genotypes list a common
// ancestor ID. Used for sibling detection.
func (g *Genotype) SharesAncestorWith(other *Genotype) bool {
	if other == nil {
		return false
	}
	for _, a := range g.AncestorIDs {
		if other.HasAncestor(a) {
			return true
		}
	}
	return false
}

// NewGenotypeID returns a fresh unique genotype identifier.
func NewGenotypeID() string {
	return "gen-" + uuid.NewString()
}

// TraitExpressionResult holds the computed scalar outputs of the external
// trait-expression function. The cache stores and retrieves it by value and
// never mutates it.
type TraitExpressionResult struct {
	GenotypeID     string
	Height         float64
	THC            float64
	CBD            float64
	Yield          float64
	OverallFitness float64
}

// EnvironmentalSnapshot is an immutable set of scalar growing conditions.
// It participates in cache keys only through Key and CoarseKey.
type EnvironmentalSnapshot struct {
	Conditions map[string]float64
}

// NewEnvironmentalSnapshot copies the given conditions into a snapshot.
func NewEnvironmentalSnapshot(conditions map[string]float64) EnvironmentalSnapshot {
	copied := make(map[string]float64, len(conditions))
	for k, v := range conditions {
		copied[k] = v
	}
	return EnvironmentalSnapshot{Conditions: copied}
}

// Key returns a canonical string for exact environment matching. Condition
// names are sorted so the key is independent of map iteration order.
func (e EnvironmentalSnapshot) Key() string {
	return e.render(func(v float64) string { return fmt.Sprintf("%.4f", v) })
}

// CoarseKey returns the environment key with every condition bucketed to
// integer granularity. Pattern-cache entries are keyed on this so nearby
// environments share entries.
func (e EnvironmentalSnapshot) CoarseKey() string {
	return e.render(func(v float64) string { return fmt.Sprintf("%d", int(math.Floor(v))) })
}

func (e EnvironmentalSnapshot) render(format func(float64) string) string {
	if len(e.Conditions) == 0 {
		return ""
	}
	names := make([]string, 0, len(e.Conditions))
	for name := range e.Conditions {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(format(e.Conditions[name]))
	}
	return b.String()
}

// PlantStrain describes a cultivar and carries the hints used to derive a
// representative genotype for precomputation.
type PlantStrain struct {
	ID             string
	Name           string
	BaseLoci       map[string]AllelePair
	BaseInbreeding float64
}

// RepresentativeGenotype builds a generation-zero genotype from the strain's
// base loci. Each call returns a genotype with a fresh ID but identical
// genetic content, so derived signatures are stable per strain.
func (s PlantStrain) RepresentativeGenotype() *Genotype {
	loci := make(map[string]AllelePair, len(s.BaseLoci))
	for name, pair := range s.BaseLoci {
		loci[name] = pair
	}
	return &Genotype{
		ID:                    NewGenotypeID(),
		StrainID:              s.ID,
		Generation:            0,
		InbreedingCoefficient: s.BaseInbreeding,
		Loci:                  loci,
	}
}
