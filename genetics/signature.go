package genetics

import (
	"sort"
	"strings"
)

// Signature component separators. A signature looks like
// "CBD:HET:REC|THC:HOM:DOM": per-locus components sorted lexicographically
// and joined with '|'.
const (
	componentSep = "|"
	fieldSep     = ":"

	zygosityHomozygous   = "HOM"
	zygosityHeterozygous = "HET"
	dominancePresent     = "DOM"
	dominanceRecessive   = "REC"
)

// Signature canonicalizes a genotype into an abstract pattern signature.
// Two genotypes with identical per-locus zygosity and dominance patterns
// share a signature regardless of actual allele identity. An empty or nil
// genotype yields the empty signature.
func Signature(g *Genotype) string {
	if g == nil || len(g.Loci) == 0 {
		return ""
	}
	components := make([]string, 0, len(g.Loci))
	for locus, pair := range g.Loci {
		components = append(components, signatureComponent(locus, pair))
	}
	sort.Strings(components)
	return strings.Join(components, componentSep)
}

func signatureComponent(locus string, pair AllelePair) string {
	zygosity := zygosityHeterozygous
	if pair.Homozygous() {
		zygosity = zygosityHomozygous
	}
	dominance := dominanceRecessive
	if pair.HasDominant() {
		dominance = dominancePresent
	}
	return locus + fieldSep + zygosity + fieldSep + dominance
}

// SignatureComponents splits a signature into its per-locus components.
func SignatureComponents(sig string) []string {
	if sig == "" {
		return nil
	}
	return strings.Split(sig, componentSep)
}

// SignatureOverlap computes the Jaccard similarity between the component
// sets of two signatures: |intersection| / |union|. Two empty signatures
// overlap fully; an empty against a non-empty signature scores zero.
func SignatureOverlap(a, b string) float64 {
	compA := SignatureComponents(a)
	compB := SignatureComponents(b)
	if len(compA) == 0 && len(compB) == 0 {
		return 1.0
	}
	if len(compA) == 0 || len(compB) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(compA))
	for _, c := range compA {
		setA[c] = struct{}{}
	}
	union := make(map[string]struct{}, len(compA)+len(compB))
	intersection := 0
	for c := range setA {
		union[c] = struct{}{}
	}
	for _, c := range compB {
		if _, ok := union[c]; ok {
			if _, shared := setA[c]; shared {
				// Count each shared component once even if duplicated.
				intersection++
				delete(setA, c)
			}
		} else {
			union[c] = struct{}{}
		}
	}
	return float64(intersection) / float64(len(union))
}
