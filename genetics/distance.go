package genetics

// defaultDistance is used when two genotypes share no comparable loci.
// Half-distance keeps them out of high-similarity matches without
// declaring them maximally different.
const defaultDistance = 0.5

// Distance computes the genetic distance between two genotypes in [0, 1].
//
// For each locus present in either genotype, the two allele pairs are
// compared by counting identical allele codes across the 2x2 comparison
// (0-2 identical). Per-locus distance is (2 - identical) / 2, and the
// overall distance is the mean over all compared loci. Loci missing in
// both genotypes are excluded; a locus missing in only one counts as a
// full-distance locus. The metric is symmetric.
func Distance(a, b *Genotype) float64 {
	if a == nil || b == nil {
		return defaultDistance
	}

	seen := make(map[string]struct{}, len(a.Loci)+len(b.Loci))
	var total float64
	var compared int

	for locus := range a.Loci {
		seen[locus] = struct{}{}
		pairA := a.Loci[locus]
		pairB, ok := b.Loci[locus]
		if !ok {
			total += 1.0
			compared++
			continue
		}
		total += pairDistance(pairA, pairB)
		compared++
	}
	for locus := range b.Loci {
		if _, done := seen[locus]; done {
			continue
		}
		// Present only in b.
		total += 1.0
		compared++
	}

	if compared == 0 {
		return defaultDistance
	}
	return total / float64(compared)
}

// Similarity is 1 - Distance.
func Similarity(a, b *Genotype) float64 {
	return 1.0 - Distance(a, b)
}

// pairDistance compares two allele pairs. Each allele of one pair is
// matched against each of the other; at most two matches are counted, one
// per allele, so a fully identical pair scores 0 and a disjoint pair 1.
func pairDistance(a, b AllelePair) float64 {
	identical := 0
	bCodes := []string{b.First.Code, b.Second.Code}
	for _, code := range []string{a.First.Code, a.Second.Code} {
		for i, other := range bCodes {
			if other != "" && code == other {
				identical++
				bCodes[i] = "" // consume the match
				break
			}
		}
	}
	return float64(2-identical) / 2.0
}
