package genetics

import "testing"

func benchGenotypes() (*Genotype, *Genotype) {
	a := genotypeWithLoci(map[string]AllelePair{
		"THC":    pair("T1", true, "T2", false),
		"CBD":    pair("C1", false, "C2", false),
		"YIELD":  pair("Y1", true, "Y1", true),
		"AROMA":  pair("A1", false, "A2", false),
		"HEIGHT": pair("H1", true, "H2", false),
	})
	b := genotypeWithLoci(map[string]AllelePair{
		"THC":    pair("T1", true, "T3", false),
		"CBD":    pair("C2", false, "C2", false),
		"YIELD":  pair("Y2", false, "Y3", false),
		"AROMA":  pair("A1", false, "A1", false),
		"FLOWER": pair("F1", true, "F2", false),
	})
	return a, b
}

// BenchmarkDistance measures the pairwise genetic-distance computation.
func BenchmarkDistance(b *testing.B) {
	g1, g2 := benchGenotypes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Distance(g1, g2)
	}
}

// BenchmarkSignature measures canonical signature derivation.
func BenchmarkSignature(b *testing.B) {
	g, _ := benchGenotypes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Signature(g)
	}
}

// BenchmarkSignatureOverlap measures the component-set overlap computation.
func BenchmarkSignatureOverlap(b *testing.B) {
	g1, g2 := benchGenotypes()
	s1, s2 := Signature(g1), Signature(g2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = SignatureOverlap(s1, s2)
	}
}
