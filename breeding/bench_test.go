package breeding

import (
	"context"
	"math/rand"
	"testing"

	"github.com/verdantlabs/phenocache/genetics"
	"github.com/verdantlabs/phenocache/mutation"
)

func benchParents() (*genetics.Genotype, *genetics.Genotype) {
	p1 := parent("bench-p1", "strain-a", 1, map[string]genetics.AllelePair{
		"THC":    pair("T1", true, "T2", false),
		"CBD":    pair("C1", false, "C2", false),
		"YIELD":  pair("Y1", true, "Y1", true),
		"AROMA":  pair("A1", false, "A2", false),
		"HEIGHT": pair("H1", true, "H2", false),
	})
	p2 := parent("bench-p2", "strain-b", 1, map[string]genetics.AllelePair{
		"THC":    pair("T3", true, "T4", false),
		"CBD":    pair("C1", false, "C3", false),
		"YIELD":  pair("Y2", false, "Y3", false),
		"AROMA":  pair("A1", false, "A1", false),
		"HEIGHT": pair("H2", false, "H3", true),
	})
	return p1, p2
}

// BenchmarkBreed measures a full cross with mutations disabled.
func BenchmarkBreed(b *testing.B) {
	mutator, err := mutation.New(mutation.DefaultConfig())
	if err != nil {
		b.Fatalf("mutation.New: %v", err)
	}
	e, err := New(DefaultConfig(), mutator, WithRand(rand.New(rand.NewSource(1))))
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	p1, p2 := benchParents()
	req := BreedingRequest{OffspringCount: 4}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Breed(ctx, p1, p2, req)
	}
}

// BenchmarkBreed_WithMutations measures a cross with the mutation engine
// engaged on every gamete.
func BenchmarkBreed_WithMutations(b *testing.B) {
	mutator, err := mutation.New(mutation.DefaultConfig(),
		mutation.WithRand(rand.New(rand.NewSource(2))))
	if err != nil {
		b.Fatalf("mutation.New: %v", err)
	}
	e, err := New(DefaultConfig(), mutator, WithRand(rand.New(rand.NewSource(2))))
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	p1, p2 := benchParents()
	req := BreedingRequest{
		OffspringCount:  4,
		EnableMutations: true,
		MutationRate:    0.05,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Breed(ctx, p1, p2, req)
	}
}

// BenchmarkAnalyzeCompatibility measures the pairing analysis alone.
func BenchmarkAnalyzeCompatibility(b *testing.B) {
	mutator, err := mutation.New(mutation.DefaultConfig())
	if err != nil {
		b.Fatalf("mutation.New: %v", err)
	}
	e, err := New(DefaultConfig(), mutator)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	p1, p2 := benchParents()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.AnalyzeCompatibility(p1, p2)
	}
}
