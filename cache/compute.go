package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/verdantlabs/phenocache/genetics"
)

// TraitComputer is the external trait-expression function the cache
// memoizes. It is treated as an opaque, expensive pure function.
//
// Contract:
// - Purity: the same inputs must produce the same result.
// - Concurrency: implementations must be safe for concurrent use.
type TraitComputer interface {
	Compute(ctx context.Context, g *genetics.Genotype, env genetics.EnvironmentalSnapshot) (genetics.TraitExpressionResult, error)
}

// TraitComputerFunc adapts a function to the TraitComputer interface.
type TraitComputerFunc func(ctx context.Context, g *genetics.Genotype, env genetics.EnvironmentalSnapshot) (genetics.TraitExpressionResult, error)

// Compute calls the wrapped function.
func (f TraitComputerFunc) Compute(ctx context.Context, g *genetics.Genotype, env genetics.EnvironmentalSnapshot) (genetics.TraitExpressionResult, error) {
	return f(ctx, g, env)
}

// fallbackComputer is the default TraitComputer selected when none is
// injected at construction. It derives stable pseudo-traits from the
// genotype and environment so the cache remains usable without a
// simulator wired in; the values carry no biological meaning.
type fallbackComputer struct{}

func (fallbackComputer) Compute(_ context.Context, g *genetics.Genotype, env genetics.EnvironmentalSnapshot) (genetics.TraitExpressionResult, error) {
	id := ""
	if g != nil {
		id = g.ID
	}
	sum := sha256.Sum256([]byte(genetics.Signature(g) + "\n" + id + "\n" + env.Key()))
	unit := func(offset int) float64 {
		v := binary.BigEndian.Uint32(sum[offset : offset+4])
		return float64(v) / float64(^uint32(0))
	}
	return genetics.TraitExpressionResult{
		GenotypeID:     id,
		Height:         50 + 150*unit(0),
		THC:            30 * unit(4),
		CBD:            20 * unit(8),
		Yield:          100 + 400*unit(12),
		OverallFitness: unit(16),
	}, nil
}

// Ensure both implementations satisfy TraitComputer
var (
	_ TraitComputer = (TraitComputerFunc)(nil)
	_ TraitComputer = fallbackComputer{}
)
