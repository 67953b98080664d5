package cache

import (
	"time"

	"github.com/verdantlabs/phenocache/genetics"
)

func testPair(code1 string, dom1 bool, code2 string, dom2 bool) genetics.AllelePair {
	return genetics.AllelePair{
		First:  genetics.Allele{Code: code1, Dominant: dom1},
		Second: genetics.Allele{Code: code2, Dominant: dom2},
	}
}

func testGenotype(id string, loci map[string]genetics.AllelePair) *genetics.Genotype {
	return &genetics.Genotype{ID: id, StrainID: "strain-test", Loci: loci}
}

func testEnv(temp float64) genetics.EnvironmentalSnapshot {
	return genetics.NewEnvironmentalSnapshot(map[string]float64{
		"temperature": temp,
		"humidity":    55,
	})
}

func testResult(genotypeID string) genetics.TraitExpressionResult {
	return genetics.TraitExpressionResult{
		GenotypeID:     genotypeID,
		Height:         120,
		THC:            18.5,
		CBD:            1.2,
		Yield:          320,
		OverallFitness: 0.8,
	}
}

// fakeClock provides a controllable time source for TTL tests.
type fakeClock struct {
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
