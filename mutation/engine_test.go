package mutation

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/verdantlabs/phenocache/genetics"
)

func newTestEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	e, err := New(DefaultConfig(), WithRand(rand.New(rand.NewSource(seed))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestEngine_RateZeroNeverMutates(t *testing.T) {
	e := newTestEngine(t, 1)
	allele := genetics.Allele{Code: "T1", Dominant: true}

	for i := 0; i < 1000; i++ {
		got, record := e.ApplyToGamete(context.Background(), allele, "THC", 0)
		if record != nil {
			t.Fatal("rate 0 must never trigger a mutation")
		}
		if got != allele {
			t.Fatal("allele must pass through unchanged")
		}
	}
}

func TestEngine_RateOneAlwaysMutates(t *testing.T) {
	e := newTestEngine(t, 1)
	allele := genetics.Allele{Code: "T1", Dominant: true}

	for i := 0; i < 100; i++ {
		got, record := e.ApplyToGamete(context.Background(), allele, "THC", 1)
		if record == nil {
			t.Fatal("rate 1 must always trigger a mutation")
		}
		if got != allele {
			t.Fatal("mutation must not rewrite allele identity")
		}
		if record.ID == "" || record.OccurredAt.IsZero() {
			t.Error("record must carry an ID and a timestamp")
		}
	}
}

func TestEngine_DeterministicWithSeed(t *testing.T) {
	allele := genetics.Allele{Code: "T1", Dominant: true}
	run := func() []genetics.MutationRecord {
		e := newTestEngine(t, 42)
		var records []genetics.MutationRecord
		for i := 0; i < 200; i++ {
			if _, r := e.ApplyToGamete(context.Background(), allele, "THC", 0.5); r != nil {
				records = append(records, *r)
			}
		}
		return records
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("runs diverged: %d vs %d records", len(a), len(b))
	}
	for i := range a {
		if a[i].Type != b[i].Type || a[i].Effect != b[i].Effect || a[i].Magnitude != b[i].Magnitude {
			t.Fatalf("record %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestEngine_TypeDistribution(t *testing.T) {
	e := newTestEngine(t, 7)
	allele := genetics.Allele{Code: "T1", Dominant: true}

	const draws = 20000
	counts := make(map[genetics.MutationType]int)
	for i := 0; i < draws; i++ {
		_, record := e.ApplyToGamete(context.Background(), allele, "THC", 1)
		counts[record.Type]++
	}

	// Point mutations dominate; chromosomal and epigenetic are rare.
	if ratio := float64(counts[genetics.MutationPoint]) / draws; ratio < 0.65 || ratio > 0.75 {
		t.Errorf("point mutation ratio = %v, want near 0.70", ratio)
	}
	if ratio := float64(counts[genetics.MutationEpigenetic]) / draws; ratio > 0.05 {
		t.Errorf("epigenetic ratio = %v, want near 0.02", ratio)
	}
	for _, mt := range []genetics.MutationType{
		genetics.MutationPoint, genetics.MutationChromosomal, genetics.MutationRegulatory,
		genetics.MutationCopyNumber, genetics.MutationEpigenetic,
	} {
		if counts[mt] == 0 {
			t.Errorf("type %s never drawn in %d samples", mt, draws)
		}
	}
}

func TestEngine_EffectSigns(t *testing.T) {
	e := newTestEngine(t, 11)
	allele := genetics.Allele{Code: "T1", Dominant: true}

	sawNegativeNeutral, sawPositiveNeutral := false, false
	for i := 0; i < 5000; i++ {
		_, record := e.ApplyToGamete(context.Background(), allele, "THC", 1)
		switch record.Effect {
		case genetics.EffectBeneficial:
			if record.Magnitude < 0 {
				t.Fatalf("beneficial mutation with negative magnitude: %+v", record)
			}
		case genetics.EffectHarmful:
			if record.Magnitude > 0 {
				t.Fatalf("harmful mutation with positive magnitude: %+v", record)
			}
		case genetics.EffectNeutral:
			if record.Magnitude < 0 {
				sawNegativeNeutral = true
			} else {
				sawPositiveNeutral = true
			}
		}
	}
	if !sawNegativeNeutral || !sawPositiveNeutral {
		t.Error("neutral mutations should carry either sign")
	}
}

func TestEngine_ChromosomalBias(t *testing.T) {
	e := newTestEngine(t, 13)
	allele := genetics.Allele{Code: "T1", Dominant: true}
	cfg := DefaultConfig()

	for i := 0; i < 20000; i++ {
		_, record := e.ApplyToGamete(context.Background(), allele, "THC", 1)
		if record.Type != genetics.MutationChromosomal {
			if record.Locus != "THC" {
				t.Fatalf("non-chromosomal mutation rewrote the locus: %+v", record)
			}
			continue
		}
		if record.Effect == genetics.EffectBeneficial {
			t.Fatalf("chromosomal mutation classified beneficial: %+v", record)
		}
		if record.Locus != genetics.ChromosomeWide {
			t.Errorf("chromosomal locus = %q, want %q", record.Locus, genetics.ChromosomeWide)
		}
		if mag := math.Abs(record.Magnitude); mag > cfg.MaxMagnitude*chromosomalMagnitudeScale {
			t.Errorf("chromosomal magnitude %v exceeds scaled bound", mag)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero magnitude", func(c *Config) { c.MaxMagnitude = 0 }, true},
		{"damping above one", func(c *Config) { c.NeutralDamping = 1.5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
