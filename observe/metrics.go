package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instruments records cache and breeding activity on OpenTelemetry
// instruments.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Instruments interface {
	// RecordLookup records one tiered cache lookup with its outcome.
	RecordLookup(ctx context.Context, tier string, hit bool, duration time.Duration)

	// RecordBreeding records one breeding event.
	RecordBreeding(ctx context.Context, offspring, mutations int, duration time.Duration)
}

// instrumentsImpl is the concrete implementation of Instruments.
type instrumentsImpl struct {
	lookupCount    metric.Int64Counter
	lookupMisses   metric.Int64Counter
	lookupDuration metric.Float64Histogram
	breedingCount  metric.Int64Counter
	offspringCount metric.Int64Counter
	mutationCount  metric.Int64Counter
}

// NewInstruments creates Instruments backed by the given meter.
func NewInstruments(meter metric.Meter) (Instruments, error) {
	lookupCount, err := meter.Int64Counter(
		"pheno.cache.lookups",
		metric.WithDescription("Total cache lookups per tier"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	lookupMisses, err := meter.Int64Counter(
		"pheno.cache.misses",
		metric.WithDescription("Cache misses per tier"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	lookupDuration, err := meter.Float64Histogram(
		"pheno.cache.lookup_duration_ms",
		metric.WithDescription("Cache lookup duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	breedingCount, err := meter.Int64Counter(
		"pheno.breeding.events",
		metric.WithDescription("Total breeding events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	offspringCount, err := meter.Int64Counter(
		"pheno.breeding.offspring",
		metric.WithDescription("Total viable offspring produced"),
		metric.WithUnit("{offspring}"),
	)
	if err != nil {
		return nil, err
	}

	mutationCount, err := meter.Int64Counter(
		"pheno.breeding.mutations",
		metric.WithDescription("Total mutation records produced"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, err
	}

	return &instrumentsImpl{
		lookupCount:    lookupCount,
		lookupMisses:   lookupMisses,
		lookupDuration: lookupDuration,
		breedingCount:  breedingCount,
		offspringCount: offspringCount,
		mutationCount:  mutationCount,
	}, nil
}

// RecordLookup records one tiered lookup.
func (i *instrumentsImpl) RecordLookup(ctx context.Context, tier string, hit bool, duration time.Duration) {
	opt := metric.WithAttributes(attribute.String("cache.tier", tier))

	i.lookupCount.Add(ctx, 1, opt)
	if !hit {
		i.lookupMisses.Add(ctx, 1, opt)
	}
	i.lookupDuration.Record(ctx, float64(duration.Microseconds())/1000.0, opt)
}

// RecordBreeding records one breeding event.
func (i *instrumentsImpl) RecordBreeding(ctx context.Context, offspring, mutations int, duration time.Duration) {
	i.breedingCount.Add(ctx, 1)
	i.offspringCount.Add(ctx, int64(offspring))
	i.mutationCount.Add(ctx, int64(mutations))
}

// noopInstruments is an Instruments implementation that does nothing.
type noopInstruments struct{}

// NopInstruments returns the shared no-op Instruments.
func NopInstruments() Instruments {
	return nopInstruments
}

var nopInstruments Instruments = &noopInstruments{}

func (n *noopInstruments) RecordLookup(ctx context.Context, tier string, hit bool, duration time.Duration) {
}

func (n *noopInstruments) RecordBreeding(ctx context.Context, offspring, mutations int, duration time.Duration) {
}
