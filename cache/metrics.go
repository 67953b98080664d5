package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Tier identifies one of the three cache levels.
type Tier int

const (
	TierExact Tier = iota
	TierSimilarity
	TierPattern
)

// String returns the string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierSimilarity:
		return "similarity"
	case TierPattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// Metrics aggregates cache activity. Counters are atomic; latency samples
// append under a lock into a bounded ring. Snapshots are point-in-time and
// not transactionally consistent with any single cache operation.
type Metrics struct {
	tiers [3]tierCounters

	computes           atomic.Int64
	precomputed        atomic.Int64
	precomputeFailures atomic.Int64
	optimizations      atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
	latencyAt int
	cap       int
}

type tierCounters struct {
	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewMetrics creates a metrics aggregator retaining up to sampleCap
// latency samples.
func NewMetrics(sampleCap int) *Metrics {
	if sampleCap <= 0 {
		sampleCap = 1024
	}
	return &Metrics{cap: sampleCap}
}

// RecordHit increments the tier's hit counter.
func (m *Metrics) RecordHit(tier Tier) { m.tiers[tier].hits.Add(1) }

// RecordMiss increments the tier's miss counter.
func (m *Metrics) RecordMiss(tier Tier) { m.tiers[tier].misses.Add(1) }

// RecordSet increments the tier's set counter.
func (m *Metrics) RecordSet(tier Tier) { m.tiers[tier].sets.Add(1) }

// RecordCompute counts a fall-through to the external trait computation.
func (m *Metrics) RecordCompute() { m.computes.Add(1) }

// RecordPrecompute counts one finished precompute task.
func (m *Metrics) RecordPrecompute(ok bool) {
	if ok {
		m.precomputed.Add(1)
	} else {
		m.precomputeFailures.Add(1)
	}
}

// RecordOptimization counts one completed optimization pass.
func (m *Metrics) RecordOptimization() { m.optimizations.Add(1) }

// RecordLatency appends a lookup latency sample, overwriting the oldest
// once the ring is full.
func (m *Metrics) RecordLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.latencies) < m.cap {
		m.latencies = append(m.latencies, d)
		return
	}
	m.latencies[m.latencyAt] = d
	m.latencyAt = (m.latencyAt + 1) % m.cap
}

// TierMetrics is the per-tier slice of a snapshot.
type TierMetrics struct {
	Hits     int64
	Misses   int64
	Sets     int64
	HitRatio float64
}

// CacheMetrics is a point-in-time snapshot of cache activity.
type CacheMetrics struct {
	Exact      TierMetrics
	Similarity TierMetrics
	Pattern    TierMetrics

	TotalRequests   int64
	OverallHitRatio float64

	Computes           int64
	Precomputed        int64
	PrecomputeFailures int64
	Optimizations      int64

	LatencySamples []time.Duration
}

// Snapshot returns a copy of the current counters and latency samples.
func (m *Metrics) Snapshot() CacheMetrics {
	snap := CacheMetrics{
		Exact:              m.tierSnapshot(TierExact),
		Similarity:         m.tierSnapshot(TierSimilarity),
		Pattern:            m.tierSnapshot(TierPattern),
		Computes:           m.computes.Load(),
		Precomputed:        m.precomputed.Load(),
		PrecomputeFailures: m.precomputeFailures.Load(),
		Optimizations:      m.optimizations.Load(),
	}

	// A request that misses every tier counts one overall miss; hits at
	// any tier count one overall hit.
	hits := snap.Exact.Hits + snap.Similarity.Hits + snap.Pattern.Hits
	snap.TotalRequests = snap.Exact.Hits + snap.Exact.Misses
	if snap.TotalRequests > 0 {
		snap.OverallHitRatio = float64(hits) / float64(snap.TotalRequests)
		if snap.OverallHitRatio > 1 {
			snap.OverallHitRatio = 1
		}
	}

	m.mu.Lock()
	snap.LatencySamples = append([]time.Duration(nil), m.latencies...)
	m.mu.Unlock()
	return snap
}

func (m *Metrics) tierSnapshot(tier Tier) TierMetrics {
	t := &m.tiers[tier]
	tm := TierMetrics{
		Hits:   t.hits.Load(),
		Misses: t.misses.Load(),
		Sets:   t.sets.Load(),
	}
	if total := tm.Hits + tm.Misses; total > 0 {
		tm.HitRatio = float64(tm.Hits) / float64(total)
	}
	return tm
}
