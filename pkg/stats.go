package dedupcache

// stats.go implements StatsView (§4.6) and the StatsSink telemetry interface
// (§4.5, §6). StatsSink mirrors arena-cache's metricsSink
// (pkg/metrics.go): an interface with a no-op default and a Prometheus
// adapter (stats_prometheus.go), so the hot path never pays for metrics
// unless the host opts in.

import (
	"sync"
	"sync/atomic"
)

// RawStats is the counter snapshot shared by RecordMap and PriorityTable.
type RawStats struct {
	Hits      uint64
	Misses    uint64
	Loads     uint64
	Evictions uint64
	Size      uint64
	Weight    uint64
}

// StatsView is the read-only aggregation exposed for monitoring (§4.6): for
// string/template families it sums RawStats across every materialized
// generation at read time; for the node family it wraps the single table's
// own snapshot.
type StatsView struct {
	Hits          uint64
	Misses        uint64
	LoadCount     uint64
	EvictionCount uint64
	TotalSize     uint64
	TotalWeight   uint64
	// TotalLoadTime is always zero: load time is unused by this subsystem
	// (§6).
	TotalLoadTime uint64
}

// HitRate returns hits/(hits+misses), or 0 if there have been no accesses
// yet. The formula isn't given by §6 explicitly (only the field name "hit-
// rate" is); this is the one the field's own counters support directly.
func (v StatsView) HitRate() float64 {
	total := v.Hits + v.Misses
	if total == 0 {
		return 0
	}
	return float64(v.Hits) / float64(total)
}

func statsViewFromRaw(r RawStats) StatsView {
	return StatsView{
		Hits:          r.Hits,
		Misses:        r.Misses,
		LoadCount:     r.Loads,
		EvictionCount: r.Evictions,
		TotalSize:     r.Size,
		TotalWeight:   r.Weight,
	}
}

func mergeStatsView(a, b StatsView) StatsView {
	return StatsView{
		Hits:          a.Hits + b.Hits,
		Misses:        a.Misses + b.Misses,
		LoadCount:     a.LoadCount + b.LoadCount,
		EvictionCount: a.EvictionCount + b.EvictionCount,
		TotalSize:     a.TotalSize + b.TotalSize,
		TotalWeight:   a.TotalWeight + b.TotalWeight,
	}
}

/* -------------------------------------------------------------------------
   StatsSink — the telemetry contract of §4.5 / §6.
   ------------------------------------------------------------------------- */

// StatsSink receives the access-count/miss-count telemetry AccessTracker
// produces, named "<family>-deduplication-cache-<op>.access-count" and
// "....miss-count" per §6.
type StatsSink interface {
	IncAccess(counterName string)
	IncMiss(counterName string)
}

// mapStatsSink is the opt-in in-process StatsSink (plugged via
// WithStatsSink(NewMapStatsSink())): a set of atomic counters keyed by name,
// read back via Snapshot for tests and diagnostics.
// Grounded on pkg/metrics.go's noopMetrics/promMetrics split — this is the
// "no external backend configured" leg.
type mapStatsSink struct {
	mu       sync.Mutex
	counters map[string]*atomic.Int64
}

// NewMapStatsSink constructs the in-process counter sink.
func NewMapStatsSink() StatsSink {
	return &mapStatsSink{counters: make(map[string]*atomic.Int64)}
}

func (s *mapStatsSink) counter(name string) *atomic.Int64 {
	s.mu.Lock()
	c, ok := s.counters[name]
	if !ok {
		c = &atomic.Int64{}
		s.counters[name] = c
	}
	s.mu.Unlock()
	return c
}

func (s *mapStatsSink) IncAccess(name string) {
	s.counter(name + ".access-count").Add(1)
}

func (s *mapStatsSink) IncMiss(name string) {
	s.counter(name + ".miss-count").Add(1)
}

// Snapshot returns the current value of every counter the sink has seen,
// keyed by the full counter name (e.g. "node-deduplication-cache-write.access-count").
func (s *mapStatsSink) Snapshot() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v.Load()
	}
	return out
}

// noopStatsSink discards everything; it is the default sink, used when the
// host never asked for telemetry at all (distinct from mapStatsSink, which
// lets tests/diagnostics read counters back).
type noopStatsSink struct{}

func (noopStatsSink) IncAccess(string) {}
func (noopStatsSink) IncMiss(string)   {}
