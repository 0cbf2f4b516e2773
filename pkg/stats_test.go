package dedupcache

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStatsViewHitRate(t *testing.T) {
	cases := []struct {
		name string
		v    StatsView
		want float64
	}{
		{"no accesses", StatsView{}, 0},
		{"all hits", StatsView{Hits: 10}, 1},
		{"all misses", StatsView{Misses: 10}, 0},
		{"half and half", StatsView{Hits: 5, Misses: 5}, 0.5},
	}
	for _, c := range cases {
		if got := c.v.HitRate(); got != c.want {
			t.Errorf("%s: HitRate() = %v; want %v", c.name, got, c.want)
		}
	}
}

func TestMergeStatsView(t *testing.T) {
	a := StatsView{Hits: 1, Misses: 2, LoadCount: 3, EvictionCount: 4, TotalSize: 5, TotalWeight: 6}
	b := StatsView{Hits: 10, Misses: 20, LoadCount: 30, EvictionCount: 40, TotalSize: 50, TotalWeight: 60}

	got := mergeStatsView(a, b)
	want := StatsView{Hits: 11, Misses: 22, LoadCount: 33, EvictionCount: 44, TotalSize: 55, TotalWeight: 66}
	if got != want {
		t.Fatalf("mergeStatsView = %+v; want %+v", got, want)
	}
}

func TestStatsViewFromRaw(t *testing.T) {
	raw := RawStats{Hits: 1, Misses: 2, Loads: 3, Evictions: 4, Size: 5, Weight: 6}
	got := statsViewFromRaw(raw)
	want := StatsView{Hits: 1, Misses: 2, LoadCount: 3, EvictionCount: 4, TotalSize: 5, TotalWeight: 6}
	if got != want {
		t.Fatalf("statsViewFromRaw = %+v; want %+v", got, want)
	}
}

func TestMapStatsSinkSnapshot(t *testing.T) {
	sink := NewMapStatsSink().(*mapStatsSink)
	sink.IncAccess("string-deduplication-cache-write")
	sink.IncAccess("string-deduplication-cache-write")
	sink.IncMiss("string-deduplication-cache-write")

	snap := sink.Snapshot()
	if snap["string-deduplication-cache-write.access-count"] != 2 {
		t.Errorf("access-count = %d; want 2", snap["string-deduplication-cache-write.access-count"])
	}
	if snap["string-deduplication-cache-write.miss-count"] != 1 {
		t.Errorf("miss-count = %d; want 1", snap["string-deduplication-cache-write.miss-count"])
	}
}

func TestNoopStatsSinkDiscardsEverything(t *testing.T) {
	var s noopStatsSink
	s.IncAccess("anything")
	s.IncMiss("anything")
	// Nothing to assert: noopStatsSink carries no state. This test exists so
	// the zero value is exercised and stays compilable against the
	// StatsSink interface.
}

func TestPrometheusStatsSinkCountsAccessAndMiss(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusStatsSink(reg)

	sink.IncAccess("node-deduplication-cache-write")
	sink.IncAccess("node-deduplication-cache-write")
	sink.IncMiss("node-deduplication-cache-write")

	metric := &dto.Metric{}
	m, err := sink.counter.GetMetricWithLabelValues("node-deduplication-cache-write.access-count")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues: %v", err)
	}
	if err := m.Write(metric); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 2 {
		t.Errorf("access-count metric = %v; want 2", got)
	}
}

func TestPrometheusStatsSinkReportFamilySetsGaugesNotCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusStatsSink(reg)

	sink.ReportFamily("string", StatsView{TotalSize: 100, TotalWeight: 200, EvictionCount: 5})
	sink.ReportFamily("string", StatsView{TotalSize: 100, TotalWeight: 200, EvictionCount: 5})

	metric := &dto.Metric{}
	m, err := sink.evicted.GetMetricWithLabelValues("string")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues: %v", err)
	}
	if err := m.Write(metric); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// A gauge Set is idempotent: calling ReportFamily twice with the same
	// cumulative snapshot must not double the reported value the way a
	// counter Add would.
	if got := metric.GetGauge().GetValue(); got != 5 {
		t.Errorf("evictions_total gauge after two identical snapshots = %v; want 5", got)
	}
}
