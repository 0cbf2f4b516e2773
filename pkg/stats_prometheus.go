package dedupcache

// stats_prometheus.go adapts StatsSink onto Prometheus, the same opt-in
// pattern as arena-cache's pkg/metrics.go: a CounterVec labeled by counter
// name, registered against a caller-supplied *prometheus.Registry. Passing a
// nil registry is a programmer error at the call site (mirrors
// promMetrics's own doc comment: "function should never be called with nil").

import "github.com/prometheus/client_golang/prometheus"

// PrometheusStatsSink reports AccessTracker's access-count/miss-count
// telemetry as a single labeled Prometheus counter vector, and additionally
// exposes family-level occupancy/weight gauges via ReportFamily.
type PrometheusStatsSink struct {
	counter *prometheus.CounterVec
	size    *prometheus.GaugeVec
	weight  *prometheus.GaugeVec
	evicted *prometheus.GaugeVec
}

// NewPrometheusStatsSink constructs and registers the collectors against
// reg. Panics (via reg.MustRegister) if the metrics are already registered,
// matching promMetrics's own MustRegister usage.
func NewPrometheusStatsSink(reg *prometheus.Registry) *PrometheusStatsSink {
	p := &PrometheusStatsSink{
		counter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dedupcache",
			Name:      "counter_total",
			Help:      "Raw access-count/miss-count telemetry, labeled by the full counter name.",
		}, []string{"counter"}),
		size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dedupcache",
			Name:      "occupancy",
			Help:      "Current entry count per cache family.",
		}, []string{"family"}),
		weight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dedupcache",
			Name:      "weight",
			Help:      "Current weight estimate per cache family.",
		}, []string{"family"}),
		evicted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dedupcache",
			Name:      "evictions_total",
			Help:      "Cumulative evictions per cache family, as of the last snapshot.",
		}, []string{"family"}),
	}
	reg.MustRegister(p.counter, p.size, p.weight, p.evicted)
	return p
}

func (p *PrometheusStatsSink) IncAccess(name string) {
	p.counter.WithLabelValues(name + ".access-count").Inc()
}

func (p *PrometheusStatsSink) IncMiss(name string) {
	p.counter.WithLabelValues(name + ".miss-count").Inc()
}

// ReportFamily pushes a StatsView snapshot's size/weight/eviction gauges for
// the named family ("string", "template", "node"). CacheManager calls this
// from its own stats accessors rather than on the hot path, the same
// "metrics off the hot path" discipline as arena-cache's rotation/eviction
// gauges.
func (p *PrometheusStatsSink) ReportFamily(family string, v StatsView) {
	p.size.WithLabelValues(family).Set(float64(v.TotalSize))
	p.weight.WithLabelValues(family).Set(float64(v.TotalWeight))
	p.evicted.WithLabelValues(family).Set(float64(v.EvictionCount))
}
