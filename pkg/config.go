package dedupcache

// config.go defines CacheManager's functional-option configuration,
// following pkg/config.go's own config{}+Option+applyOptions trio nearly
// verbatim in shape: defaults in one function, options that only capture
// pointers to external collaborators, validation that bails out early with
// a descriptive sentinel error.

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	// DefaultStringCacheSize is the max entries per string-cache generation (§6).
	DefaultStringCacheSize = 15000
	// DefaultTemplateCacheSize is the max entries per template-cache generation (§6).
	DefaultTemplateCacheSize = 3000
	// DefaultNodeCacheSize is the total slot count of the shared node table (§6).
	DefaultNodeCacheSize = 1048576
	// DefaultProbeWindow is the suggested bounded-probe length P (§4.2).
	DefaultProbeWindow = 4
)

// Option configures a CacheManager at construction time.
type Option func(*Config)

// Config bundles every knob CacheManager.New accepts. All fields are
// immutable once the manager is constructed.
type Config struct {
	StringCacheSize   int
	TemplateCacheSize int
	NodeCacheSize     int
	ProbeWindow       int

	logger   *zap.Logger
	sink     StatsSink
	promSink *PrometheusStatsSink
}

func defaultConfig() *Config {
	return &Config{
		StringCacheSize:   DefaultStringCacheSize,
		TemplateCacheSize: DefaultTemplateCacheSize,
		NodeCacheSize:     DefaultNodeCacheSize,
		ProbeWindow:       DefaultProbeWindow,
		logger:            zap.NewNop(),
		sink:              noopStatsSink{},
	}
}

/* -------------------------------------------------------------------------
   Functional options
   ------------------------------------------------------------------------- */

// WithStringCacheSize overrides the per-generation string cache capacity.
func WithStringCacheSize(n int) Option {
	return func(c *Config) { c.StringCacheSize = n }
}

// WithTemplateCacheSize overrides the per-generation template cache capacity.
func WithTemplateCacheSize(n int) Option {
	return func(c *Config) { c.TemplateCacheSize = n }
}

// WithNodeCacheSize overrides the shared node table's slot count. Must be a
// positive power of two.
func WithNodeCacheSize(n int) Option {
	return func(c *Config) { c.NodeCacheSize = n }
}

// WithProbeWindow overrides the bounded probe length P used by the node
// table (§4.2 suggests 4).
func WithProbeWindow(p int) Option {
	return func(c *Config) { c.ProbeWindow = p }
}

// WithLogger plugs an external zap.Logger. The manager never logs on the
// get/put hot path; only generation retirement and rate-limited
// admission-drop warnings are emitted (see SPEC_FULL.md §1.1).
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStatsSink plugs a custom telemetry counter sink (§4.5/§6). Defaults
// to a no-op sink; use NewMapStatsSink for an in-process counter map, or
// WithMetrics for Prometheus.
func WithStatsSink(sink StatsSink) Option {
	return func(c *Config) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// WithMetrics enables Prometheus telemetry, registering dedupcache's
// counters and family gauges against reg. Mirrors arena-cache's
// WithMetrics(*prometheus.Registry) option exactly.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *Config) {
		if reg == nil {
			return
		}
		p := NewPrometheusStatsSink(reg)
		c.sink = p
		c.promSink = p
	}
}

/* -------------------------------------------------------------------------
   Validation
   ------------------------------------------------------------------------- */

func validateConfig(cfg *Config) error {
	if cfg.StringCacheSize < 0 {
		return ErrInvalidStringCacheSize
	}
	if cfg.TemplateCacheSize < 0 {
		return ErrInvalidTemplateCacheSize
	}
	if cfg.NodeCacheSize <= 0 || cfg.NodeCacheSize&(cfg.NodeCacheSize-1) != 0 {
		return ErrInvalidNodeCacheSize
	}
	if cfg.ProbeWindow <= 0 || cfg.ProbeWindow > cfg.NodeCacheSize {
		return ErrInvalidProbeWindow
	}
	return nil
}

// dropWarnInterval bounds how often CacheManager logs a node-cache
// admission drop; a single saturated bucket must not flood the logger.
const dropWarnInterval = time.Second
