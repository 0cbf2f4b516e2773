package dedupcache

// manager.go implements CacheManager (§4.4): the façade the writer talks
// to. It composes two GenerationIndex instances (strings, templates) and a
// single shared PriorityTable (nodes), handing out AccessTracker-wrapped
// handles scoped to (generation, operation).
//
// Grounded on pkg/cache.go's Cache[K,V] for the constructor/option/Close
// shape, rewritten for three named sub-caches instead of one generic one.
//
// © 2025 dedupcache authors. MIT License.

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CacheManager owns the string, template and node caches for a single
// writer. It is safe for concurrent use by multiple writer goroutines
// (§5).
type CacheManager struct {
	cfg   *Config
	empty bool

	strings   *GenerationIndex[*RecordMap[string]]
	templates *GenerationIndex[*RecordMap[Template]]
	nodes     *PriorityTable[StableId]

	logger      *zap.Logger
	sink        StatsSink
	promSink    *PrometheusStatsSink
	dropLimiter *rate.Limiter
}

// New constructs a CacheManager from defaults (§6) overridden by opts.
func New(opts ...Option) (*CacheManager, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	m := &CacheManager{
		cfg:         cfg,
		logger:      cfg.logger,
		sink:        cfg.sink,
		promSink:    cfg.promSink,
		dropLimiter: rate.NewLimiter(rate.Every(dropWarnInterval), 1),
	}
	m.strings = NewGenerationIndex(func() *RecordMap[string] {
		return NewRecordMap[string](cfg.StringCacheSize)
	})
	m.templates = NewGenerationIndex(func() *RecordMap[Template] {
		return NewRecordMap[Template](cfg.TemplateCacheSize)
	})
	m.nodes = NewPriorityTable[StableId](cfg.NodeCacheSize, cfg.ProbeWindow, hashStableID)
	return m, nil
}

// NewEmpty constructs the Empty manager variant of §4.4: size-0
// RecordMaps for strings/templates (already a permanent no-op per §4.1),
// and a node cache whose Put is a no-op and Get always misses. The bare
// Put(k, v) on the empty node cache still signals ErrUnsupportedOperation
// — §4.4 distinguishes "unsupported shape" from "unpopulated".
func NewEmpty() *CacheManager {
	cfg := defaultConfig()
	cfg.StringCacheSize = 0
	cfg.TemplateCacheSize = 0

	m := &CacheManager{
		cfg:         cfg,
		empty:       true,
		logger:      cfg.logger,
		sink:        cfg.sink,
		dropLimiter: rate.NewLimiter(rate.Every(dropWarnInterval), 1),
	}
	m.strings = NewGenerationIndex(func() *RecordMap[string] {
		return NewRecordMap[string](0)
	})
	m.templates = NewGenerationIndex(func() *RecordMap[Template] {
		return NewRecordMap[Template](0)
	})
	return m
}

// hashStableID derives the PriorityTable slot hash for (StableId,
// Generation) using xxhash over the 16 key bytes followed by the
// generation's 8-byte little-endian encoding (IvanBrykalov-shardcache's
// internal/util/hash.go hashes a single buffer the same way; here we hash a
// composite key instead of a single K).
func hashStableID(k StableId, g Generation) uint64 {
	var buf [24]byte
	copy(buf[:16], k[:])
	binary.LittleEndian.PutUint64(buf[16:], uint64(g))
	return xxhash.Sum64(buf[:])
}

/* -------------------------------------------------------------------------
   Per-family handle accessors (§4.4)
   ------------------------------------------------------------------------- */

func counterName(family string, op OperationKind) string {
	return fmt.Sprintf("%s-deduplication-cache-%s", family, op)
}

// StringCache returns a handle scoped to (generation, operation) over the
// string-deduplication cache.
func (m *CacheManager) StringCache(g Generation, op OperationKind) *AccessTracker[string] {
	rm := m.strings.GetOrCreate(g)
	return NewAccessTracker[string](counterName("string", op), m.sink, rm)
}

// TemplateCache returns a handle scoped to (generation, operation) over the
// template-deduplication cache.
func (m *CacheManager) TemplateCache(g Generation, op OperationKind) *AccessTracker[Template] {
	rm := m.templates.GetOrCreate(g)
	return NewAccessTracker[Template](counterName("template", op), m.sink, rm)
}

// NodeCache returns a handle scoped to (generation, operation) over the
// shared node-deduplication table. Its Put requires an explicit cost;
// Put(k, v) with no cost does not compile against this type (see
// NodeAccessTracker.PutUnsupported for the dynamic-dispatch fallback).
func (m *CacheManager) NodeCache(g Generation, op OperationKind) *NodeAccessTracker[StableId] {
	name := counterName("node", op)
	if m.empty {
		return NewNodeAccessTracker[StableId](name, m.sink, emptyNodeView{})
	}
	view := &nodeTableView{g: g, table: m.nodes, manager: m}
	return NewNodeAccessTracker[StableId](name, m.sink, view)
}

// nodeTableView binds a single generation onto the shared node table,
// per §9's "views without new allocation" note — this is the thin
// per-call wrapper; a future optimization could thread (g, op) as extra
// arguments to one shared handle instead, which would be an optimization,
// not a contract change.
type nodeTableView struct {
	g       Generation
	table   *PriorityTable[StableId]
	manager *CacheManager
}

func (v *nodeTableView) Get(k StableId) (RecordId, bool) {
	return v.table.Get(k, v.g)
}

func (v *nodeTableView) Put(k StableId, val RecordId, cost uint8) error {
	outcome := v.table.Put(k, v.g, val, cost)
	if outcome == PutDropped && v.manager.dropLimiter.Allow() {
		v.manager.logger.Warn("node cache put dropped: no admissible slot in probe window",
			zap.Uint8("cost", cost))
	}
	return nil
}

// emptyNodeView backs the Empty manager's node cache: Get always misses,
// Put is always a no-op.
type emptyNodeView struct{}

func (emptyNodeView) Get(StableId) (RecordId, bool)       { return RecordId{}, false }
func (emptyNodeView) Put(StableId, RecordId, uint8) error { return nil }

/* -------------------------------------------------------------------------
   Retirement and stats (§4.4, §4.6)
   ------------------------------------------------------------------------- */

// Retire purges every generation for which pred returns true, across all
// three families.
func (m *CacheManager) Retire(pred func(Generation) bool) {
	retiredStrings := countRetired(m.strings, pred)
	retiredTemplates := countRetired(m.templates, pred)
	m.strings.Retire(pred)
	m.templates.Retire(pred)
	if !m.empty {
		m.nodes.Retire(pred)
	}
	if retiredStrings+retiredTemplates > 0 {
		m.logger.Info("retired cache generations",
			zap.Int("string_generations", retiredStrings),
			zap.Int("template_generations", retiredTemplates))
	}
}

func countRetired[V any](idx *GenerationIndex[V], pred func(Generation) bool) int {
	n := 0
	idx.m.Range(func(k, _ any) bool {
		if pred(k.(Generation)) {
			n++
		}
		return true
	})
	return n
}

// StringStats aggregates RawStats across every materialized string-cache
// generation.
func (m *CacheManager) StringStats() StatsView {
	var agg StatsView
	for _, rm := range m.strings.Iter() {
		agg = mergeStatsView(agg, statsViewFromRaw(rm.Stats()))
	}
	if m.promSink != nil {
		m.promSink.ReportFamily("string", agg)
	}
	return agg
}

// TemplateStats aggregates RawStats across every materialized
// template-cache generation.
func (m *CacheManager) TemplateStats() StatsView {
	var agg StatsView
	for _, rm := range m.templates.Iter() {
		agg = mergeStatsView(agg, statsViewFromRaw(rm.Stats()))
	}
	if m.promSink != nil {
		m.promSink.ReportFamily("template", agg)
	}
	return agg
}

// NodeStats reads the shared node table's own counters plus one occupancy
// scan.
func (m *CacheManager) NodeStats() StatsView {
	if m.empty {
		return StatsView{}
	}
	v := statsViewFromRaw(m.nodes.Stats())
	if m.promSink != nil {
		m.promSink.ReportFamily("node", v)
	}
	return v
}

// NodeOccupancy returns a human-readable summary of node-cache slot
// occupancy bucketed by priority range, or ("", false) for the Empty
// manager (§4.4: "Option<String>").
func (m *CacheManager) NodeOccupancy() (string, bool) {
	if m.empty {
		return "", false
	}
	buckets := m.nodes.occupancyByPriorityBucket()
	capacity := m.nodes.Capacity()

	var total uint64
	for _, b := range buckets {
		total += b
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "node cache occupancy: %s / %s slots",
		humanize.Comma(int64(total)), humanize.Comma(int64(capacity)))
	for i, b := range buckets {
		lo, hi := i*64, i*64+63
		fmt.Fprintf(&sb, "; priority[%d-%d]=%s", lo, hi, humanize.Comma(int64(b)))
	}
	return sb.String(), true
}

// Close releases resources held by the manager. dedupcache holds no files
// or background goroutines today; Close exists for API symmetry with
// pkg/cache.go's Cache.Close and as a stable shutdown hook for any future
// generation that adds one (see SPEC_FULL.md §3).
func (m *CacheManager) Close() {}
