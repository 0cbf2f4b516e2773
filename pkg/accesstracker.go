package dedupcache

// accesstracker.go implements AccessTracker (§4.5): a thin wrapper that
// counts accesses and misses against a named counter sink. It holds no
// state beyond the name and the sink; Put is passed through untouched.
//
// Grounded on pkg/metrics.go's metricsSink dispatch shape, narrowed to the
// two counters §4.5/§6 name explicitly.

// RecordCache is the capability set a RecordMap-backed handle exposes: a
// plain get/put pair (§9: "bare put(k, v)" is the supported shape here).
type RecordCache[K comparable] interface {
	Get(k K) (RecordId, bool)
	Put(k K, v RecordId)
}

// NodeCache is the capability set a node-scoped handle exposes. Put
// requires an explicit cost, per §4.4: "put(k, v) (no cost) is not
// supported". Unlike RecordCache, NodeCache simply never declares a bare
// Put — the open question in §9 about splitting the capability so the
// unsupported shape is a compile error rather than a runtime one is
// resolved this way (see SPEC_FULL.md §5).
type NodeCache[K comparable] interface {
	Get(k K) (RecordId, bool)
	Put(k K, v RecordId, cost uint8) error
}

// AccessTracker wraps an arbitrary RecordCache, counting every Get as an
// access and, when the result is a miss, additionally as a miss, against
// name + ".access-count" / name + ".miss-count".
type AccessTracker[K comparable] struct {
	name string
	sink StatsSink
	next RecordCache[K]
}

// NewAccessTracker wraps next, reporting telemetry under name.
func NewAccessTracker[K comparable](name string, sink StatsSink, next RecordCache[K]) *AccessTracker[K] {
	return &AccessTracker[K]{name: name, sink: sink, next: next}
}

func (t *AccessTracker[K]) Get(k K) (RecordId, bool) {
	t.sink.IncAccess(t.name)
	v, ok := t.next.Get(k)
	if !ok {
		t.sink.IncMiss(t.name)
	}
	return v, ok
}

func (t *AccessTracker[K]) Put(k K, v RecordId) {
	t.next.Put(k, v)
}

// NodeAccessTracker is AccessTracker's NodeCache counterpart: the node
// family's handle requires a cost on every Put, so it wraps NodeCache
// rather than RecordCache.
type NodeAccessTracker[K comparable] struct {
	name string
	sink StatsSink
	next NodeCache[K]
}

// NewNodeAccessTracker wraps next, reporting telemetry under name.
func NewNodeAccessTracker[K comparable](name string, sink StatsSink, next NodeCache[K]) *NodeAccessTracker[K] {
	return &NodeAccessTracker[K]{name: name, sink: sink, next: next}
}

func (t *NodeAccessTracker[K]) Get(k K) (RecordId, bool) {
	t.sink.IncAccess(t.name)
	v, ok := t.next.Get(k)
	if !ok {
		t.sink.IncMiss(t.name)
	}
	return v, ok
}

func (t *NodeAccessTracker[K]) Put(k K, v RecordId, cost uint8) error {
	return t.next.Put(k, v, cost)
}

// PutUnsupported is provided so callers that hold a NodeAccessTracker
// through a narrower, reflection-driven interface can still surface §7's
// ErrUnsupportedOperation
// dynamically for the bare put(k, v) shape, without making it callable from
// statically-typed code.
func (t *NodeAccessTracker[K]) PutUnsupported(K, RecordId) error {
	return ErrUnsupportedOperation
}
