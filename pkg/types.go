package dedupcache

// types.go defines the data model of §3: the opaque record locator, the
// generation label, the operation-kind enum used only for telemetry naming,
// and the node-cache's stable id / template key shapes.

import "fmt"

// RecordId is an opaque, fixed-size value identifying a persisted record.
// Equality is bytewise, which on a Go array type is exactly `==`.
type RecordId [16]byte

// String renders RecordId as hex, for logs and debug output only.
func (r RecordId) String() string {
	return fmt.Sprintf("%x", [16]byte(r))
}

// IsZero reports whether r is the zero locator (never a valid persisted
// record; useful for tests and sentinel comparisons).
func (r RecordId) IsZero() bool {
	return r == RecordId{}
}

// Generation is a signed, monotonic-but-not-necessarily-contiguous label
// attached to every record written during a compaction epoch.
type Generation int64

// StableId is the node cache's key: a content-independent logical
// identifier for a node, opaque to this subsystem. Represented as a fixed
// byte string so it can be hashed without reflection.
type StableId [16]byte

// Template is the template cache's key: a structural template value.
// Equality and hashing both reduce to plain struct comparison because Go's
// comparable constraint already gives RecordMap[Template] correct `==`
// semantics; Shape captures the structural fingerprint and ChildArity the
// number of child slots, which together stand in for "same template".
type Template struct {
	Shape      string
	ChildArity uint16
}

// OperationKind names the caller's intent. It affects only the name under
// which telemetry is reported; get/put behavior is identical for both
// kinds.
type OperationKind uint8

const (
	// OpWrite names a cache access made on the writer's normal record path.
	OpWrite OperationKind = iota
	// OpCompact names a cache access made while compaction is deduplicating.
	OpCompact
)

// String renders the operation kind using the exact tokens §6's telemetry
// contract names the counters with ("write" / "compact").
func (o OperationKind) String() string {
	switch o {
	case OpWrite:
		return "write"
	case OpCompact:
		return "compact"
	default:
		return "unknown"
	}
}
