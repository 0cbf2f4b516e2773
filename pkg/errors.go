package dedupcache

// errors.go collects the sentinel errors raised by dedupcache. Construction
// errors follow arena-cache's house style (pkg/config.go's errInvalidCap et
// al.): plain errors.New values, returned rather than panicked, so that a
// host can decide how to surface a bad configuration. The one runtime
// sentinel, ErrUnsupportedOperation, is documented in detail in §1.2 and §5
// of SPEC_FULL.md: it is not an error condition in the usual sense, it is an API
// contract violation signalled to callers that reach the node cache through
// a narrowed interface that doesn't statically prevent the bare Put.

import "errors"

var (
	// ErrInvalidStringCacheSize is returned by New when StringCacheSize < 0.
	ErrInvalidStringCacheSize = errors.New("dedupcache: string cache size must be >= 0")

	// ErrInvalidTemplateCacheSize is returned by New when TemplateCacheSize < 0.
	ErrInvalidTemplateCacheSize = errors.New("dedupcache: template cache size must be >= 0")

	// ErrInvalidNodeCacheSize is returned by New when NodeCacheSize is not a
	// positive power of two.
	ErrInvalidNodeCacheSize = errors.New("dedupcache: node cache size must be a positive power of two")

	// ErrInvalidProbeWindow is returned by New when the configured probe
	// window is <= 0 or larger than the node table capacity.
	ErrInvalidProbeWindow = errors.New("dedupcache: probe window must be > 0 and <= node cache size")

	// ErrUnsupportedOperation is returned when a caller invokes the bare
	// Put(k, v) form on a node-cache handle, which requires Put(k, v, cost).
	// See SPEC_FULL.md §5 for why this sentinel is retained alongside the
	// statically-narrower NodeCache interface.
	ErrUnsupportedOperation = errors.New("dedupcache: unsupported operation: node cache requires put(k, v, cost)")
)
