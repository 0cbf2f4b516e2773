// Package dedupcache implements the deduplication cache manager that sits in
// front of a segment-based content store's writer. When the writer
// serializes nodes, templates, and strings into immutable storage segments,
// the manager answers whether a record with the same logical identity has
// already been persisted in the current generation: a hit returns the
// existing record locator and avoids a duplicate write, a miss forces the
// writer to allocate a new one.
//
// The package is organised around three leaf data structures and a façade:
//
//   - RecordMap – a bounded, per-generation LRU map used for strings and
//     templates.
//   - PriorityTable – a single fixed-capacity, cost-weighted table shared
//     across generations, used for nodes.
//   - GenerationIndex – a concurrent, lazily-populated map from generation
//     to a per-generation value, used to host RecordMap instances
//     on-demand with at-most-once construction.
//   - CacheManager – the façade the writer talks to; it hands out
//     AccessTracker-wrapped handles scoped to (generation, operation).
//
// Generations are retired in bulk via CacheManager.Retire when compaction
// reclaims older storage; the manager never persists state across process
// restarts and never shares state across processes.
//
// © 2025 dedupcache authors. MIT License.
package dedupcache
