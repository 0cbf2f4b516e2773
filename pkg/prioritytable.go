package dedupcache

// prioritytable.go implements PriorityTable[K] (§4.2): the shared,
// cost-weighted node cache. A single flat array of fixed capacity holds
// slots keyed by (K, generation); lookups and inserts use bounded open
// addressing, the entry's priority ages by saturating increment on hit and
// decides admission on insert.
//
// The probing/slot layout is grounded on
// capacitor/pkg/cache/memory/custom_map.go's open-addressed bucket array
// (linear probing, inline slot struct, no per-entry heap allocation); the
// priority/aging vocabulary — a cost-seeded, saturating, single-byte score
// that governs admission under contention — is grounded on
// internal/clockpro/clockpro.go's cold/hot/ref-bit state byte, redirected
// from a doubly-linked CLOCK ring onto a flat array since this table's
// contract requires a fixed memory footprint known at construction (§4.2),
// which a linked list cannot give without also bounding node count
// out-of-band.
//
// Concurrency: a single coarse mutex guards the whole table. §4.2 accepts
// this explicitly ("a single coarse lock... satisfies the contract") since
// the only hard requirement is that retire never produces a torn read for a
// concurrent get/put.
//
// © 2025 dedupcache authors. MIT License.

import "sync"

const evictionBuckets = 4

// PutOutcome reports what Put actually did, so a caller that wants to log
// or count silent drops (§7) can do so without PriorityTable itself taking a
// logging dependency.
type PutOutcome uint8

const (
	PutInserted PutOutcome = iota // occupied a previously empty slot
	PutUpdated                    // refreshed an existing (k, g) entry in place
	PutEvicted                    // displaced a lower-priority entry
	PutDropped                    // every slot in the probe window outranked cost; no-op
)

// slot is one entry of the priority table's backing array. All fields are
// inline; no heap allocation per entry beyond K and RecordId's own storage.
type slot[K comparable] struct {
	used     bool
	key      K
	gen      Generation
	value    RecordId
	cost     uint8
	priority uint8
}

// PriorityTable is a fixed-capacity, power-of-two-sized, open-addressed
// table mapping (K, Generation) to RecordId with cost-weighted,
// saturating-priority eviction.
type PriorityTable[K comparable] struct {
	mu    sync.Mutex
	slots []slot[K]
	mask  uint64
	probe int
	hash  func(K, Generation) uint64

	hits      uint64
	misses    uint64
	loads     uint64
	evictions [evictionBuckets]uint64
}

// NewPriorityTable constructs a table with `size` slots (must be a positive
// power of two) and a bounded probe window of `probe` slots (1 <= probe <=
// size). hashFn derives the table index for a given (key, generation) pair;
// it must be cheap and deterministic. Panics on invalid size/probe, mirroring
// genring.New's precondition-panic style — CacheManager.New validates these
// values itself and never reaches the panic path from public API misuse.
func NewPriorityTable[K comparable](size int, probe int, hashFn func(K, Generation) uint64) *PriorityTable[K] {
	if size <= 0 || size&(size-1) != 0 {
		panic("dedupcache: node cache size must be a positive power of two")
	}
	if probe <= 0 || probe > size {
		panic("dedupcache: probe window must be > 0 and <= node cache size")
	}
	if hashFn == nil {
		panic("dedupcache: hash function must not be nil")
	}
	return &PriorityTable[K]{
		slots: make([]slot[K], size),
		mask:  uint64(size - 1),
		probe: probe,
		hash:  hashFn,
	}
}

// Put inserts (k, g) -> v with admission weight cost. It occupies the first
// empty slot in the probe window; failing that, it replaces the
// lowest-priority slot in the window if that priority is strictly less than
// cost, otherwise the insert is silently dropped (§4.2, §7).
func (t *PriorityTable[K]) Put(k K, g Generation, v RecordId, cost uint8) PutOutcome {
	start := t.hash(k, g) & t.mask

	t.mu.Lock()
	defer t.mu.Unlock()

	t.loads++

	lowestIdx := -1
	var lowestPriority uint8 = 255

	for i := 0; i < t.probe; i++ {
		idx := (start + uint64(i)) & t.mask
		s := &t.slots[idx]

		if !s.used {
			*s = slot[K]{used: true, key: k, gen: g, value: v, cost: cost, priority: cost}
			return PutInserted
		}
		if s.key == k && s.gen == g {
			// Existing entry for the same identity: refresh in place.
			s.value = v
			s.cost = cost
			if cost > s.priority {
				s.priority = cost
			}
			return PutUpdated
		}
		if s.priority < lowestPriority {
			lowestPriority = s.priority
			lowestIdx = int(idx)
		}
	}

	if lowestIdx == -1 || lowestPriority >= cost {
		return PutDropped // every slot in the window outranks the newcomer
	}

	victim := &t.slots[lowestIdx]
	t.evictions[evictionBucket(victim.priority)]++
	*victim = slot[K]{used: true, key: k, gen: g, value: v, cost: cost, priority: cost}
	return PutEvicted
}

// Get looks up (k, g), incrementing the matched slot's priority (saturating
// at 255) on a hit.
func (t *PriorityTable[K]) Get(k K, g Generation) (RecordId, bool) {
	start := t.hash(k, g) & t.mask

	t.mu.Lock()
	defer t.mu.Unlock()

	for i := 0; i < t.probe; i++ {
		idx := (start + uint64(i)) & t.mask
		s := &t.slots[idx]
		if !s.used {
			continue
		}
		if s.key == k && s.gen == g {
			if s.priority < 255 {
				s.priority++
			}
			t.hits++
			return s.value, true
		}
	}
	t.misses++
	return RecordId{}, false
}

// Retire clears every occupied slot whose generation satisfies pred. No
// compaction or rehashing is performed; cleared slots simply become
// available for future Put calls.
func (t *PriorityTable[K]) Retire(pred func(Generation) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.slots {
		s := &t.slots[i]
		if s.used && pred(s.gen) {
			*s = slot[K]{}
		}
	}
}

// Stats returns a point-in-time snapshot: occupancy and summed cost as
// size/weight, plus the incrementally-maintained counters.
func (t *PriorityTable[K]) Stats() RawStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var occupied, weight uint64
	for i := range t.slots {
		if t.slots[i].used {
			occupied++
			weight += uint64(t.slots[i].cost)
		}
	}

	var evictions uint64
	for _, v := range t.evictions {
		evictions += v
	}

	return RawStats{
		Hits:      t.hits,
		Misses:    t.misses,
		Loads:     t.loads,
		Size:      occupied,
		Weight:    weight,
		Evictions: evictions,
	}
}

// Capacity returns the fixed slot count the table was constructed with.
func (t *PriorityTable[K]) Capacity() int {
	return len(t.slots)
}

// occupancyByPriorityBucket scans the table once and buckets occupied slots
// by priority range, for CacheManager.NodeOccupancy's human-readable
// summary.
func (t *PriorityTable[K]) occupancyByPriorityBucket() [evictionBuckets]uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var buckets [evictionBuckets]uint64
	for i := range t.slots {
		if t.slots[i].used {
			buckets[evictionBucket(t.slots[i].priority)]++
		}
	}
	return buckets
}

func evictionBucket(priority uint8) int {
	return int(priority) >> 6 // 4 buckets of 64 priority values each
}
