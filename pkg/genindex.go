package dedupcache

// genindex.go implements GenerationIndex[V] (§4.3): a concurrent mapping
// from generation to a lazily materialized, at-most-once-constructed V.
//
// The exactly-once guarantee follows §9's design notes in splitting storage
// from construction: a concurrent map (sync.Map) only holds the
// materialized values, with the actual "run the factory once" semantics
// delegated to a separate mechanism rather than baked into the map itself
// (the map is read with Load and written with Store; no put-if-absent is
// used). Here that
// mechanism is golang.org/x/sync/singleflight, redirected from
// pkg/loader.go's original job (collapsing concurrent *loads* of the same
// missing cache key) to collapsing concurrent *constructions* of the same
// generation's value — the same "first caller runs it, the rest share the
// result" idiom, applied one layer up the stack.
//
// © 2025 dedupcache authors. MIT License.

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// GenerationIndex is a concurrent map from Generation to a lazily
// constructed V. factory is invoked at most once per generation even under
// concurrent callers (§8 property 3); Retire removes entries in bulk so a
// later GetOrCreate for the same generation re-invokes the factory (§8
// property 4).
type GenerationIndex[V any] struct {
	m       sync.Map // Generation -> V
	group   singleflight.Group
	factory func() V
}

// NewGenerationIndex constructs an index whose entries are built by
// factory on first request. factory runs at most once per generation, but
// first requests for distinct generations may run it concurrently, so it
// must be safe to call from several goroutines at once.
func NewGenerationIndex[V any](factory func() V) *GenerationIndex[V] {
	return &GenerationIndex[V]{factory: factory}
}

// GetOrCreate returns the materialized value for g, building it via factory
// if this is the first request for g. Concurrent callers for the same g
// observe the same instance and the factory runs exactly once.
func (idx *GenerationIndex[V]) GetOrCreate(g Generation) V {
	if v, ok := idx.m.Load(g); ok {
		return v.(V)
	}

	key := strconv.FormatInt(int64(g), 10)
	res, _, _ := idx.group.Do(key, func() (any, error) {
		// Re-check under the singleflight key: another caller may have
		// raced us to the fast path above and already installed the
		// value between our Load and this goroutine winning the group.
		if v, ok := idx.m.Load(g); ok {
			return v, nil
		}
		v := idx.factory()
		idx.m.Store(g, v)
		return v, nil
	})
	return res.(V)
}

// Iter enumerates every currently materialized value, in unspecified order.
func (idx *GenerationIndex[V]) Iter() []V {
	out := make([]V, 0)
	idx.m.Range(func(_, v any) bool {
		out = append(out, v.(V))
		return true
	})
	return out
}

// Retire removes every entry whose generation satisfies pred. Safe to call
// concurrently with GetOrCreate and Iter (§4.3): a concurrent GetOrCreate
// for a generation being retired either completes before the delete (and
// keeps serving its existing value to anyone holding a reference, per
// §4.3's retirement-ordering note) or observes the map already emptied and
// rebuilds a fresh value.
func (idx *GenerationIndex[V]) Retire(pred func(Generation) bool) {
	idx.m.Range(func(k, _ any) bool {
		g := k.(Generation)
		if pred(g) {
			idx.m.Delete(g)
		}
		return true
	})
}
