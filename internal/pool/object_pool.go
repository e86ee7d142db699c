package pool

import (
	"sync/atomic"
)

// ObjectPool wraps a memory pool and hands out owning Handle[T] values
// that guarantee exactly-once return to the pool. It generalizes the
// channel-backed ObjectPool idiom (reset-on-return, cumulative stats) to
// the lock-free MPMC free list required for a hot path shared by many
// producer/consumer goroutines at once.
type ObjectPool[T any] struct {
	backing   *P[T]
	resetFn   func(*T)
	destroyed atomic.Bool

	stats Stats
}

// Stats are cumulative counters exposed for dashboards/metrics.
type Stats struct {
	Allocated   int64
	Returned    int64
	DoubleFree  int64
	AfterDeath  int64
	Exhaustions int64
}

// NewObjectPool constructs an ObjectPool of capacity n. resetFn, if
// non-nil, is invoked on a value immediately before the slot is handed
// back out by Acquire, so a reused object never leaks the previous
// owner's state.
func NewObjectPool[T any](n int, resetFn func(*T)) *ObjectPool[T] {
	return &ObjectPool[T]{
		backing: New[T](n),
		resetFn: resetFn,
	}
}

// Handle is an owning reference to a pooled value. Exactly one call to
// Release per successful Acquire is expected; a second call is a no-op
// recorded as a double-free in Stats rather than corrupting the free
// list. Release after the owning pool has been destroyed is also a
// recorded no-op rather than a panic, so shutdown races in caller code
// cannot crash the process.
type Handle[T any] struct {
	pool     *ObjectPool[T]
	idx      int
	released atomic.Bool
}

// Acquire obtains a Handle, or (nil, false) if the pool is exhausted.
func (op *ObjectPool[T]) Acquire() (*Handle[T], bool) {
	idx, ok := op.backing.Allocate()
	if !ok {
		atomic.AddInt64(&op.stats.Exhaustions, 1)
		return nil, false
	}
	if op.resetFn != nil {
		op.resetFn(op.backing.Get(idx))
	}
	atomic.AddInt64(&op.stats.Allocated, 1)
	return &Handle[T]{pool: op, idx: idx}, true
}

// Value returns a pointer to the handle's underlying value. Calling this
// after Release is undefined; callers must not retain the pointer past
// Release.
func (h *Handle[T]) Value() *T {
	return h.pool.backing.Get(h.idx)
}

// Release returns the handle's slot to the pool. Safe to call more than
// once or from a deferred scope-exit: only the first call has any
// effect, and every call after the pool is destroyed is a tracked no-op.
func (h *Handle[T]) Release() {
	if h.pool.destroyed.Load() {
		atomic.AddInt64(&h.pool.stats.AfterDeath, 1)
		return
	}
	if !h.released.CompareAndSwap(false, true) {
		atomic.AddInt64(&h.pool.stats.DoubleFree, 1)
		return
	}
	h.pool.backing.Deallocate(h.idx)
	atomic.AddInt64(&h.pool.stats.Returned, 1)
}

// Destroy marks the pool destroyed: every Release on an outstanding
// handle after this point becomes a tracked no-op instead of touching the
// free list, satisfying the "no return after destroy" invariant.
func (op *ObjectPool[T]) Destroy() {
	op.destroyed.Store(true)
}

// Snapshot returns a snapshot of the pool's cumulative counters.
func (op *ObjectPool[T]) Snapshot() Stats {
	return Stats{
		Allocated:   atomic.LoadInt64(&op.stats.Allocated),
		Returned:    atomic.LoadInt64(&op.stats.Returned),
		DoubleFree:  atomic.LoadInt64(&op.stats.DoubleFree),
		AfterDeath:  atomic.LoadInt64(&op.stats.AfterDeath),
		Exhaustions: atomic.LoadInt64(&op.stats.Exhaustions),
	}
}

// Outstanding returns the number of handles currently acquired but not
// yet released.
func (op *ObjectPool[T]) Outstanding() int {
	return op.backing.Outstanding()
}

// Cap returns the pool's fixed capacity.
func (op *ObjectPool[T]) Cap() int {
	return op.backing.Cap()
}
