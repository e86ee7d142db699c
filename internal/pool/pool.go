// Package pool implements the engine's fixed-capacity allocators: a
// lock-free MPMC memory pool backed by a contiguous array, an object pool
// that hands out scoped owning handles, and a bump allocator for
// frame-scoped scratch memory. None of the three ever grows past its
// configured capacity. The memory pool and the bump allocator do not
// touch the heap after construction; ObjectPool.Acquire allocates the
// small Handle it returns.
package pool

import (
	"fmt"
	"sync/atomic"
)

// freeNode is one entry of the pool's lock-free singly-linked free list.
// next holds the index of the next free slot in its low 32 bits, packed in
// the same layout as the pool's head (its generation half is always 0).
// The generation tag that keeps a CAS on the packed head from being fooled
// by an ABA cycle through the same index lives in head's high 32 bits.
type freeNode struct {
	next uint64 // packed: 0<<32 | index, or nilIndex for "nil"
}

const nilIndex = 0xFFFFFFFF

func pack(gen uint32, idx uint32) uint64 {
	return uint64(gen)<<32 | uint64(idx)
}

func unpack(v uint64) (gen uint32, idx uint32) {
	return uint32(v >> 32), uint32(v)
}

// P is a fixed-capacity memory pool of N slots holding values of type T.
// Allocate/Deallocate are MPMC-safe: any number of goroutines may call
// either concurrently. The free list is a lock-free singly-linked stack
// addressed by slot index rather than pointer, so it works uniformly for
// any T without unsafe pointer arithmetic.
type P[T any] struct {
	slots     []T
	free      []freeNode
	head      uint64 // packed generation|index of the free-list head
	outCount  int64  // currently outstanding allocations, for property tests
	exhausted int64  // cumulative count of failed allocations, for metrics
}

// New constructs a memory pool with capacity n. n must be > 0.
func New[T any](n int) *P[T] {
	if n <= 0 {
		panic("pool: capacity must be positive")
	}
	p := &P[T]{
		slots: make([]T, n),
		free:  make([]freeNode, n),
	}
	for i := 0; i < n; i++ {
		if i == n-1 {
			p.free[i].next = pack(0, nilIndex)
		} else {
			p.free[i].next = pack(0, uint32(i+1))
		}
	}
	p.head = pack(0, 0)
	return p
}

// Allocate pops a slot off the free list, returning its index and true, or
// (0, false) if the pool is exhausted. Safe for concurrent use by any
// number of goroutines.
func (p *P[T]) Allocate() (int, bool) {
	for {
		head := atomic.LoadUint64(&p.head)
		gen, idx := unpack(head)
		if idx == nilIndex {
			atomic.AddInt64(&p.exhausted, 1)
			return 0, false
		}
		next := atomic.LoadUint64(&p.free[idx].next)
		_, nextIdx := unpack(next)
		newHead := pack(gen+1, nextIdx) // bump generation: defeats ABA on CAS retry
		if atomic.CompareAndSwapUint64(&p.head, head, newHead) {
			atomic.AddInt64(&p.outCount, 1)
			return int(idx), true
		}
		// CAS lost the race: relaxed retry against a freshly observed head.
	}
}

// Deallocate returns slot idx to the free list. Double-free of the same
// index without an intervening Allocate is undefined (the object pool
// layer above this one is what enforces the no-double-return invariant).
func (p *P[T]) Deallocate(idx int) {
	var zero T
	p.slots[idx] = zero
	for {
		head := atomic.LoadUint64(&p.head)
		gen, headIdx := unpack(head)
		atomic.StoreUint64(&p.free[idx].next, pack(0, headIdx))
		newHead := pack(gen+1, uint32(idx)) // release: publishes slot content reset above
		if atomic.CompareAndSwapUint64(&p.head, head, newHead) {
			atomic.AddInt64(&p.outCount, -1)
			return
		}
	}
}

// Get returns a pointer to the value stored at idx. The caller must hold
// a live allocation of idx.
func (p *P[T]) Get(idx int) *T {
	return &p.slots[idx]
}

// Cap returns the pool's fixed capacity.
func (p *P[T]) Cap() int {
	return len(p.slots)
}

// Outstanding returns the number of currently allocated (not yet
// deallocated) slots. Exact under quiescence; racy as an instantaneous
// snapshot under concurrent Allocate/Deallocate, same caveat as any
// lock-free counter used for metrics.
func (p *P[T]) Outstanding() int {
	return int(atomic.LoadInt64(&p.outCount))
}

// Exhausted returns the cumulative count of Allocate calls that found the
// pool empty, for pool-exhaustion metrics.
func (p *P[T]) Exhausted() int64 {
	return atomic.LoadInt64(&p.exhausted)
}

// ErrPoolExhausted is the error value for an allocation from a pool with
// no free slots. Allocate itself reports exhaustion through its false
// result and does not return this value.
var ErrPoolExhausted = fmt.Errorf("pool: exhausted")
