// Package queue implements the engine's bounded lock-free ring queues: a
// single-producer/single-consumer queue and a multi-producer/multi-consumer
// queue. internal/pipeline uses SPSC queues for every hand-off (per-venue
// tick and exec queues and the strategy->order intent queue); the MPMC
// queue is for paths with several producers or consumers.
// Both are built directly on sync/atomic rather than a channel, because the
// spec requires non-blocking Push/Pop with a definite "full"/"empty" result
// instead of goroutine parking.
package queue

import (
	"sync/atomic"
)

// cacheLinePad is sized to push independently-updated fields (the
// producer's head, the consumer's tail) onto separate cache lines so that
// a line bounced by one side never stalls the other.
type cacheLinePad [64]byte

// SPSC is a bounded single-producer/single-consumer ring buffer. Capacity
// must be a power of two; NewSPSC rounds up if it isn't. Exactly one
// goroutine may call Push, and exactly one (possibly different) goroutine
// may call Pop — concurrent calls from more than one producer or consumer
// are undefined, by design: the absence of CAS retries on this path is
// what gives it its speed.
type SPSC[T any] struct {
	_ cacheLinePad

	head uint64 // producer-owned write cursor
	_    cacheLinePad

	tail uint64 // consumer-owned read cursor
	_    cacheLinePad

	mask uint64
	buf  []T
}

// NewSPSC allocates an SPSC queue with capacity rounded up to the next
// power of two, minimum 2.
func NewSPSC[T any](capacity int) *SPSC[T] {
	n := nextPow2(capacity)
	if n < 2 {
		n = 2
	}
	return &SPSC[T]{
		mask: uint64(n - 1),
		buf:  make([]T, n),
	}
}

// Push attempts to enqueue v. It returns false immediately if the queue is
// full — it never blocks.
func (q *SPSC[T]) Push(v T) bool {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	if head-tail >= uint64(len(q.buf)) {
		return false
	}
	q.buf[head&q.mask] = v
	atomic.StoreUint64(&q.head, head+1) // release: publish the slot write
	return true
}

// Pop attempts to dequeue the oldest element. It returns (zero, false)
// immediately if the queue is empty.
func (q *SPSC[T]) Pop() (T, bool) {
	tail := atomic.LoadUint64(&q.tail)
	head := atomic.LoadUint64(&q.head) // acquire: pairs with Push's release
	var zero T
	if tail == head {
		return zero, false
	}
	v := q.buf[tail&q.mask]
	q.buf[tail&q.mask] = zero
	atomic.StoreUint64(&q.tail, tail+1)
	return v, true
}

// Len returns a snapshot of the queue depth. Racy by construction — only
// useful for metrics, not for correctness decisions.
func (q *SPSC[T]) Len() int {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	return int(head - tail)
}

// Cap returns the queue's fixed capacity.
func (q *SPSC[T]) Cap() int {
	return len(q.buf)
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
