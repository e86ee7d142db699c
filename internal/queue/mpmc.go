package queue

import (
	"sync/atomic"
)

// mpmcSlot is one ring-buffer cell. seq tracks which "lap" of the ring the
// cell currently holds: a producer may write only when seq == its own
// write position, a consumer may read only when seq == position+1. This is
// the standard Vyukov bounded MPMC queue protocol.
type mpmcSlot[T any] struct {
	seq   uint64
	value T
}

// MPMC is a bounded multi-producer/multi-consumer ring queue. Any number
// of goroutines may call Push and Pop concurrently. Capacity is rounded up
// to a power of two.
type MPMC[T any] struct {
	_ cacheLinePad

	enqueuePos uint64
	_          cacheLinePad

	dequeuePos uint64
	_          cacheLinePad

	mask  uint64
	slots []mpmcSlot[T]
}

// NewMPMC allocates an MPMC queue with capacity rounded up to the next
// power of two, minimum 2. Each slot's sequence number is initialized to
// its own index, marking it as available for the first write.
func NewMPMC[T any](capacity int) *MPMC[T] {
	n := nextPow2(capacity)
	if n < 2 {
		n = 2
	}
	q := &MPMC[T]{
		mask:  uint64(n - 1),
		slots: make([]mpmcSlot[T], n),
	}
	for i := range q.slots {
		q.slots[i].seq = uint64(i)
	}
	return q
}

// Push attempts to enqueue v, returning false immediately if the queue is
// full. Safe for concurrent use by any number of producers.
func (q *MPMC[T]) Push(v T) bool {
	pos := atomic.LoadUint64(&q.enqueuePos)
	for {
		slot := &q.slots[pos&q.mask]
		seq := atomic.LoadUint64(&slot.seq)
		diff := int64(seq) - int64(pos)

		switch {
		case diff == 0:
			// Slot is free for this lap. Claim it with a CAS; retry on
			// contention with a freshly observed enqueuePos (relaxed
			// retry, per spec — no backoff beyond the CAS loop itself).
			if atomic.CompareAndSwapUint64(&q.enqueuePos, pos, pos+1) {
				slot.value = v
				atomic.StoreUint64(&slot.seq, pos+1) // release: publish value
				return true
			}
			pos = atomic.LoadUint64(&q.enqueuePos)
		case diff < 0:
			// Slot still holds an unread value from the previous lap:
			// queue is full.
			return false
		default:
			pos = atomic.LoadUint64(&q.enqueuePos)
		}
	}
}

// Pop attempts to dequeue the oldest element, returning (zero, false)
// immediately if the queue is empty. Safe for concurrent use by any
// number of consumers.
func (q *MPMC[T]) Pop() (T, bool) {
	pos := atomic.LoadUint64(&q.dequeuePos)
	var zero T
	for {
		slot := &q.slots[pos&q.mask]
		seq := atomic.LoadUint64(&slot.seq) // acquire: pairs with Push's release
		diff := int64(seq) - int64(pos+1)

		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&q.dequeuePos, pos, pos+1) {
				v := slot.value
				slot.value = zero
				atomic.StoreUint64(&slot.seq, pos+q.mask+1) // mark free for next lap
				return v, true
			}
			pos = atomic.LoadUint64(&q.dequeuePos)
		case diff < 0:
			return zero, false
		default:
			pos = atomic.LoadUint64(&q.dequeuePos)
		}
	}
}

// Len returns a racy snapshot of the queue depth, for metrics only.
func (q *MPMC[T]) Len() int {
	enq := atomic.LoadUint64(&q.enqueuePos)
	deq := atomic.LoadUint64(&q.dequeuePos)
	if enq < deq {
		return 0
	}
	return int(enq - deq)
}

// Cap returns the queue's fixed capacity.
func (q *MPMC[T]) Cap() int {
	return len(q.slots)
}
