package pool

import "sync/atomic"

// Bump is a fixed-size scratch buffer with a single atomic write cursor.
// It is intended for frame-scoped allocations (a book-rebuild pass, a
// quote-generation cycle) that are entirely reclaimed by a Reset at the
// start of the next frame rather than by individual frees.
type Bump struct {
	buf  []byte
	head uint64
	tail uint64
}

// NewBump allocates a bump buffer of size bytes.
func NewBump(size int) *Bump {
	if size <= 0 {
		panic("pool: bump size must be positive")
	}
	return &Bump{buf: make([]byte, size)}
}

// Allocate reserves n bytes aligned to align (which must be a power of
// two), returning the byte slice and true, or (nil, false) if the request
// does not fit even after wrapping to the start of the buffer. Wrapping
// is only permitted once the tail (the oldest still-referenced frame
// boundary, advanced explicitly by the caller via Release) has moved past
// the new head, matching the spec's wraparound contract for frame-scoped
// scratch memory.
func (b *Bump) Allocate(n, align int) ([]byte, bool) {
	if align <= 0 || (align&(align-1)) != 0 {
		panic("pool: align must be a power of two")
	}
	head := atomic.LoadUint64(&b.head)
	aligned := alignUp(head, uint64(align))
	end := aligned + uint64(n)

	if end <= uint64(len(b.buf)) {
		if atomic.CompareAndSwapUint64(&b.head, head, end) {
			return b.buf[aligned:end], true
		}
		return b.retry(n, align)
	}

	// Past the end of the buffer: wrap to zero only if the released tail
	// has already moved past byte n, so the wrapped region can't clobber
	// data a still-live frame is holding a slice into.
	tail := atomic.LoadUint64(&b.tail)
	wrappedEnd := uint64(n)
	if wrappedEnd > tail {
		return nil, false
	}
	if atomic.CompareAndSwapUint64(&b.head, head, wrappedEnd) {
		return b.buf[0:wrappedEnd], true
	}
	return b.retry(n, align)
}

func (b *Bump) retry(n, align int) ([]byte, bool) {
	return b.Allocate(n, align)
}

// Release advances the tail to the given byte offset, marking every byte
// before it as free for a future wraparound allocation. Scratch-memory
// callers release in the same order frames were allocated.
func (b *Bump) Release(offset int) {
	atomic.StoreUint64(&b.tail, uint64(offset))
}

// Reset returns the entire buffer to its initial empty state, reclaiming
// everything regardless of outstanding Release calls. Used at the start
// of a new scratch-memory epoch (e.g. engine restart).
func (b *Bump) Reset() {
	atomic.StoreUint64(&b.head, 0)
	atomic.StoreUint64(&b.tail, 0)
}

// Len returns the number of bytes currently allocated since the last
// Reset (not accounting for wraparound), for metrics.
func (b *Bump) Len() int {
	return int(atomic.LoadUint64(&b.head))
}

// Cap returns the buffer's fixed capacity in bytes.
func (b *Bump) Cap() int {
	return len(b.buf)
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
