package risk

import "sync/atomic"

// RateLimiter admits at most maxPerSecond passes within any aligned
// one-second window, identified by wall-clock Unix seconds. Grounded in
// the teacher's token-bucket shape (exchange/ratelimit.go) but
// simplified to the spec's non-blocking counter-and-CAS discipline: a
// blocking token bucket belongs to the outbound venue transport
// (internal/venue), not the synchronous pre-trade gate, which must
// never suspend.
//
// The second boundary is advanced with a CAS against the current
// window's second counter, but the per-call increment that follows is
// unconditional. A burst of callers can therefore straddle a reset: one
// goroutine CASes the window forward while others still hold the stale
// second and increment the new window's counter before seeing the
// advance. This is documented, not fixed — the spec keeps this behavior
// and calls it "approximate" rate limiting.
type RateLimiter struct {
	maxPerSecond int64
	second       atomic.Int64 // current window, as Unix seconds
	count        atomic.Int64 // passes admitted in the current window
}

// NewRateLimiter constructs a limiter admitting maxPerSecond passes per
// aligned one-second window.
func NewRateLimiter(maxPerSecond int64) *RateLimiter {
	return &RateLimiter{maxPerSecond: maxPerSecond}
}

// Allow reports whether a pass is admitted in the window containing
// nowUnixSec, incrementing the window's counter as a side effect.
func (rl *RateLimiter) Allow(nowUnixSec int64) bool {
	cur := rl.second.Load()
	if nowUnixSec != cur {
		if rl.second.CompareAndSwap(cur, nowUnixSec) {
			rl.count.Store(0)
		}
	}
	if rl.count.Add(1) > rl.maxPerSecond {
		return false
	}
	return true
}
