package log

import (
	"sync"
	"time"
)

// Ratelimiter throttles a repeated warning to at most one emission per
// interval, with the number suppressed since the last emission folded
// into the next line. It mirrors the kernel's net_ratelimit(), used in
// the original datapath to guard the FIFO-overflow and loop-detect
// warnings (both of which can otherwise be driven at line rate by a
// single adversarial flow).
type Ratelimiter struct {
	Interval time.Duration

	mtx        sync.Mutex
	last       time.Time
	suppressed uint64
}

// NewRatelimiter returns a limiter that allows one emission per interval.
func NewRatelimiter(interval time.Duration) *Ratelimiter {
	return &Ratelimiter{Interval: interval}
}

// Allow reports whether the caller should emit now, and if not, bumps the
// suppressed count so it can be folded into the next allowed emission.
func (r *Ratelimiter) Allow() (ok bool, suppressed uint64) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	now := time.Now()
	if !r.last.IsZero() && now.Sub(r.last) < r.Interval {
		r.suppressed++
		return false, 0
	}
	suppressed = r.suppressed
	r.suppressed = 0
	r.last = now
	return true, suppressed
}

// Warnf emits a rate-limited WARN line through l, folding in a count of
// how many prior calls were suppressed since the last one that printed.
func (r *Ratelimiter) Warnf(l *Logger, f string, args ...interface{}) {
	ok, suppressed := r.Allow()
	if !ok {
		return
	}
	if suppressed > 0 {
		l.Warnf(f+" (%d suppressed)", append(args, suppressed)...)
		return
	}
	l.Warnf(f, args...)
}
