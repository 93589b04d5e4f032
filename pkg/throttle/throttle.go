// Package throttle implements token-bucket bandwidth limiting for the
// concurrency engine's read and write workers.
package throttle

import (
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a byte-budget token bucket. Consume never blocks: it reports
// how long the caller should wait before proceeding, leaving the sleep to
// the worker goroutine rather than the submitting one.
type Limiter struct {
	limiter *rate.Limiter
}

// maxBurst bounds the bucket's token capacity, not its refill rate: it
// must exceed the largest single payload ever passed to Consume, or
// ReserveN rejects the reservation outright instead of imposing a delay.
const maxBurst = 1 << 30 // 1 GiB

// New builds a Limiter with the given rate in bytes/sec. A rate of zero
// disables throttling: Consume always returns zero delay.
func New(bytesPerSecond int) *Limiter {
	if bytesPerSecond <= 0 {
		return &Limiter{}
	}
	lim := rate.NewLimiter(rate.Limit(bytesPerSecond), maxBurst)
	// A new rate.Limiter starts with a full bucket. Reserve all but one
	// second's worth of tokens so throttling applies from the first Consume
	// rather than only after maxBurst bytes have passed undelayed.
	if bytesPerSecond < maxBurst {
		lim.ReserveN(time.Now(), maxBurst-bytesPerSecond)
	}
	return &Limiter{limiter: lim}
}

// Consume reports the delay the caller should wait before moving n bytes.
// It reserves the tokens immediately (so concurrent callers do not
// oversubscribe the bucket) but never sleeps itself.
func (l *Limiter) Consume(n int) time.Duration {
	if l == nil || l.limiter == nil || n <= 0 {
		return 0
	}
	return l.limiter.ReserveN(time.Now(), n).Delay()
}
