// Package backoff implements the tiny exponential backoff CNDC uses while
// retrying contended try-locks during heap sift-up.
package backoff

import "runtime"

// Default bounds, matching the source's "initial 10 spins, factor 2, cap
// 8000" (numdb/utils.h ExpBackoff).
const (
	initialSpins = 10
	factor       = 2
	capSpins     = 8000
)

// Backoff tracks the current spin count across repeated contention on the
// same call site. A zero value is ready to use.
type Backoff struct {
	spins int
}

// Spin burns the current number of Gosched rounds, then grows the count.
// Backoff is present for correctness under high contention: without it the
// sift-up retry loop in CNDC can livelock against concurrent evictions.
func (b *Backoff) Spin() {
	if b.spins == 0 {
		b.spins = initialSpins
	}
	for i := 0; i < b.spins; i++ {
		runtime.Gosched()
	}
	b.spins *= factor
	if b.spins > capSpins {
		b.spins = capSpins
	}
}

// Disabled reports a backoff that never sleeps, used when the CNDC
// constructor is built with UseBackoff=false — the algorithm then spins
// without yielding, as spec'd.
type Disabled struct{}

// Spin is a no-op.
func (Disabled) Spin() {}

// Spinner is satisfied by both Backoff and Disabled.
type Spinner interface {
	Spin()
}
