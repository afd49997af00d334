package numdb

import "sync/atomic"

// Counter is the event-counting capability the cache front end drives on
// every Invoke: one retrieve per call, one user-function invocation per
// miss. spec.md §6 enumerates three concrete implementations below.
type Counter interface {
	Retrieve()
	Miss()
	Retrievals() uint64
	UserFuncInvocations() uint64
	CacheEfficiency() float64
}

// EmptyCounter discards every event; use it when the bookkeeping itself
// isn't worth the (tiny) overhead.
type EmptyCounter struct{}

func (EmptyCounter) Retrieve()                    {}
func (EmptyCounter) Miss()                        {}
func (EmptyCounter) Retrievals() uint64            { return 0 }
func (EmptyCounter) UserFuncInvocations() uint64   { return 0 }
func (EmptyCounter) CacheEfficiency() float64      { return 0 }

// BasicCounter is a plain, non-atomic counter for single-threaded cache use
// (wrapped in CoarseLock/Sharded, its own fields never need their own
// synchronization since the wrapper already serializes access).
type BasicCounter struct {
	retrievals uint64
	misses     uint64
}

func (c *BasicCounter) Retrieve() { c.retrievals++ }
func (c *BasicCounter) Miss()     { c.misses++ }

func (c *BasicCounter) Retrievals() uint64 { return c.retrievals }

func (c *BasicCounter) UserFuncInvocations() uint64 { return c.misses }

// CacheEfficiency returns 1 - misses/retrievals, or 0 before any retrieval.
func (c *BasicCounter) CacheEfficiency() float64 {
	if c.retrievals == 0 {
		return 0
	}
	return 1 - float64(c.misses)/float64(c.retrievals)
}

// AtomicCounter is safe to share across goroutines without an external
// lock, for use with CNDC or any cache invoked from multiple goroutines
// without a coarse/sharded wrapper.
type AtomicCounter struct {
	retrievals atomic.Uint64
	misses     atomic.Uint64
}

func (c *AtomicCounter) Retrieve() { c.retrievals.Add(1) }
func (c *AtomicCounter) Miss()     { c.misses.Add(1) }

func (c *AtomicCounter) Retrievals() uint64 { return c.retrievals.Load() }

func (c *AtomicCounter) UserFuncInvocations() uint64 { return c.misses.Load() }

func (c *AtomicCounter) CacheEfficiency() float64 {
	r := c.retrievals.Load()
	if r == 0 {
		return 0
	}
	return 1 - float64(c.misses.Load())/float64(r)
}
