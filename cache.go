package numdb

import "time"

// Func is the user-supplied, pure and deterministic function a Cache
// memoizes. Argument-tuple reflection/deduction is explicitly out of scope
// (spec.md §1): callers build their own key type and a Func that closes
// over whatever the key doesn't carry.
type Func[K comparable, V any] func(K) (V, error)

// priorityGenerator is satisfied by both Generator and MinMaxGenerator; the
// cache depends on this narrow capability rather than either concrete type.
type priorityGenerator interface {
	Calculate(durationMicros uint64) uint64
}

// Cache is the front end of spec.md §4.8: it owns the user function, a
// container implementing the replacement policy, an event counter, and an
// initial-priority generator, and dispatches miss -> evict (if full) ->
// recompute -> insert.
//
// Cache is generic over the concrete container type C rather than the
// Container interface so that Find/Insert calls on the hot path devirtualize
// (spec.md §9: "static polymorphism for performance" in place of the
// source's CRTP-and-type-holder machinery).
type Cache[K comparable, V any, C Container[K, V]] struct {
	f         Func[K, V]
	container C
	counter   Counter
	gen       priorityGenerator
}

// New builds a cache around an already-constructed container. Use one of
// the container packages' constructors (hashtable.NewPriority,
// splay.NewBottomNode, wst.New, cndc.New, ...) to turn a memory budget into
// a concrete C value first.
func New[K comparable, V any, C Container[K, V]](f Func[K, V], container C, opts ...Option[K, V, C]) *Cache[K, V, C] {
	c := &Cache[K, V, C]{
		f:         f,
		container: container,
		counter:   EmptyCounter{},
		gen:       NewGenerator(DefaultMaxPriority),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke returns the memoized value for key, computing it with f on a miss.
// It fails only if f itself fails, in which case the error is wrapped in a
// *UserFunctionError and no entry is inserted — find/insert themselves are
// total operations (spec.md §7).
func (c *Cache[K, V, C]) Invoke(key K) (V, error) {
	c.counter.Retrieve()

	if res := c.container.Find(key); res.Present() {
		v, _ := res.Get()
		return v, nil
	}

	c.counter.Miss()

	start := time.Now()
	var (
		result V
		ferr   error
	)
	// The timing/priority finalizer runs on every exit path, including a
	// failing user function, per spec.md §4.8 and §9 ("RAII scope guard").
	// Insertion itself is skipped on failure: propagation is never
	// suppressed by the guard.
	defer func() {
		micros := uint64(time.Since(start).Microseconds())
		priority := c.gen.Calculate(micros)
		if ferr == nil {
			c.container.Insert(key, result, priority)
		}
	}()

	result, ferr = c.f(key)
	if ferr != nil {
		var zero V
		return zero, &UserFunctionError{Err: ferr}
	}
	return result, nil
}

// Capacity returns the container's maximum element count.
func (c *Cache[K, V, C]) Capacity() int { return c.container.Capacity() }

// Size returns the container's current element count.
func (c *Cache[K, V, C]) Size() int { return c.container.Size() }

// ElementSize returns the per-element memory overhead the container reports.
func (c *Cache[K, V, C]) ElementSize() int { return c.container.ElementSize() }

// EventCounter returns the counter driven by every Invoke.
func (c *Cache[K, V, C]) EventCounter() Counter { return c.counter }
