package numdb

// Option configures a Cache at construction time, the functional-options
// pattern generalized from Krishna8167/tempuscache's Option func(*Cache)
// for a cache that is itself generic over key, value, and container type.
type Option[K comparable, V any, C Container[K, V]] func(*Cache[K, V, C])

// WithCounter installs counter in place of the default EmptyCounter.
func WithCounter[K comparable, V any, C Container[K, V]](counter Counter) Option[K, V, C] {
	return func(c *Cache[K, V, C]) {
		c.counter = counter
	}
}

// WithGenerator installs gen in place of the default ratio-based Generator,
// e.g. to swap in a MinMaxGenerator wrapped behind the caller's own locking.
func WithGenerator[K comparable, V any, C Container[K, V]](gen priorityGenerator) Option[K, V, C] {
	return func(c *Cache[K, V, C]) {
		c.gen = gen
	}
}

// WithMaxPriority rebuilds the default generator with a non-default
// maxPriority bound.
func WithMaxPriority[K comparable, V any, C Container[K, V]](maxPriority uint64) Option[K, V, C] {
	return func(c *Cache[K, V, C]) {
		c.gen = NewGenerator(maxPriority)
	}
}
