package numdb

// Result replaces the source's std::experimental::optional<V> with an
// explicit two-variant sum type, per spec.md §9 ("optional<V> return values
// -> a sum type with two variants (Present(V), Absent)").
type Result[V any] struct {
	value   V
	present bool
}

// Found builds a present Result holding v.
func Found[V any](v V) Result[V] { return Result[V]{value: v, present: true} }

// Absent builds an absent Result.
func Absent[V any]() Result[V] { return Result[V]{} }

// Get returns the held value and whether it was present, mirroring the
// comma-ok idiom so callers rarely need to branch on Present directly.
func (r Result[V]) Get() (V, bool) { return r.value, r.present }

// Present reports whether the result holds a value.
func (r Result[V]) Present() bool { return r.present }

// Container is the capability set spec.md §9 asks the cache front end to be
// polymorphic over: {find, insert, erase, capacity, size, element_size}.
// Every container below — hashtable.Priority, hashtable.LeastUsed,
// splay.Tree, wst.Tree, cndc.Table — implements it, and Cache is generic
// over C Container[K, V] rather than dispatching through an interface on
// the hot path (spec.md §9: "static polymorphism for performance").
type Container[K comparable, V any] interface {
	Find(key K) Result[V]
	Insert(key K, value V, priority uint64) bool
	Erase(key K) bool
	Capacity() int
	Size() int
	ElementSize() int
}

// DummyContainer never caches anything; it is the trivial no-op baseline
// enumerated among the external interfaces in spec.md §6, though its
// behavior is intentionally out of scope as a collaborator (nothing to get
// wrong: every operation is a one-liner).
type DummyContainer[K comparable, V any] struct{}

// NewDummyContainer builds a container that always misses and never
// stores anything, regardless of the memory budget given.
func NewDummyContainer[K comparable, V any](_ int) *DummyContainer[K, V] {
	return &DummyContainer[K, V]{}
}

func (*DummyContainer[K, V]) Find(K) Result[V]                  { return Absent[V]() }
func (*DummyContainer[K, V]) Insert(K, V, uint64) bool          { return false }
func (*DummyContainer[K, V]) Erase(K) bool                      { return false }
func (*DummyContainer[K, V]) Capacity() int                     { return 0 }
func (*DummyContainer[K, V]) Size() int                         { return 0 }
func (*DummyContainer[K, V]) ElementSize() int                  { return 0 }
