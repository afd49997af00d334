package hashtable

import (
	"unsafe"

	"github.com/go-numdb/numdb"
	"github.com/go-numdb/numdb/internal/khash"
)

// luPolicy is satisfied by numdb.LRUList and numdb.LFUList: both are
// arena-indexed intrusive lists keyed by the same slot index this package's
// chain arena already hands out, so no extra table-slot-to-policy-node
// mapping is needed (unlike Priority's heap, whose entries move around
// independently of the arena).
type luPolicy interface {
	Insert(idx int32)
	Touch(idx int32)
	Extract(idx int32)
	EvictLU() int32
}

// LeastUsed is the LRU/LFU hashtable container from spec.md §4.4, ported
// from fixed_hashtable_fair_lru.h / fixed_hashtable_fair_lu.h: the bucket
// chain is identical to Priority's, but eviction delegates to an injected
// LRUList or LFUList instead of a decaying-priority heap. The priority
// argument to Insert is accepted (to satisfy numdb.Container) but ignored,
// matching the source where this variant never looks at it.
type LeastUsed[K khash.Hashable, V any] struct {
	chain      *chain[K, V]
	policy     luPolicy
	loadFactor float64
}

// NewLRU builds an LRU-evicting hashtable sized to fit availableMemory.
func NewLRU[K khash.Hashable, V any](availableMemory int) (*LeastUsed[K, V], error) {
	return newLeastUsed[K, V](availableMemory, func(capacity int) luPolicy {
		return numdb.NewLRUList(capacity)
	})
}

// NewLFU builds an LFU-evicting ("fair LFU") hashtable sized to fit
// availableMemory.
func NewLFU[K khash.Hashable, V any](availableMemory int) (*LeastUsed[K, V], error) {
	return newLeastUsed[K, V](availableMemory, func(capacity int) luPolicy {
		return numdb.NewLFUList(capacity)
	})
}

func newLeastUsed[K khash.Hashable, V any](availableMemory int, makePolicy func(int) luPolicy) (*LeastUsed[K, V], error) {
	const loadFactor = 2.0
	const luOverhead = 3 * indexSize // next/prev/groupNext (or next/prev) per slot, worst case LFU
	maxCount := maxElemCountForCapacity(availableMemory, loadFactor, int(unsafe.Sizeof(node[K, V]{})), luOverhead)
	if maxCount <= 0 {
		return nil, numdb.ErrInsufficientMemory
	}
	if maxCount > maxShortIndex {
		return nil, numdb.ErrCapacityExceeded
	}
	bucketCount := int(float64(maxCount) / loadFactor)
	if bucketCount <= 0 {
		bucketCount = 1
	}

	return &LeastUsed[K, V]{
		chain:      newChain[K, V](maxCount, bucketCount),
		policy:     makePolicy(maxCount),
		loadFactor: loadFactor,
	}, nil
}

func (l *LeastUsed[K, V]) Find(key K) numdb.Result[V] {
	b := l.chain.bucketOf(khash.Of(key))
	idx := l.chain.findChain(b, key)
	if idx == nilIdx {
		return numdb.Absent[V]()
	}
	l.chain.moveToFront(b, idx)
	l.policy.Touch(idx)
	return numdb.Found(l.chain.nodes[idx].val)
}

func (l *LeastUsed[K, V]) Insert(key K, value V, _ uint64) bool {
	b := l.chain.bucketOf(khash.Of(key))
	if idx := l.chain.findChain(b, key); idx != nilIdx {
		l.policy.Touch(idx)
		return false
	}

	var slot int32
	if l.chain.full() {
		victim := l.policy.EvictLU()
		vb := l.chain.bucketOf(khash.Of(l.chain.nodes[victim].key))
		l.chain.unlink(vb, victim)
		l.chain.count--
		slot = victim
	} else {
		slot = l.chain.allocSlot()
	}

	l.chain.nodes[slot] = node[K, V]{key: key, val: value, next: nilIdx}
	l.chain.linkFront(b, slot)
	l.chain.count++
	l.policy.Insert(slot)
	return true
}

func (l *LeastUsed[K, V]) Erase(key K) bool {
	b := l.chain.bucketOf(khash.Of(key))
	idx := l.chain.findChain(b, key)
	if idx == nilIdx {
		return false
	}
	l.chain.unlink(b, idx)
	l.chain.count--
	l.policy.Extract(idx)
	return true
}

func (l *LeastUsed[K, V]) Capacity() int { return len(l.chain.nodes) }
func (l *LeastUsed[K, V]) Size() int     { return l.chain.count }

func (l *LeastUsed[K, V]) ElementSize() int {
	var n node[K, V]
	return elementSize(int(unsafe.Sizeof(n)), l.loadFactor, 3*indexSize)
}
