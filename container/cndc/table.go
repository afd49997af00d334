// Package cndc implements the concurrent node+heap container from
// spec.md §4.7: a fine-grained locked hash table sharing arena nodes with
// a binary min-heap, ported from
// original_source/Code/include/numdb/hash_table/concurrent_hashtable_binary_heap.h.
//
// Every table node lives in exactly one of three places at a time: a
// bucket's sorted chain plus a heap slot (while cached), or the free-list
// (while idle). Bucket chains are kept sorted by key, as in the source,
// so a find or insert can stop walking a chain as soon as it passes the
// target key instead of always scanning to the end.
package cndc

import (
	"math"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/go-numdb/numdb"
	"github.com/go-numdb/numdb/internal/backoff"
	"github.com/go-numdb/numdb/internal/khash"
)

const nilIdx int32 = -1
const indexSize = int(unsafe.Sizeof(int32(0)))

// maxShortIndex is the largest node count an int32 arena index can address,
// reserving nilIdx (-1) as the sentinel.
const maxShortIndex = math.MaxInt32 - 1

// tableNode is one arena slot. next threads it onto either a bucket's
// sorted chain or the free-list, whichever it currently belongs to — the
// two never overlap, so the source's TableNode shares the field the same
// way. heapNode is read outside any lock while racing concurrent heap
// swaps (heapLockNode's optimistic retry), so it stays atomic.
type tableNode[K khash.Hashable, V any] struct {
	next     *tableNode[K, V]
	heapNode atomic.Int32
	key      K
	value    V
}

// heapSlot is one position of the binary min-heap, each independently
// lockable so that a sift-up/sift-down in one part of the heap doesn't
// block finds or inserts touching unrelated slots. up marks a slot whose
// occupant is still mid-sift-up from a concurrent insert; readers that
// meet an up slot back off rather than racing its settling position.
type heapSlot[K khash.Hashable, V any] struct {
	mu       sync.Mutex
	table    *tableNode[K, V]
	priority numdb.Priority
	up       bool
}

// Table is the CNDC container: spec.md §4.7's Container[K,V] implementation
// backed by per-bucket and per-heap-slot mutexes instead of one coarse
// lock, for callers that would otherwise reach for CoarseLock or Sharded.
type Table[K khash.Hashable, V any] struct {
	maxCount   int32
	loadFactor float64
	useBackoff bool
	count      atomic.Int32

	bucketMu []sync.Mutex
	buckets  []*tableNode[K, V]

	heap []heapSlot[K, V]

	freeMu   sync.Mutex
	freeHead *tableNode[K, V]

	nodes []tableNode[K, V]
}

// New builds a Table sized to fit as many entries as availableMemory
// allows at the given bucket load factor (bucket count = maxCount /
// loadFactor). loadFactor <= 0 defaults to 2.0, matching the other
// hash-based containers. useBackoff selects the exponential spin-backoff
// used while a heap slot is contended (concurrent_hashtable_binary_heap.h's
// UseBackoff template parameter); when false, a contended slot is retried
// with a bare spin instead.
func New[K khash.Hashable, V any](availableMemory int, loadFactor float64, useBackoff bool) (*Table[K, V], error) {
	if loadFactor <= 0 {
		loadFactor = 2.0
	}

	var node tableNode[K, V]
	var mu sync.Mutex
	nodeOverhead := int(unsafe.Sizeof(node))
	heapOverhead := int(unsafe.Sizeof(numdb.Priority(0))) + indexSize + int(unsafe.Sizeof(mu))
	bucketOverhead := int(math.Ceil((float64(indexSize) + float64(unsafe.Sizeof(mu))) / loadFactor))
	perElem := nodeOverhead + heapOverhead + bucketOverhead

	maxCount := 0
	if perElem > 0 && availableMemory > 0 {
		maxCount = availableMemory / perElem
	}
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

	t := &Table[K, V]{
		maxCount:   int32(maxCount),
		loadFactor: loadFactor,
		useBackoff: useBackoff,
		bucketMu:   make([]sync.Mutex, bucketCount),
		buckets:    make([]*tableNode[K, V], bucketCount),
		heap:       make([]heapSlot[K, V], maxCount),
		nodes:      make([]tableNode[K, V], maxCount),
	}
	for i := range t.nodes {
		if i+1 < len(t.nodes) {
			t.nodes[i].next = &t.nodes[i+1]
		}
	}
	t.freeHead = &t.nodes[0]
	return t, nil
}

func (t *Table[K, V]) bucketOf(key K) int {
	return int(khash.Of(key) % uint64(len(t.buckets)))
}

// Find reports the value stored for key, boosting its priority on a hit.
// The bucket lock is released before the heap fix-up runs, so Find never
// holds a bucket lock and a heap-slot lock at the same time; this is a
// Go-idiomatic shortening of the source's single lock_guard spanning both.
func (t *Table[K, V]) Find(key K) numdb.Result[V] {
	b := t.bucketOf(key)
	t.bucketMu[b].Lock()
	cur := t.buckets[b]
	for cur != nil {
		if key == cur.key {
			val := cur.value
			t.bucketMu[b].Unlock()
			t.heapIncreasePriority(cur)
			return numdb.Found(val)
		}
		if key < cur.key {
			break
		}
		cur = cur.next
	}
	t.bucketMu[b].Unlock()
	return numdb.Absent[V]()
}

// Insert admits key/value with the given initial priority, evicting the
// minimum-priority entry first if the arena is full. It returns false
// without inserting if key is already present, bumping its priority
// instead (matching a hit).
func (t *Table[K, V]) Insert(key K, value V, priority uint64) bool {
	empty := t.acquireFreeNode()

	b := t.bucketOf(key)
	t.bucketMu[b].Lock()

	nodeRef := &t.buckets[b]
	for *nodeRef != nil {
		n := *nodeRef
		if key == n.key {
			t.bucketMu[b].Unlock()
			t.disposeNode(empty)
			t.heapIncreasePriority(n)
			return false
		}
		if key < n.key {
			break
		}
		nodeRef = &n.next
	}

	empty.key = key
	empty.value = value
	empty.next = *nodeRef
	*nodeRef = empty

	// The bucket lock stays held across heapInsert (rather than being
	// released first): a concurrent Find for this same key must not be
	// able to see empty in the chain before it has a valid heap slot, or
	// heapLockNode would spin against a heapNode index that hasn't been
	// assigned yet.
	t.heapInsert(empty, priority)
	t.bucketMu[b].Unlock()
	return true
}

// Erase drops key if present. The source only ever removes the heap
// minimum (via eviction); arbitrary-key removal is added here so Table
// satisfies the same Container contract as every other variant.
func (t *Table[K, V]) Erase(key K) bool {
	b := t.bucketOf(key)
	t.bucketMu[b].Lock()
	nodeRef := &t.buckets[b]
	var victim *tableNode[K, V]
	for *nodeRef != nil {
		n := *nodeRef
		if key == n.key {
			victim = n
			*nodeRef = n.next
			break
		}
		if key < n.key {
			break
		}
		nodeRef = &n.next
	}
	t.bucketMu[b].Unlock()
	if victim == nil {
		return false
	}

	t.heapRemoveNode(victim)
	t.disposeNode(victim)
	return true
}

func (t *Table[K, V]) Capacity() int { return int(t.maxCount) }
func (t *Table[K, V]) Size() int     { return int(t.count.Load()) }

func (t *Table[K, V]) ElementSize() int {
	var node tableNode[K, V]
	var mu sync.Mutex
	nodeOverhead := int(unsafe.Sizeof(node))
	heapOverhead := int(unsafe.Sizeof(numdb.Priority(0))) + indexSize + int(unsafe.Sizeof(mu))
	bucketOverhead := int(math.Ceil((float64(indexSize) + float64(unsafe.Sizeof(mu))) / t.loadFactor))
	return nodeOverhead + heapOverhead + bucketOverhead
}

func clamp8(v uint64) uint8 {
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func (t *Table[K, V]) newBackoff() backoff.Spinner {
	if !t.useBackoff {
		return backoff.Disabled{}
	}
	return &backoff.Backoff{}
}
