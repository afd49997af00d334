package hashtable

import (
	"unsafe"

	"github.com/go-numdb/numdb"
	"github.com/go-numdb/numdb/internal/khash"
)

// heapNode is one slot of the binary min-heap running alongside the bucket
// chain; it tracks which arena slot owns the entry so eviction can unlink
// the right chain node (fixed_hashtable_binary_heap.h's HeapNode).
type heapNode struct {
	priority numdb.Priority
	table    int32
}

// Priority is the chained hashtable + decaying-priority binary min-heap
// container from spec.md §4.4, ported from fixed_hashtable_binary_heap.h:
// O(1) find with move-to-front on hit and heap reheapify, O(log n)
// insert/evict driven by Priority.Access/Visit. DegradationRate controls how
// much an entry's score decays each time a top-down heapify pass moves another
// entry down past it; zero disables decay entirely.
type Priority[K khash.Hashable, V any] struct {
	chain           *chain[K, V]
	heap            []heapNode
	heapCount       int32
	tableHeapIdx    []int32
	degradationRate uint32
	loadFactor      float64
}

// NewPriority builds a container sized to fit as many entries as
// availableMemory allows at the default 2.0 load factor.
func NewPriority[K khash.Hashable, V any](availableMemory int, degradationRate uint32) (*Priority[K, V], error) {
	return NewPriorityWithLoadFactor[K, V](availableMemory, degradationRate, 2.0)
}

// NewPriorityWithLoadFactor is NewPriority with an explicit bucket load
// factor (buckets = maxCount / loadFactor).
func NewPriorityWithLoadFactor[K khash.Hashable, V any](availableMemory int, degradationRate uint32, loadFactor float64) (*Priority[K, V], error) {
	overhead := int(unsafe.Sizeof(heapNode{})) + indexSize
	maxCount := maxElemCountForCapacity(availableMemory, loadFactor, int(unsafe.Sizeof(node[K, V]{})), overhead)
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

	tableHeapIdx := make([]int32, maxCount)
	for i := range tableHeapIdx {
		tableHeapIdx[i] = nilIdx
	}

	return &Priority[K, V]{
		chain:           newChain[K, V](maxCount, bucketCount),
		heap:            make([]heapNode, maxCount),
		tableHeapIdx:    tableHeapIdx,
		degradationRate: degradationRate,
		loadFactor:      loadFactor,
	}, nil
}

// Find reports the value stored for key, boosting its priority on a hit.
func (p *Priority[K, V]) Find(key K) numdb.Result[V] {
	b := p.chain.bucketOf(khash.Of(key))
	idx := p.chain.findChain(b, key)
	if idx == nilIdx {
		return numdb.Absent[V]()
	}
	p.chain.moveToFront(b, idx)
	p.nodeAccessed(idx)
	return numdb.Found(p.chain.nodes[idx].val)
}

func (p *Priority[K, V]) nodeAccessed(slot int32) {
	hi := p.tableHeapIdx[slot]
	p.heap[hi].priority.Access()
	p.topDownHeapify(hi)
}

// Insert admits key/value with the given initial priority, evicting the
// minimum-priority entry first if the arena is full. It returns false
// without inserting if key is already present (matching a hit instead).
func (p *Priority[K, V]) Insert(key K, value V, priority uint64) bool {
	b := p.chain.bucketOf(khash.Of(key))
	if idx := p.chain.findChain(b, key); idx != nilIdx {
		p.nodeAccessed(idx)
		return false
	}

	var slot int32
	if p.chain.full() {
		victim := p.evictMin()
		vb := p.chain.bucketOf(khash.Of(p.chain.nodes[victim].key))
		p.chain.unlink(vb, victim)
		p.chain.count--
		slot = victim
	} else {
		slot = p.chain.allocSlot()
	}

	p.chain.nodes[slot] = node[K, V]{key: key, val: value, next: nilIdx}
	p.chain.linkFront(b, slot)
	p.chain.count++

	hi := p.heapCount
	p.heapCount++
	p.heap[hi] = heapNode{priority: numdb.NewPriority(clamp8(priority)), table: slot}
	p.tableHeapIdx[slot] = hi
	p.heap[hi].priority.Access()
	p.bottomUpHeapify(hi)
	return true
}

// Erase drops key if present.
func (p *Priority[K, V]) Erase(key K) bool {
	b := p.chain.bucketOf(khash.Of(key))
	idx := p.chain.findChain(b, key)
	if idx == nilIdx {
		return false
	}
	p.chain.unlink(b, idx)
	p.chain.count--
	p.heapRemoveAt(p.tableHeapIdx[idx])
	return true
}

func (p *Priority[K, V]) Capacity() int { return len(p.chain.nodes) }
func (p *Priority[K, V]) Size() int     { return p.chain.count }

func (p *Priority[K, V]) ElementSize() int {
	var n node[K, V]
	var h heapNode
	return elementSize(int(unsafe.Sizeof(n)), p.loadFactor, int(unsafe.Sizeof(h))+indexSize)
}

func clamp8(v uint64) uint8 {
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func (p *Priority[K, V]) evictMin() int32 {
	victimHeapIdx := p.heapRemoveAt(0)
	return p.heap[victimHeapIdx].table
}

// heapRemoveAt ports heapRemove: swap the target to the tail, shrink, and
// reheapify from the slot the displaced tail element now occupies. It
// returns the (now out-of-range) index the removed element's HeapNode sits
// at, which the caller reads exactly once before the slot is overwritten by
// the next insert.
func (p *Priority[K, V]) heapRemoveAt(at int32) int32 {
	if at != p.heapCount-1 {
		p.swapHeap(at, p.heapCount-1)
		p.heapCount--
		if p.heapCount > 0 {
			newIdx := p.topDownHeapify(at)
			if newIdx == at {
				p.bottomUpHeapify(newIdx)
			}
		}
	} else {
		p.heapCount--
	}
	return p.heapCount
}

func (p *Priority[K, V]) swapHeap(a, b int32) {
	p.heap[a], p.heap[b] = p.heap[b], p.heap[a]
	p.tableHeapIdx[p.heap[a].table] = a
	p.tableHeapIdx[p.heap[b].table] = b
}

func (p *Priority[K, V]) heapParent(i int32) int32 {
	if i == 0 {
		return nilIdx
	}
	return (i - 1) / 2
}

func (p *Priority[K, V]) heapLeft(i int32) int32 {
	l := i*2 + 1
	if l < p.heapCount {
		return l
	}
	return nilIdx
}

func (p *Priority[K, V]) heapRight(i int32) int32 {
	r := i*2 + 2
	if r < p.heapCount {
		return r
	}
	return nilIdx
}

// topDownHeapify sifts idx down. Each time the sinking entry swaps with a
// smaller child, that child (now in the parent slot) has its score degraded
// by degradationRate and is sifted up again — the mechanism that makes
// entries passed over by frequently-bumped nodes decay towards eviction
// (fixed_hashtable_binary_heap.h's DegradationRate template parameter).
func (p *Priority[K, V]) topDownHeapify(idx int32) int32 {
	max := p.heapLeft(idx)
	if max == nilIdx {
		return idx
	}
	if right := p.heapRight(idx); right != nilIdx && p.heap[right].priority.Less(p.heap[max].priority) {
		max = right
	}
	if p.heap[max].priority.Less(p.heap[idx].priority) {
		p.swapHeap(idx, max)
		if p.degradationRate > 0 {
			p.heap[idx].priority.Visit(p.degradationRate)
			p.bottomUpHeapify(idx)
		}
		return p.topDownHeapify(max)
	}
	return idx
}

func (p *Priority[K, V]) bottomUpHeapify(idx int32) int32 {
	for {
		parent := p.heapParent(idx)
		if parent == nilIdx || !p.heap[idx].priority.Less(p.heap[parent].priority) {
			return idx
		}
		p.swapHeap(idx, parent)
		idx = parent
	}
}
