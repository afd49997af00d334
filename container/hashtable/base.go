// Package hashtable implements the fixed-size, chained-bucket containers
// from spec.md §4.4: a decaying-priority binary-heap variant and an
// LRU/LFU "least used" variant, both built on the same bucket-chain
// mechanics ported from fixed_hashtable_base.h.
package hashtable

import (
	"math"
	"unsafe"
)

// node is one arena slot: a key/value pair plus the intrusive singly-linked
// chain pointer for its bucket. All maxCount slots are preallocated, per
// spec.md's Design Notes §9 ("arena-backed vector, signed indices, -1 for
// nil") in place of the source's new/delete Node chain.
type node[K comparable, V any] struct {
	key  K
	val  V
	next int32
}

const nilIdx int32 = -1

// maxShortIndex is the largest node count an int32 arena index can address,
// reserving nilIdx (-1) as the sentinel.
const maxShortIndex = math.MaxInt32 - 1

// chain is the shared bucket-chain arena both hashtable variants embed. It
// owns move-to-front-on-hit and unlink/link primitives; eviction policy
// (which slot to reuse once the arena is full) is the caller's concern.
type chain[K comparable, V any] struct {
	nodes    []node[K, V]
	buckets  []int32
	count    int
	nextFree int32
}

func newChain[K comparable, V any](maxCount, bucketCount int) *chain[K, V] {
	c := &chain[K, V]{
		nodes:   make([]node[K, V], maxCount),
		buckets: make([]int32, bucketCount),
	}
	for i := range c.buckets {
		c.buckets[i] = nilIdx
	}
	return c
}

func (c *chain[K, V]) bucketOf(h uint64) int { return int(h % uint64(len(c.buckets))) }

// findChain walks bucket's chain for key, returning the slot or -1.
func (c *chain[K, V]) findChain(bucket int, key K) int32 {
	idx := c.buckets[bucket]
	for idx != nilIdx {
		if c.nodes[idx].key == key {
			return idx
		}
		idx = c.nodes[idx].next
	}
	return nilIdx
}

// moveToFront splices idx to the head of bucket's chain, mirroring the
// source's find() which relinks the hit node ahead of root_node.
func (c *chain[K, V]) moveToFront(bucket int, idx int32) {
	if c.buckets[bucket] == idx {
		return
	}
	c.unlink(bucket, idx)
	c.linkFront(bucket, idx)
}

func (c *chain[K, V]) unlink(bucket int, idx int32) {
	prev := nilIdx
	cur := c.buckets[bucket]
	for cur != nilIdx && cur != idx {
		prev = cur
		cur = c.nodes[cur].next
	}
	if prev == nilIdx {
		c.buckets[bucket] = c.nodes[idx].next
	} else {
		c.nodes[prev].next = c.nodes[idx].next
	}
	c.nodes[idx].next = nilIdx
}

func (c *chain[K, V]) linkFront(bucket int, idx int32) {
	c.nodes[idx].next = c.buckets[bucket]
	c.buckets[bucket] = idx
}

// allocSlot hands out the next never-yet-used arena slot. Once every slot
// has been allocated once, insert always reuses an evicted slot instead.
func (c *chain[K, V]) allocSlot() int32 {
	idx := c.nextFree
	c.nextFree++
	return idx
}

func (c *chain[K, V]) full() bool { return c.count == len(c.nodes) }

// maxElemCountForCapacity and elementSize port the sizing helpers every
// fixed-size container in spec.md §4.4 exposes, generalizing
// fixed_hashtable_base.h's sizeof(Node) + sizeof(Node*)/load_factor
// arithmetic to Go's int32 arena index in place of a raw pointer.
const indexSize = int(unsafe.Sizeof(int32(0)))

func maxElemCountForCapacity(availableMemory int, loadFactor float64, nodeSize, extraOverhead int) int {
	perElem := float64(nodeSize) + float64(indexSize)/loadFactor + float64(extraOverhead)
	if perElem <= 0 || availableMemory <= 0 {
		return 0
	}
	return int(float64(availableMemory) / perElem)
}

func elementSize(nodeSize int, loadFactor float64, extraOverhead int) int {
	return nodeSize + int(math.Ceil(float64(indexSize)/loadFactor)) + extraOverhead
}
