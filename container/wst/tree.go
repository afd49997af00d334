// Package wst implements the Weighted Search Tree from spec.md §4.6: an AVL
// tree and a binary min-heap sharing one arena, where the same physical
// array position simultaneously encodes a node's place in the ordered tree
// (via left/right/parent indices) and its place in the heap (via its
// position in the array). A heap swap must therefore also repoint every
// AVL neighbor of both swapped nodes — the central challenge ported from
// weighted_search_tree.h's swapNodes/replaceTreeReferences.
//
// The source keeps the AVL balance factor packed into two spare bits of its
// WstAvlPriority word; this port keeps it as its own int8 field on node
// instead; Go has no reason to fight for those two bits, and splitting them
// out makes every rotation function read as plain field assignment instead
// of bit-twiddling, with zero behavioral difference.
package wst

import (
	"math"
	"unsafe"

	"github.com/go-numdb/numdb"
	"github.com/go-numdb/numdb/internal/khash"
)

const nilIdx int32 = -1

// maxShortIndex is the largest node count an int32 arena index can address,
// reserving nilIdx (-1) as the sentinel.
const maxShortIndex = math.MaxInt32 - 1

type node[K khash.Hashable, V any] struct {
	key      K
	value    V
	priority numdb.Priority
	balance  int8
	left     int32
	right    int32
	parent   int32
}

// Tree is the WST container satisfying numdb.Container. DegradationRate
// controls how much a node's priority decays on every pass-through visit
// during Find; zero disables decay on search entirely.
type Tree[K khash.Hashable, V any] struct {
	nodes           []node[K, V]
	rootIdx         int32
	count           int32
	tail            int32
	maxCount        int32
	degradationRate uint32
}

// New builds a WST sized to fit as many nodes as availableMemory allows.
func New[K khash.Hashable, V any](availableMemory int, degradationRate uint32) (*Tree[K, V], error) {
	var n node[K, V]
	maxCount := availableMemory / int(unsafe.Sizeof(n))
	if maxCount <= 0 {
		return nil, numdb.ErrInsufficientMemory
	}
	if maxCount > maxShortIndex {
		return nil, numdb.ErrCapacityExceeded
	}
	nodes := make([]node[K, V], maxCount)
	return &Tree[K, V]{
		nodes:           nodes,
		rootIdx:         nilIdx,
		maxCount:        int32(maxCount),
		degradationRate: degradationRate,
	}, nil
}

func (t *Tree[K, V]) Capacity() int { return int(t.maxCount) }
func (t *Tree[K, V]) Size() int     { return int(t.count) }

func (t *Tree[K, V]) ElementSize() int {
	var n node[K, V]
	return int(unsafe.Sizeof(n))
}

// Find reports the value for key, decaying the priority of every node
// passed on the way down and boosting the matched node's priority, per
// spec.md §4.6's "visited path receives visit, matched node receives only
// access" resolution.
func (t *Tree[K, V]) Find(key K) numdb.Result[V] {
	idx := t.treeSearch(key, true)
	if idx == nilIdx {
		return numdb.Absent[V]()
	}
	return numdb.Found(t.nodes[idx].value)
}

// Insert admits key/value at the given initial priority, evicting the
// minimum-priority node first if the tree is full. Insert assumes key is
// not already present — like the source, it is the cache front end's job
// to call Insert only after a Find reported Absent.
func (t *Tree[K, V]) Insert(key K, value V, priority uint64) bool {
	var idx int32
	if t.count == t.maxCount {
		idx = t.heapRemove(0)
		t.treeRemove(idx)
	} else {
		idx = t.tail
		t.tail++
	}

	t.nodes[idx] = node[K, V]{
		key:      key,
		value:    value,
		priority: numdb.NewPriority(clamp8(priority)),
		left:     nilIdx,
		right:    nilIdx,
		parent:   nilIdx,
	}
	t.nodes[idx].priority.Access()
	t.count++
	t.treeInsert(idx)
	t.bottomUpHeapify(idx)
	return true
}

// Erase drops key if present. Matching the source's append-only arena, an
// erased slot is not returned to a free list the way an evicting Insert
// reuses one — only eviction reclaims space, so repeated explicit Erase
// calls can exhaust the arena's untouched tail before count reaches
// capacity. Callers who need long-running churn should prefer eviction
// (letting the container fill up) over manual Erase.
func (t *Tree[K, V]) Erase(key K) bool {
	idx := t.treeSearch(key, false)
	if idx == nilIdx {
		return false
	}
	idx = t.heapRemove(idx)
	t.treeRemove(idx)
	return true
}

func clamp8(v uint64) uint8 {
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func (t *Tree[K, V]) treeSearch(key K, degrade bool) int32 {
	n := t.rootIdx
	for n != nilIdx {
		switch {
		case key < t.nodes[n].key:
			if t.degradationRate > 0 && degrade {
				t.nodes[n].priority.Visit(t.degradationRate)
				n = t.bottomUpHeapify(n)
			}
			n = t.nodes[n].left
		case t.nodes[n].key < key:
			if t.degradationRate > 0 && degrade {
				t.nodes[n].priority.Visit(t.degradationRate)
				n = t.bottomUpHeapify(n)
			}
			n = t.nodes[n].right
		default:
			t.nodes[n].priority.Access()
			return t.topDownHeapify(n)
		}
	}
	return nilIdx
}

func (t *Tree[K, V]) treeInsert(n int32) {
	parent := t.rootIdx
	if parent == nilIdx {
		t.rootIdx = n
		return
	}
	for {
		switch {
		case t.nodes[n].key < t.nodes[parent].key:
			if t.nodes[parent].left == nilIdx {
				t.nodes[parent].left = n
				t.nodes[n].parent = parent
				t.treeBalanceAfterInsert(parent, -1)
				return
			}
			parent = t.nodes[parent].left
		case t.nodes[parent].key < t.nodes[n].key:
			if t.nodes[parent].right == nilIdx {
				t.nodes[parent].right = n
				t.nodes[n].parent = parent
				t.treeBalanceAfterInsert(parent, 1)
				return
			}
			parent = t.nodes[parent].right
		default:
			panic("wst: insert called with a key already present")
		}
	}
}

// treeRemove splices n (already excised from the heap by the caller) out of
// the AVL tree. It never touches t.count: heapRemove already accounted for
// the one element leaving the container before this runs.
func (t *Tree[K, V]) treeRemove(n int32) int32 {
	if t.nodes[n].left == nilIdx {
		delta := int32(-1)
		if t.isLeftSon(n) {
			delta = 1
		}
		t.treeUpdateParent(n, t.nodes[n].right)
		t.treeBalanceAfterRemove(t.nodes[n].parent, delta)
		t.nodes[n].right = nilIdx
		t.nodes[n].parent = nilIdx
		return n
	}
	if t.nodes[n].right == nilIdx {
		delta := int32(-1)
		if t.isLeftSon(n) {
			delta = 1
		}
		t.treeUpdateParent(n, t.nodes[n].left)
		t.treeBalanceAfterRemove(t.nodes[n].parent, delta)
		t.nodes[n].left = nilIdx
		t.nodes[n].parent = nilIdx
		return n
	}

	predecessor := t.treeRemove(t.getPredecessor(n))

	t.nodes[predecessor].left = t.nodes[n].left
	if t.nodes[predecessor].left != nilIdx {
		t.nodes[t.nodes[predecessor].left].parent = predecessor
	}
	t.nodes[predecessor].right = t.nodes[n].right
	if t.nodes[predecessor].right != nilIdx {
		t.nodes[t.nodes[predecessor].right].parent = predecessor
	}
	t.nodes[predecessor].balance = t.nodes[n].balance

	t.treeUpdateParent(n, predecessor)

	t.nodes[n].right, t.nodes[n].left, t.nodes[n].parent = nilIdx, nilIdx, nilIdx
	return n
}

func (t *Tree[K, V]) getPredecessor(n int32) int32 {
	n = t.nodes[n].left
	for t.nodes[n].right != nilIdx {
		n = t.nodes[n].right
	}
	return n
}

func (t *Tree[K, V]) isLeftSon(n int32) bool {
	p := t.nodes[n].parent
	return p != nilIdx && t.nodes[p].left == n
}

func (t *Tree[K, V]) treeUpdateParent(current, next int32) {
	if next != nilIdx {
		t.nodes[next].parent = t.nodes[current].parent
	}
	p := t.nodes[current].parent
	if p == nilIdx {
		t.rootIdx = next
	} else if t.nodes[p].left == current {
		t.nodes[p].left = next
	} else {
		t.nodes[p].right = next
	}
}

func (t *Tree[K, V]) treeBalanceAfterInsert(n int32, delta int32) {
	for n != nilIdx {
		tempBalance := int32(t.nodes[n].balance) + delta
		switch tempBalance {
		case 0:
			t.nodes[n].balance = 0
			return
		case -2:
			if t.nodes[t.nodes[n].left].balance == -1 {
				t.rotateRight(n)
			} else {
				t.rotateLeftRight(n)
			}
			return
		case 2:
			if t.nodes[t.nodes[n].right].balance == 1 {
				t.rotateLeft(n)
			} else {
				t.rotateRightLeft(n)
			}
			return
		default: // +-1
			t.nodes[n].balance = int8(tempBalance)
			p := t.nodes[n].parent
			if p != nilIdx {
				if t.nodes[p].left == n {
					delta = -1
				} else {
					delta = 1
				}
			}
			n = p
		}
	}
}

func (t *Tree[K, V]) treeBalanceAfterRemove(n int32, delta int32) {
	for n != nilIdx {
		tempBalance := int32(t.nodes[n].balance) + delta
		switch tempBalance {
		case -2:
			if t.nodes[t.nodes[n].left].balance <= 0 {
				n = t.rotateRight(n)
				if t.nodes[n].balance == 1 {
					return
				}
			} else {
				n = t.rotateLeftRight(n)
			}
		case 2:
			if t.nodes[t.nodes[n].right].balance >= 0 {
				n = t.rotateLeft(n)
				if t.nodes[n].balance == -1 {
					return
				}
			} else {
				n = t.rotateRightLeft(n)
			}
		case -1, 1:
			t.nodes[n].balance = int8(tempBalance)
			return
		default: // 0
			t.nodes[n].balance = 0
		}
		if t.isLeftSon(n) {
			delta = 1
		} else {
			delta = -1
		}
		n = t.nodes[n].parent
	}
}

func (t *Tree[K, V]) rotateLeftImpl(parent int32) int32 {
	right := t.nodes[parent].right
	t.nodes[right].parent = t.nodes[parent].parent
	t.nodes[parent].parent = right
	t.nodes[parent].right = t.nodes[right].left
	t.nodes[right].left = parent

	if t.nodes[right].parent == nilIdx {
		t.rootIdx = right
	} else if t.nodes[t.nodes[right].parent].left == parent {
		t.nodes[t.nodes[right].parent].left = right
	} else {
		t.nodes[t.nodes[right].parent].right = right
	}

	if t.nodes[parent].right != nilIdx {
		t.nodes[t.nodes[parent].right].parent = parent
	}
	return right
}

func (t *Tree[K, V]) rotateRightImpl(parent int32) int32 {
	left := t.nodes[parent].left
	t.nodes[left].parent = t.nodes[parent].parent
	t.nodes[parent].parent = left
	t.nodes[parent].left = t.nodes[left].right
	t.nodes[left].right = parent

	if t.nodes[left].parent == nilIdx {
		t.rootIdx = left
	} else if t.nodes[t.nodes[left].parent].left == parent {
		t.nodes[t.nodes[left].parent].left = left
	} else {
		t.nodes[t.nodes[left].parent].right = left
	}

	if t.nodes[parent].left != nilIdx {
		t.nodes[t.nodes[parent].left].parent = parent
	}
	return left
}

func (t *Tree[K, V]) rotateLeft(parent int32) int32 {
	parent = t.rotateLeftImpl(parent)
	t.nodes[parent].balance--
	t.nodes[t.nodes[parent].left].balance = -t.nodes[parent].balance
	return parent
}

func (t *Tree[K, V]) rotateRight(parent int32) int32 {
	parent = t.rotateRightImpl(parent)
	t.nodes[parent].balance++
	t.nodes[t.nodes[parent].right].balance = -t.nodes[parent].balance
	return parent
}

func (t *Tree[K, V]) rotateLeftRight(parent int32) int32 {
	t.rotateLeftImpl(t.nodes[parent].left)
	parent = t.rotateRightImpl(parent)
	t.fixupDoubleRotationBalance(parent)
	return parent
}

func (t *Tree[K, V]) rotateRightLeft(parent int32) int32 {
	t.rotateRightImpl(t.nodes[parent].right)
	parent = t.rotateLeftImpl(parent)
	t.fixupDoubleRotationBalance(parent)
	return parent
}

func (t *Tree[K, V]) fixupDoubleRotationBalance(parent int32) {
	switch t.nodes[parent].balance {
	case -1:
		t.nodes[t.nodes[parent].left].balance = 0
		t.nodes[t.nodes[parent].right].balance = 1
	case 0:
		t.nodes[t.nodes[parent].left].balance = 0
		t.nodes[t.nodes[parent].right].balance = 0
	case 1:
		t.nodes[t.nodes[parent].left].balance = -1
		t.nodes[t.nodes[parent].right].balance = 0
	}
	t.nodes[parent].balance = 0
}

// replaceTreeReferences repoints old's AVL neighbors (its parent, left, and
// right children as they stood before a heap swap) at new — the Go
// equivalent of the source's pointer-rewrite helper of the same name.
func (t *Tree[K, V]) replaceTreeReferences(old, new_, parent, left, right int32, isLeftSon bool) {
	if parent != nilIdx {
		if isLeftSon {
			t.nodes[parent].left = new_
		} else {
			t.nodes[parent].right = new_
		}
	}
	if left != nilIdx {
		t.nodes[left].parent = new_
	}
	if right != nilIdx {
		t.nodes[right].parent = new_
	}
}

// swapNodes exchanges the full records at heap positions a and b — key,
// value, priority, balance, and AVL links all move together — then repairs
// every AVL neighbor that held an index into whichever side moved.
func (t *Tree[K, V]) swapNodes(a, b int32) {
	if a == b {
		return
	}
	bParent, bLeft, bRight := t.nodes[b].parent, t.nodes[b].left, t.nodes[b].right
	bIsLeftSon := t.isLeftSon(b)

	t.replaceTreeReferences(a, b, t.nodes[a].parent, t.nodes[a].left, t.nodes[a].right, t.isLeftSon(a))
	t.replaceTreeReferences(b, a, bParent, bLeft, bRight, bIsLeftSon)

	if t.rootIdx == a {
		t.rootIdx = b
	} else if t.rootIdx == b {
		t.rootIdx = a
	}

	t.nodes[a], t.nodes[b] = t.nodes[b], t.nodes[a]
}

// heapRemove excises the node at heap position idx, swapping it to the
// tail of the live heap range and reheapifying in its place. It returns the
// (now out-of-heap-range) position the removed node's record sits at,
// which the caller (Insert-on-full or Erase) passes straight into
// treeRemove before the slot is reused.
func (t *Tree[K, V]) heapRemove(idx int32) int32 {
	if idx != t.count-1 {
		t.swapNodes(idx, t.count-1)
		t.count--
		if t.count > 0 {
			newIdx := t.topDownHeapify(idx)
			if newIdx == idx {
				t.bottomUpHeapify(newIdx)
			}
		}
	} else {
		t.count--
	}
	return t.count
}

func (t *Tree[K, V]) topDownHeapify(idx int32) int32 {
	max := t.heapLeft(idx)
	if max == nilIdx {
		return idx
	}
	if right := t.heapRight(idx); right != nilIdx && t.nodes[right].priority.Less(t.nodes[max].priority) {
		max = right
	}
	if t.nodes[max].priority.Less(t.nodes[idx].priority) {
		t.swapNodes(idx, max)
		return t.topDownHeapify(max)
	}
	return idx
}

func (t *Tree[K, V]) bottomUpHeapify(idx int32) int32 {
	for {
		parent := t.heapParent(idx)
		if parent == nilIdx || !t.nodes[idx].priority.Less(t.nodes[parent].priority) {
			return idx
		}
		t.swapNodes(idx, parent)
		idx = parent
	}
}

func (t *Tree[K, V]) heapParent(i int32) int32 {
	if i == 0 {
		return nilIdx
	}
	return (i - 1) / 2
}

func (t *Tree[K, V]) heapLeft(i int32) int32 {
	l := i*2 + 1
	if l < t.count {
		return l
	}
	return nilIdx
}

func (t *Tree[K, V]) heapRight(i int32) int32 {
	r := i*2 + 2
	if r < t.count {
		return r
	}
	return nilIdx
}
