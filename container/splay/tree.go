// Package splay implements the splay tree family from spec.md §4.5: an
// ordered binary tree that reshapes itself towards the root on every
// access, with pluggable rotation strategies (Canonical, AccessCount,
// ParametrizedAccessCount, DecayingPriority) and pluggable eviction targets
// (bottom-node pseudo-random descent, LRU, LFU) — ported from
// splay_tree_base.h, splay_tree_bottom_node.h, and the two fair_l*u
// analogues the source hints at but never spells out for splay trees.
//
// Unlike the hashtable and WST containers, nodes here are plain pointers
// with an explicit parent back-reference rather than arena indices: Go has
// no analogue of the source's Node** "reference to self" trick, so a parent
// pointer plus a which-child-am-I check on the way up replaces it.
package splay

import (
	"math"
	"unsafe"

	"github.com/go-numdb/numdb"
	"github.com/go-numdb/numdb/internal/khash"
)

// maxShortIndex bounds maxCount the same way the arena-indexed containers
// bound their int32 indices, so every New constructor in the package rejects
// an oversized budget the same way regardless of its internal representation.
const maxShortIndex = math.MaxInt32 - 1

type node[K khash.Hashable, V any] struct {
	key      K
	value    V
	left     *node[K, V]
	right    *node[K, V]
	parent   *node[K, V]
	strategy Strategy

	// luPrev/luNext/luFreq are only touched by the LRU/LFU evictors; they
	// sit idle (and cost nothing beyond the extra words) under the
	// bottom-node evictor, which never uses them.
	luPrev, luNext *node[K, V]
	luFreq         uint64
}

// evictor decides which node to reclaim once the tree is full and keeps
// whatever side bookkeeping (recency list, frequency list, ...) its policy
// needs, independent of the rotation Strategy in use.
type evictor[K khash.Hashable, V any] interface {
	pick(root *node[K, V], insertingKey K) *node[K, V]
	onInsert(n *node[K, V])
	onAccess(n *node[K, V])
	onRemove(n *node[K, V])
}

// Tree is the generic splay tree container satisfying numdb.Container.
type Tree[K khash.Hashable, V any] struct {
	root        *node[K, V]
	count       int
	maxCount    int
	newStrategy func(initialPriority uint64) Strategy
	evict       evictor[K, V]
}

func newTree[K khash.Hashable, V any](availableMemory int, newStrategy func(uint64) Strategy, evict evictor[K, V]) (*Tree[K, V], error) {
	var n node[K, V]
	maxCount := availableMemory / int(unsafe.Sizeof(n))
	if maxCount <= 0 {
		return nil, numdb.ErrInsufficientMemory
	}
	if maxCount > maxShortIndex {
		return nil, numdb.ErrCapacityExceeded
	}
	return &Tree[K, V]{
		maxCount:    maxCount,
		newStrategy: newStrategy,
		evict:       evict,
	}, nil
}

// Find reports the value stored for key, splaying the matched node according
// to its strategy. A miss splays nothing.
func (t *Tree[K, V]) Find(key K) numdb.Result[V] {
	cur := t.root
	for cur != nil {
		switch {
		case key < cur.key:
			cur.strategy.Visited()
			cur = cur.left
		case cur.key < key:
			cur.strategy.Visited()
			cur = cur.right
		default:
			cur.strategy.Accessed()
			t.evict.onAccess(cur)
			t.splay(cur)
			return numdb.Found(cur.value)
		}
	}
	return numdb.Absent[V]()
}

// Insert admits key/value, evicting the container's chosen victim first if
// full. It returns false without inserting if key is already present.
func (t *Tree[K, V]) Insert(key K, value V, priority uint64) bool {
	if found, _, _ := t.locate(key); found != nil {
		return false
	}

	if t.count == t.maxCount {
		victim := t.evict.pick(t.root, key)
		if victim == nil {
			return false
		}
		t.removeNode(victim)
		t.evict.onRemove(victim)
	}

	_, parent, isLeft := t.locate(key)
	n := &node[K, V]{key: key, value: value, strategy: t.newStrategy(priority), parent: parent}
	switch {
	case parent == nil:
		t.root = n
	case isLeft:
		parent.left = n
	default:
		parent.right = n
	}
	t.count++
	t.evict.onInsert(n)
	t.splay(n)
	return true
}

// Erase drops key if present.
func (t *Tree[K, V]) Erase(key K) bool {
	found, _, _ := t.locate(key)
	if found == nil {
		return false
	}
	t.removeNode(found)
	t.evict.onRemove(found)
	return true
}

func (t *Tree[K, V]) Capacity() int { return t.maxCount }
func (t *Tree[K, V]) Size() int     { return t.count }

func (t *Tree[K, V]) ElementSize() int {
	var n node[K, V]
	return int(unsafe.Sizeof(n))
}

// locate performs a plain (non-splaying) BST search, returning the matched
// node or, on a miss, the would-be parent and which side it would occupy —
// the Go stand-in for the source's Node*& findRefImpl.
func (t *Tree[K, V]) locate(key K) (found, parent *node[K, V], isLeft bool) {
	cur := t.root
	for cur != nil {
		switch {
		case key < cur.key:
			parent, isLeft = cur, true
			cur = cur.left
		case cur.key < key:
			parent, isLeft = cur, false
			cur = cur.right
		default:
			return cur, parent, isLeft
		}
	}
	return nil, parent, isLeft
}

// rotate promotes n past its parent by one level (a single zig step).
func (t *Tree[K, V]) rotate(n *node[K, V]) {
	p := n.parent
	g := p.parent

	if p.left == n {
		p.left = n.right
		if n.right != nil {
			n.right.parent = p
		}
		n.right = p
	} else {
		p.right = n.left
		if n.left != nil {
			n.left.parent = p
		}
		n.left = p
	}
	p.parent = n
	n.parent = g

	switch {
	case g == nil:
		t.root = n
	case g.left == p:
		g.left = n
	default:
		g.right = n
	}
}

// splay promotes n towards the root one zig/zig-zig/zig-zag step at a time,
// stopping early ("DONT_SPLAY") the first time the strategy of a node about
// to be overtaken (the parent, and on a double step also the grandparent)
// declines — the abortable splay from
// splay_tree_base.h's splay(), reshaped around parent pointers instead of
// the source's recursive Node*& bookkeeping.
func (t *Tree[K, V]) splay(n *node[K, V]) {
	for n.parent != nil {
		p := n.parent
		if !p.strategy.ShouldSplay(n.strategy) {
			return
		}
		g := p.parent
		switch {
		case g == nil:
			t.rotate(n)
		case (g.left == p) == (p.left == n):
			if !g.strategy.ShouldSplay(p.strategy) {
				t.rotate(n)
				return
			}
			t.rotate(p)
			t.rotate(n)
		default:
			t.rotate(n)
			if !g.strategy.ShouldSplay(n.strategy) {
				return
			}
			t.rotate(n)
		}
	}
}

// removeNode splices n out of the tree, replacing it with its in-order
// predecessor when it has two children (extractNodeImpl's non-recursive
// pointer equivalent).
func (t *Tree[K, V]) removeNode(n *node[K, V]) {
	t.count--

	if n.left == nil {
		t.transplant(n, n.right)
		return
	}
	if n.right == nil {
		t.transplant(n, n.left)
		return
	}

	pred := n.left
	for pred.right != nil {
		pred = pred.right
	}
	if pred.parent != n {
		t.transplant(pred, pred.left)
		pred.left = n.left
		pred.left.parent = pred
	}
	t.transplant(n, pred)
	pred.right = n.right
	pred.right.parent = pred
}

func (t *Tree[K, V]) transplant(u, v *node[K, V]) {
	switch {
	case u.parent == nil:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}
	if v != nil {
		v.parent = u.parent
	}
}
