package cndc

import (
	"runtime"

	"github.com/go-numdb/numdb"
)

func (t *Table[K, V]) heapParentIdx(i int32) int32 {
	if i == 0 {
		return nilIdx
	}
	return (i - 1) / 2
}

func (t *Table[K, V]) heapLeftIdx(i int32) int32  { return i*2 + 1 }
func (t *Table[K, V]) heapRightIdx(i int32) int32 { return i*2 + 2 }

// heapLockNode resolves tnode's current heap slot and returns it locked.
// A node's slot can move between reading heapNode and acquiring its lock
// (another goroutine may be mid-swap), so this optimistically retries:
// try-lock the slot it last knew about, then confirm the slot still
// belongs to tnode before trusting the lock.
func (t *Table[K, V]) heapLockNode(tnode *tableNode[K, V]) int32 {
	for {
		idx := tnode.heapNode.Load()
		if !t.heap[idx].mu.TryLock() {
			runtime.Gosched()
			continue
		}
		if t.heap[idx].table == tnode {
			return idx
		}
		t.heap[idx].mu.Unlock()
	}
}

// swapHeapNodes exchanges two heap slots' contents; both must already be
// locked by the caller. Each occupant's heapNode index is repointed so a
// concurrent heapLockNode resolves to the new slot.
func (t *Table[K, V]) swapHeapNodes(a, b int32) {
	t.heap[a].table, t.heap[b].table = t.heap[b].table, t.heap[a].table
	t.heap[a].priority, t.heap[b].priority = t.heap[b].priority, t.heap[a].priority
	t.heap[a].up, t.heap[b].up = t.heap[b].up, t.heap[a].up
	if t.heap[a].table != nil {
		t.heap[a].table.heapNode.Store(a)
	}
	if t.heap[b].table != nil {
		t.heap[b].table.heapNode.Store(b)
	}
}

// heapAcquireChild locks child's slot and reports whether it is still a
// live member of the heap. The caller already holds a strictly
// lower-indexed slot, so acquiring a higher index here can never be one
// side of a lock-ordering cycle with another descent going the same way.
func (t *Table[K, V]) heapAcquireChild(child int32) bool {
	if child < 0 || child >= int32(len(t.heap)) {
		return false
	}
	t.heap[child].mu.Lock()
	if child < t.count.Load() {
		return true
	}
	t.heap[child].mu.Unlock()
	return false
}

// heapInsert places tnode at the tail of the heap and sifts it up. It
// locks slot 0 the way the source does (serializing concurrent inserts
// against each other at the moment count_ is read and incremented), then
// releases it before the sift-up, which re-resolves tnode's position
// itself via heapLockNode rather than carrying a transferred lock the
// way the source's moved lock_guard does — a simplification that trades
// a little fidelity for locks whose lifetime never crosses a function
// boundary.
func (t *Table[K, V]) heapInsert(tnode *tableNode[K, V], priority uint64) {
	t.heap[0].mu.Lock()
	idx := t.count.Load()
	tnode.heapNode.Store(idx)

	if idx == 0 {
		t.heap[0].table = tnode
		t.heap[0].priority = numdb.NewPriority(clamp8(priority))
		t.heap[0].priority.Access()
		t.heap[0].up = false
		t.count.Store(1)
		t.heap[0].mu.Unlock()
		return
	}

	t.heap[idx].mu.Lock()
	t.heap[idx].table = tnode
	t.heap[idx].priority = numdb.NewPriority(clamp8(priority))
	t.heap[idx].priority.Access()
	t.heap[idx].up = true
	t.count.Store(idx + 1)
	t.heap[0].mu.Unlock()
	t.heap[idx].mu.Unlock()

	t.bottomUpHeapify(tnode)
}

// heapIncreasePriority boosts tnode's score on a hit and re-settles its
// position. If the node is still mid-insert sift-up (up == true), this
// backs off and retries instead of racing that settling position.
func (t *Table[K, V]) heapIncreasePriority(tnode *tableNode[K, V]) {
	bo := t.newBackoff()
	for {
		idx := t.heapLockNode(tnode)
		if t.heap[idx].up {
			t.heap[idx].mu.Unlock()
			bo.Spin()
			continue
		}
		t.heap[idx].priority.Access()
		t.topDownHeapify(idx)
		return
	}
}

// topDownHeapify sifts the entry at parent down until both children sort
// after it or it has none. The caller must already hold heap[parent].mu;
// this releases every lock it acquires before returning.
func (t *Table[K, V]) topDownHeapify(parent int32) {
	for {
		left := t.heapLeftIdx(parent)
		haveLeft := t.heapAcquireChild(left)
		if !haveLeft {
			t.heap[parent].mu.Unlock()
			return
		}

		right := t.heapRightIdx(parent)
		haveRight := t.heapAcquireChild(right)

		min := left
		if haveRight && t.heap[right].priority.Less(t.heap[left].priority) {
			min = right
		}
		if haveRight && min != right {
			t.heap[right].mu.Unlock()
		}
		if min == right {
			t.heap[left].mu.Unlock()
		}

		if t.heap[min].priority.Less(t.heap[parent].priority) {
			t.swapHeapNodes(parent, min)
			t.heap[parent].mu.Unlock()
			parent = min
			continue
		}

		t.heap[min].mu.Unlock()
		t.heap[parent].mu.Unlock()
		return
	}
}

// bottomUpHeapify moves tnode up while it sorts before its parent,
// re-resolving tnode's live position on every step (heapLockNode) since a
// concurrent swap elsewhere in the heap can relocate it between
// iterations. It try-locks the parent — the "wrong direction" relative to
// topDownHeapify's parent-then-child order — so contention here always
// resolves by backing off and retrying rather than blocking, which is
// what keeps the two sift directions from deadlocking against each other.
func (t *Table[K, V]) bottomUpHeapify(tnode *tableNode[K, V]) {
	bo := t.newBackoff()
	idx := t.heapLockNode(tnode)
	for {
		parent := t.heapParentIdx(idx)
		if parent == nilIdx {
			break
		}
		if !t.heap[parent].mu.TryLock() {
			t.heap[idx].mu.Unlock()
			bo.Spin()
			idx = t.heapLockNode(tnode)
			continue
		}
		if t.heap[parent].up {
			t.heap[parent].mu.Unlock()
			t.heap[idx].mu.Unlock()
			bo.Spin()
			idx = t.heapLockNode(tnode)
			continue
		}
		if t.heap[idx].priority.Less(t.heap[parent].priority) {
			t.swapHeapNodes(idx, parent)
			t.heap[idx].mu.Unlock()
			idx = parent
			continue
		}
		t.heap[parent].mu.Unlock()
		break
	}
	t.heap[idx].up = false
	t.heap[idx].mu.Unlock()
}

// heapExtractMin removes and returns the minimum-priority table node, or
// nil if the heap is empty. Used by acquireFreeNode when the free-list is
// exhausted, matching the source's extractLuNode.
func (t *Table[K, V]) heapExtractMin() *tableNode[K, V] {
	t.heap[0].mu.Lock()
	count := t.count.Load()
	if count == 0 {
		t.heap[0].mu.Unlock()
		return nil
	}
	victim := t.heap[0].table

	if count == 1 {
		t.heap[0].table = nil
		t.count.Store(0)
		t.heap[0].mu.Unlock()
		return victim
	}

	last := count - 1
	t.heap[last].mu.Lock()
	t.swapHeapNodes(0, last)
	t.heap[last].table = nil
	t.count.Store(last)
	t.heap[last].mu.Unlock()

	if last > 1 {
		t.topDownHeapify(0)
	} else {
		t.heap[0].mu.Unlock()
	}
	return victim
}

// heapRemoveNode deletes an arbitrary table node from the heap (not
// necessarily the minimum), used by Erase. It swaps the target with the
// tail slot and re-settles whatever lands at the target's old position in
// both directions, since removing an interior node can violate the heap
// property either way.
//
// A node mid-insert sift-up (up == true) isn't guarded against here the
// way heapIncreasePriority guards against it; an Erase racing the tail end
// of that insert for the same key is a narrow window left unresolved by
// this port.
func (t *Table[K, V]) heapRemoveNode(tnode *tableNode[K, V]) {
	idx := t.heapLockNode(tnode)
	count := t.count.Load()
	last := count - 1

	if idx == last {
		t.heap[idx].table = nil
		t.count.Store(last)
		t.heap[idx].mu.Unlock()
		return
	}

	t.heap[last].mu.Lock()
	t.swapHeapNodes(idx, last)
	t.heap[last].table = nil
	t.count.Store(last)
	t.heap[last].mu.Unlock()

	moved := t.heap[idx].table
	t.heap[idx].mu.Unlock()

	if moved != nil {
		t.bottomUpHeapify(moved)
		fresh := t.heapLockNode(moved)
		t.topDownHeapify(fresh)
	}
}
