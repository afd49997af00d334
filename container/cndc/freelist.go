package cndc

import "runtime"

// allocNode pops a node off the free-list, or nil if it's empty.
func (t *Table[K, V]) allocNode() *tableNode[K, V] {
	t.freeMu.Lock()
	defer t.freeMu.Unlock()
	n := t.freeHead
	if n == nil {
		return nil
	}
	t.freeHead = n.next
	n.next = nil
	return n
}

// disposeNode zeroes n's payload and pushes it back onto the free-list.
func (t *Table[K, V]) disposeNode(n *tableNode[K, V]) {
	var zeroK K
	var zeroV V
	n.key, n.value = zeroK, zeroV
	t.freeMu.Lock()
	n.next = t.freeHead
	t.freeHead = n
	t.freeMu.Unlock()
}

// acquireFreeNode hands out a node for a new insert, evicting the current
// heap minimum if the free-list is exhausted — the source's
// acquireFreeNode falling back to extractLuNode.
func (t *Table[K, V]) acquireFreeNode() *tableNode[K, V] {
	for {
		if n := t.allocNode(); n != nil {
			return n
		}
		if victim := t.heapExtractMin(); victim != nil {
			t.evictFromBucket(victim)
			return victim
		}
		runtime.Gosched()
	}
}

// evictFromBucket splices victim out of its bucket's sorted chain. Called
// only after victim has already been removed from the heap, so its key
// still identifies a live bucket membership to unlink.
func (t *Table[K, V]) evictFromBucket(victim *tableNode[K, V]) {
	b := t.bucketOf(victim.key)
	t.bucketMu[b].Lock()
	nodeRef := &t.buckets[b]
	for *nodeRef != nil {
		if *nodeRef == victim {
			*nodeRef = victim.next
			break
		}
		nodeRef = &(*nodeRef).next
	}
	t.bucketMu[b].Unlock()
	victim.next = nil
}
