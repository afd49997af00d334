package numdb

// LRUList is an intrusive, arena-indexed doubly-linked list providing O(1)
// touch / evict-least-used, per spec.md §4.3. Nodes live in a caller-owned
// arena (a slice of container entries); this list only manages the next/prev
// index links between them, following the "arena-backed vector, signed
// indices, -1 for nil" idiom from spec.md's Design Notes §9 rather than the
// source's raw Node*/Node** back-pointers.
//
// An LRUList with a zero value is not ready to use; call NewLRUList.
type LRUList struct {
	next []int32 // next[i]: node after i towards the tail, -1 if i is the sentinel-adjacent tail end
	prev []int32 // prev[i]: node before i towards the head
	head int32   // least recently used (evict_lu candidate)
	tail int32   // most recently used
}

const nilIdx int32 = -1

// NewLRUList allocates link arrays sized for capacity nodes.
func NewLRUList(capacity int) *LRUList {
	l := &LRUList{
		next: make([]int32, capacity),
		prev: make([]int32, capacity),
		head: nilIdx,
		tail: nilIdx,
	}
	return l
}

// Insert appends node idx as the most recently used entry.
func (l *LRUList) Insert(idx int32) {
	l.prev[idx] = l.tail
	l.next[idx] = nilIdx
	if l.tail != nilIdx {
		l.next[l.tail] = idx
	} else {
		l.head = idx
	}
	l.tail = idx
}

// extract unlinks idx from wherever it currently sits.
func (l *LRUList) extract(idx int32) {
	p, n := l.prev[idx], l.next[idx]
	if p != nilIdx {
		l.next[p] = n
	} else {
		l.head = n
	}
	if n != nilIdx {
		l.prev[n] = p
	} else {
		l.tail = p
	}
}

// Touch marks idx as the most recently used entry in O(1).
func (l *LRUList) Touch(idx int32) {
	if l.tail == idx {
		return
	}
	l.extract(idx)
	l.Insert(idx)
}

// Extract removes idx from the list ahead of a direct erase.
func (l *LRUList) Extract(idx int32) {
	l.extract(idx)
}

// EvictLU returns the least recently used node index, or -1 if empty.
func (l *LRUList) EvictLU() int32 {
	if l.head == nilIdx {
		return nilIdx
	}
	victim := l.head
	l.extract(victim)
	return victim
}
