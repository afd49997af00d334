package splay

import "testing"

func TestBottomNodeInsertFindErase(t *testing.T) {
	tr, err := NewBottomNode[int, string](4096, NewCanonical)
	if err != nil {
		t.Fatalf("NewBottomNode: %v", err)
	}
	if tr.Find(1).Present() {
		t.Fatalf("expected miss on empty tree")
	}
	if !tr.Insert(1, "one", 10) {
		t.Fatalf("expected first insert to succeed")
	}
	if tr.Insert(1, "uno", 10) {
		t.Fatalf("expected re-insert of existing key to report a hit")
	}
	res := tr.Find(1)
	if v, _ := res.Get(); v != "one" {
		t.Fatalf("expected original value to survive a duplicate insert, got %q", v)
	}
	if !tr.Erase(1) {
		t.Fatalf("expected erase of present key to succeed")
	}
	if tr.Find(1).Present() {
		t.Fatalf("expected key to be gone after erase")
	}
}

func TestBottomNodeEvictsWhenFull(t *testing.T) {
	tr, err := NewBottomNode[int, int](1<<20, NewCanonical)
	if err != nil {
		t.Fatalf("NewBottomNode: %v", err)
	}
	cap := tr.Capacity()
	if cap < 8 {
		t.Skipf("capacity %d too small for this scenario", cap)
	}
	for i := 0; i < cap; i++ {
		tr.Insert(i, i, 1)
	}
	if tr.Size() != cap {
		t.Fatalf("expected tree to be at capacity, got size %d of %d", tr.Size(), cap)
	}
	tr.Insert(-1, -1, 1)
	if tr.Size() != cap {
		t.Fatalf("expected size to stay at capacity after an eviction-triggering insert, got %d", tr.Size())
	}
	if !tr.Find(-1).Present() {
		t.Fatalf("expected the freshly inserted key to be present")
	}
}

func TestLRUSplayEvictsLeastRecentlyTouched(t *testing.T) {
	tr, err := NewLRU[int, int](1<<20, NewCanonical)
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}
	cap := tr.Capacity()
	if cap < 4 {
		t.Skipf("capacity %d too small", cap)
	}
	for i := 0; i < cap; i++ {
		tr.Insert(i, i, 1)
	}
	for i := 1; i < cap; i++ {
		tr.Find(i)
	}
	tr.Insert(-1, -1, 1)
	if tr.Find(0).Present() {
		t.Fatalf("expected the untouched key to be evicted")
	}
}

func TestLFUSplayEvictsLeastFrequentlyTouched(t *testing.T) {
	tr, err := NewLFU[int, int](1<<20, NewCanonical)
	if err != nil {
		t.Fatalf("NewLFU: %v", err)
	}
	cap := tr.Capacity()
	if cap < 4 {
		t.Skipf("capacity %d too small", cap)
	}
	for i := 0; i < cap; i++ {
		tr.Insert(i, i, 1)
	}
	for i := 1; i < cap; i++ {
		for n := 0; n < i+2; n++ {
			tr.Find(i)
		}
	}
	tr.Insert(-1, -1, 1)
	if tr.Find(0).Present() {
		t.Fatalf("expected the key touched least often to be evicted")
	}
}

func TestAccessCountStrategyAbortsSplayForColderNode(t *testing.T) {
	tr, err := NewBottomNode[int, int](4096, NewAccessCount)
	if err != nil {
		t.Fatalf("NewBottomNode: %v", err)
	}
	tr.Insert(1, 1, 1)
	tr.Insert(2, 2, 1)
	tr.Insert(3, 3, 1)
	for i := 0; i < 5; i++ {
		tr.Find(1)
	}
	// A strategy that has accumulated far more accesses than its parent
	// should resist being displaced by a single access to a colder sibling.
	tr.Find(3)
	if tr.root.key != 1 {
		t.Fatalf("expected hot key 1 to stay at the root, root is %d", tr.root.key)
	}
	if !tr.Find(1).Present() {
		t.Fatalf("expected hot key to remain reachable")
	}
}
