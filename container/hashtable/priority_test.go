package hashtable

import "testing"

func TestPriorityFindMiss(t *testing.T) {
	c, err := NewPriority[string, int](4096, 1)
	if err != nil {
		t.Fatalf("NewPriority: %v", err)
	}
	if res := c.Find("missing"); res.Present() {
		t.Fatalf("expected miss on empty container")
	}
}

func TestPriorityInsertAndFind(t *testing.T) {
	c, err := NewPriority[string, int](4096, 1)
	if err != nil {
		t.Fatalf("NewPriority: %v", err)
	}
	if !c.Insert("a", 1, 10) {
		t.Fatalf("expected first insert to succeed")
	}
	if c.Insert("a", 2, 10) {
		t.Fatalf("expected re-insert of an existing key to report a hit, not an insert")
	}
	res := c.Find("a")
	if !res.Present() {
		t.Fatalf("expected a to be present")
	}
	if v, _ := res.Get(); v != 1 {
		t.Fatalf("expected value 1, got %d", v)
	}
	if c.Size() != 1 {
		t.Fatalf("expected size 1, got %d", c.Size())
	}
}

func TestPriorityRejectsTooSmallBudget(t *testing.T) {
	// A 1-byte budget cannot hold a single entry.
	c, err := NewPriority[int, int](1, 0)
	if err == nil {
		t.Fatalf("expected ErrInsufficientMemory for a 1-byte budget, got a container of capacity %d", c.Capacity())
	}
}

func TestPriorityEraseRebalancesHeap(t *testing.T) {
	c, err := NewPriority[int, int](8192, 1)
	if err != nil {
		t.Fatalf("NewPriority: %v", err)
	}
	for i := 0; i < 8; i++ {
		c.Insert(i, i*i, uint64(i+1))
	}
	if !c.Erase(3) {
		t.Fatalf("expected erase of present key to succeed")
	}
	if c.Find(3).Present() {
		t.Fatalf("expected key 3 to be gone after erase")
	}
	for i := 0; i < 8; i++ {
		if i == 3 {
			continue
		}
		if !c.Find(i).Present() {
			t.Fatalf("expected key %d to survive erase of an unrelated key", i)
		}
	}
}

func TestPriorityEvictsLowestPriorityFirst(t *testing.T) {
	c, err := NewPriorityWithLoadFactor[int, int](1<<20, 0, 2.0)
	if err != nil {
		t.Fatalf("NewPriorityWithLoadFactor: %v", err)
	}
	cap := c.Capacity()
	if cap < 4 {
		t.Skipf("capacity %d too small for this scenario", cap)
	}
	for i := 0; i < cap; i++ {
		c.Insert(i, i, 1)
	}
	// Key 0 never gets re-accessed, so it should be the first evicted once
	// the table is forced to make room for a fresh key.
	for i := 1; i < cap; i++ {
		c.Find(i)
	}
	c.Insert(-1, -1, 255)
	if c.Find(0).Present() {
		t.Fatalf("expected the never-touched key to be evicted first")
	}
	if !c.Find(-1).Present() {
		t.Fatalf("expected the freshly inserted key to be present")
	}
}
