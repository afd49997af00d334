package hashtable

import "testing"

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewLRU[int, int](1 << 20)
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}
	cap := c.Capacity()
	if cap < 3 {
		t.Skipf("capacity %d too small", cap)
	}
	for i := 0; i < cap; i++ {
		c.Insert(i, i, 0)
	}
	// Touch everything except key 0, which should now be the LRU victim.
	for i := 1; i < cap; i++ {
		c.Find(i)
	}
	c.Insert(-1, -1, 0)
	if c.Find(0).Present() {
		t.Fatalf("expected the untouched key to be evicted")
	}
	if !c.Find(-1).Present() {
		t.Fatalf("expected the freshly inserted key to be present")
	}
}

func TestLFUEvictsLeastFrequentlyUsed(t *testing.T) {
	c, err := NewLFU[int, int](1 << 20)
	if err != nil {
		t.Fatalf("NewLFU: %v", err)
	}
	cap := c.Capacity()
	if cap < 3 {
		t.Skipf("capacity %d too small", cap)
	}
	for i := 0; i < cap; i++ {
		c.Insert(i, i, 0)
	}
	for i := 1; i < cap; i++ {
		for n := 0; n < i+1; n++ {
			c.Find(i)
		}
	}
	c.Insert(-1, -1, 0)
	if c.Find(0).Present() {
		t.Fatalf("expected the key touched least often to be evicted")
	}
}

func TestLeastUsedFindMissAndInsertIdempotent(t *testing.T) {
	c, err := NewLRU[string, string](4096)
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}
	if c.Find("x").Present() {
		t.Fatalf("expected miss on empty container")
	}
	if !c.Insert("x", "y", 0) {
		t.Fatalf("expected first insert to succeed")
	}
	if c.Insert("x", "z", 0) {
		t.Fatalf("expected re-insert of existing key to behave as a hit")
	}
	res := c.Find("x")
	v, _ := res.Get()
	if v != "y" {
		t.Fatalf("expected original value to be preserved, got %q", v)
	}
}
