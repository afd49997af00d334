package wst

import "testing"

func TestInsertFindErase(t *testing.T) {
	tr, err := New[int, string](4096, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Find(1).Present() {
		t.Fatalf("expected miss on empty tree")
	}
	tr.Insert(1, "one", 10)
	tr.Insert(2, "two", 20)
	tr.Insert(0, "zero", 5)

	for _, tc := range []struct {
		key  int
		want string
	}{{1, "one"}, {2, "two"}, {0, "zero"}} {
		res := tr.Find(tc.key)
		if !res.Present() {
			t.Fatalf("expected key %d to be present", tc.key)
		}
		if v, _ := res.Get(); v != tc.want {
			t.Fatalf("key %d: got %q, want %q", tc.key, v, tc.want)
		}
	}

	if !tr.Erase(1) {
		t.Fatalf("expected erase of present key to succeed")
	}
	if tr.Find(1).Present() {
		t.Fatalf("expected key 1 to be gone")
	}
	if !tr.Find(0).Present() || !tr.Find(2).Present() {
		t.Fatalf("expected unrelated keys to survive the erase")
	}
}

func TestAVLOrderingSurvivesManyInserts(t *testing.T) {
	tr, err := New[int, int](1<<20, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	const n = 200
	for i := 0; i < n; i++ {
		// Insert in an order that forces left and right rotations alike.
		key := (i * 37) % n
		tr.Insert(key, key*2, uint64(i%250)+1)
	}
	for i := 0; i < n; i++ {
		res := tr.Find(i)
		if !res.Present() {
			t.Fatalf("expected key %d to be present", i)
		}
		if v, _ := res.Get(); v != i*2 {
			t.Fatalf("key %d: got %d, want %d", i, v, i*2)
		}
	}
}

func TestEvictsMinimumPriorityWhenFull(t *testing.T) {
	tr, err := New[int, int](1<<16, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cap := tr.Capacity()
	if cap < 8 {
		t.Skipf("capacity %d too small for this scenario", cap)
	}
	for i := 0; i < cap; i++ {
		tr.Insert(i, i, 1)
	}
	for i := 1; i < cap; i++ {
		tr.Find(i)
	}
	tr.Insert(-1, -1, 255)
	if tr.Find(0).Present() {
		t.Fatalf("expected the never-revisited key to be evicted")
	}
	if !tr.Find(-1).Present() {
		t.Fatalf("expected the freshly inserted key to be present")
	}
	if tr.Size() != cap {
		t.Fatalf("expected size to remain at capacity, got %d of %d", tr.Size(), cap)
	}
}

func TestDegradationKeepsRepeatedlyAccessedKeyPresent(t *testing.T) {
	tr, err := New[int, int](1<<16, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 16; i++ {
		tr.Insert(i, i, 200)
	}
	for i := 0; i < 50; i++ {
		tr.Find(15)
	}
	if !tr.Find(15).Present() {
		t.Fatalf("expected repeatedly accessed key to remain present")
	}
}
