package numdb_test

import (
	"sync"
	"testing"

	"github.com/go-numdb/numdb"
	"github.com/go-numdb/numdb/container/hashtable"
)

func TestCoarseLockSerializesAccess(t *testing.T) {
	container, err := hashtable.NewLRU[int, int](1 << 16)
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}
	w := numdb.NewCoarseLock[int, int](container)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := (seed + i) % 32
				w.Insert(key, key*key, 1)
				w.Find(key)
			}
		}(g)
	}
	wg.Wait()

	if w.Size() > w.Capacity() {
		t.Fatalf("size %d exceeds capacity %d", w.Size(), w.Capacity())
	}
}

func TestShardedRoutesKeysConsistently(t *testing.T) {
	s, err := numdb.NewSharded[int, int](4, func(i int) *hashtable.LeastUsed[int, int] {
		c, err := hashtable.NewLRU[int, int](1 << 14)
		if err != nil {
			t.Fatalf("NewLRU: %v", err)
		}
		return c
	})
	if err != nil {
		t.Fatalf("NewSharded: %v", err)
	}

	for i := 0; i < 100; i++ {
		s.Insert(i, i*2, 1)
	}
	for i := 0; i < 100; i++ {
		res := s.Find(i)
		if v, ok := res.Get(); !ok || v != i*2 {
			t.Fatalf("key %d: got %v, %v, want %d, true", i, v, ok, i*2)
		}
	}
}

func TestShardedRejectsNonPositiveShardCount(t *testing.T) {
	_, err := numdb.NewSharded[int, int](0, func(i int) *hashtable.LeastUsed[int, int] {
		c, _ := hashtable.NewLRU[int, int](1 << 14)
		return c
	})
	if err != numdb.ErrInvalidShardCount {
		t.Fatalf("expected ErrInvalidShardCount, got %v", err)
	}
}
