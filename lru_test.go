package numdb

import "testing"

func TestLRUListEvictsInsertionOrderWithoutTouches(t *testing.T) {
	l := NewLRUList(4)
	for i := int32(0); i < 4; i++ {
		l.Insert(i)
	}
	for i := int32(0); i < 4; i++ {
		if got := l.EvictLU(); got != i {
			t.Fatalf("expected eviction order %d, got %d", i, got)
		}
	}
}

func TestLRUListTouchPromotesToMostRecentlyUsed(t *testing.T) {
	l := NewLRUList(3)
	l.Insert(0)
	l.Insert(1)
	l.Insert(2)
	l.Touch(0)
	if got := l.EvictLU(); got != 1 {
		t.Fatalf("expected 1 to be evicted first after touching 0, got %d", got)
	}
	if got := l.EvictLU(); got != 2 {
		t.Fatalf("expected 2 next, got %d", got)
	}
	if got := l.EvictLU(); got != 0 {
		t.Fatalf("expected the touched entry 0 last, got %d", got)
	}
}

func TestLRUListExtractRemovesWithoutEviction(t *testing.T) {
	l := NewLRUList(3)
	l.Insert(0)
	l.Insert(1)
	l.Insert(2)
	l.Extract(1)
	if got := l.EvictLU(); got != 0 {
		t.Fatalf("expected 0 first, got %d", got)
	}
	if got := l.EvictLU(); got != 2 {
		t.Fatalf("expected 2 next (1 was extracted), got %d", got)
	}
}
