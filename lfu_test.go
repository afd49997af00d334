package numdb

import "testing"

func TestLFUListEvictsLowestFrequencyFirst(t *testing.T) {
	l := NewLFUList(4)
	for i := int32(0); i < 4; i++ {
		l.Insert(i)
	}
	// Touch 1 repeatedly so it accumulates far more frequency than the rest.
	for i := 0; i < 10; i++ {
		l.Touch(1)
	}

	var order []int32
	for i := 0; i < 4; i++ {
		order = append(order, l.EvictLU())
	}
	if order[3] != 1 {
		t.Fatalf("expected the heavily touched entry 1 to be evicted last, order=%v", order)
	}
}

func TestLFUListTouchIncrementsFrequency(t *testing.T) {
	l := NewLFUList(3)
	l.Insert(0)
	l.Insert(1)
	l.Insert(2)

	for i := 0; i < 10; i++ {
		l.Touch(0)
	}

	first := l.EvictLU()
	second := l.EvictLU()
	if first == 0 || second == 0 {
		t.Fatalf("expected the heavily touched entry 0 to survive two evictions, evicted %d then %d", first, second)
	}
	third := l.EvictLU()
	if third != 0 {
		t.Fatalf("expected entry 0 (touched most) to be evicted last, got %d", third)
	}
}
