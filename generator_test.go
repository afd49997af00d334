package numdb

import "testing"

func TestGeneratorWarmupReturnsMidpoint(t *testing.T) {
	g := NewGenerator(256)
	for i := uint64(0); i < DefaultWarmup-1; i++ {
		if got := g.Calculate(1000); got != 128 {
			t.Fatalf("expected midpoint priority %d during warmup, got %d", 128, got)
		}
	}
}

func TestGeneratorBoundsAfterWarmup(t *testing.T) {
	g := NewGenerator(256)
	var last uint64
	for i := uint64(0); i < DefaultWarmup+50; i++ {
		last = g.Calculate(500 + i*10)
	}
	if last == 0 || last >= 256 {
		t.Fatalf("expected priority in [1, 255], got %d", last)
	}
}

func TestGeneratorDecayWindowHalvesAccumulators(t *testing.T) {
	g := NewGenerator(256)
	for i := uint64(0); i < DefaultDecayWindow+10; i++ {
		g.Calculate(1000)
	}
	if g.count > DefaultDecayWindow {
		t.Fatalf("expected count to have decayed back under the window, got %d", g.count)
	}
}

func TestMinMaxGeneratorTracksObservedRange(t *testing.T) {
	g := NewMinMaxGenerator(256)
	for i := uint64(0); i < DefaultWarmup; i++ {
		g.Calculate(1000)
	}
	low := g.Calculate(100)
	high := g.Calculate(5000)
	if !(low < high) {
		t.Fatalf("expected a shorter duration to map to a lower priority than a longer one, got low=%d high=%d", low, high)
	}
}
