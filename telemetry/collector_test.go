package telemetry

import (
	"math"
	"testing"
)

func TestCollector_WindowFlush(t *testing.T) {
	c := NewCollector(3)

	prey := []int{20, 19, 18}
	for day, n := range prey {
		if c.ShouldFlush() {
			t.Fatalf("flushed early before day %d", day)
		}
		c.Record(DayReport{Day: day, Prey: n, Predators: 3, Transitioned: true, PreyDestroyed: 1})
	}

	if !c.ShouldFlush() {
		t.Fatal("expected flush after a full window")
	}
	stats := c.Flush()

	if stats.Days != 3 || stats.WindowStartDay != 0 || stats.WindowEndDay != 2 {
		t.Errorf("window = %d..%d over %d days, want 0..2 over 3", stats.WindowStartDay, stats.WindowEndDay, stats.Days)
	}
	if stats.PreyCount != 18 || stats.PredCount != 3 {
		t.Errorf("end counts = (%d, %d), want (18, 3)", stats.PreyCount, stats.PredCount)
	}
	if math.Abs(stats.PreyMean-19) > 1e-9 {
		t.Errorf("prey mean = %v, want 19", stats.PreyMean)
	}
	if stats.PredStd != 0 {
		t.Errorf("predator std = %v, want 0", stats.PredStd)
	}
	if stats.PreyDeaths != 3 {
		t.Errorf("prey deaths = %d, want 3", stats.PreyDeaths)
	}

	// Counters reset for the next window.
	if c.ShouldFlush() {
		t.Error("empty window should not flush")
	}
}

func TestCollector_WindowsAreEqualLength(t *testing.T) {
	c := NewCollector(4)

	var windows []WindowStats
	for day := 0; day < 12; day++ {
		c.Record(DayReport{Day: day, Prey: 30 - day, Predators: 2, Transitioned: true})
		if c.ShouldFlush() {
			windows = append(windows, c.Flush())
		}
	}

	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}
	for i, w := range windows {
		if w.Days != 4 || w.WindowStartDay != 4*i || w.WindowEndDay != 4*i+3 {
			t.Errorf("window %d = %d..%d over %d days, want %d..%d over 4",
				i, w.WindowStartDay, w.WindowEndDay, w.Days, 4*i, 4*i+3)
		}
	}
}

func TestCollector_CollapseFlushesEarly(t *testing.T) {
	c := NewCollector(10)

	c.Record(DayReport{Day: 1, Prey: 3, Predators: 2, Transitioned: true})
	c.Record(DayReport{Day: 2, Collapsed: true, Transitioned: true, PreyDestroyed: 3, PredDestroyed: 2})
	if !c.ShouldFlush() {
		t.Fatal("collapse should flush the window")
	}

	stats := c.Flush()
	if stats.WindowStartDay != 1 || stats.WindowEndDay != 2 {
		t.Errorf("window = %d..%d, want 1..2", stats.WindowStartDay, stats.WindowEndDay)
	}
	if !stats.Collapsed {
		t.Error("window should be marked collapsed")
	}
	if stats.PredDeaths != 2 {
		t.Errorf("pred deaths = %d, want 2", stats.PredDeaths)
	}

	// Collapsed no-op reports are ignored afterwards.
	c.Record(DayReport{Day: 2, Collapsed: true})
	if c.ShouldFlush() {
		t.Error("no-op reports after collapse should not produce windows")
	}
}
