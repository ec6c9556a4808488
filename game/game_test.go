package game

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/population"
	"github.com/pthm-cable/ecosim/telemetry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func newTestGame(t *testing.T, opts Options) *Game {
	t.Helper()
	if opts.Config == nil {
		opts.Config = testConfig(t)
	}
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	g, err := NewGameWithOptions(opts)
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func assertInstances(t *testing.T, g *Game) {
	t.Helper()
	s := g.State()
	if got := g.InstanceCount(components.KindPrey); got != s.Prey {
		t.Errorf("prey instances = %d, want %d", got, s.Prey)
	}
	if got := g.InstanceCount(components.KindPredator); got != s.Predators {
		t.Errorf("predator instances = %d, want %d", got, s.Predators)
	}
}

func TestNewGame_DayZero(t *testing.T) {
	var reports []telemetry.DayReport
	g := newTestGame(t, Options{
		Headless: true,
		Sinks: []telemetry.Sink{telemetry.SinkFunc(func(_ context.Context, r telemetry.DayReport) error {
			reports = append(reports, r)
			return nil
		})},
	})

	if g.Day() != 0 {
		t.Errorf("day = %d, want 0", g.Day())
	}
	assertInstances(t, g)
	if g.InstanceCount(components.KindPrey) != 20 || g.InstanceCount(components.KindPredator) != 3 {
		t.Errorf("initial instances = (%d, %d), want (20, 3)",
			g.InstanceCount(components.KindPrey), g.InstanceCount(components.KindPredator))
	}

	if len(reports) != 1 {
		t.Fatalf("sink received %d reports, want 1", len(reports))
	}
	if r := reports[0]; r.Day != 0 || r.PreyCreated != 20 || r.PredCreated != 3 {
		t.Errorf("day 0 report = %+v", r)
	}
}

func TestStepDay(t *testing.T) {
	g := newTestGame(t, Options{Headless: true})

	r, err := g.StepDay()
	if err != nil {
		t.Fatalf("StepDay: %v", err)
	}
	if r.Day != 1 || r.Prey != 19 || r.Predators != 3 || r.Collapsed || !r.Transitioned {
		t.Errorf("report = %+v, want day 1 with 19 prey and 3 predators", r)
	}
	if r.PreyDestroyed != 1 || r.PreyCreated != 0 {
		t.Errorf("prey churn = +%d/-%d, want +0/-1", r.PreyCreated, r.PreyDestroyed)
	}
	assertInstances(t, g)
}

func TestRunUntilCollapse(t *testing.T) {
	var windows []telemetry.WindowStats
	g := newTestGame(t, Options{
		Headless:        true,
		StatsWindowDays: 5,
		StatsCallback:   func(s telemetry.WindowStats) { windows = append(windows, s) },
	})

	for !g.Done() {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatalf("UpdateHeadless: %v", err)
		}
		assertInstances(t, g)
		if g.Day() > 100 {
			t.Fatal("no collapse after 100 days")
		}
	}

	// 20 prey losing one per day.
	if !g.Collapsed() || g.Day() != 20 {
		t.Fatalf("state = %+v, want collapse on day 20", g.State())
	}
	if g.InstanceCount(components.KindPrey) != 0 || g.InstanceCount(components.KindPredator) != 0 {
		t.Error("instances remain after collapse")
	}

	// Further steps are no-ops.
	r, err := g.StepDay()
	if err != nil {
		t.Fatal(err)
	}
	if r.Transitioned || r.Day != 20 || !r.Collapsed {
		t.Errorf("post-collapse report = %+v", r)
	}

	// Days 0..19 fill four windows of five; the collapse day closes a fifth.
	if len(windows) != 5 {
		t.Fatalf("got %d stats windows, want 5", len(windows))
	}
	for i, w := range windows[:4] {
		if w.Days != 5 || w.WindowStartDay != 5*i || w.WindowEndDay != 5*i+4 {
			t.Errorf("window %d = days %d..%d (%d), want %d..%d (5)",
				i, w.WindowStartDay, w.WindowEndDay, w.Days, 5*i, 5*i+4)
		}
	}
	if last := windows[4]; !last.Collapsed || last.WindowStartDay != 20 || last.WindowEndDay != 20 {
		t.Errorf("last window = %+v, want collapsed at day 20", last)
	}
}

func TestImmediateCollapse(t *testing.T) {
	cfg := testConfig(t)
	cfg.Population.InitialPrey = 2
	cfg.Population.InitialPredators = 10
	g := newTestGame(t, Options{Config: cfg, Headless: true})

	r, err := g.StepDay()
	if err != nil {
		t.Fatal(err)
	}
	if !r.Collapsed || r.Prey != 0 || r.Predators != 0 || r.Day != 1 {
		t.Errorf("report = %+v, want collapse on day 1", r)
	}
	if r.PreyDestroyed != 2 || r.PredDestroyed != 10 {
		t.Errorf("destroyed = (%d, %d), want (2, 10)", r.PreyDestroyed, r.PredDestroyed)
	}
	assertInstances(t, g)
}

func TestInvalidInitialCounts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Population.InitialPrey = -1

	_, err := NewGameWithOptions(Options{Config: cfg, Headless: true})
	if !errors.Is(err, population.ErrInvalidConfiguration) {
		t.Errorf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestMaxDays(t *testing.T) {
	g := newTestGame(t, Options{Headless: true, MaxDays: 5})

	for !g.Done() {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatal(err)
		}
	}
	if g.Day() != 5 || g.Collapsed() {
		t.Errorf("state = %+v, want day 5 running", g.State())
	}
}

func TestUpdate_DayTimer(t *testing.T) {
	g := newTestGame(t, Options{})

	g.Update(0.5)
	if g.Day() != 0 {
		t.Fatalf("day = %d after half a day", g.Day())
	}
	g.Update(0.5)
	if g.Day() != 1 {
		t.Fatalf("day = %d after a full day, want 1", g.Day())
	}

	// The timer restarts from zero: overshoot is not carried over.
	g.Update(1.5)
	if g.Day() != 2 {
		t.Fatalf("day = %d, want 2", g.Day())
	}
	g.Update(0.75)
	if g.Day() != 2 {
		t.Errorf("day = %d, overshoot was carried into the next day", g.Day())
	}
	g.Update(0.25)
	if g.Day() != 3 {
		t.Errorf("day = %d, want 3", g.Day())
	}
}

func TestUpdate_Paused(t *testing.T) {
	g := newTestGame(t, Options{})

	g.SetPaused(true)
	for i := 0; i < 10; i++ {
		g.Update(1)
	}
	if g.Day() != 0 {
		t.Errorf("day advanced to %d while paused", g.Day())
	}

	g.SetPaused(false)
	g.Update(1)
	if g.Day() != 1 {
		t.Errorf("day = %d after resuming, want 1", g.Day())
	}
}

func TestSetSecondsPerDay(t *testing.T) {
	g := newTestGame(t, Options{})

	g.SetSecondsPerDay(0.25)
	g.Update(0.25)
	if g.Day() != 1 {
		t.Errorf("day = %d, want 1 with quarter-second days", g.Day())
	}

	g.SetSecondsPerDay(-1)
	if g.SecondsPerDay() != 0.25 {
		t.Errorf("seconds per day = %v, negative value should be ignored", g.SecondsPerDay())
	}
}

func TestInstancesSettleOnGround(t *testing.T) {
	g := newTestGame(t, Options{})
	g.SetSecondsPerDay(1000)

	for i := 0; i < 180; i++ {
		g.Update(1.0 / 60.0)
	}

	for _, kind := range components.Kinds {
		n := 0
		g.ForEachInstance(kind, func(pos components.Position, body components.Body) {
			n++
			if pos.Y != body.Radius {
				t.Errorf("%s at y=%v, want resting at %v", kind, pos.Y, body.Radius)
			}
			if pos.X < -4 || pos.X > 4 || pos.Z < -4 || pos.Z > 4 {
				t.Errorf("%s outside spawn area at (%v, %v)", kind, pos.X, pos.Z)
			}
		})
		if n != g.InstanceCount(kind) {
			t.Errorf("visited %d %s instances, want %d", n, kind, g.InstanceCount(kind))
		}
	}
}

func TestOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	g, err := NewGameWithOptions(Options{Config: testConfig(t), Headless: true, OutputDir: dir, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := g.StepDay(); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "days.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 { // header + days 0..3
		t.Errorf("days.csv has %d lines, want 5", len(lines))
	}

	// The partial window is flushed on Close.
	windows, err := os.ReadFile(filepath.Join(dir, "windows.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(strings.Split(strings.TrimSpace(string(windows)), "\n")) != 2 {
		t.Errorf("windows.csv:\n%s\nwant header + 1 row", windows)
	}
	for _, name := range []string{"config.yaml", "bookmarks.csv", "perf.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}

func TestDayProgress(t *testing.T) {
	g := newTestGame(t, Options{})

	if p := g.DayProgress(); p != 0 {
		t.Errorf("progress = %v at start, want 0", p)
	}
	g.Update(0.25)
	if p := g.DayProgress(); p < 0.24 || p > 0.26 {
		t.Errorf("progress = %v after a quarter day, want 0.25", p)
	}
	g.Update(0.75)
	if p := g.DayProgress(); p != 0 {
		t.Errorf("progress = %v after the day ended, want 0", p)
	}
}

func TestStepDay_StopsWhenDone(t *testing.T) {
	g := newTestGame(t, Options{Headless: true, MaxDays: 2})

	for !g.Done() {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 2; i++ {
		r, err := g.StepDay()
		if err != nil {
			t.Fatal(err)
		}
		if r.Transitioned || r.Day != 2 {
			t.Errorf("manual step past max days = %+v, want day 2 unchanged", r)
		}
	}
	if g.Day() != 2 {
		t.Errorf("day = %d, want 2", g.Day())
	}
	assertInstances(t, g)
}

func TestStepDay_StopsAfterFailure(t *testing.T) {
	g := newTestGame(t, Options{Headless: true})
	if _, err := g.StepDay(); err != nil {
		t.Fatal(err)
	}

	g.fail(errors.New("destroy failed"))
	r, err := g.StepDay()
	if err != nil {
		t.Fatal(err)
	}
	if r.Transitioned || g.Day() != 1 {
		t.Errorf("step after failure = %+v at day %d, want day 1 unchanged", r, g.Day())
	}
	if g.Err() == nil || !g.Done() {
		t.Error("failure should end the run")
	}
}

func TestWindowsHoldConfiguredDays(t *testing.T) {
	var windows []telemetry.WindowStats
	g := newTestGame(t, Options{
		Headless:        true,
		StatsWindowDays: 3,
		StatsCallback:   func(s telemetry.WindowStats) { windows = append(windows, s) },
	})

	for i := 0; i < 5; i++ {
		if _, err := g.StepDay(); err != nil {
			t.Fatal(err)
		}
	}
	// Days 0..5: two full windows, day 0 included in the first.
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	if w := windows[0]; w.Days != 3 || w.WindowStartDay != 0 || w.WindowEndDay != 2 {
		t.Errorf("first window = days %d..%d (%d), want 0..2 (3)", w.WindowStartDay, w.WindowEndDay, w.Days)
	}
	if w := windows[1]; w.Days != 3 || w.WindowStartDay != 3 || w.WindowEndDay != 5 {
		t.Errorf("second window = days %d..%d (%d), want 3..5 (3)", w.WindowStartDay, w.WindowEndDay, w.Days)
	}
}
