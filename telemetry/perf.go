package telemetry

import (
	"context"
	"log/slog"
	"time"
)

// Stage is one part of a simulated day.
type Stage uint8

const (
	StageStep Stage = iota
	StageReconcile
	StageEffects
	StageReport
	StageTelemetry

	numStages
)

var stageNames = [numStages]string{"step", "reconcile", "effects", "report", "telemetry"}

// String returns the stage name used in log keys.
func (s Stage) String() string {
	if s < numStages {
		return stageNames[s]
	}
	return "unknown"
}

// DayTiming is the wall time spent on one day, split by stage.
type DayTiming struct {
	Total  time.Duration
	Stages [numStages]time.Duration
}

// Profiler times day steps and keeps the most recent window of them.
// Begin opens a day, Enter switches stage and End closes the day.
// Calls outside an open day are ignored.
type Profiler struct {
	now  func() time.Time
	ring []DayTiming
	next int
	kept int

	cur     DayTiming
	open    bool
	staged  bool
	stage   Stage
	begun   time.Time
	entered time.Time
}

// NewProfiler creates a profiler averaging over the last window days.
func NewProfiler(window int) *Profiler {
	if window < 1 {
		window = 60
	}
	return &Profiler{now: time.Now, ring: make([]DayTiming, window)}
}

// Begin starts timing a day.
func (p *Profiler) Begin() {
	t := p.now()
	p.cur = DayTiming{}
	p.open, p.staged = true, false
	p.begun, p.entered = t, t
}

// Enter closes the running stage, if any, and starts s.
func (p *Profiler) Enter(s Stage) {
	if !p.open {
		return
	}
	t := p.now()
	p.closeStage(t)
	p.stage, p.staged, p.entered = s, true, t
}

// End closes the day and stores its timing.
func (p *Profiler) End() {
	if !p.open {
		return
	}
	t := p.now()
	p.closeStage(t)
	p.cur.Total = t.Sub(p.begun)
	p.open = false

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	if p.kept < len(p.ring) {
		p.kept++
	}
}

func (p *Profiler) closeStage(t time.Time) {
	if p.staged && p.stage < numStages {
		p.cur.Stages[p.stage] += t.Sub(p.entered)
	}
}

// Stats averages the days currently in the window.
func (p *Profiler) Stats() PerfStats {
	s := PerfStats{Days: p.kept}
	if p.kept == 0 {
		return s
	}

	var total time.Duration
	var stages [numStages]time.Duration
	for _, d := range p.ring[:p.kept] {
		total += d.Total
		for i, v := range d.Stages {
			stages[i] += v
		}
	}

	s.AvgDay = total / time.Duration(p.kept)
	if total > 0 {
		for i, v := range stages {
			s.shares[i] = float64(v) / float64(total) * 100
		}
	}
	return s
}

// PerfStats summarizes the profiled window.
type PerfStats struct {
	Days   int
	AvgDay time.Duration

	shares [numStages]float64
}

// Share returns the percentage of day time spent in st.
func (s PerfStats) Share(st Stage) float64 {
	if st >= numStages {
		return 0
	}
	return s.shares[st]
}

func (s PerfStats) attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.Int("days", s.Days),
		slog.Int64("avg_day_us", s.AvgDay.Microseconds()),
	}
	for st := Stage(0); st < numStages; st++ {
		attrs = append(attrs, slog.Float64(st.String()+"_pct", s.shares[st]))
	}
	return attrs
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	return slog.GroupValue(s.attrs()...)
}

// LogStats logs the window as one "perf" line.
func (s PerfStats) LogStats() {
	slog.LogAttrs(context.Background(), slog.LevelInfo, "perf", s.attrs()...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int     `csv:"window_end"`
	Days         int     `csv:"days"`
	AvgDayUS     int64   `csv:"avg_day_us"`
	StepPct      float64 `csv:"step_pct"`
	ReconcilePct float64 `csv:"reconcile_pct"`
	EffectsPct   float64 `csv:"effects_pct"`
	ReportPct    float64 `csv:"report_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending on windowEnd.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		Days:         s.Days,
		AvgDayUS:     s.AvgDay.Microseconds(),
		StepPct:      s.shares[StageStep],
		ReconcilePct: s.shares[StageReconcile],
		EffectsPct:   s.shares[StageEffects],
		ReportPct:    s.shares[StageReport],
		TelemetryPct: s.shares[StageTelemetry],
	}
}
