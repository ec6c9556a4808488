package telemetry

// Collector accumulates day reports within windows and produces WindowStats.
type Collector struct {
	windowDays int

	// Current window tracking
	windowStartDay int
	preySamples    []float64
	predSamples    []float64
	last           DayReport
	collapsed      bool

	// Event counters for current window
	preyBirths int
	predBirths int
	preyDeaths int
	predDeaths int
}

// NewCollector creates a new stats collector. Each window spans windowDays days.
func NewCollector(windowDays int) *Collector {
	if windowDays < 1 {
		windowDays = 1
	}
	return &Collector{
		windowDays:  windowDays,
		preySamples: make([]float64, 0, windowDays),
		predSamples: make([]float64, 0, windowDays),
	}
}

// Record adds one day to the current window. Collapsed no-op reports are ignored.
// Day 0 is an ordinary sample, so every window holds windowDays reports.
func (c *Collector) Record(r DayReport) {
	if c.collapsed && !r.Transitioned {
		return
	}
	if len(c.preySamples) == 0 {
		c.windowStartDay = r.Day
	}
	c.preySamples = append(c.preySamples, float64(r.Prey))
	c.predSamples = append(c.predSamples, float64(r.Predators))
	c.preyBirths += r.PreyCreated
	c.predBirths += r.PredCreated
	c.preyDeaths += r.PreyDestroyed
	c.predDeaths += r.PredDestroyed
	if r.Collapsed {
		c.collapsed = true
	}
	c.last = r
}

// ShouldFlush returns true if the window holds windowDays reports or the
// population collapsed during it.
func (c *Collector) ShouldFlush() bool {
	if len(c.preySamples) == 0 {
		return false
	}
	return len(c.preySamples) >= c.windowDays || c.collapsed
}

// Flush produces a WindowStats covering the first through the last recorded
// day and resets counters for the next window.
func (c *Collector) Flush() WindowStats {
	prey := Summarize(c.preySamples)
	pred := Summarize(c.predSamples)

	stats := WindowStats{
		WindowStartDay: c.windowStartDay,
		WindowEndDay:   c.last.Day,
		Days:           len(c.preySamples),

		PreyCount: c.last.Prey,
		PredCount: c.last.Predators,
		Collapsed: c.collapsed,

		PreyBirths: c.preyBirths,
		PredBirths: c.predBirths,
		PreyDeaths: c.preyDeaths,
		PredDeaths: c.predDeaths,

		PreyMean: prey.Mean,
		PreyStd:  prey.Std,
		PreyP10:  prey.P10,
		PreyP50:  prey.P50,
		PreyP90:  prey.P90,

		PredMean: pred.Mean,
		PredStd:  pred.Std,
		PredP10:  pred.P10,
		PredP50:  pred.P50,
		PredP90:  pred.P90,
	}

	// Reset for next window. The collapsed flag sticks: nothing follows a collapse.
	c.preySamples = c.preySamples[:0]
	c.predSamples = c.predSamples[:0]
	c.preyBirths = 0
	c.predBirths = 0
	c.preyDeaths = 0
	c.predDeaths = 0

	return stats
}

// Pending returns the number of days recorded since the last flush.
func (c *Collector) Pending() int {
	return len(c.preySamples)
}

// WindowDays returns the number of days per window.
func (c *Collector) WindowDays() int {
	return c.windowDays
}
