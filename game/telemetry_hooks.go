package game

import "log/slog"

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush() {
		return
	}
	g.flushWindow()
}

// flushWindow closes the current stats window regardless of its length.
func (g *Game) flushWindow() {
	stats := g.collector.Flush()
	perfStats := g.profiler.Stats()

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteWindow(stats); err != nil {
		slog.Error("failed to write window stats", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndDay); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	// Check for bookmarks
	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}
