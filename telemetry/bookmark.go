package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkCollapse        BookmarkType = "collapse"
	BookmarkPreyCrash       BookmarkType = "prey_crash"
	BookmarkPreyDoubled     BookmarkType = "prey_doubled"
	BookmarkStableEcosystem BookmarkType = "stable_ecosystem"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Day         int          `csv:"day"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"day", b.Day,
		"description", b.Description,
	)
}

// BookmarkConfig holds the detection thresholds.
type BookmarkConfig struct {
	HistorySize   int
	CrashDropPct  float64 // fraction of the recent peak, e.g. 0.30
	CrashMinDrop  int     // absolute drop required as well
	StableCV      float64 // prey coefficient of variation below which a window is stable
	StableWindows int     // consecutive stable windows before triggering
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	cfg BookmarkConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historyIdx  int
	historyFull bool

	// State tracking
	recentPreyPeak     int // peak prey count since the last crash
	preyMark           int // prey count the next doubling is measured against
	stableWindowsCount int // consecutive windows with stable prey
	collapseSeen       bool
}

// NewBookmarkDetector creates a detector with the given thresholds.
func NewBookmarkDetector(cfg BookmarkConfig) *BookmarkDetector {
	if cfg.HistorySize < 5 {
		cfg.HistorySize = 5
	}
	if cfg.StableWindows < 1 {
		cfg.StableWindows = 1
	}
	return &BookmarkDetector{
		cfg:     cfg,
		history: make([]WindowStats, cfg.HistorySize),
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkCollapse(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkPreyCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPreyDoubled(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	if b := bd.checkStableEcosystem(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if stats.PreyCount > bd.recentPreyPeak {
		bd.recentPreyPeak = stats.PreyCount
	}
	if bd.preyMark == 0 {
		bd.preyMark = stats.PreyCount
	}

	return bookmarks
}

// History returns the retained windows, oldest first.
func (bd *BookmarkDetector) History() []WindowStats {
	if !bd.historyFull {
		out := make([]WindowStats, bd.historyIdx)
		copy(out, bd.history[:bd.historyIdx])
		return out
	}
	out := make([]WindowStats, 0, len(bd.history))
	out = append(out, bd.history[bd.historyIdx:]...)
	out = append(out, bd.history[:bd.historyIdx]...)
	return out
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % len(bd.history)
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) checkCollapse(stats WindowStats) *Bookmark {
	if !stats.Collapsed || bd.collapseSeen {
		return nil
	}
	bd.collapseSeen = true
	return &Bookmark{
		Type:        BookmarkCollapse,
		Day:         stats.WindowEndDay,
		Description: fmt.Sprintf("Ecosystem collapsed by day %d", stats.WindowEndDay),
	}
}

func (bd *BookmarkDetector) checkPreyCrash(stats WindowStats) *Bookmark {
	if bd.recentPreyPeak == 0 {
		return nil
	}

	drop := bd.recentPreyPeak - stats.PreyCount
	dropPercent := float64(drop) / float64(bd.recentPreyPeak)
	if dropPercent > bd.cfg.CrashDropPct && drop >= bd.cfg.CrashMinDrop {
		// Reset peak after crash
		oldPeak := bd.recentPreyPeak
		bd.recentPreyPeak = stats.PreyCount

		return &Bookmark{
			Type:        BookmarkPreyCrash,
			Day:         stats.WindowEndDay,
			Description: fmt.Sprintf("Prey crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.PreyCount),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPreyDoubled(stats WindowStats) *Bookmark {
	if bd.preyMark <= 0 || stats.PreyCount < 2*bd.preyMark {
		return nil
	}

	oldMark := bd.preyMark
	bd.preyMark = stats.PreyCount
	return &Bookmark{
		Type:        BookmarkPreyDoubled,
		Day:         stats.WindowEndDay,
		Description: fmt.Sprintf("Prey grew from %d to %d", oldMark, stats.PreyCount),
	}
}

func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	// Need both populations present
	if stats.Collapsed || stats.PreyCount == 0 || stats.PredCount == 0 {
		bd.stableWindowsCount = 0
		return nil
	}

	if stats.PreySummary().CV() < bd.cfg.StableCV {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == bd.cfg.StableWindows { // trigger once per stable run
		return &Bookmark{
			Type:        BookmarkStableEcosystem,
			Day:         stats.WindowEndDay,
			Description: fmt.Sprintf("Stable ecosystem with %d prey, %d predators over %d windows", stats.PreyCount, stats.PredCount, bd.cfg.StableWindows),
		}
	}

	return nil
}
