package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/ecosim/config"
)

// csvTable is one append-only CSV file whose header is written with the first row.
type csvTable struct {
	name          string
	file          *os.File
	headerWritten bool
}

func writeRow[T any](t *csvTable, row T) error {
	records := []T{row}

	if !t.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, t.file); err != nil {
			return fmt.Errorf("writing %s: %w", t.name, err)
		}
		t.headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	if err := gocsv.MarshalWithoutHeaders(records, t.file); err != nil {
		return fmt.Errorf("writing %s: %w", t.name, err)
	}
	return nil
}

// OutputManager handles structured experiment output with CSV logging.
// A nil *OutputManager is valid and discards everything.
type OutputManager struct {
	dir       string
	days      *csvTable
	windows   *csvTable
	bookmarks *csvTable
	perf      *csvTable
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, t := range []struct {
		dst  **csvTable
		name string
	}{
		{&om.days, "days.csv"},
		{&om.windows, "windows.csv"},
		{&om.bookmarks, "bookmarks.csv"},
		{&om.perf, "perf.csv"},
	} {
		f, err := os.Create(filepath.Join(dir, t.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", t.name, err)
		}
		*t.dst = &csvTable{name: t.name, file: f}
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// Report implements Sink by appending the report to days.csv.
func (om *OutputManager) Report(_ context.Context, r DayReport) error {
	if om == nil {
		return nil
	}
	return writeRow(om.days, r)
}

// WriteWindow writes a window stats record to windows.csv.
func (om *OutputManager) WriteWindow(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return writeRow(om.windows, stats)
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return writeRow(om.bookmarks, b)
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	return writeRow(om.perf, stats.ToCSV(windowEnd))
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var errs []error
	for _, t := range []*csvTable{om.days, om.windows, om.bookmarks, om.perf} {
		if t == nil || t.file == nil {
			continue
		}
		if err := t.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", t.name, err))
		}
		t.file = nil
	}
	return errors.Join(errs...)
}
