package telemetry

import (
	"context"
	"errors"
	"log/slog"
)

// Sink receives every published day report.
type Sink interface {
	Report(ctx context.Context, r DayReport) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, r DayReport) error

// Report calls f.
func (f SinkFunc) Report(ctx context.Context, r DayReport) error {
	return f(ctx, r)
}

// MultiSink fans a report out to several sinks. Every sink is called even if
// an earlier one fails.
type MultiSink []Sink

// Report implements Sink.
func (m MultiSink) Report(ctx context.Context, r DayReport) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Report(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes the daily report line, or the collapse warning, to a logger.
type LogSink struct {
	Logger *slog.Logger // nil uses slog.Default()
}

// Report implements Sink.
func (l LogSink) Report(ctx context.Context, r DayReport) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if r.Collapsed {
		// Only the step that caused the collapse is announced.
		if r.Transitioned {
			logger.WarnContext(ctx, "ecosystem_collapsed", "day", r.Day)
		}
		return nil
	}
	logger.InfoContext(ctx, "daily_report",
		"day", r.Day,
		"prey", r.Prey,
		"predators", r.Predators,
	)
	return nil
}
