// Package telemetry publishes day reports and tracks ecosystem health over
// windows of days.
package telemetry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pthm-cable/ecosim/population"
	"github.com/pthm-cable/ecosim/reconcile"
)

// DayReport is the snapshot published after every day (and once for day 0).
type DayReport struct {
	Day          int  `csv:"day" json:"day"`
	Prey         int  `csv:"prey" json:"prey"`
	Predators    int  `csv:"predators" json:"predators"`
	Collapsed    bool `csv:"collapsed" json:"collapsed"`
	Transitioned bool `csv:"-" json:"transitioned"` // false when the step was a collapsed no-op

	// Instance churn caused by this day's reconciliation
	PreyCreated   int `csv:"prey_created" json:"prey_created"`
	PreyDestroyed int `csv:"prey_destroyed" json:"prey_destroyed"`
	PredCreated   int `csv:"pred_created" json:"pred_created"`
	PredDestroyed int `csv:"pred_destroyed" json:"pred_destroyed"`
}

// NewDayReport builds a report from the model state and the two pool deltas.
func NewDayReport(s population.State, transitioned bool, prey, pred reconcile.Delta) DayReport {
	return DayReport{
		Day:           s.Day,
		Prey:          s.Prey,
		Predators:     s.Predators,
		Collapsed:     s.Collapsed,
		Transitioned:  transitioned,
		PreyCreated:   prey.Created,
		PreyDestroyed: prey.Destroyed,
		PredCreated:   pred.Created,
		PredDestroyed: pred.Destroyed,
	}
}

// Header is the first display line.
func (r DayReport) Header() string {
	return fmt.Sprintf("DAY %d", r.Day)
}

// Banner returns the collapse notice lines, or nil while running.
func (r DayReport) Banner() []string {
	if !r.Collapsed {
		return nil
	}
	return []string{"ECOSYSTEM COLLAPSED!", "END OF SIMULATION"}
}

// Counts returns the population lines.
func (r DayReport) Counts() []string {
	return []string{
		fmt.Sprintf("Prey: %d", r.Prey),
		fmt.Sprintf("Predators: %d", r.Predators),
	}
}

// Text renders the report as the multi-line on-screen text.
func (r DayReport) Text() string {
	var b strings.Builder
	b.WriteString(r.Header())
	b.WriteString("\n\n")
	if banner := r.Banner(); banner != nil {
		b.WriteString(strings.Join(banner, "\n"))
		b.WriteString("\n\n")
	}
	b.WriteString(strings.Join(r.Counts(), "\n"))
	return b.String()
}

// LogValue implements slog.LogValuer for structured logging.
func (r DayReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("day", r.Day),
		slog.Int("prey", r.Prey),
		slog.Int("predators", r.Predators),
		slog.Bool("collapsed", r.Collapsed),
		slog.Int("prey_created", r.PreyCreated),
		slog.Int("prey_destroyed", r.PreyDestroyed),
		slog.Int("pred_created", r.PredCreated),
		slog.Int("pred_destroyed", r.PredDestroyed),
	)
}
