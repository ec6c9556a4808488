package main

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/ecosim/population"
	"github.com/pthm-cable/ecosim/telemetry"
)

// Range is an inclusive integer grid axis.
type Range struct {
	Min, Max, Step int
}

// Values expands the range. A non-positive step is treated as 1 and an
// inverted range yields nothing.
func (r Range) Values() []int {
	step := r.Step
	if step <= 0 {
		step = 1
	}
	var out []int
	for v := r.Min; v <= r.Max; v += step {
		out = append(out, v)
	}
	return out
}

// Cell is the outcome of one grid point.
type Cell struct {
	InitialPrey      int  `csv:"initial_prey"`
	InitialPredators int  `csv:"initial_predators"`
	Days             int  `csv:"days"`
	Collapsed        bool `csv:"collapsed"`
	FinalPrey        int  `csv:"final_prey"`
}

// Simulate runs the model from the given counts until it collapses or
// maxDays have passed.
func Simulate(rules population.Rules, prey, predators, maxDays int) (Cell, error) {
	m, err := population.NewModel(rules)
	if err != nil {
		return Cell{}, err
	}
	if err := m.Configure(prey, predators); err != nil {
		return Cell{}, err
	}

	s := m.State()
	for s.Day < maxDays && !s.Collapsed {
		s, _ = m.Step()
	}

	return Cell{
		InitialPrey:      prey,
		InitialPredators: predators,
		Days:             s.Day,
		Collapsed:        s.Collapsed,
		FinalPrey:        s.Prey,
	}, nil
}

// Sweep simulates every (prey, predators) pair of the grid, prey-major.
func Sweep(rules population.Rules, prey, predators Range, maxDays int) ([]Cell, error) {
	if maxDays <= 0 {
		return nil, fmt.Errorf("max days must be positive, got %d", maxDays)
	}
	var cells []Cell
	for _, p := range prey.Values() {
		for _, q := range predators.Values() {
			c, err := Simulate(rules, p, q, maxDays)
			if err != nil {
				return nil, fmt.Errorf("prey=%d predators=%d: %w", p, q, err)
			}
			cells = append(cells, c)
		}
	}
	return cells, nil
}

// Result summarizes a sweep.
type Result struct {
	Cells     int
	Collapsed int

	// Days to collapse over the collapsed cells only.
	Days telemetry.Summary

	// Correlation between initial predators and days to collapse.
	// Zero when fewer than two cells collapsed or either series is constant.
	PredatorDaysCorr float64
}

// Summarize computes distribution statistics over the collapsed cells.
func Summarize(cells []Cell) Result {
	res := Result{Cells: len(cells)}

	var days, preds []float64
	for _, c := range cells {
		if !c.Collapsed {
			continue
		}
		days = append(days, float64(c.Days))
		preds = append(preds, float64(c.InitialPredators))
	}
	res.Collapsed = len(days)
	res.Days = telemetry.Summarize(days)

	if len(days) >= 2 && !constant(days) && !constant(preds) {
		res.PredatorDaysCorr = stat.Correlation(preds, days, nil)
	}
	return res
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
