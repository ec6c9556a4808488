// Package population implements the day-by-day prey/predator arithmetic.
package population

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// ErrInvalidConfiguration is returned for negative initial counts or rules.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Default rule values.
const (
	DefaultDailyPreyGrowth = 5
	DefaultPredationRate   = 2
)

// Phase is the lifecycle state of a model.
type Phase uint8

const (
	PhaseRunning   Phase = iota
	PhaseCollapsed       // terminal, no outgoing transition
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseCollapsed:
		return "collapsed"
	default:
		return "unknown"
	}
}

// Rules holds the fixed per-day arithmetic.
type Rules struct {
	DailyPreyGrowth int // prey added every day
	PredationRate   int // prey hunted per predator per day
}

// DefaultRules returns the standard rule set (+5 prey, 2 hunted per predator).
func DefaultRules() Rules {
	return Rules{
		DailyPreyGrowth: DefaultDailyPreyGrowth,
		PredationRate:   DefaultPredationRate,
	}
}

// Validate reports whether the rules are usable.
func (r Rules) Validate() error {
	if r.DailyPreyGrowth < 0 {
		return fmt.Errorf("%w: daily prey growth %d is negative", ErrInvalidConfiguration, r.DailyPreyGrowth)
	}
	if r.PredationRate < 0 {
		return fmt.Errorf("%w: predation rate %d is negative", ErrInvalidConfiguration, r.PredationRate)
	}
	return nil
}

// State is a snapshot of the logical population.
type State struct {
	Prey      int  `json:"prey"`
	Predators int  `json:"predators"`
	Day       int  `json:"day"`
	Collapsed bool `json:"collapsed"`
}

// Phase returns the lifecycle phase implied by the state.
func (s State) Phase() Phase {
	if s.Collapsed {
		return PhaseCollapsed
	}
	return PhaseRunning
}

// LogValue implements slog.LogValuer.
func (s State) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("day", s.Day),
		slog.Int("prey", s.Prey),
		slog.Int("predators", s.Predators),
		slog.String("phase", s.Phase().String()),
	)
}

// Model owns the population state. It is not safe for concurrent use;
// a single driver calls Configure once and then Step once per day.
type Model struct {
	rules Rules
	state State
}

// NewModel creates a model with the given rules and zero populations.
func NewModel(rules Rules) (*Model, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Model{rules: rules}, nil
}

// Rules returns the model's rule set.
func (m *Model) Rules() Rules {
	return m.rules
}

// Configure sets the initial counts and resets the day counter.
// Negative counts are rejected and leave the model untouched.
func (m *Model) Configure(initialPrey, initialPredators int) error {
	if initialPrey < 0 {
		return fmt.Errorf("%w: initial prey %d is negative", ErrInvalidConfiguration, initialPrey)
	}
	if initialPredators < 0 {
		return fmt.Errorf("%w: initial predators %d is negative", ErrInvalidConfiguration, initialPredators)
	}
	m.state = State{Prey: initialPrey, Predators: initialPredators}
	return nil
}

// State returns the current snapshot.
func (m *Model) State() State {
	return m.state
}

// Step advances one day. It returns the new state and whether a transition
// happened; once collapsed, Step is a no-op that returns false.
func (m *Model) Step() (State, bool) {
	if m.state.Collapsed {
		return m.state, false
	}

	// Both terms saturate at math.MaxInt; their difference cannot overflow.
	prey := addSat(m.state.Prey, m.rules.DailyPreyGrowth)
	hunted := mulSat(m.state.Predators, m.rules.PredationRate)
	prey -= hunted

	if prey <= 0 {
		// Predators starve together with the prey.
		m.state.Prey = 0
		m.state.Predators = 0
		m.state.Collapsed = true
	} else {
		m.state.Prey = prey
	}

	m.state.Day++
	return m.state, true
}

// addSat adds two non-negative counts, capping at math.MaxInt.
func addSat(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// mulSat multiplies two non-negative counts, capping at math.MaxInt.
func mulSat(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}
