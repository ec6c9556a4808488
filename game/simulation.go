package game

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/population"
	"github.com/pthm-cable/ecosim/reconcile"
	"github.com/pthm-cable/ecosim/telemetry"
)

// Update advances the wall clock by dt seconds. When a full day has elapsed
// the timer restarts from zero and one day is simulated. Physics always runs,
// so instances settle even while paused or after a collapse.
func (g *Game) Update(dt float64) {
	if !g.paused && !g.Done() {
		g.timer += dt
		if g.timer >= g.secondsPerDay {
			g.timer = 0
			if _, err := g.StepDay(); err != nil {
				g.fail(err)
			}
		}
	}

	g.integrate(dt)
}

// UpdateHeadless simulates one day without physics.
func (g *Game) UpdateHeadless() error {
	if g.Done() {
		return g.err
	}
	if _, err := g.StepDay(); err != nil {
		g.fail(err)
		return err
	}
	return nil
}

// StepDay simulates one day: the model steps, both pools are reconciled to
// the new counts, the survivors hop and the report is published.
// Once the run is done (collapsed, max days reached or a failed step) it
// returns the last report with Transitioned unset.
func (g *Game) StepDay() (telemetry.DayReport, error) {
	if g.Done() {
		r := g.last
		r.Transitioned = false
		return r, nil
	}

	g.profiler.Begin()
	defer g.profiler.End()

	g.profiler.Enter(telemetry.StageStep)
	state, _ := g.model.Step()

	g.profiler.Enter(telemetry.StageReconcile)
	preyDelta, predDelta, err := g.reconcileAll(state)
	if err != nil {
		return telemetry.NewDayReport(state, true, preyDelta, predDelta), fmt.Errorf("day %d: %w", state.Day, err)
	}

	g.profiler.Enter(telemetry.StageEffects)
	g.applyEffects()

	g.profiler.Enter(telemetry.StageReport)
	report := telemetry.NewDayReport(state, true, preyDelta, predDelta)
	g.publish(report)

	g.profiler.Enter(telemetry.StageTelemetry)
	g.flushTelemetry()

	return report, nil
}

// reconcileAll brings both pools to the counts in s, prey first.
func (g *Game) reconcileAll(s population.State) (prey, pred reconcile.Delta, err error) {
	prey, err = g.pools[components.KindPrey].Sync(s.Prey)
	if err != nil {
		return prey, pred, fmt.Errorf("reconciling prey: %w", err)
	}
	pred, err = g.pools[components.KindPredator].Sync(s.Predators)
	if err != nil {
		return prey, pred, fmt.Errorf("reconciling predators: %w", err)
	}
	return prey, pred, nil
}

// applyEffects gives every surviving instance its end-of-day hop.
func (g *Game) applyEffects() {
	for _, p := range g.pools {
		p.Each(func(e ecs.Entity) { g.hop.Apply(e) })
	}
}

// publish hands the report to every sink. Sink failures are logged; they do
// not stop the simulation.
func (g *Game) publish(r telemetry.DayReport) {
	g.last = r
	g.collector.Record(r)
	if err := g.sink.Report(g.ctx, r); err != nil {
		slog.Error("failed to publish report", "day", r.Day, "error", err)
	}
}

// integrate runs physics at a fixed step for dt seconds of wall time.
func (g *Game) integrate(dt float64) {
	if g.headless || g.physicsDT <= 0 {
		return
	}
	step := float64(g.physicsDT)
	g.physicsAccum += dt
	for n := 0; g.physicsAccum >= step; n++ {
		if n == maxPhysicsSteps {
			// Drop the backlog rather than spiral after a stall.
			g.physicsAccum = 0
			break
		}
		g.physics.Update(g.physicsDT)
		g.physicsAccum -= step
	}
}

func (g *Game) fail(err error) {
	if g.err == nil {
		g.err = err
	}
	slog.Error("day step failed", "day", g.Day(), "error", err)
}
