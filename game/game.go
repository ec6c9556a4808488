// Package game drives the simulation: it advances the population model one
// day at a time and keeps the visible instances in step with it.
//
// A Game is single-threaded. All methods must be called from the same
// goroutine (the render loop or the headless loop).
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/population"
	"github.com/pthm-cable/ecosim/reconcile"
	"github.com/pthm-cable/ecosim/systems"
	"github.com/pthm-cable/ecosim/telemetry"
)

// maxPhysicsSteps bounds the fixed-step catch-up after a long frame.
const maxPhysicsSteps = 8

// Options configures a new Game.
type Options struct {
	Config          *config.Config // nil uses config.Cfg()
	Seed            int64
	LogStats        bool
	StatsWindowDays int // 0 = use config
	OutputDir       string
	Headless        bool
	MaxDays         int // 0 = use config (and 0 there means until collapse)
	MetricsAddr     string
	StreamAddr      string

	// StatsCallback, if set, receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
	// Sinks are extra report consumers, called after the built-in ones.
	Sinks []telemetry.Sink
}

// Game holds the complete simulation state.
type Game struct {
	cfg *config.Config
	rng *rand.Rand

	// Logical population
	model *population.Model

	// Instance world
	world    *ecs.World
	spawners [len(components.Kinds)]*systems.Spawner
	pools    [len(components.Kinds)]*reconcile.Pool[ecs.Entity]
	physics  *systems.PhysicsSystem
	hop      *systems.Hop
	posMap   *ecs.Map[components.Position]
	bodyMap  *ecs.Map[components.Body]

	// Report consumers
	sink   telemetry.MultiSink
	stream *telemetry.Stream

	// Telemetry
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	profiler         *telemetry.Profiler
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.WindowStats)
	logStats         bool

	// Clock
	secondsPerDay float64
	timer         float64
	physicsAccum  float64
	physicsDT     float32
	paused        bool
	headless      bool
	maxDays       int

	last telemetry.DayReport
	err  error

	// Background HTTP servers
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGameWithOptions builds the model and instance world, reconciles the
// initial populations and publishes the day 0 report.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	model, err := population.NewModel(population.Rules{
		DailyPreyGrowth: cfg.Rules.DailyPreyGrowth,
		PredationRate:   cfg.Rules.PredationRate,
	})
	if err != nil {
		return nil, err
	}
	if err := model.Configure(cfg.Population.InitialPrey, cfg.Population.InitialPredators); err != nil {
		return nil, err
	}

	statsWindow := cfg.Telemetry.StatsWindowDays
	if opts.StatsWindowDays > 0 {
		statsWindow = opts.StatsWindowDays
	}
	maxDays := cfg.Clock.MaxDays
	if opts.MaxDays > 0 {
		maxDays = opts.MaxDays
	}

	ctx, cancel := context.WithCancel(context.Background())
	rng := rand.New(rand.NewSource(opts.Seed))
	world := ecs.NewWorld()

	g := &Game{
		cfg:     cfg,
		rng:     rng,
		model:   model,
		world:   world,
		physics: systems.NewPhysicsSystem(world, float32(cfg.Scene.Gravity)),
		posMap:  ecs.NewMap[components.Position](world),
		bodyMap: ecs.NewMap[components.Body](world),

		collector: telemetry.NewCollector(statsWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(telemetry.BookmarkConfig{
			HistorySize:   cfg.Telemetry.BookmarkHistorySize,
			CrashDropPct:  cfg.Telemetry.PreyCrash.DropPercent,
			CrashMinDrop:  cfg.Telemetry.PreyCrash.MinDrop,
			StableCV:      cfg.Telemetry.StableEcosystem.CVThreshold,
			StableWindows: cfg.Telemetry.StableEcosystem.StableWindows,
		}),
		profiler:      telemetry.NewProfiler(cfg.Telemetry.PerfWindow),
		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,

		secondsPerDay: cfg.Clock.SecondsPerDay,
		physicsDT:     cfg.Derived.PhysicsDT,
		headless:      opts.Headless,
		maxDays:       maxDays,

		ctx:    ctx,
		cancel: cancel,
	}

	// The hop is cosmetic; headless runs have nobody to show it to.
	g.hop = systems.NewHop(world, rng,
		float32(cfg.Effects.HopMin), float32(cfg.Effects.HopMax),
		cfg.Effects.HopEnabled && !opts.Headless)

	area := systems.SpawnArea{
		HalfExtent: float32(cfg.Scene.SpawnHalfExtent),
		Height:     float32(cfg.Scene.SpawnHeight),
	}
	radii := [len(components.Kinds)]float32{
		components.KindPrey:     float32(cfg.Scene.PreyRadius),
		components.KindPredator: float32(cfg.Scene.PredatorSize) / 2,
	}
	for _, k := range components.Kinds {
		s := systems.NewSpawner(world, k, radii[k], area, rng)
		g.spawners[k] = s
		g.pools[k] = reconcile.NewPool(s.Create, s.Destroy)
	}

	// Output
	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		cancel()
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	g.sink = telemetry.MultiSink{telemetry.LogSink{}}
	if om != nil {
		g.sink = append(g.sink, om)
	}
	g.startServers(opts.MetricsAddr, opts.StreamAddr)
	g.sink = append(g.sink, opts.Sinks...)

	// Day 0: materialise the starting populations.
	preyDelta, predDelta, err := g.reconcileAll(model.State())
	if err != nil {
		g.Close()
		return nil, err
	}
	g.applyEffects()
	g.publish(telemetry.NewDayReport(model.State(), true, preyDelta, predDelta))
	g.flushTelemetry()

	return g, nil
}

// startServers launches the optional metrics and stream endpoints.
func (g *Game) startServers(metricsAddr, streamAddr string) {
	if metricsAddr == "" {
		metricsAddr = g.cfg.Metrics.Addr
	}
	if streamAddr == "" {
		streamAddr = g.cfg.Stream.Addr
	}

	if metricsAddr != "" {
		m := telemetry.NewMetrics()
		g.sink = append(g.sink, m)
		g.serve("metrics", func(ctx context.Context) error { return m.Serve(ctx, metricsAddr) })
	}
	if streamAddr != "" {
		g.stream = telemetry.NewStream(g.cfg.Stream.QueueSize)
		g.sink = append(g.sink, g.stream)
		path := g.cfg.Stream.Path
		g.serve("stream", func(ctx context.Context) error { return g.stream.Serve(ctx, streamAddr, path) })
	}
}

func (g *Game) serve(name string, run func(context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := run(g.ctx); err != nil {
			slog.Error("server stopped", "server", name, "error", err)
		}
	}()
}

// Close flushes telemetry, stops the servers and closes output files.
func (g *Game) Close() error {
	if g.collector.Pending() > 0 {
		g.flushWindow()
	}

	g.cancel()
	g.wg.Wait()
	if g.stream != nil {
		g.stream.Close()
	}
	if err := g.outputManager.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	return nil
}

// Day returns the number of simulated days.
func (g *Game) Day() int {
	return g.model.State().Day
}

// State returns the logical population.
func (g *Game) State() population.State {
	return g.model.State()
}

// Report returns the most recently published report.
func (g *Game) Report() telemetry.DayReport {
	return g.last
}

// Collapsed reports whether the ecosystem has collapsed.
func (g *Game) Collapsed() bool {
	return g.model.State().Collapsed
}

// Done reports whether no further days will be simulated.
func (g *Game) Done() bool {
	return g.Collapsed() || (g.maxDays > 0 && g.Day() >= g.maxDays) || g.err != nil
}

// Err returns the first collaborator failure seen by Update, if any.
func (g *Game) Err() error {
	return g.err
}

// Paused reports whether the day clock is stopped.
func (g *Game) Paused() bool {
	return g.paused
}

// SetPaused stops or resumes the day clock. Physics keeps running.
func (g *Game) SetPaused(p bool) {
	g.paused = p
}

// SecondsPerDay returns the current day length.
func (g *Game) SecondsPerDay() float64 {
	return g.secondsPerDay
}

// SetSecondsPerDay changes the day length. Non-positive values are ignored.
func (g *Game) SetSecondsPerDay(s float64) {
	if s > 0 {
		g.secondsPerDay = s
	}
}

// DayProgress returns how far the current day has elapsed, in [0, 1].
func (g *Game) DayProgress() float64 {
	if g.Done() {
		return 1
	}
	p := g.timer / g.secondsPerDay
	if p > 1 {
		p = 1
	}
	return p
}

// InstanceCount returns the number of live instances of kind.
func (g *Game) InstanceCount(kind components.Kind) int {
	return g.pools[kind].Len()
}

// ForEachInstance calls fn with the position and body of every live instance
// of kind, oldest first.
func (g *Game) ForEachInstance(kind components.Kind, fn func(pos components.Position, body components.Body)) {
	g.pools[kind].Each(func(e ecs.Entity) {
		if !g.world.Alive(e) {
			return
		}
		fn(*g.posMap.Get(e), *g.bodyMap.Get(e))
	})
}

// Config returns the configuration the game was built with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// PerfStats returns the rolling day-step timings.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.profiler.Stats()
}
