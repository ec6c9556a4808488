package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ecosim/camera"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/game"
	"github.com/pthm-cable/ecosim/renderer"
	"github.com/pthm-cable/ecosim/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	logFormat := flag.String("log-format", "json", "Log format: json or text")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in days (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxDays := flag.Int("max-days", 0, "Stop after N days (0 = use config)")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (empty = use config)")
	streamAddr := flag.String("stream-addr", "", "Serve the WebSocket day stream on this address (empty = use config)")
	prey := flag.Int("prey", 0, "Initial prey count (overrides config)")
	predators := flag.Int("predators", 0, "Initial predator count (overrides config)")

	flag.Parse()

	// Set up slog before anything else logs
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, nil)
	if *logFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Count overrides apply only when the flag was given, so an explicit 0 works.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "prey":
			cfg.Population.InitialPrey = *prey
		case "predators":
			cfg.Population.InitialPredators = *predators
		}
	})
	if err := cfg.Finalize(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Config:          cfg,
		Seed:            rngSeed,
		LogStats:        *logStats,
		StatsWindowDays: *statsWindow,
		OutputDir:       *outputDir,
		Headless:        *headless,
		MaxDays:         *maxDays,
		MetricsAddr:     *metricsAddr,
		StreamAddr:      *streamAddr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if *headless {
		err = runHeadless(ctx, opts)
	} else {
		err = runWindow(ctx, opts)
	}
	if err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

// runHeadless steps one day at a time as fast as possible.
func runHeadless(ctx context.Context, opts game.Options) error {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer closeGame(g)

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"state", g.State(),
		"max_days", opts.MaxDays,
	)

	for !g.Done() {
		if ctx.Err() != nil {
			slog.Info("interrupted", "day", g.Day())
			return nil
		}
		if err := g.UpdateHeadless(); err != nil {
			return err
		}
	}

	slog.Info("simulation finished", "state", g.State())
	return g.Err()
}

// runWindow opens the raylib window and drives the day clock from frame time.
func runWindow(ctx context.Context, opts game.Options) error {
	cfg := opts.Config

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Ecosystem")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer closeGame(g)

	cam := camera.New(camera.Vec3{})
	scene := renderer.NewSceneRenderer(cam, float32(cfg.Scene.GroundSize))
	hud := ui.NewHUD()
	var panel ui.Actions

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		act := ui.HandleInput(cam).Merge(panel)
		if act.TogglePause {
			g.SetPaused(!g.Paused())
		}
		if act.SecondsPerDay > 0 {
			g.SetSecondsPerDay(act.SecondsPerDay)
		}
		if act.StepDay {
			if _, err := g.StepDay(); err != nil {
				return err
			}
		}

		g.Update(float64(rl.GetFrameTime()))
		if err := g.Err(); err != nil {
			return err
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		scene.Draw(g)
		panel = hud.Draw(ui.HUDData{
			Report:        g.Report(),
			Paused:        g.Paused(),
			SecondsPerDay: g.SecondsPerDay(),
			DayProgress:   g.DayProgress(),
			FPS:           rl.GetFPS(),
			ScreenWidth:   int32(rl.GetScreenWidth()),
			ScreenHeight:  int32(rl.GetScreenHeight()),
		})
		rl.EndDrawing()
	}
	return nil
}

func closeGame(g *game.Game) {
	if err := g.Close(); err != nil {
		slog.Error("failed to close game", "error", err)
	}
}
