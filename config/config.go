// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Population PopulationConfig `yaml:"population"`
	Rules      RulesConfig      `yaml:"rules"`
	Clock      ClockConfig      `yaml:"clock"`
	Screen     ScreenConfig     `yaml:"screen"`
	Scene      SceneConfig      `yaml:"scene"`
	Effects    EffectsConfig    `yaml:"effects"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Stream     StreamConfig     `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PopulationConfig holds the initial counts.
type PopulationConfig struct {
	InitialPrey      int `yaml:"initial_prey"`
	InitialPredators int `yaml:"initial_predators"`
}

// RulesConfig holds the per-day arithmetic.
type RulesConfig struct {
	DailyPreyGrowth int `yaml:"daily_prey_growth"` // prey added per day
	PredationRate   int `yaml:"predation_rate"`    // prey hunted per predator per day
}

// ClockConfig holds the day cadence.
type ClockConfig struct {
	SecondsPerDay float64 `yaml:"seconds_per_day"` // real seconds per simulated day (graphical mode)
	MaxDays       int     `yaml:"max_days"`        // stop after N days (0 = run until collapse)
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SceneConfig holds instance placement and physics parameters.
type SceneConfig struct {
	SpawnHalfExtent float64 `yaml:"spawn_half_extent"` // X/Z spawn range is [-e, e]
	SpawnHeight     float64 `yaml:"spawn_height"`
	GroundSize      float64 `yaml:"ground_size"`
	PreyRadius      float64 `yaml:"prey_radius"`
	PredatorSize    float64 `yaml:"predator_size"` // cube edge length
	Gravity         float64 `yaml:"gravity"`
	PhysicsHz       int     `yaml:"physics_hz"`
}

// EffectsConfig holds the cosmetic end-of-day hop.
type EffectsConfig struct {
	HopEnabled bool    `yaml:"hop_enabled"`
	HopMin     float64 `yaml:"hop_min"`
	HopMax     float64 `yaml:"hop_max"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindowDays     int                   `yaml:"stats_window_days"`
	BookmarkHistorySize int                   `yaml:"bookmark_history_size"`
	PerfWindow          int                   `yaml:"perf_window"`
	PreyCrash           PreyCrashConfig       `yaml:"prey_crash"`
	StableEcosystem     StableEcosystemConfig `yaml:"stable_ecosystem"`
}

// PreyCrashConfig holds prey crash detection parameters.
type PreyCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	MinDrop     int     `yaml:"min_drop"`
}

// StableEcosystemConfig holds stable ecosystem detection parameters.
type StableEcosystemConfig struct {
	CVThreshold   float64 `yaml:"cv_threshold"`
	StableWindows int     `yaml:"stable_windows"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

// StreamConfig holds the websocket report stream settings.
type StreamConfig struct {
	Addr      string `yaml:"addr"` // empty = disabled
	Path      string `yaml:"path"`
	QueueSize int    `yaml:"queue_size"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DayDuration time.Duration // Clock.SecondsPerDay as a duration
	PhysicsDT   float32       // 1 / Scene.PhysicsHz
	ScreenW32   float32
	ScreenH32   float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the embedded defaults without derived values.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// Finalize validates the config and recomputes derived values.
// Call it again after changing fields programmatically.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Population.InitialPrey >= 0, "population.initial_prey %d is negative", c.Population.InitialPrey)
	check(c.Population.InitialPredators >= 0, "population.initial_predators %d is negative", c.Population.InitialPredators)
	check(c.Rules.DailyPreyGrowth >= 0, "rules.daily_prey_growth %d is negative", c.Rules.DailyPreyGrowth)
	check(c.Rules.PredationRate >= 0, "rules.predation_rate %d is negative", c.Rules.PredationRate)
	check(c.Clock.SecondsPerDay > 0, "clock.seconds_per_day must be positive, got %g", c.Clock.SecondsPerDay)
	check(c.Clock.MaxDays >= 0, "clock.max_days %d is negative", c.Clock.MaxDays)
	check(c.Scene.PhysicsHz > 0, "scene.physics_hz must be positive, got %d", c.Scene.PhysicsHz)
	check(c.Scene.SpawnHalfExtent >= 0, "scene.spawn_half_extent %g is negative", c.Scene.SpawnHalfExtent)
	check(c.Effects.HopMin <= c.Effects.HopMax, "effects.hop_min %g exceeds hop_max %g", c.Effects.HopMin, c.Effects.HopMax)
	check(c.Telemetry.StatsWindowDays >= 0, "telemetry.stats_window_days %d is negative", c.Telemetry.StatsWindowDays)

	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DayDuration = time.Duration(c.Clock.SecondsPerDay * float64(time.Second))
	c.Derived.PhysicsDT = 1.0 / float32(c.Scene.PhysicsHz)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	if c.Stream.Path == "" {
		c.Stream.Path = "/ws"
	}
	if c.Stream.QueueSize <= 0 {
		c.Stream.QueueSize = 256
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
