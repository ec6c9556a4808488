// Package main sweeps a grid of initial prey and predator counts and records
// how many days each ecosystem survives.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/population"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	preyMin := flag.Int("prey-min", 0, "Smallest initial prey count")
	preyMax := flag.Int("prey-max", 50, "Largest initial prey count")
	preyStep := flag.Int("prey-step", 5, "Prey grid step")
	predMin := flag.Int("pred-min", 0, "Smallest initial predator count")
	predMax := flag.Int("pred-max", 10, "Largest initial predator count")
	predStep := flag.Int("pred-step", 1, "Predator grid step")
	maxDays := flag.Int("max-days", 1000, "Stop each run after N days")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	rules := population.Rules{
		DailyPreyGrowth: cfg.Rules.DailyPreyGrowth,
		PredationRate:   cfg.Rules.PredationRate,
	}

	start := time.Now()
	cells, err := Sweep(rules,
		Range{Min: *preyMin, Max: *preyMax, Step: *preyStep},
		Range{Min: *predMin, Max: *predMax, Step: *predStep},
		*maxDays,
	)
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	outPath := filepath.Join(*outputDir, "sweep.csv")
	f, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("failed to create %s: %v", outPath, err)
	}
	if err := gocsv.MarshalFile(&cells, f); err != nil {
		f.Close()
		log.Fatalf("failed to write %s: %v", outPath, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("failed to close %s: %v", outPath, err)
	}

	res := Summarize(cells)
	fmt.Printf("Sweep complete: %d cells in %s (rules: +%d prey/day, %d hunted per predator)\n",
		res.Cells, time.Since(start).Round(time.Millisecond), rules.DailyPreyGrowth, rules.PredationRate)
	fmt.Printf("Collapsed: %d/%d (survivors ran the full %d days)\n", res.Collapsed, res.Cells, *maxDays)
	if res.Collapsed > 0 {
		fmt.Printf("Days to collapse: mean=%.1f std=%.1f p10=%.0f p50=%.0f p90=%.0f\n",
			res.Days.Mean, res.Days.Std, res.Days.P10, res.Days.P50, res.Days.P90)
		fmt.Printf("Predators vs days correlation: %.3f\n", res.PredatorDaysCorr)
	}
	fmt.Printf("Results saved to: %s\n", outPath)
}
