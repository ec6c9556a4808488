package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary holds distribution statistics for a series of samples.
type Summary struct {
	Mean float64
	Std  float64 // population standard deviation
	P10  float64
	P50  float64
	P90  float64
}

// CV returns the coefficient of variation, or 0 when the mean is 0.
func (s Summary) CV() float64 {
	if s.Mean == 0 {
		return 0
	}
	return s.Std / s.Mean
}

// Percentile returns the empirical p-th quantile of a sorted slice.
// p is clamped to [0, 1]. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Summarize computes mean, std and percentiles of values. The input is not modified.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Summary{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// WindowStats holds aggregated statistics for a window of days.
type WindowStats struct {
	WindowStartDay int `csv:"window_start"`
	WindowEndDay   int `csv:"window_end"`
	Days           int `csv:"days"`

	// Population counts at window end
	PreyCount int  `csv:"prey"`
	PredCount int  `csv:"pred"`
	Collapsed bool `csv:"collapsed"`

	// Instance churn during window
	PreyBirths int `csv:"prey_births"`
	PredBirths int `csv:"pred_births"`
	PreyDeaths int `csv:"prey_deaths"`
	PredDeaths int `csv:"pred_deaths"`

	// Daily count distribution
	PreyMean float64 `csv:"prey_mean"`
	PreyStd  float64 `csv:"prey_std"`
	PreyP10  float64 `csv:"prey_p10"`
	PreyP50  float64 `csv:"prey_p50"`
	PreyP90  float64 `csv:"prey_p90"`

	PredMean float64 `csv:"pred_mean"`
	PredStd  float64 `csv:"pred_std"`
	PredP10  float64 `csv:"pred_p10"`
	PredP50  float64 `csv:"pred_p50"`
	PredP90  float64 `csv:"pred_p90"`
}

// PreySummary returns the prey distribution as a Summary.
func (s WindowStats) PreySummary() Summary {
	return Summary{Mean: s.PreyMean, Std: s.PreyStd, P10: s.PreyP10, P50: s.PreyP50, P90: s.PreyP90}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartDay),
		slog.Int("window_end", s.WindowEndDay),
		slog.Int("prey", s.PreyCount),
		slog.Int("pred", s.PredCount),
		slog.Bool("collapsed", s.Collapsed),
		slog.Int("prey_births", s.PreyBirths),
		slog.Int("pred_births", s.PredBirths),
		slog.Int("prey_deaths", s.PreyDeaths),
		slog.Int("pred_deaths", s.PredDeaths),
		slog.Float64("prey_mean", s.PreyMean),
		slog.Float64("prey_std", s.PreyStd),
		slog.Float64("pred_mean", s.PredMean),
		slog.Float64("pred_std", s.PredStd),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndDay,
		"days", s.Days,
		"prey", s.PreyCount,
		"pred", s.PredCount,
		"collapsed", s.Collapsed,
		"prey_births", s.PreyBirths,
		"pred_births", s.PredBirths,
		"prey_deaths", s.PreyDeaths,
		"pred_deaths", s.PredDeaths,
		"prey_mean", s.PreyMean,
		"prey_p10", s.PreyP10,
		"prey_p50", s.PreyP50,
		"prey_p90", s.PreyP90,
		"pred_mean", s.PredMean,
		"pred_p50", s.PredP50,
	)
}
