// Package analytics summarizes generated series for the dashboard's analytics
// and status views.
package analytics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/solarsim/solarsim/pkg/types"
)

// SeriesSummary is what the analytics view shows for a whole series.
type SeriesSummary struct {
	Aggregate    types.Aggregate            `json:"aggregate"`
	Distribution map[types.WeatherState]int `json:"distribution"`
	Observed     types.ModelMetrics         `json:"observed"`
}

// Aggregate totals energy, averages efficiency and finds peak power. Each
// sample covers one hour so the sum of kW is kWh.
func Aggregate(series []types.Sample) types.Aggregate {
	if len(series) == 0 {
		return types.Aggregate{}
	}
	actual := make([]float64, len(series))
	efficiency := make([]float64, len(series))
	for i, s := range series {
		actual[i] = s.ActualKW
		efficiency[i] = s.EfficiencyPct
	}
	return types.Aggregate{
		Count:            len(series),
		TotalEnergyKWH:   floats.Sum(actual),
		AvgEfficiencyPct: stat.Mean(efficiency, nil),
		PeakKW:           math.Max(0, floats.Max(actual)),
	}
}

// WeatherDistribution counts samples per weather state. Every state is
// present in the result, possibly with zero.
func WeatherDistribution(series []types.Sample) map[types.WeatherState]int {
	dist := make(map[types.WeatherState]int, len(types.WeatherStates))
	for _, w := range types.WeatherStates {
		dist[w] = 0
	}
	for _, s := range series {
		dist[s.Weather]++
	}
	return dist
}

// Observed measures how far predicted power strayed from actual power over
// the daylight samples of a series. Night samples with no generation are
// skipped since percentage error is undefined there.
func Observed(series []types.Sample) types.ModelMetrics {
	var actual, predicted, pctErr, sqErr []float64
	for _, s := range series {
		if s.ActualKW <= 0 {
			continue
		}
		actual = append(actual, s.ActualKW)
		predicted = append(predicted, s.PredictedKW)
		diff := s.PredictedKW - s.ActualKW
		pctErr = append(pctErr, math.Abs(diff)/s.ActualKW*100)
		sqErr = append(sqErr, diff*diff)
	}
	if len(actual) == 0 {
		return types.ModelMetrics{}
	}
	m := types.ModelMetrics{
		MAPE: stat.Mean(pctErr, nil),
		RMSE: math.Sqrt(stat.Mean(sqErr, nil)),
	}
	if len(actual) > 1 {
		if r2 := stat.RSquaredFrom(predicted, actual, nil); !math.IsNaN(r2) && !math.IsInf(r2, 0) {
			m.R2 = r2
		}
	}
	return m
}

// Summarize returns the full-series summary.
func Summarize(series []types.Sample) SeriesSummary {
	return SeriesSummary{
		Aggregate:    Aggregate(series),
		Distribution: WeatherDistribution(series),
		Observed:     Observed(series),
	}
}
