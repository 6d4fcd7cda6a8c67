package generator

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/solarsim/solarsim/pkg/catalog"
	"github.com/solarsim/solarsim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceRand returns the given values in order, wrapping around.
type sequenceRand struct {
	values []float64
	i      int
}

func (s *sequenceRand) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	cat := catalog.Configured()
	// 12:00 in Asia/Kolkata
	noonIST := time.Date(2024, 6, 1, 6, 30, 0, 0, time.UTC)

	t.Run("Length Matches Range", func(t *testing.T) {
		g := New(cat, WithRand(rand.New(rand.NewSource(1))))
		for _, days := range []int{1, 7, 30} {
			series, err := g.Generate(ctx, "mumbai", "ensemble", days)
			require.NoError(t, err)
			assert.Len(t, series, days*24)
		}
	})

	t.Run("Invalid Range", func(t *testing.T) {
		g := New(cat)
		for _, days := range []int{-1, 0, 31} {
			_, err := g.Generate(ctx, "mumbai", "ensemble", days)
			assert.ErrorIs(t, err, types.ErrInvalidParameter, "days=%d", days)
		}
	})

	t.Run("Unknown Location", func(t *testing.T) {
		g := New(cat)
		series, err := g.Generate(ctx, "atlantis", "ensemble", 1)
		assert.ErrorIs(t, err, types.ErrInvalidParameter)
		assert.Nil(t, series)
	})

	t.Run("Timestamps Are Hourly From Clock", func(t *testing.T) {
		start := time.Date(2024, 6, 1, 6, 17, 42, 0, time.UTC)
		g := New(cat, WithRand(rand.New(rand.NewSource(1))), WithClock(fixedClock(start)))
		series, err := g.Generate(ctx, "delhi", "arima", 2)
		require.NoError(t, err)

		assert.True(t, series[0].Time.Equal(start))
		assert.Equal(t, "Asia/Kolkata", series[0].Time.Location().String())
		for i := 1; i < len(series); i++ {
			assert.Equal(t, time.Hour, series[i].Time.Sub(series[i-1].Time))
			assert.Equal(t, series[i].Time.Hour(), series[i].Hour)
		}
		// 06:17 UTC is 11:47 IST
		assert.Equal(t, 11, series[0].Hour)
	})

	t.Run("Exact Noon Sample", func(t *testing.T) {
		// weather, irradiance noise, temperature noise, prediction error, efficiency
		r := &sequenceRand{values: []float64{0.1, 0.5, 0.5, 0.75, 0.5}}
		g := New(cat, WithRand(r), WithClock(fixedClock(noonIST)))
		series, err := g.Generate(ctx, "mumbai", "ensemble", 1)
		require.NoError(t, err)

		s := series[0]
		assert.Equal(t, 12, s.Hour)
		assert.Equal(t, types.WeatherSunny, s.Weather)
		assert.InDelta(t, 1000, s.IrradianceWM2, 1e-9)
		assert.InDelta(t, 35, s.TemperatureC, 1e-9)
		assert.InDelta(t, 22, s.ActualKW, 1e-9)
		assert.InDelta(t, 22.055, s.PredictedKW, 1e-9)
		assert.InDelta(t, 90, s.EfficiencyPct, 1e-9)
	})

	t.Run("Unknown Model Uses Default Noise", func(t *testing.T) {
		r := &sequenceRand{values: []float64{0.1, 0.5, 0.5, 0.75, 0.5}}
		g := New(cat, WithRand(r), WithClock(fixedClock(noonIST)))
		series, err := g.Generate(ctx, "mumbai", "prophet", 1)
		require.NoError(t, err)
		assert.InDelta(t, 22.11, series[0].PredictedKW, 1e-9)
	})

	t.Run("Weather Attenuates And Multiplier Scales", func(t *testing.T) {
		// 0.8 is cloudy
		r := &sequenceRand{values: []float64{0.8, 0.5, 0.5, 0.5, 0.5}}
		g := New(cat, WithRand(r), WithClock(fixedClock(noonIST)))
		series, err := g.Generate(ctx, "rajasthan", "ensemble", 1)
		require.NoError(t, err)
		assert.Equal(t, types.WeatherCloudy, series[0].Weather)
		assert.InDelta(t, 1000*1.2*0.3, series[0].IrradianceWM2, 1e-9)
		assert.InDelta(t, series[0].ActualKW, series[0].PredictedKW, 1e-9)
	})

	t.Run("Night Has No Clear Sky Irradiance", func(t *testing.T) {
		// midnight IST
		midnight := time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC)
		r := &sequenceRand{values: []float64{0.1, 0.1, 0.5, 0.5, 0.5}}
		g := New(cat, WithRand(r), WithClock(fixedClock(midnight)))
		series, err := g.Generate(ctx, "mumbai", "ensemble", 1)
		require.NoError(t, err)

		assert.Equal(t, 0, series[0].Hour)
		assert.Equal(t, 0.0, series[0].IrradianceWM2)
		assert.Equal(t, 0.0, series[0].ActualKW)
		assert.InDelta(t, 27-8, series[0].TemperatureC, 1e-9)
	})

	t.Run("Values Are Never Negative", func(t *testing.T) {
		g := New(cat, WithRand(rand.New(rand.NewSource(7))))
		series, err := g.Generate(ctx, "bangalore", "persistence", 30)
		require.NoError(t, err)
		for _, s := range series {
			assert.GreaterOrEqual(t, s.IrradianceWM2, 0.0)
			assert.GreaterOrEqual(t, s.ActualKW, 0.0)
			assert.GreaterOrEqual(t, s.PredictedKW, 0.0)
			assert.GreaterOrEqual(t, s.EfficiencyPct, 85.0)
			assert.Less(t, s.EfficiencyPct, 95.0)
			assert.Contains(t, types.WeatherStates, s.Weather)
		}
	})

	t.Run("Prediction Stays Within Model Noise", func(t *testing.T) {
		g := New(cat, WithRand(rand.New(rand.NewSource(3))))
		series, err := g.Generate(ctx, "mumbai", "persistence", 7)
		require.NoError(t, err)
		for _, s := range series {
			assert.LessOrEqual(t, s.PredictedKW-s.ActualKW, 0.1*0.15*s.ActualKW+1e-9)
			assert.LessOrEqual(t, s.ActualKW-s.PredictedKW, 0.1*0.15*s.ActualKW+1e-9)
		}
	})

	t.Run("Seeded Sources Are Reproducible", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		g1 := New(cat, WithRand(rand.New(rand.NewSource(42))), WithClock(fixedClock(start)))
		g2 := New(cat, WithRand(rand.New(rand.NewSource(42))), WithClock(fixedClock(start)))
		s1, err := g1.Generate(ctx, "mumbai", "arima", 7)
		require.NoError(t, err)
		s2, err := g2.Generate(ctx, "mumbai", "arima", 7)
		require.NoError(t, err)
		assert.Equal(t, s1, s2)
	})
}

func TestDrawWeather(t *testing.T) {
	tests := []struct {
		r    float64
		want types.WeatherState
	}{
		{0, types.WeatherSunny},
		{0.49, types.WeatherSunny},
		{0.5, types.WeatherPartlyCloudy},
		{0.74, types.WeatherPartlyCloudy},
		{0.75, types.WeatherCloudy},
		{0.89, types.WeatherCloudy},
		{0.9, types.WeatherRainy},
		{0.999, types.WeatherRainy},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, drawWeather(tt.r), "r=%v", tt.r)
	}
}
