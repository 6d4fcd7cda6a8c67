package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/solarsim/solarsim/pkg/catalog"
	"github.com/solarsim/solarsim/pkg/log"
	"github.com/solarsim/solarsim/pkg/types"
)

const (
	// peakIrradianceWM2 is clear-sky irradiance at solar noon before the
	// location multiplier.
	peakIrradianceWM2  = 1000.0
	irradianceNoiseWM2 = 50.0

	dailyTemperatureSwingC = 8.0
	temperatureNoiseC      = 5.0

	// the simulated array is 100 m² at 22% efficiency
	panelEfficiency = 0.22
	panelAreaM2     = 100.0

	predictionErrorSpan = 0.2

	minEfficiencyPct  = 85.0
	efficiencySpanPct = 10.0
)

// Rand is the source of uniform draws in [0, 1). *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source. Use a seeded source for reproducible series.
func WithRand(r Rand) Option {
	return func(g *Generator) {
		g.rng = r
	}
}

// WithClock sets the function used to get the series start time.
func WithClock(clock func() time.Time) Option {
	return func(g *Generator) {
		g.clock = clock
	}
}

// Generator produces synthetic hourly solar telemetry.
type Generator struct {
	catalog *catalog.Catalog
	clock   func() time.Time

	mu  sync.Mutex
	rng Rand
}

// New returns a Generator backed by the given catalog. Without WithRand the
// random source is seeded from the wall clock.
func New(c *catalog.Catalog, opts ...Option) *Generator {
	g := &Generator{
		catalog: c,
		clock:   time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// Generate returns rangeDays*24 hourly samples starting now for the given
// location and forecast model. An unknown model falls back to
// types.DefaultNoiseFactor.
func (g *Generator) Generate(ctx context.Context, locationID, modelID string, rangeDays int) ([]types.Sample, error) {
	loc, err := g.catalog.Location(locationID)
	if err != nil {
		return nil, err
	}
	if err := types.ValidateRangeDays(rangeDays); err != nil {
		return nil, err
	}
	zone, err := g.catalog.Zone(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to get zone: %w", err)
	}

	noise := types.DefaultNoiseFactor
	if m, ok := g.catalog.Model(modelID); ok {
		noise = m.NoiseFactor
	} else {
		log.Ctx(ctx).DebugContext(
			ctx,
			"unknown forecast model, using default noise",
			slog.String("model", modelID),
			slog.Float64("noise", noise),
		)
	}

	start := g.clock()
	hours := rangeDays * 24
	series := make([]types.Sample, 0, hours)

	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < hours; i++ {
		ts := start.Add(time.Duration(i) * time.Hour).In(zone)
		series = append(series, g.sample(ts, loc, noise))
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"generated series",
		slog.String("location", loc.ID),
		slog.String("model", modelID),
		slog.Int("samples", len(series)),
	)
	return series, nil
}

// sample draws one hour. The order of draws is fixed so a seeded source
// always yields the same series. Callers must hold g.mu.
func (g *Generator) sample(ts time.Time, loc types.Location, noise float64) types.Sample {
	hour := ts.Hour()
	// 0 at 6am and 6pm, 1 at noon, negative at night
	dayCurve := math.Sin(float64(hour-6) * math.Pi / 12)
	elevation := math.Max(0, dayCurve)

	weather := drawWeather(g.rng.Float64())

	base := peakIrradianceWM2 * elevation * loc.Multiplier
	irradiance := math.Max(0, base*weather.Attenuation()+(g.rng.Float64()-0.5)*irradianceNoiseWM2)

	temperature := loc.AvgTemperatureC + dailyTemperatureSwingC*dayCurve + (g.rng.Float64()-0.5)*temperatureNoiseC

	actual := irradiance * panelEfficiency * panelAreaM2 / 1000
	predictionErr := (g.rng.Float64() - 0.5) * predictionErrorSpan
	predicted := math.Max(0, actual+predictionErr*actual*noise)

	efficiency := minEfficiencyPct + g.rng.Float64()*efficiencySpanPct

	return types.Sample{
		Time:          ts,
		Hour:          hour,
		Weather:       weather,
		IrradianceWM2: irradiance,
		ActualKW:      math.Max(0, actual),
		PredictedKW:   predicted,
		TemperatureC:  temperature,
		EfficiencyPct: efficiency,
	}
}

func drawWeather(r float64) types.WeatherState {
	switch {
	case r < 0.5:
		return types.WeatherSunny
	case r < 0.75:
		return types.WeatherPartlyCloudy
	case r < 0.9:
		return types.WeatherCloudy
	default:
		return types.WeatherRainy
	}
}
