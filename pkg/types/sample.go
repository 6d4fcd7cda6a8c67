package types

import "time"

// WeatherState is the sky condition drawn for a single hour.
type WeatherState string

const (
	WeatherSunny        WeatherState = "sunny"
	WeatherPartlyCloudy WeatherState = "partly_cloudy"
	WeatherCloudy       WeatherState = "cloudy"
	WeatherRainy        WeatherState = "rainy"
)

// WeatherStates lists every state in display order.
var WeatherStates = []WeatherState{
	WeatherSunny,
	WeatherPartlyCloudy,
	WeatherCloudy,
	WeatherRainy,
}

// Attenuation returns the multiplier applied to clear-sky irradiance.
func (w WeatherState) Attenuation() float64 {
	switch w {
	case WeatherSunny:
		return 1.0
	case WeatherPartlyCloudy:
		return 0.7
	case WeatherCloudy:
		return 0.3
	case WeatherRainy:
		return 0.1
	default:
		return 0
	}
}

// Sample is one hour of synthetic solar telemetry.
type Sample struct {
	Time          time.Time    `json:"time"`
	Hour          int          `json:"hour"`
	Weather       WeatherState `json:"weather"`
	IrradianceWM2 float64      `json:"irradianceWM2"`
	ActualKW      float64      `json:"actualKW"`
	PredictedKW   float64      `json:"predictedKW"`
	TemperatureC  float64      `json:"temperatureC"`
	EfficiencyPct float64      `json:"efficiencyPct"`
}

// Aggregate summarizes a run of samples.
type Aggregate struct {
	Count            int     `json:"count"`
	TotalEnergyKWH   float64 `json:"totalEnergyKWH"`
	AvgEfficiencyPct float64 `json:"avgEfficiencyPct"`
	PeakKW           float64 `json:"peakKW"`
}
