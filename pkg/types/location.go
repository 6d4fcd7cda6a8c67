package types

// Location is a static site profile used to shape generated irradiance and
// temperature.
type Location struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Multiplier      float64 `json:"multiplier"`
	PeakSunHours    float64 `json:"peakSunHours"`
	AvgTemperatureC float64 `json:"avgTemperatureC"`
	// TimeZone is an IANA zone name. Hour of day is computed in this zone.
	TimeZone string `json:"timeZone"`
}

// DefaultNoiseFactor is used for a forecast model id that isn't in the catalog.
const DefaultNoiseFactor = 0.1

// ModelMetrics are hand-authored accuracy figures shown alongside a model.
// They are not computed from any series.
type ModelMetrics struct {
	MAPE float64 `json:"mape"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// ForecastModel describes how far predicted power is allowed to wander from
// actual power.
type ForecastModel struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	NoiseFactor float64      `json:"noiseFactor"`
	Metrics     ModelMetrics `json:"metrics"`
}
