package catalog

import "github.com/solarsim/solarsim/pkg/types"

var builtinLocations = []types.Location{
	{
		ID:              "mumbai",
		Name:            "Mumbai, India",
		Multiplier:      1.0,
		PeakSunHours:    5.2,
		AvgTemperatureC: 27,
		TimeZone:        "Asia/Kolkata",
	},
	{
		ID:              "delhi",
		Name:            "New Delhi, India",
		Multiplier:      0.95,
		PeakSunHours:    5.8,
		AvgTemperatureC: 25,
		TimeZone:        "Asia/Kolkata",
	},
	{
		ID:              "bangalore",
		Name:            "Bangalore, India",
		Multiplier:      1.05,
		PeakSunHours:    5.5,
		AvgTemperatureC: 24,
		TimeZone:        "Asia/Kolkata",
	},
	{
		ID:              "rajasthan",
		Name:            "Jaisalmer, Rajasthan",
		Multiplier:      1.2,
		PeakSunHours:    6.5,
		AvgTemperatureC: 30,
		TimeZone:        "Asia/Kolkata",
	},
}

// the metrics are display-only and are never derived from a series
var builtinModels = []types.ForecastModel{
	{
		ID:          "persistence",
		Description: "Simple model using yesterday's pattern",
		NoiseFactor: 0.15,
		Metrics:     types.ModelMetrics{MAPE: 15.2, RMSE: 1.1, R2: 0.85},
	},
	{
		ID:          "arima",
		Description: "Time series statistical model",
		NoiseFactor: 0.12,
		Metrics:     types.ModelMetrics{MAPE: 12.8, RMSE: 0.9, R2: 0.89},
	},
	{
		ID:          "neural_network",
		Description: "Deep learning neural network",
		NoiseFactor: 0.08,
		Metrics:     types.ModelMetrics{MAPE: 8.5, RMSE: 0.6, R2: 0.94},
	},
	{
		ID:          "ensemble",
		Description: "Combined multiple ML models",
		NoiseFactor: 0.05,
		Metrics:     types.ModelMetrics{MAPE: 6.2, RMSE: 0.4, R2: 0.97},
	},
}
