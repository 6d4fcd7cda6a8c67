package types

import (
	"fmt"
)

const (
	DefaultLocationID = "mumbai"
	DefaultModelID    = "ensemble"
	DefaultRangeDays  = 7
	DefaultSpeed      = 1.0

	// MinRangeDays and MaxRangeDays bound a series to 24..720 samples.
	MinRangeDays = 1
	MaxRangeDays = 30
)

// Settings are the parameters of the dashboard session. Changing the
// location, model or range regenerates the series.
type Settings struct {
	LocationID string `json:"locationID"`
	ModelID    string `json:"modelID"`
	RangeDays  int    `json:"rangeDays"`

	// Speed scales the tick rate, 1.0 is one sample per second.
	Speed         float64 `json:"speed"`
	AlertsEnabled bool    `json:"alertsEnabled"`
}

// DefaultSettings returns the settings a new session starts with.
func DefaultSettings() Settings {
	return Settings{
		LocationID:    DefaultLocationID,
		ModelID:       DefaultModelID,
		RangeDays:     DefaultRangeDays,
		Speed:         DefaultSpeed,
		AlertsEnabled: true,
	}
}

// Validate checks the values that don't need a catalog lookup.
func (s Settings) Validate() error {
	if s.LocationID == "" {
		return fmt.Errorf("%w: locationID cannot be empty", ErrInvalidParameter)
	}
	if err := ValidateRangeDays(s.RangeDays); err != nil {
		return err
	}
	if err := ValidateSpeed(s.Speed); err != nil {
		return err
	}
	return nil
}

// ValidateRangeDays returns an error if days is outside [MinRangeDays, MaxRangeDays].
func ValidateRangeDays(days int) error {
	if days < MinRangeDays || days > MaxRangeDays {
		return fmt.Errorf("%w: rangeDays must be between %d and %d, got %d", ErrInvalidParameter, MinRangeDays, MaxRangeDays, days)
	}
	return nil
}

// ValidateSpeed returns an error unless speed is positive.
func ValidateSpeed(speed float64) error {
	if !(speed > 0) {
		return fmt.Errorf("%w: speed must be positive, got %v", ErrInvalidParameter, speed)
	}
	return nil
}

// SettingsUpdate is a partial change to Settings. Nil fields are left alone.
type SettingsUpdate struct {
	LocationID    *string  `json:"locationID,omitempty"`
	ModelID       *string  `json:"modelID,omitempty"`
	RangeDays     *int     `json:"rangeDays,omitempty"`
	Speed         *float64 `json:"speed,omitempty"`
	AlertsEnabled *bool    `json:"alertsEnabled,omitempty"`
}

// Apply returns s with the update applied and whether any of the generation
// parameters changed.
func (u SettingsUpdate) Apply(s Settings) (Settings, bool) {
	var regenerate bool
	if u.LocationID != nil && *u.LocationID != s.LocationID {
		s.LocationID = *u.LocationID
		regenerate = true
	}
	if u.ModelID != nil && *u.ModelID != s.ModelID {
		s.ModelID = *u.ModelID
		regenerate = true
	}
	if u.RangeDays != nil && *u.RangeDays != s.RangeDays {
		s.RangeDays = *u.RangeDays
		regenerate = true
	}
	if u.Speed != nil {
		s.Speed = *u.Speed
	}
	if u.AlertsEnabled != nil {
		s.AlertsEnabled = *u.AlertsEnabled
	}
	return s, regenerate
}

// CostEstimate is the output of the rooftop cost calculator.
type CostEstimate struct {
	LocationID           string  `json:"locationID"`
	PanelCount           int     `json:"panelCount"`
	TotalCapacityKW      float64 `json:"totalCapacityKW"`
	MonthlyGenerationKWH float64 `json:"monthlyGenerationKWH"`
	MonthlySavings       float64 `json:"monthlySavings"`
	PaybackYears         float64 `json:"paybackYears"`
}
