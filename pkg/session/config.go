package session

import (
	"fmt"

	"github.com/levenlabs/go-lflag"

	"github.com/solarsim/solarsim/pkg/types"
)

// ConfiguredSettings returns the initial session settings, filled from flags
// once lflag.Configure is called.
func ConfiguredSettings() *types.Settings {
	settings := types.DefaultSettings()
	location := lflag.String("location", settings.LocationID, "Initial location id")
	model := lflag.String("model", settings.ModelID, "Initial forecast model id")
	rangeDays := settings.RangeDays
	lflag.JSON(&rangeDays, "range-days", rangeDays, "Initial number of days to generate (1-30)")
	speed := settings.Speed
	lflag.JSON(&speed, "speed", speed, "Initial playback speed in samples per second")
	alerts := lflag.Bool("alerts", settings.AlertsEnabled, "Raise notifications during playback")

	lflag.Do(func() {
		settings.LocationID = *location
		settings.ModelID = *model
		settings.RangeDays = rangeDays
		settings.Speed = speed
		settings.AlertsEnabled = *alerts
		if err := settings.Validate(); err != nil {
			panic(fmt.Sprintf("invalid session flags: %v", err))
		}
	})
	return &settings
}
