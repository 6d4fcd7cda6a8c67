package calculator

import (
	"fmt"

	"github.com/levenlabs/go-lflag"

	"github.com/solarsim/solarsim/pkg/types"
)

const (
	MinPanels = 10
	MaxPanels = 100

	DefaultPanelWatts   = 400.0
	DefaultTariffPerKWH = 8.0
	DefaultInstallCost  = 50000.0

	// daysPerMonth is a flat month used for monthly generation.
	daysPerMonth = 30
)

// Calculator estimates generation and payback for a rooftop installation.
type Calculator struct {
	PanelWatts   float64
	TariffPerKWH float64
	InstallCost  float64
}

// Default returns a Calculator with the built-in tariff and costs.
func Default() *Calculator {
	return &Calculator{
		PanelWatts:   DefaultPanelWatts,
		TariffPerKWH: DefaultTariffPerKWH,
		InstallCost:  DefaultInstallCost,
	}
}

// Configured returns a Calculator whose tariff and costs can be overridden by
// flags.
func Configured() *Calculator {
	c := Default()
	panelWatts := DefaultPanelWatts
	tariff := DefaultTariffPerKWH
	installCost := DefaultInstallCost
	lflag.JSON(&panelWatts, "calculator-panel-watts", panelWatts, "Rated watts of a single panel")
	lflag.JSON(&tariff, "calculator-tariff", tariff, "Grid tariff per kWh used for savings")
	lflag.JSON(&installCost, "calculator-install-cost", installCost, "Installation cost used for payback")

	lflag.Do(func() {
		if panelWatts <= 0 || tariff <= 0 || installCost < 0 {
			panic(fmt.Errorf("invalid calculator flags: panel watts %v, tariff %v, install cost %v", panelWatts, tariff, installCost))
		}
		c.PanelWatts = panelWatts
		c.TariffPerKWH = tariff
		c.InstallCost = installCost
	})
	return c
}

// Estimate returns the capacity, monthly generation, savings and payback for
// panelCount panels at loc. panelCount must be within [MinPanels, MaxPanels].
func (c *Calculator) Estimate(panelCount int, loc types.Location) (types.CostEstimate, error) {
	if panelCount < MinPanels || panelCount > MaxPanels {
		return types.CostEstimate{}, fmt.Errorf("%w: panel count must be between %d and %d, got %d", types.ErrInvalidParameter, MinPanels, MaxPanels, panelCount)
	}

	capacityKW := float64(panelCount) * c.PanelWatts / 1000
	monthlyKWH := capacityKW * loc.PeakSunHours * daysPerMonth
	savings := monthlyKWH * c.TariffPerKWH

	est := types.CostEstimate{
		LocationID:           loc.ID,
		PanelCount:           panelCount,
		TotalCapacityKW:      capacityKW,
		MonthlyGenerationKWH: monthlyKWH,
		MonthlySavings:       savings,
	}
	// a location with no sun never pays back, leave it at zero
	if savings > 0 {
		est.PaybackYears = c.InstallCost / (savings * 12)
	}
	return est, nil
}
