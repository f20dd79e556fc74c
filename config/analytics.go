package config

import (
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/inventory"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/stattest"
)

// InventoryConfig holds the optimisation and simulation parameters. Zero
// values select the defaults.
type InventoryConfig struct {
	OrderingCost float64                    `json:"ordering_cost"`
	HoldingCost  float64                    `json:"holding_cost"`
	ServiceLevel float64                    `json:"service_level"`
	Simulation   inventory.SimulationParams `json:"simulation"`
}

// SetDefaults fills unset parameters.
func (c *InventoryConfig) SetDefaults() {
	def := inventory.DefaultParams()
	if c.OrderingCost == 0 {
		c.OrderingCost = def.OrderingCost
	}
	if c.HoldingCost == 0 {
		c.HoldingCost = def.HoldingCost
	}
	if c.ServiceLevel == 0 {
		c.ServiceLevel = def.ServiceLevel
	}
	sim := inventory.DefaultSimulationParams()
	if c.Simulation.Days == 0 {
		c.Simulation.Days = sim.Days
	}
	if c.Simulation.Sims == 0 {
		c.Simulation.Sims = sim.Sims
	}
	if c.Simulation.Bins == 0 {
		c.Simulation.Bins = sim.Bins
	}
	if c.Simulation.Seed == 0 {
		c.Simulation.Seed = sim.Seed
	}
}

// Params returns the optimisation parameters.
func (c InventoryConfig) Params() inventory.Params {
	return inventory.Params{OrderingCost: c.OrderingCost, HoldingCost: c.HoldingCost, ServiceLevel: c.ServiceLevel}
}

// Validate checks the parameter ranges.
func (c InventoryConfig) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return errInvalid("inventory", err.Error())
	}
	if err := c.Simulation.Validate(); err != nil {
		return errInvalid("inventory.simulation", err.Error())
	}
	return nil
}

// StatsConfig configures the hypothesis tests.
type StatsConfig struct {
	Alpha float64 `json:"alpha"`
}

// SetDefaults applies the 5% significance level.
func (c *StatsConfig) SetDefaults() {
	if c.Alpha == 0 {
		c.Alpha = stattest.DefaultAlpha
	}
}

// Validate checks that alpha is a probability.
func (c StatsConfig) Validate() error {
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return errInvalid("stats.alpha", "must be in (0, 1)")
	}
	return nil
}
