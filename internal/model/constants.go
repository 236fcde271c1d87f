package model

import "math"

// EmissionTier maps gensets below a capacity (kW) to a CO2 factor
// (kg CO2 per kWh produced).
type EmissionTier struct {
	BelowKW float64
	Factor  float64
}

// Constants is the physical lookup table handed to the KPI engine.
type Constants struct {
	// FuelDensityDiesel in kg per liter.
	FuelDensityDiesel float64
	// EmissionTiers sorted by ascending BelowKW; the last tier should be +Inf.
	EmissionTiers []EmissionTier
}

func DefaultConstants() Constants {
	return Constants{
		FuelDensityDiesel: 0.846,
		EmissionTiers: []EmissionTier{
			{BelowKW: 60, Factor: 1.580},
			{BelowKW: 300, Factor: 0.883},
			{BelowKW: math.Inf(1), Factor: 0.699},
		},
	}
}

// EmissionFactor for a genset of the given capacity.
func (c Constants) EmissionFactor(capacityKW float64) float64 {
	for _, t := range c.EmissionTiers {
		if capacityKW < t.BelowKW {
			return t.Factor
		}
	}
	if n := len(c.EmissionTiers); n > 0 {
		return c.EmissionTiers[n-1].Factor
	}
	return 0
}
