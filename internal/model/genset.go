package model

import (
	"errors"
	"fmt"
)

// GensetSpec describes the diesel generator. Capacity is rated on the AC
// output in kW.
// Units:
// - VariableCost: currency per kWh of AC output
// - FuelCost: currency per liter of diesel
// - FuelLHV: kWh per kg of fuel
// - MinLoad/MaxLoad: fraction of capacity while running (Offset only)
// - MinEfficiency/MaxEfficiency: kWh AC per kWh fuel
type GensetSpec struct {
	Settings
	Cost
	NominalCapacity float64
	VariableCost    float64
	FuelCost        float64
	FuelLHV         float64
	MinLoad         float64
	MaxLoad         float64
	MinEfficiency   float64
	MaxEfficiency   float64
	// Offset selects the on/off formulation with a minimum load.
	Offset bool
}

func (g GensetSpec) Validate() error {
	if !g.IsSelected {
		return nil
	}
	var errs []error
	if err := g.Cost.validate(string(DieselGenset), g.Design); err != nil {
		errs = append(errs, err)
	}
	if g.NominalCapacity < 0 {
		errs = append(errs, errors.New("diesel_genset: nominal_capacity must be >= 0"))
	}
	if !g.InUse(g.NominalCapacity) {
		return errors.Join(errs...)
	}
	if g.VariableCost < 0 || g.FuelCost < 0 {
		errs = append(errs, errors.New("diesel_genset: variable_cost/fuel_cost must be >= 0"))
	}
	if g.FuelLHV <= 0 {
		errs = append(errs, errors.New("diesel_genset: fuel_lhv must be > 0"))
	}
	if !positiveFraction(g.MaxEfficiency) {
		errs = append(errs, errors.New("diesel_genset: max_efficiency must be in (0, 1]"))
	}
	if g.Offset {
		lo, hi := g.LoadLimits()
		if !unitInterval(lo) || !positiveFraction(hi) || lo > hi {
			errs = append(errs, fmt.Errorf("diesel_genset: load limits must satisfy 0<=min_load<=max_load<=1 (got %g, %g)", lo, hi))
		}
	}
	return errors.Join(errs...)
}

// LoadLimits returns the operating band as a fraction of capacity. An unset
// max_load means the full rating.
func (g GensetSpec) LoadLimits() (lo, hi float64) {
	hi = g.MaxLoad
	if hi == 0 {
		hi = 1
	}
	return g.MinLoad, hi
}

// FuelUnitCost is the price of one kWh of fuel energy.
func (g GensetSpec) FuelUnitCost(c Constants) float64 {
	if g.FuelLHV <= 0 || c.FuelDensityDiesel <= 0 {
		return 0
	}
	return g.FuelCost / c.FuelDensityDiesel / g.FuelLHV
}

// OutputCost is the cost of one kWh of AC output: variable cost plus the fuel
// burnt at rated efficiency.
func (g GensetSpec) OutputCost(c Constants) float64 {
	if g.MaxEfficiency <= 0 {
		return g.VariableCost
	}
	return g.VariableCost + g.FuelUnitCost(c)/g.MaxEfficiency
}

// FuelLiters converts fuel energy (kWh) to liters of diesel.
func (g GensetSpec) FuelLiters(fuelKWh float64, c Constants) float64 {
	if g.FuelLHV <= 0 || c.FuelDensityDiesel <= 0 {
		return 0
	}
	return fuelKWh / g.FuelLHV / c.FuelDensityDiesel
}
