package model

import (
	"errors"
	"fmt"

	"offgrid-planner/internal/annuity"
)

// EnergySystem is the full supply-side configuration of one run. It is a
// value type: every transformation returns a new copy.
type EnergySystem struct {
	PV           PVSpec
	DieselGenset GensetSpec
	Battery      BatterySpec
	Inverter     ConverterSpec
	Rectifier    ConverterSpec
	Shortage     ShortageSpec
}

// Validate checks every selected component.
func (s EnergySystem) Validate() error {
	return errors.Join(
		s.PV.Validate(),
		s.DieselGenset.Validate(),
		s.Battery.Validate(),
		s.Inverter.validate(Inverter),
		s.Rectifier.validate(Rectifier),
		s.Shortage.Validate(),
	)
}

// ApplySelectionRules returns a copy in which no selected source is cut off
// from AC demand. Order matters:
//  1. PV or battery selected => inverter selected.
//  2. Genset not selected => inverter, battery and PV selected.
func (s EnergySystem) ApplySelectionRules() EnergySystem {
	out := s
	if out.PV.IsSelected || out.Battery.IsSelected {
		out.Inverter.IsSelected = true
	}
	if !out.DieselGenset.IsSelected {
		out.Inverter.IsSelected = true
		out.Battery.IsSelected = true
		out.PV.IsSelected = true
	}
	return out
}

// WithEPC returns a copy with the equivalent periodic cost annotated on every
// optimizable component.
func (s EnergySystem) WithEPC(f annuity.Financials) EnergySystem {
	out := s
	out.PV.EPC = f.EPC(s.PV.Capex, s.PV.Opex, s.PV.Lifetime)
	out.DieselGenset.EPC = f.EPC(s.DieselGenset.Capex, s.DieselGenset.Opex, s.DieselGenset.Lifetime)
	out.Battery.EPC = f.EPC(s.Battery.Capex, s.Battery.Opex, s.Battery.Lifetime)
	out.Inverter.EPC = f.EPC(s.Inverter.Capex, s.Inverter.Opex, s.Inverter.Lifetime)
	out.Rectifier.EPC = f.EPC(s.Rectifier.Capex, s.Rectifier.Opex, s.Rectifier.Lifetime)
	return out
}

// WithLinearGenset returns a copy with the on/off genset formulation
// switched off.
func (s EnergySystem) WithLinearGenset() EnergySystem {
	out := s
	out.DieselGenset.Offset = false
	return out
}

// Mode reports the mode of an optimizable component.
func (s EnergySystem) Mode(c Component) Mode {
	st, _, err := s.parts(c)
	if err != nil {
		return ModeDisabled
	}
	return st.Mode()
}

// NominalCapacity of an optimizable component.
func (s EnergySystem) NominalCapacity(c Component) float64 {
	switch c {
	case PV:
		return s.PV.NominalCapacity
	case DieselGenset:
		return s.DieselGenset.NominalCapacity
	case Battery:
		return s.Battery.NominalCapacity
	case Inverter:
		return s.Inverter.NominalCapacity
	case Rectifier:
		return s.Rectifier.NominalCapacity
	}
	return 0
}

// CostOf returns the financial block of an optimizable component.
func (s EnergySystem) CostOf(c Component) Cost {
	_, cost, err := s.parts(c)
	if err != nil {
		return Cost{}
	}
	return cost
}

func (s EnergySystem) parts(c Component) (Settings, Cost, error) {
	switch c {
	case PV:
		return s.PV.Settings, s.PV.Cost, nil
	case DieselGenset:
		return s.DieselGenset.Settings, s.DieselGenset.Cost, nil
	case Battery:
		return s.Battery.Settings, s.Battery.Cost, nil
	case Inverter:
		return s.Inverter.Settings, s.Inverter.Cost, nil
	case Rectifier:
		return s.Rectifier.Settings, s.Rectifier.Cost, nil
	}
	return Settings{}, Cost{}, fmt.Errorf("%q has no capacity: %w", c, ErrUnknownComponent)
}
