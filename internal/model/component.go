package model

import (
	"errors"
	"fmt"
)

// Component names an asset. The string values are the keys used by scenario
// files, API payloads and result sequences.
type Component string

const (
	PV           Component = "pv"
	DieselGenset Component = "diesel_genset"
	Battery      Component = "battery"
	Inverter     Component = "inverter"
	Rectifier    Component = "rectifier"
	Shortage     Component = "shortage"

	Pole              Component = "pole"
	DistributionCable Component = "distribution_cable"
	ConnectionCable   Component = "connection_cable"
	MG                Component = "mg"
)

// EnergySystemComponents are the supply-side assets, in result order.
var EnergySystemComponents = []Component{PV, DieselGenset, Battery, Inverter, Rectifier, Shortage}

// OptimizableComponents carry a capacity and an EPC.
var OptimizableComponents = []Component{PV, DieselGenset, Battery, Inverter, Rectifier}

// GridComponents are the distribution-side assets.
var GridComponents = []Component{Pole, DistributionCable, ConnectionCable, MG}

var ErrUnknownComponent = errors.New("components found neither in grid nor energy system models")

// Side reports which model a component name belongs to.
type Side int

const (
	SideEnergySystem Side = iota
	SideGrid
)

// Classify resolves a component name. Unknown names are a configuration
// error and wrap ErrUnknownComponent.
func Classify(name string) (Component, Side, error) {
	c := Component(name)
	for _, known := range EnergySystemComponents {
		if c == known {
			return c, SideEnergySystem, nil
		}
	}
	for _, known := range GridComponents {
		if c == known {
			return c, SideGrid, nil
		}
	}
	return "", 0, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
}

// Mode is how an asset participates in an optimization run.
type Mode int

const (
	// ModeDisabled forces capacity and all flows to zero.
	ModeDisabled Mode = iota
	// ModeCapacityOptimized makes installed capacity a decision variable (design).
	ModeCapacityOptimized
	// ModeCapacityFixed fixes capacity at the nominal value (dispatch).
	ModeCapacityFixed
)

func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeCapacityOptimized:
		return "design"
	case ModeCapacityFixed:
		return "dispatch"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ModeOf maps the two user-facing switches to a Mode. A deselected asset is
// disabled regardless of design.
func ModeOf(isSelected, design bool) Mode {
	switch {
	case !isSelected:
		return ModeDisabled
	case design:
		return ModeCapacityOptimized
	default:
		return ModeCapacityFixed
	}
}

// Settings is the switch block every supply asset carries.
type Settings struct {
	IsSelected bool
	Design     bool
}

func (s Settings) Mode() Mode { return ModeOf(s.IsSelected, s.Design) }

// InUse reports whether the asset can carry energy: selected and either
// sized by the optimizer or given a nominal capacity.
func (s Settings) InUse(nominal float64) bool {
	return s.IsSelected && (s.Design || nominal > 0)
}

// Cost is the financial block. EPC is derived by the annuity engine and is
// zero until annotated with WithEPC.
type Cost struct {
	Capex    float64
	Opex     float64
	Lifetime int
	EPC      float64
}

// validate checks the cost block. Lifetime only feeds the EPC, so it is
// required for design-mode assets alone.
func (c Cost) validate(name string, design bool) error {
	var errs []error
	if c.Capex < 0 {
		errs = append(errs, fmt.Errorf("%s: capex must be >= 0", name))
	}
	if c.Opex < 0 {
		errs = append(errs, fmt.Errorf("%s: opex must be >= 0", name))
	}
	if design && c.Lifetime <= 0 {
		errs = append(errs, fmt.Errorf("%s: lifetime must be > 0", name))
	}
	return errors.Join(errs...)
}

func unitInterval(v float64) bool    { return v >= 0 && v <= 1 }
func positiveFraction(v float64) bool { return v > 0 && v <= 1 }
