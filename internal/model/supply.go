package model

import (
	"errors"
	"fmt"
)

// PVSpec is the photovoltaic array. Capacity is kWp on the DC bus; output is
// the solar shape scaled by capacity.
type PVSpec struct {
	Settings
	Cost
	NominalCapacity float64
}

func (p PVSpec) Validate() error {
	if !p.IsSelected {
		return nil
	}
	var errs []error
	if err := p.Cost.validate(string(PV), p.Design); err != nil {
		errs = append(errs, err)
	}
	if p.NominalCapacity < 0 {
		errs = append(errs, errors.New("pv: nominal_capacity must be >= 0"))
	}
	return errors.Join(errs...)
}

// ConverterSpec is an inverter (DC->AC) or rectifier (AC->DC). Capacity is
// rated on the input side.
type ConverterSpec struct {
	Settings
	Cost
	NominalCapacity float64
	Efficiency      float64
}

func (c ConverterSpec) validate(name Component) error {
	if !c.IsSelected {
		return nil
	}
	var errs []error
	if err := c.Cost.validate(string(name), c.Design); err != nil {
		errs = append(errs, err)
	}
	if c.NominalCapacity < 0 {
		errs = append(errs, fmt.Errorf("%s: nominal_capacity must be >= 0", name))
	}
	if c.InUse(c.NominalCapacity) && !positiveFraction(c.Efficiency) {
		errs = append(errs, fmt.Errorf("%s: efficiency must be in (0, 1]", name))
	}
	return errors.Join(errs...)
}

// ShortageSpec allows part of the demand to go unserved at a penalty.
type ShortageSpec struct {
	IsSelected bool
	// MaxShortageTotal is the fraction of total demand that may go unserved.
	MaxShortageTotal float64
	// MaxShortageTimestep is the fraction of each hour's demand that may go unserved.
	MaxShortageTimestep float64
	// PenaltyCost is currency per unserved kWh.
	PenaltyCost float64
}

func (s ShortageSpec) Validate() error {
	if !s.IsSelected {
		return nil
	}
	var errs []error
	if !unitInterval(s.MaxShortageTotal) {
		errs = append(errs, errors.New("shortage: max_shortage_total must be in [0, 1]"))
	}
	if !unitInterval(s.MaxShortageTimestep) {
		errs = append(errs, errors.New("shortage: max_shortage_timestep must be in [0, 1]"))
	}
	if s.PenaltyCost < 0 {
		errs = append(errs, errors.New("shortage: shortage_penalty_cost must be >= 0"))
	}
	return errors.Join(errs...)
}
