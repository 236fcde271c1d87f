package model

import "errors"

// BatterySpec describes the storage device on the DC bus.
// Units:
// - NominalCapacity: kWh of energy capacity
// - SOC: fraction 0..1 of capacity
// - CRateIn/CRateOut: kW of charge/discharge power per kWh of capacity
// - Efficiency: 0..1, applied on each direction
type BatterySpec struct {
	Settings
	Cost
	NominalCapacity float64
	SOCMin          float64
	SOCMax          float64
	CRateIn         float64
	CRateOut        float64
	Efficiency      float64
}

func (b BatterySpec) Validate() error {
	if !b.IsSelected {
		return nil
	}
	var errs []error
	if err := b.Cost.validate(string(Battery), b.Design); err != nil {
		errs = append(errs, err)
	}
	if b.NominalCapacity < 0 {
		errs = append(errs, errors.New("battery: nominal_capacity must be >= 0"))
	}
	// An empty dispatch battery is left out of the network.
	if !b.InUse(b.NominalCapacity) {
		return errors.Join(errs...)
	}
	if !positiveFraction(b.Efficiency) {
		errs = append(errs, errors.New("battery: efficiency must be in (0, 1]"))
	}
	if !unitInterval(b.SOCMin) || !unitInterval(b.SOCMax) || b.SOCMin > b.SOCMax {
		errs = append(errs, errors.New("battery: soc_min/soc_max must satisfy 0<=soc_min<=soc_max<=1"))
	}
	if b.CRateIn < 0 || b.CRateOut < 0 {
		errs = append(errs, errors.New("battery: c_rate_in/c_rate_out must be >= 0"))
	}
	return errors.Join(errs...)
}

// InitialContent is the stored energy at the start of the horizon for a
// given capacity. Storage starts full.
func (b BatterySpec) InitialContent(capacity float64) float64 {
	return b.SOCMax * capacity
}
