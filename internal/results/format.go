package results

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

func round2(v float64) float64 { return round(v, 2) }
func round3(v float64) float64 { return round(v, 3) }

// Rounded returns a copy with every scalar rounded for presentation: two
// decimals, three for the MWh sankey flows. Series are left untouched.
func (r Results) Rounded() Results {
	if r.Infeasible {
		return r
	}
	out := r
	c := &out.Capacities
	c.PV, c.DieselGenset, c.Battery = round2(c.PV), round2(c.DieselGenset), round2(c.Battery)
	c.Inverter, c.Rectifier = round2(c.Inverter), round2(c.Rectifier)

	k := &out.Costs
	k.Renewable, k.NonRenewable, k.Fuel = round2(k.Renewable), round2(k.NonRenewable), round2(k.Fuel)
	k.Grid, k.Total = round2(k.Grid), round2(k.Total)

	for _, v := range []*float64{
		&out.LCOE, &out.RES, &out.SurplusRate, &out.ShortageRate, &out.GensetToDC,
		&out.CO2Emissions, &out.CO2Savings, &out.FuelConsumption,
		&out.PeakDemand, &out.MaxSurplus, &out.TotalAnnualConsumption, &out.BaseLoad, &out.MaxShortage,
	} {
		*v = round2(*v)
	}
	// Emission factors carry three decimals (t CO2 per MWh).
	out.CO2EmissionFactor = round3(out.CO2EmissionFactor)
	out.UpfrontInvestment = out.UpfrontInvestment.rounded()
	out.EPC = out.EPC.rounded()

	s := &out.Sankey
	for _, v := range []*float64{
		&s.FuelToDieselGenset, &s.DieselGensetToRectifier, &s.DieselGensetToDemand,
		&s.RectifierToDCBus, &s.PVToDCBus, &s.BatteryToDCBus, &s.DCBusToBattery,
		&s.DCBusToInverter, &s.DCBusToSurplus, &s.InverterToDemand,
	} {
		*v = round3(*v)
	}
	return out
}

func (p PerComponent) rounded() PerComponent {
	return PerComponent{
		PV:           round2(p.PV),
		DieselGenset: round2(p.DieselGenset),
		Battery:      round2(p.Battery),
		Inverter:     round2(p.Inverter),
		Rectifier:    round2(p.Rectifier),
		Grid:         round2(p.Grid),
		Total:        round2(p.Total),
	}
}

// Summary renders the headline figures as a text block.
func (r Results) Summary() string {
	if r.Infeasible {
		return "The performed optimization is infeasible\n"
	}
	var b strings.Builder
	line := strings.Repeat("*", 40)
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "LCOE:       %.2f cent/kWh\n", r.LCOE)
	fmt.Fprintf(&b, "RES:        %.0f%%\n", r.RES)
	fmt.Fprintf(&b, "Surplus:    %.1f%% of the total production\n", r.SurplusRate)
	fmt.Fprintf(&b, "Shortage:   %.1f%% of the total demand\n", r.ShortageRate)
	fmt.Fprintf(&b, "AC--DC:     %.1f%% of the genset production\n", r.GensetToDC)
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "genset:     %.0f kW\n", r.Capacities.DieselGenset)
	fmt.Fprintf(&b, "pv:         %.0f kW\n", r.Capacities.PV)
	fmt.Fprintf(&b, "battery:    %.0f kWh\n", r.Capacities.Battery)
	fmt.Fprintf(&b, "inverter:   %.0f kW\n", r.Capacities.Inverter)
	fmt.Fprintf(&b, "rectifier:  %.0f kW\n", r.Capacities.Rectifier)
	fmt.Fprintf(&b, "peak:       %.0f kW\n", r.PeakDemand)
	fmt.Fprintf(&b, "surplus:    %.0f kW\n", r.MaxSurplus)
	fmt.Fprintln(&b, line)
	return b.String()
}

// WithoutSeries returns a copy without the hourly series, for compact
// listings.
func (r Results) WithoutSeries() Results {
	out := r
	out.Emissions = nil
	out.DurationCurves = nil
	out.DemandCoverage = nil
	out.EnergyFlows = nil
	out.Flows = nil
	out.GensetStatus = nil
	return out
}
