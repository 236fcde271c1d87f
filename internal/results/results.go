// Package results reads a solved network back into hourly flows, installed
// capacities and the annual cost and performance indicators of the system.
package results

import (
	"errors"
	"fmt"
	"math"
	"time"

	"offgrid-planner/internal/annuity"
	"offgrid-planner/internal/model"
	"offgrid-planner/internal/network"
	"offgrid-planner/internal/solver"

	"gonum.org/v1/gonum/floats"
)

// Grid is the optional distribution grid designed outside this module.
// A nil Layout means no grid was designed and its cost is zero.
type Grid struct {
	Design model.GridDesign
	Layout *model.GridLayout
}

// Capacities are installed sizes: kW for converters and the genset, kWp for
// PV and kWh for the battery.
type Capacities struct {
	PV           float64 `json:"pv"`
	DieselGenset float64 `json:"diesel_genset"`
	Battery      float64 `json:"battery"`
	Inverter     float64 `json:"inverter"`
	Rectifier    float64 `json:"rectifier"`
}

func (c Capacities) of(comp model.Component) float64 {
	switch comp {
	case model.PV:
		return c.PV
	case model.DieselGenset:
		return c.DieselGenset
	case model.Battery:
		return c.Battery
	case model.Inverter:
		return c.Inverter
	case model.Rectifier:
		return c.Rectifier
	}
	return 0
}

// Costs are annual, in the input currency.
type Costs struct {
	Renewable    float64 `json:"cost_renewable_assets"`
	NonRenewable float64 `json:"cost_non_renewable_assets"`
	Fuel         float64 `json:"cost_fuel"`
	Grid         float64 `json:"cost_grid"`
	Total        float64 `json:"epc_total"`
}

// PerComponent holds one value per optimizable component.
type PerComponent struct {
	PV           float64 `json:"pv"`
	DieselGenset float64 `json:"diesel_genset"`
	Battery      float64 `json:"battery"`
	Inverter     float64 `json:"inverter"`
	Rectifier    float64 `json:"rectifier"`
	Grid         float64 `json:"grid,omitempty"`
	Total        float64 `json:"total"`
}

// Sankey lists the energy moved between nodes over the period, in MWh.
type Sankey struct {
	FuelToDieselGenset      float64 `json:"fuel_to_diesel_genset"`
	DieselGensetToRectifier float64 `json:"diesel_genset_to_rectifier"`
	DieselGensetToDemand    float64 `json:"diesel_genset_to_demand"`
	RectifierToDCBus        float64 `json:"rectifier_to_dc_bus"`
	PVToDCBus               float64 `json:"pv_to_dc_bus"`
	BatteryToDCBus          float64 `json:"battery_to_dc_bus"`
	DCBusToBattery          float64 `json:"dc_bus_to_battery"`
	DCBusToInverter         float64 `json:"dc_bus_to_inverter"`
	DCBusToSurplus          float64 `json:"dc_bus_to_surplus"`
	InverterToDemand        float64 `json:"inverter_to_demand"`
}

// Results is the full outcome of one run. When Infeasible is set every other
// field is empty.
type Results struct {
	Infeasible bool `json:"infeasible"`

	Capacities Capacities `json:"capacities"`
	Costs      Costs      `json:"costs"`

	LCOE         float64 `json:"lcoe"`
	RES          float64 `json:"res"`
	SurplusRate  float64 `json:"surplus_rate"`
	ShortageRate float64 `json:"shortage_total"`
	GensetToDC   float64 `json:"genset_to_dc"`

	CO2EmissionFactor float64 `json:"co2_emission_factor"`
	CO2Emissions      float64 `json:"co2_emissions"`
	CO2Savings        float64 `json:"co2_savings"`
	FuelConsumption   float64 `json:"fuel_consumption"`

	PeakDemand             float64 `json:"peak_demand"`
	MaxSurplus             float64 `json:"surplus"`
	TotalAnnualConsumption float64 `json:"total_annual_consumption"`
	BaseLoad               float64 `json:"base_load"`
	MaxShortage            float64 `json:"max_shortage"`

	UpfrontInvestment PerComponent `json:"upfront_investment"`
	EPC               PerComponent `json:"epc"`
	Sankey            Sankey       `json:"sankey"`

	Emissions      []EmissionPoint `json:"emissions,omitempty"`
	DurationCurves []DurationPoint `json:"duration_curves,omitempty"`
	DemandCoverage []CoveragePoint `json:"demand_coverage,omitempty"`
	EnergyFlows    []HourlyRow     `json:"energy_flows,omitempty"`

	// Flows holds every edge series keyed by edge name.
	Flows        map[string][]float64 `json:"flows,omitempty"`
	GensetStatus []float64            `json:"genset_status,omitempty"`
}

var ErrNoSolution = errors.New("solution carries no values")

// Extract computes the results of a solved network. An infeasible solution
// yields Results{Infeasible: true}.
func Extract(net *network.Network, sol *solver.Solution, grid *Grid) (*Results, error) {
	if sol == nil {
		return nil, ErrNoSolution
	}
	if sol.Infeasible() {
		return &Results{Infeasible: true}, nil
	}
	if len(sol.Values) != len(net.Model.Vars) {
		return nil, fmt.Errorf("%w: got %d values for %d variables", ErrNoSolution, len(sol.Values), len(net.Model.Vars))
	}

	x := sol.Values
	sys := net.System
	ts := net.Series
	consts := net.Constants()
	nDays := ts.NDays()
	annual := func(v float64) float64 { return annuity.Annualize(v, nDays) }

	r := &Results{
		Flows:        net.Flows(x),
		GensetStatus: net.GensetStatus(x),
		Capacities: Capacities{
			PV:           net.Capacity(model.PV, x),
			DieselGenset: net.Capacity(model.DieselGenset, x),
			Battery:      net.Capacity(model.Battery, x),
			Inverter:     net.Capacity(model.Inverter, x),
			Rectifier:    net.Capacity(model.Rectifier, x),
		},
	}
	f := r.Flows
	genset := floats.Sum(f[network.EdgeGenset])
	pv := floats.Sum(f[network.EdgePV])
	rectifier := floats.Sum(f[network.EdgeRectifierOut])
	inverter := floats.Sum(f[network.EdgeInverterOut])
	surplus := floats.Sum(f[network.EdgeSurplus])
	shortage := floats.Sum(f[network.EdgeShortage])
	demand := floats.Sum(f[network.EdgeDemand])
	fuelKWh := floats.Sum(f[network.EdgeFuel])
	fuelLiters := sys.DieselGenset.FuelLiters(fuelKWh, consts)

	// Costs
	epcOf := func(c model.Component) float64 { return sys.CostOf(c).EPC * r.Capacities.of(c) }
	r.Costs.Renewable = epcOf(model.PV) + epcOf(model.Inverter) + epcOf(model.Battery)
	r.Costs.NonRenewable = epcOf(model.DieselGenset) + epcOf(model.Rectifier) +
		annual(sys.DieselGenset.VariableCost*genset)
	r.Costs.Fuel = annual(sys.DieselGenset.FuelCost * fuelLiters)
	if grid != nil && grid.Layout != nil {
		if c := grid.Design.Cost(*grid.Layout); !math.IsInf(c, 0) {
			r.Costs.Grid = c
		}
	}
	r.Costs.Total = r.Costs.Renewable + r.Costs.NonRenewable + r.Costs.Fuel + r.Costs.Grid

	// Indicators
	r.LCOE = percent(r.Costs.Total, annual(demand))
	r.RES = percent(pv, pv+genset)
	r.SurplusRate = percent(surplus, genset-rectifier+inverter)
	r.GensetToDC = percent(rectifier, genset)
	r.ShortageRate = percent(shortage, demand)

	// Emissions and fuel
	r.CO2EmissionFactor = consts.EmissionFactor(r.Capacities.DieselGenset)
	r.CO2Emissions = annual(genset * r.CO2EmissionFactor / 1000)
	r.Emissions = emissions(ts.Demand, f[network.EdgeGenset], r.CO2EmissionFactor)
	r.CO2Savings = annual(maxSavings(r.Emissions))
	r.FuelConsumption = annual(fuelLiters)

	// Demand statistics
	r.PeakDemand = ts.PeakDemand()
	r.MaxSurplus = maxOf(f[network.EdgeSurplus])
	r.TotalAnnualConsumption = annual(demand) * (100 - r.ShortageRate) / 100
	r.BaseLoad = baseLoad(ts.Demand, nDays)
	r.MaxShortage = maxShortage(f[network.EdgeShortage], ts.Demand)

	r.UpfrontInvestment = perComponent(r.Capacities, func(c model.Component) float64 { return sys.CostOf(c).Capex })
	if grid != nil && grid.Layout != nil {
		r.UpfrontInvestment.Grid = grid.Design.UpfrontInvestment(*grid.Layout)
		r.UpfrontInvestment.Total += r.UpfrontInvestment.Grid
	}
	r.EPC = perComponent(r.Capacities, func(c model.Component) float64 { return sys.CostOf(c).EPC })
	variable := annual(sys.DieselGenset.VariableCost * genset)
	r.EPC.DieselGenset += variable
	r.EPC.Total += variable

	r.Sankey = sankey(f)
	r.DurationCurves = durationCurves(f)
	r.DemandCoverage = demandCoverage(f, ts)
	r.EnergyFlows = hourlyRows(f, ts)
	return r, nil
}

// perComponent multiplies each capacity by a per-unit value.
func perComponent(caps Capacities, unit func(model.Component) float64) PerComponent {
	p := PerComponent{
		PV:           caps.PV * unit(model.PV),
		DieselGenset: caps.DieselGenset * unit(model.DieselGenset),
		Battery:      caps.Battery * unit(model.Battery),
		Inverter:     caps.Inverter * unit(model.Inverter),
		Rectifier:    caps.Rectifier * unit(model.Rectifier),
	}
	p.Total = p.PV + p.DieselGenset + p.Battery + p.Inverter + p.Rectifier
	return p
}

func sankey(f map[string][]float64) Sankey {
	toMWh := func(v float64) float64 { return v / 1000 }
	sum := func(edge string) float64 { return floats.Sum(f[edge]) }

	s := Sankey{
		FuelToDieselGenset: toMWh(sum(network.EdgeFuel)),
		RectifierToDCBus:   toMWh(sum(network.EdgeRectifierOut)),
		PVToDCBus:          toMWh(sum(network.EdgePV)),
		BatteryToDCBus:     toMWh(sum(network.EdgeBatteryDischarge)),
		DCBusToBattery:     toMWh(sum(network.EdgeBatteryCharge)),
		DCBusToInverter:    toMWh(sum(network.EdgeInverterIn)),
		DCBusToSurplus:     toMWh(sum(network.EdgeSurplus)),
		InverterToDemand:   toMWh(sum(network.EdgeInverterOut)),
	}
	s.DieselGensetToRectifier = toMWh(sum(network.EdgeRectifierIn))
	s.DieselGensetToDemand = toMWh(sum(network.EdgeGenset)) - s.DieselGensetToRectifier
	return s
}

func percent(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return 100 * num / den
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Max(xs)
}

// maxShortage is the largest hourly shortage as a percentage of that hour's
// demand. Hours without demand are skipped.
func maxShortage(shortage, demand []float64) float64 {
	worst := 0.0
	for t, s := range shortage {
		if demand[t] > 0 {
			worst = math.Max(worst, 100*s/demand[t])
		}
	}
	return worst
}

// Timestamps of the hourly rows; a zero start falls back to 2022-01-01 UTC.
func timestamps(ts model.TimeSeries) []time.Time {
	if ts.Start.IsZero() {
		ts.Start = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return ts.Timestamps()
}
