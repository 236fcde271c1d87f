package results

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"offgrid-planner/internal/annuity"
	"offgrid-planner/internal/model"
	"offgrid-planner/internal/network"
	"offgrid-planner/internal/solver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var financials = annuity.Financials{WACC: 0.1, ProjectLifetime: 20}

func series(demand float64) model.TimeSeries {
	ts := model.TimeSeries{
		Start:          time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		Demand:         make([]float64, 24),
		SolarPotential: make([]float64, 24),
	}
	for t := range ts.Demand {
		ts.Demand[t] = demand
		if t >= 6 && t < 18 {
			ts.SolarPotential[t] = 0.5
		}
	}
	return ts
}

func gensetOnly() model.EnergySystem {
	return model.EnergySystem{
		DieselGenset: model.GensetSpec{
			Settings:      model.Settings{IsSelected: true, Design: true},
			Cost:          model.Cost{Capex: 300, Lifetime: 8},
			FuelCost:      1,
			FuelLHV:       10,
			MaxEfficiency: 1,
		},
	}
}

func hybrid() model.EnergySystem {
	design := model.Settings{IsSelected: true, Design: true}
	return model.EnergySystem{
		PV: model.PVSpec{Settings: design, Cost: model.Cost{Capex: 800, Opex: 10, Lifetime: 25}},
		DieselGenset: model.GensetSpec{
			Settings:      design,
			Cost:          model.Cost{Capex: 300, Opex: 20, Lifetime: 8},
			VariableCost:  0.02,
			FuelCost:      1.2,
			FuelLHV:       11.83,
			MaxEfficiency: 0.33,
		},
		Battery: model.BatterySpec{
			Settings:   design,
			Cost:       model.Cost{Capex: 350, Opex: 5, Lifetime: 6},
			SOCMin:     0.3,
			SOCMax:     1,
			CRateIn:    1,
			CRateOut:   0.5,
			Efficiency: 0.95,
		},
		Inverter:  model.ConverterSpec{Settings: design, Cost: model.Cost{Capex: 400, Lifetime: 10}, Efficiency: 0.98},
		Rectifier: model.ConverterSpec{Settings: design, Cost: model.Cost{Capex: 300, Lifetime: 10}, Efficiency: 0.98},
		Shortage:  model.ShortageSpec{IsSelected: true, MaxShortageTotal: 0.1, MaxShortageTimestep: 0.5, PenaltyCost: 0.3},
	}
}

// point is a hand-made solution addressed by variable name.
type point struct {
	net *network.Network
	x   []float64
	idx map[string]int
}

func newPoint(t *testing.T, net *network.Network) *point {
	t.Helper()
	p := &point{net: net, x: make([]float64, len(net.Model.Vars)), idx: map[string]int{}}
	for j, v := range net.Model.Vars {
		p.idx[v.Name] = j
	}
	return p
}

func (p *point) set(name string, v float64) {
	j, ok := p.idx[name]
	if !ok {
		panic("unknown variable " + name)
	}
	p.x[j] = v
}

func (p *point) series(edge string, v float64) {
	for t := 0; t < p.net.Steps(); t++ {
		p.set(fmt.Sprintf("%s[%d]", edge, t), v)
	}
}

func (p *point) solution() *solver.Solution {
	return &solver.Solution{Status: solver.StatusOptimal, Values: p.x}
}

func TestExtractGensetOnly(t *testing.T) {
	sys := gensetOnly().WithEPC(financials)
	net, err := network.Build(sys, series(10), network.Options{})
	require.NoError(t, err)

	p := newPoint(t, net)
	p.set(network.EdgeGenset+"[capacity]", 10)
	p.series(network.EdgeGenset, 10)

	r, err := Extract(net, p.solution(), nil)
	require.NoError(t, err)
	require.False(t, r.Infeasible)

	epc := sys.DieselGenset.EPC
	liters := 240 / 10 / 0.846
	assert.Equal(t, 10.0, r.Capacities.DieselGenset)
	assert.Equal(t, 0.0, r.Capacities.PV)
	assert.InDelta(t, 10*epc, r.Costs.NonRenewable, 1e-9)
	assert.Equal(t, 0.0, r.Costs.Renewable)
	assert.InDelta(t, 365*liters, r.Costs.Fuel, 1e-9)
	assert.InDelta(t, 10*epc+365*liters, r.Costs.Total, 1e-9)
	assert.InDelta(t, 100*(10*epc+365*liters)/(240*365), r.LCOE, 1e-9)

	assert.Equal(t, 0.0, r.RES)
	assert.Equal(t, 0.0, r.SurplusRate)
	assert.Equal(t, 0.0, r.ShortageRate)
	assert.Equal(t, 0.0, r.GensetToDC)

	assert.Equal(t, 1.580, r.CO2EmissionFactor)
	assert.InDelta(t, 365*240*1.580/1000, r.CO2Emissions, 1e-9)
	assert.InDelta(t, 0, r.CO2Savings, 1e-12)
	require.Len(t, r.Emissions, 1)
	assert.InDelta(t, 240*1.580/1000, r.Emissions[0].NonRenewableElectricityProduction, 1e-12)
	assert.InDelta(t, 365*liters, r.FuelConsumption, 1e-9)

	assert.Equal(t, 10.0, r.PeakDemand)
	assert.InDelta(t, 240*365, r.TotalAnnualConsumption, 1e-9)
	assert.InDelta(t, 3650, r.BaseLoad, 1e-9)
	assert.Equal(t, 0.0, r.MaxShortage)

	assert.Equal(t, 3000.0, r.UpfrontInvestment.DieselGenset)
	assert.Equal(t, 3000.0, r.UpfrontInvestment.Total)
	assert.InDelta(t, 10*epc, r.EPC.DieselGenset, 1e-9)

	assert.InDelta(t, 0.24, r.Sankey.FuelToDieselGenset, 1e-12)
	assert.InDelta(t, 0.24, r.Sankey.DieselGensetToDemand, 1e-12)
	assert.Equal(t, 0.0, r.Sankey.DieselGensetToRectifier)

	require.Len(t, r.DurationCurves, 1)
	assert.Equal(t, 100.0, r.DurationCurves[0].DieselGenset)
	assert.Equal(t, 0.0, r.DurationCurves[0].PV)
	require.Len(t, r.EnergyFlows, 24)
	assert.Equal(t, 10.0, r.EnergyFlows[5].DieselGenset)
	assert.Equal(t, 10.0, r.EnergyFlows[5].Fuel)
	assert.Equal(t, time.Date(2022, 1, 1, 5, 0, 0, 0, time.UTC), r.EnergyFlows[5].Time)
	require.Len(t, r.DemandCoverage, 24)
	assert.Equal(t, 10.0, r.DemandCoverage[0].NonRenewable)

	summary := r.Summary()
	assert.Contains(t, summary, "genset:     10 kW")
	assert.Contains(t, summary, fmt.Sprintf("LCOE:       %.2f cent/kWh", r.LCOE))
}

func TestExtractIndicators(t *testing.T) {
	sys := hybrid().WithEPC(financials)
	net, err := network.Build(sys, series(4), network.Options{})
	require.NoError(t, err)

	p := newPoint(t, net)
	p.set(network.EdgePV+"[capacity]", 20)
	p.set(network.EdgeGenset+"[capacity]", 12)
	p.series(network.EdgeGenset, 10)
	p.set(network.EdgeRectifierIn+"[0]", 5)
	p.set(network.EdgeInverterIn+"[12]", 100)
	p.set(network.EdgeSurplus+"[1]", 4.9)
	p.set(network.EdgeShortage+"[3]", 2)

	r, err := Extract(net, p.solution(), nil)
	require.NoError(t, err)

	// 12 sunny hours at full shape.
	assert.InDelta(t, 50, r.RES, 1e-9)
	assert.InDelta(t, 100*4.9/(240-4.9+98), r.SurplusRate, 1e-9)
	assert.InDelta(t, 100*4.9/240, r.GensetToDC, 1e-9)
	assert.InDelta(t, 100*2.0/96, r.ShortageRate, 1e-9)
	assert.InDelta(t, 50, r.MaxShortage, 1e-9)
	assert.InDelta(t, 96*365*(100-r.ShortageRate)/100, r.TotalAnnualConsumption, 1e-6)

	assert.InDelta(t, 0.005, r.Sankey.DieselGensetToRectifier, 1e-12)
	assert.InDelta(t, 0.235, r.Sankey.DieselGensetToDemand, 1e-12)
	assert.InDelta(t, 0.0049, r.Sankey.RectifierToDCBus, 1e-12)
	assert.InDelta(t, 0.1, r.Sankey.DCBusToInverter, 1e-12)
	assert.InDelta(t, 0.098, r.Sankey.InverterToDemand, 1e-12)
	assert.InDelta(t, 0.24, r.Sankey.PVToDCBus, 1e-12)

	wantRenewable := 20 * sys.PV.EPC
	wantNonRenewable := 12*sys.DieselGenset.EPC + 365*0.02*240
	assert.InDelta(t, wantRenewable, r.Costs.Renewable, 1e-9)
	assert.InDelta(t, wantNonRenewable, r.Costs.NonRenewable, 1e-9)
	assert.InDelta(t, 12*sys.DieselGenset.EPC+365*0.02*240, r.EPC.DieselGenset, 1e-9)
	assert.InDelta(t, 20*800.0, r.UpfrontInvestment.PV, 1e-9)

	// The genset produced more than the demand, so the savings are negative.
	assert.InDelta(t, 365*(96-240)*1.580/1000, r.CO2Savings, 1e-9)
	require.Len(t, r.DurationCurves, 1)
	assert.Equal(t, 0.0, r.DurationCurves[0].PV, "daily minimum includes the night")
}

func TestExtractGridCost(t *testing.T) {
	sys := gensetOnly().WithEPC(financials)
	net, err := network.Build(sys, series(10), network.Options{})
	require.NoError(t, err)
	p := newPoint(t, net)
	p.set(network.EdgeGenset+"[capacity]", 10)
	p.series(network.EdgeGenset, 10)

	design := model.GridDesign{
		Pole:              model.GridComponent{Capex: 800, Lifetime: 10},
		DistributionCable: model.GridComponent{Capex: 10, Lifetime: 25},
		ConnectionCable:   model.GridComponent{Capex: 4, Lifetime: 25},
		MGConnectionCost:  140,
	}.WithEPC(financials)
	layout := model.GridLayout{NPoles: 4, NMGConsumers: 20, NLinks: 23, ConnectionLength: 200, DistributionLength: 400}

	withGrid, err := Extract(net, p.solution(), &Grid{Design: design, Layout: &layout})
	require.NoError(t, err)
	without, err := Extract(net, p.solution(), &Grid{Design: design})
	require.NoError(t, err)

	assert.InDelta(t, design.Cost(layout), withGrid.Costs.Grid, 1e-9)
	assert.Equal(t, 0.0, without.Costs.Grid)
	assert.InDelta(t, without.Costs.Total+design.Cost(layout), withGrid.Costs.Total, 1e-9)
	assert.Greater(t, withGrid.LCOE, without.LCOE)
	assert.InDelta(t, 3000+design.UpfrontInvestment(layout), withGrid.UpfrontInvestment.Total, 1e-9)
}

func TestExtractInfeasible(t *testing.T) {
	net, err := network.Build(gensetOnly().WithEPC(financials), series(10), network.Options{})
	require.NoError(t, err)

	r, err := Extract(net, &solver.Solution{Status: solver.StatusInfeasible}, nil)
	require.NoError(t, err)
	assert.True(t, r.Infeasible)
	assert.Nil(t, r.Flows)
	assert.Equal(t, 0.0, r.LCOE)
	assert.Equal(t, *r, r.Rounded())
	assert.Contains(t, r.Summary(), "infeasible")

	_, err = Extract(net, &solver.Solution{Status: solver.StatusOptimal, Values: []float64{1}}, nil)
	assert.True(t, errors.Is(err, ErrNoSolution))
	_, err = Extract(net, nil, nil)
	assert.True(t, errors.Is(err, ErrNoSolution))
}

func TestRounded(t *testing.T) {
	r := Results{LCOE: 31.23456, RES: 49.995, Capacities: Capacities{PV: 12.3449}, CO2EmissionFactor: 0.883}
	r.Sankey.PVToDCBus = 1.23456
	out := r.Rounded()
	assert.Equal(t, 31.23, out.LCOE)
	assert.Equal(t, 0.883, out.CO2EmissionFactor)
	assert.Equal(t, 50.0, out.RES)
	assert.Equal(t, 12.34, out.Capacities.PV)
	assert.Equal(t, 1.235, out.Sankey.PVToDCBus)
	assert.Equal(t, 31.23456, r.LCOE, "receiver is not modified")
}

func TestBaseLoad(t *testing.T) {
	demand := make([]float64, 24)
	for i := range demand {
		demand[i] = float64(24 - i)
	}
	// 10th percentile of 1..24 interpolated at h = 23*0.1 = 2.3.
	assert.InDelta(t, 3.3*365, baseLoad(demand, 1), 1e-9)
	assert.InDelta(t, 3.3*365/2, baseLoad(demand, 2), 1e-9)
	assert.Equal(t, 0.0, baseLoad(nil, 1))

	assert.Equal(t, 7.0, quantile([]float64{7}, 0.1))
	assert.Equal(t, 4.0, quantile([]float64{1, 4}, 1))
	assert.InDelta(t, 1.3, quantile([]float64{1, 4}, 0.1), 1e-12)
}

func TestDurationCurve(t *testing.T) {
	assert.Equal(t, []float64{100, 50, 25, 0}, durationCurve([]float64{1, 4, 0, 2}))
	assert.Equal(t, []float64{0, 0}, durationCurve([]float64{0, 0}))
}

func TestWriteFlows(t *testing.T) {
	rows := []HourlyRow{
		{Index: 0, Time: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), DieselGenset: 10, Demand: 10, Fuel: 30.303, BatteryAction: model.ActionIdle},
		{Index: 1, Demand: 4.5},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFlows(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(flowsHeader, ","), lines[0])
	assert.Equal(t, "0,2022-01-01T00:00:00Z,10.000,0.000,0.000,0.000,0.000,0.000,0.000,10.000,0.000,0.000,30.303,IDLE", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "1,,"))
}
