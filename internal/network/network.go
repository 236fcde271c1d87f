// Package network turns an energy system configuration and its hourly input
// series into a linear (or mixed-integer) program over an AC bus and a DC
// bus. Every flow of the system is addressable by its edge name so results
// can be read back per edge after the solve.
package network

import (
	"errors"
	"fmt"
	"math"

	"offgrid-planner/internal/annuity"
	"offgrid-planner/internal/model"
	"offgrid-planner/internal/solver"
)

// Edge names, "<from>__<to>". They double as result keys.
const (
	EdgePV               = "pv__electricity_dc"
	EdgeFuel             = "fuel_source__fuel"
	EdgeGenset           = "diesel_genset__electricity_ac"
	EdgeRectifierIn      = "electricity_ac__rectifier"
	EdgeRectifierOut     = "rectifier__electricity_dc"
	EdgeInverterIn       = "electricity_dc__inverter"
	EdgeInverterOut      = "inverter__electricity_ac"
	EdgeBatteryCharge    = "electricity_dc__battery"
	EdgeBatteryDischarge = "battery__electricity_dc"
	EdgeBatteryContent   = "battery__None"
	EdgeDemand           = "electricity_ac__electricity_demand"
	EdgeSurplus          = "electricity_ac__surplus"
	EdgeShortage         = "shortage__electricity_ac"
)

// Edges lists every edge in a stable order.
var Edges = []string{
	EdgePV, EdgeFuel, EdgeGenset, EdgeRectifierIn, EdgeRectifierOut,
	EdgeInverterIn, EdgeInverterOut, EdgeBatteryCharge, EdgeBatteryDischarge,
	EdgeBatteryContent, EdgeDemand, EdgeSurplus, EdgeShortage,
}

// CapacityEdge is the edge whose nominal value sizes each component.
var CapacityEdge = map[model.Component]string{
	model.PV:           EdgePV,
	model.DieselGenset: EdgeGenset,
	model.Rectifier:    EdgeRectifierIn,
	model.Inverter:     EdgeInverterIn,
	model.Battery:      EdgeBatteryCharge,
}

var (
	ErrMissingEPC    = errors.New("design-mode component has no equivalent periodic cost")
	ErrInvalidSeries = errors.New("invalid time series")
	ErrInvalidSystem = errors.New("invalid energy system")
)

type Options struct {
	// BigM bounds the genset status-nominal product in design mode with the
	// on/off formulation. Zero selects 10 x peak demand (at least 1).
	BigM      float64
	Constants model.Constants
}

// Network is a built optimization problem together with the index maps
// needed to read flows back from a solution.
type Network struct {
	Model  *solver.Model
	System model.EnergySystem
	Series model.TimeSeries

	steps       int
	shape       []float64
	periodShare float64
	bigM        float64
	constants   model.Constants

	flows    map[string][]int
	capacity map[model.Component]int
	status   []int
}

// Stats summarizes the problem size.
type Stats struct {
	Steps       int `json:"steps"`
	Variables   int `json:"variables"`
	Constraints int `json:"constraints"`
	Integers    int `json:"integers"`
}

func (n *Network) Describe() Stats {
	return Stats{
		Steps:       n.steps,
		Variables:   len(n.Model.Vars),
		Constraints: len(n.Model.Constraints),
		Integers:    n.Model.NumIntegers(),
	}
}

// Steps is the number of hourly time steps.
func (n *Network) Steps() int { return n.steps }

// Constants is the lookup table the costs were built with.
func (n *Network) Constants() model.Constants { return n.constants }

// PeriodShare is the fraction of a year covered by the series.
func (n *Network) PeriodShare() float64 { return n.periodShare }

// Build assembles the problem. EPC must already be annotated on sys for every
// design-mode component; the selection rules are applied here.
func Build(sys model.EnergySystem, ts model.TimeSeries, opts Options) (*Network, error) {
	if err := ts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeries, err)
	}
	sys = sys.ApplySelectionRules()
	if err := sys.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSystem, err)
	}
	for _, c := range model.OptimizableComponents {
		cost := sys.CostOf(c)
		if sys.Mode(c) == model.ModeCapacityOptimized && cost.EPC == 0 && (cost.Capex != 0 || cost.Opex != 0) {
			return nil, fmt.Errorf("%s: %w", c, ErrMissingEPC)
		}
	}
	if opts.Constants.FuelDensityDiesel == 0 {
		opts.Constants = model.DefaultConstants()
	}

	n := &Network{
		Model:       solver.NewModel("offgrid"),
		System:      sys,
		Series:      ts,
		steps:       ts.Len(),
		shape:       ts.SolarShape(),
		periodShare: annuity.PeriodShare(ts.NDays()),
		constants:   opts.Constants,
		flows:       make(map[string][]int),
		capacity:    make(map[model.Component]int),
	}
	n.bigM = opts.BigM
	if n.bigM <= 0 {
		n.bigM = math.Max(10*ts.PeakDemand(), 1)
	}

	b := newBuses(n.steps)
	n.addPV(b)
	n.addGenset(b)
	n.addRectifier(b)
	n.addInverter(b)
	n.addBattery(b)
	n.addSurplus(b)
	n.addShortage(b)
	for t := 0; t < n.steps; t++ {
		n.Model.AddConstraint(fmt.Sprintf("electricity_ac[%d]", t), b.ac[t], solver.EQ, ts.Demand[t])
		n.Model.AddConstraint(fmt.Sprintf("electricity_dc[%d]", t), b.dc[t], solver.EQ, b.dcRHS[t])
	}
	return n, nil
}

// buses collects the balance rows while components are added. Demand is the
// AC right-hand side; a constant DC inflow moves there with a negative sign.
type buses struct {
	ac, dc [][]solver.Term
	dcRHS  []float64
}

func newBuses(steps int) *buses {
	return &buses{
		ac:    make([][]solver.Term, steps),
		dc:    make([][]solver.Term, steps),
		dcRHS: make([]float64, steps),
	}
}

func (n *Network) series(edge string, lo, hi []float64, cost float64) []int {
	idx := make([]int, n.steps)
	for t := range idx {
		idx[t] = n.Model.Continuous(fmt.Sprintf("%s[%d]", edge, t), lo[t], hi[t], cost)
	}
	n.flows[edge] = idx
	return idx
}

func constant(steps int, v float64) []float64 {
	out := make([]float64, steps)
	for t := range out {
		out[t] = v
	}
	return out
}

// capacityVar adds the investment variable of a design-mode component. Its
// annual EPC is scaled to the simulated period.
func (n *Network) capacityVar(c model.Component) int {
	j := n.Model.Continuous(CapacityEdge[c]+"[capacity]", 0, math.Inf(1), n.System.CostOf(c).EPC*n.periodShare)
	n.capacity[c] = j
	return j
}

// limitByCapacity adds flow[t] - factor*capacity <= 0 for every step.
func (n *Network) limitByCapacity(name string, flow []int, capVar int, factor float64) {
	for t, j := range flow {
		n.Model.AddConstraint(fmt.Sprintf("%s[%d]", name, t),
			[]solver.Term{{Var: j, Coef: 1}, {Var: capVar, Coef: -factor}}, solver.LE, 0)
	}
}

func (n *Network) addPV(b *buses) {
	switch n.System.PV.Mode() {
	case model.ModeCapacityOptimized:
		capVar := n.capacityVar(model.PV)
		for t := 0; t < n.steps; t++ {
			b.dc[t] = append(b.dc[t], solver.Term{Var: capVar, Coef: n.shape[t]})
		}
	case model.ModeCapacityFixed:
		for t := 0; t < n.steps; t++ {
			b.dcRHS[t] -= n.shape[t] * n.System.PV.NominalCapacity
		}
	}
}

func (n *Network) addGenset(b *buses) {
	g := n.System.DieselGenset
	mode := g.Mode()
	if mode == model.ModeDisabled {
		return
	}
	zero := constant(n.steps, 0)
	cost := g.OutputCost(n.constants)

	var gen []int
	if mode == model.ModeCapacityFixed {
		// A fixed genset is a plain bounded flow; the on/off band only
		// applies while sizing.
		gen = n.series(EdgeGenset, zero, constant(n.steps, g.NominalCapacity), cost)
	} else {
		gen = n.series(EdgeGenset, zero, constant(n.steps, math.Inf(1)), cost)
		capVar := n.capacityVar(model.DieselGenset)
		if g.Offset {
			lo, hi := g.LoadLimits()
			n.addGensetStatus(gen, capVar, lo, hi)
		} else {
			n.limitByCapacity("diesel_genset_capacity", gen, capVar, 1)
		}
	}
	for t, j := range gen {
		b.ac[t] = append(b.ac[t], solver.Term{Var: j, Coef: 1})
	}
}

// addGensetStatus links a sized genset to its on/off status through the
// status-nominal s[t] = capacity * y[t], linearized with BigM.
func (n *Network) addGensetStatus(gen []int, capVar int, lo, hi float64) {
	n.status = n.binaries("diesel_genset_status")
	m := n.bigM
	for t := range gen {
		y := n.status[t]
		s := n.Model.Continuous(fmt.Sprintf("diesel_genset_status_nominal[%d]", t), 0, math.Inf(1), 0)
		n.Model.AddConstraint(fmt.Sprintf("diesel_genset_max_load[%d]", t),
			[]solver.Term{{Var: gen[t], Coef: 1}, {Var: s, Coef: -hi}}, solver.LE, 0)
		n.Model.AddConstraint(fmt.Sprintf("diesel_genset_min_load[%d]", t),
			[]solver.Term{{Var: gen[t], Coef: 1}, {Var: s, Coef: -lo}}, solver.GE, 0)
		n.Model.AddConstraint(fmt.Sprintf("diesel_genset_status_cap[%d]", t),
			[]solver.Term{{Var: s, Coef: 1}, {Var: capVar, Coef: -1}}, solver.LE, 0)
		n.Model.AddConstraint(fmt.Sprintf("diesel_genset_status_on[%d]", t),
			[]solver.Term{{Var: s, Coef: 1}, {Var: y, Coef: -m}}, solver.LE, 0)
		n.Model.AddConstraint(fmt.Sprintf("diesel_genset_status_off[%d]", t),
			[]solver.Term{{Var: s, Coef: 1}, {Var: capVar, Coef: -1}, {Var: y, Coef: -m}}, solver.GE, -m)
	}
}

func (n *Network) binaries(name string) []int {
	idx := make([]int, n.steps)
	for t := range idx {
		idx[t] = n.Model.Binary(fmt.Sprintf("%s[%d]", name, t), 0)
	}
	return idx
}

// converter adds the input flow of a one-in one-out converter sized on its
// input side.
func (n *Network) converter(c model.Component, spec model.ConverterSpec) []int {
	edge := CapacityEdge[c]
	zero := constant(n.steps, 0)
	switch spec.Mode() {
	case model.ModeCapacityOptimized:
		in := n.series(edge, zero, constant(n.steps, math.Inf(1)), 0)
		n.limitByCapacity(string(c)+"_capacity", in, n.capacityVar(c), 1)
		return in
	case model.ModeCapacityFixed:
		return n.series(edge, zero, constant(n.steps, spec.NominalCapacity), 0)
	}
	return nil
}

func (n *Network) addRectifier(b *buses) {
	in := n.converter(model.Rectifier, n.System.Rectifier)
	eff := n.System.Rectifier.Efficiency
	for t, j := range in {
		b.ac[t] = append(b.ac[t], solver.Term{Var: j, Coef: -1})
		b.dc[t] = append(b.dc[t], solver.Term{Var: j, Coef: eff})
	}
}

func (n *Network) addInverter(b *buses) {
	in := n.converter(model.Inverter, n.System.Inverter)
	eff := n.System.Inverter.Efficiency
	for t, j := range in {
		b.dc[t] = append(b.dc[t], solver.Term{Var: j, Coef: -1})
		b.ac[t] = append(b.ac[t], solver.Term{Var: j, Coef: eff})
	}
}

func (n *Network) addBattery(b *buses) {
	bat := n.System.Battery
	mode := bat.Mode()
	if !bat.InUse(bat.NominalCapacity) {
		return
	}
	zero := constant(n.steps, 0)
	inf := constant(n.steps, math.Inf(1))
	eta := bat.Efficiency

	var charge, discharge, content []int
	capVar := -1
	if mode == model.ModeCapacityOptimized {
		charge = n.series(EdgeBatteryCharge, zero, inf, 0)
		discharge = n.series(EdgeBatteryDischarge, zero, inf, 0)
		content = n.series(EdgeBatteryContent, zero, inf, 0)
		capVar = n.capacityVar(model.Battery)
		n.limitByCapacity("battery_charge_rate", charge, capVar, bat.CRateIn)
		n.limitByCapacity("battery_discharge_rate", discharge, capVar, bat.CRateOut)
		n.limitByCapacity("battery_max_level", content, capVar, bat.SOCMax)
		for t, j := range content {
			n.Model.AddConstraint(fmt.Sprintf("battery_min_level[%d]", t),
				[]solver.Term{{Var: j, Coef: 1}, {Var: capVar, Coef: -bat.SOCMin}}, solver.GE, 0)
		}
	} else {
		c := bat.NominalCapacity
		charge = n.series(EdgeBatteryCharge, zero, constant(n.steps, bat.CRateIn*c), 0)
		discharge = n.series(EdgeBatteryDischarge, zero, constant(n.steps, bat.CRateOut*c), 0)
		hi := constant(n.steps, bat.SOCMax*c)
		lo := constant(n.steps, bat.SOCMin*c)
		// Balanced: the last level returns to the initial level.
		lo[n.steps-1] = bat.InitialContent(c)
		hi[n.steps-1] = bat.InitialContent(c)
		content = n.series(EdgeBatteryContent, lo, hi, 0)
	}

	for t := 0; t < n.steps; t++ {
		terms := []solver.Term{
			{Var: content[t], Coef: 1},
			{Var: charge[t], Coef: -eta},
			{Var: discharge[t], Coef: 1 / eta},
		}
		rhs := 0.0
		switch {
		case t > 0:
			terms = append(terms, solver.Term{Var: content[t-1], Coef: -1})
		case capVar >= 0:
			terms = append(terms, solver.Term{Var: capVar, Coef: -bat.SOCMax})
		default:
			rhs = bat.InitialContent(bat.NominalCapacity)
		}
		n.Model.AddConstraint(fmt.Sprintf("battery_level[%d]", t), terms, solver.EQ, rhs)

		b.dc[t] = append(b.dc[t],
			solver.Term{Var: discharge[t], Coef: 1},
			solver.Term{Var: charge[t], Coef: -1})
	}
}

func (n *Network) addSurplus(b *buses) {
	sur := n.series(EdgeSurplus, constant(n.steps, 0), constant(n.steps, math.Inf(1)), 0)
	for t, j := range sur {
		b.ac[t] = append(b.ac[t], solver.Term{Var: j, Coef: -1})
	}
}

func (n *Network) addShortage(b *buses) {
	s := n.System.Shortage
	if !s.IsSelected {
		return
	}
	hi := make([]float64, n.steps)
	for t, d := range n.Series.Demand {
		hi[t] = s.MaxShortageTimestep * d
	}
	short := n.series(EdgeShortage, constant(n.steps, 0), hi, s.PenaltyCost)
	total := make([]solver.Term, n.steps)
	for t, j := range short {
		b.ac[t] = append(b.ac[t], solver.Term{Var: j, Coef: 1})
		total[t] = solver.Term{Var: j, Coef: 1}
	}
	n.Model.AddConstraint("shortage_total", total, solver.LE, s.MaxShortageTotal*n.Series.TotalDemand())
}
