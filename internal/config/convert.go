package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"offgrid-planner/internal/data"
	"offgrid-planner/internal/model"
	"offgrid-planner/internal/optimize"
	"offgrid-planner/internal/results"
	"offgrid-planner/internal/solver"
)

var costParams = []string{"nominal_capacity", "capex", "opex", "lifetime"}

// knownParams lists the accepted parameter keys per component.
var knownParams = map[model.Component][]string{
	model.PV:           costParams,
	model.DieselGenset: append([]string{"variable_cost", "fuel_cost", "fuel_lhv", "min_load", "max_load", "min_efficiency", "max_efficiency"}, costParams...),
	model.Battery:      append([]string{"soc_min", "soc_max", "c_rate_in", "c_rate_out", "efficiency"}, costParams...),
	model.Inverter:     append([]string{"efficiency"}, costParams...),
	model.Rectifier:    append([]string{"efficiency"}, costParams...),
	model.Shortage:     {"max_shortage_total", "max_shortage_timestep", "shortage_penalty_cost"},

	model.Pole:              {"capex", "lifetime", "max_n_connections"},
	model.DistributionCable: {"capex", "lifetime", "max_length"},
	model.ConnectionCable:   {"capex", "lifetime", "max_length"},
	model.MG:                {"connection_cost"},
}

// percentParams are divided by 100 when the scenario uses percent units.
var percentParams = map[string]bool{
	"soc_min": true, "soc_max": true, "efficiency": true,
	"min_load": true, "max_load": true, "min_efficiency": true, "max_efficiency": true,
	"max_shortage_total": true, "max_shortage_timestep": true,
}

type params struct {
	values  map[string]float64
	percent bool
}

func (p params) get(key string) float64 {
	v := p.values[key]
	if p.percent && percentParams[key] {
		return v / 100
	}
	return v
}

func (p params) lifetime() int { return int(p.values["lifetime"]) }

func (p params) cost() model.Cost {
	return model.Cost{Capex: p.get("capex"), Opex: p.get("opex"), Lifetime: p.lifetime()}
}

func checkComponents(block string, cs Components, side model.Side) error {
	var errs []error
	for _, name := range sortedKeys(cs) {
		comp, got, err := model.Classify(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", block, err))
			continue
		}
		if got != side {
			errs = append(errs, fmt.Errorf("%s: %q belongs to the other model", block, name))
			continue
		}
		allowed := map[string]bool{}
		for _, k := range knownParams[comp] {
			allowed[k] = true
		}
		for _, k := range sortedKeys(cs[name].Parameters) {
			if !allowed[k] {
				errs = append(errs, fmt.Errorf("%s.%s: unknown parameter %q", block, name, k))
			}
		}
		if v, ok := cs[name].Parameters["lifetime"]; ok && v != math.Trunc(v) {
			errs = append(errs, fmt.Errorf("%s.%s: lifetime must be a whole number of years (got %g)", block, name, v))
		}
	}
	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// settings of a listed component default to selected and design mode.
func (s *Scenario) settings(c model.Component) (model.Settings, params, bool) {
	comp, ok := s.EnergySystem[string(c)]
	if !ok {
		return model.Settings{}, params{}, false
	}
	st := model.Settings{
		IsSelected: boolOr(comp.Settings.IsSelected, true),
		Design:     boolOr(comp.Settings.Design, true),
	}
	return st, params{values: comp.Parameters, percent: s.percent()}, true
}

// EnergySystemModel converts the energy_system_design block. Components that
// are not listed are disabled.
func (s *Scenario) EnergySystemModel() (model.EnergySystem, error) {
	var sys model.EnergySystem
	if err := checkComponents("energy_system_design", s.EnergySystem, model.SideEnergySystem); err != nil {
		return sys, err
	}
	if st, p, ok := s.settings(model.PV); ok {
		sys.PV = model.PVSpec{Settings: st, Cost: p.cost(), NominalCapacity: p.get("nominal_capacity")}
	}
	if st, p, ok := s.settings(model.DieselGenset); ok {
		sys.DieselGenset = model.GensetSpec{
			Settings:        st,
			Cost:            p.cost(),
			NominalCapacity: p.get("nominal_capacity"),
			VariableCost:    p.get("variable_cost"),
			FuelCost:        p.get("fuel_cost"),
			FuelLHV:         p.get("fuel_lhv"),
			MinLoad:         p.get("min_load"),
			MaxLoad:         p.get("max_load"),
			MinEfficiency:   p.get("min_efficiency"),
			MaxEfficiency:   p.get("max_efficiency"),
			Offset:          boolOr(s.EnergySystem[string(model.DieselGenset)].Settings.Offset, false),
		}
	}
	if st, p, ok := s.settings(model.Battery); ok {
		sys.Battery = model.BatterySpec{
			Settings:        st,
			Cost:            p.cost(),
			NominalCapacity: p.get("nominal_capacity"),
			SOCMin:          p.get("soc_min"),
			SOCMax:          p.get("soc_max"),
			CRateIn:         p.get("c_rate_in"),
			CRateOut:        p.get("c_rate_out"),
			Efficiency:      p.get("efficiency"),
		}
	}
	for _, c := range []model.Component{model.Inverter, model.Rectifier} {
		st, p, ok := s.settings(c)
		if !ok {
			continue
		}
		spec := model.ConverterSpec{Settings: st, Cost: p.cost(), NominalCapacity: p.get("nominal_capacity"), Efficiency: p.get("efficiency")}
		if c == model.Inverter {
			sys.Inverter = spec
		} else {
			sys.Rectifier = spec
		}
	}
	if st, p, ok := s.settings(model.Shortage); ok {
		sys.Shortage = model.ShortageSpec{
			IsSelected:          st.IsSelected,
			MaxShortageTotal:    p.get("max_shortage_total"),
			MaxShortageTimestep: p.get("max_shortage_timestep"),
			PenaltyCost:         p.get("shortage_penalty_cost"),
		}
	}
	if err := sys.ApplySelectionRules().Validate(); err != nil {
		return sys, fmt.Errorf("energy_system_design: %w", err)
	}
	return sys, nil
}

// Grid converts grid_design and grid_layout. It returns nil when no grid is
// configured.
func (s *Scenario) Grid() (*results.Grid, error) {
	if len(s.GridDesign) == 0 {
		return nil, nil
	}
	if err := checkComponents("grid_design", s.GridDesign, model.SideGrid); err != nil {
		return nil, err
	}
	gc := func(c model.Component) model.GridComponent {
		p := params{values: s.GridDesign[string(c)].Parameters}
		return model.GridComponent{Capex: p.get("capex"), Lifetime: p.lifetime()}
	}
	design := model.GridDesign{
		Pole:              gc(model.Pole),
		DistributionCable: gc(model.DistributionCable),
		ConnectionCable:   gc(model.ConnectionCable),
		MGConnectionCost:  s.GridDesign[string(model.MG)].Parameters["connection_cost"],
	}
	if err := design.Validate(); err != nil {
		return nil, fmt.Errorf("grid_design: %w", err)
	}
	g := &results.Grid{Design: design}
	if l := s.GridLayout; l != nil {
		g.Layout = &model.GridLayout{
			NPoles:             l.NPoles,
			NMGConsumers:       l.NMGConsumers,
			NLinks:             l.NLinks,
			ConnectionLength:   l.ConnectionLength,
			DistributionLength: l.DistributionLength,
		}
	}
	return g, nil
}

// Series loads the hourly input, from file or inline.
func (s *Scenario) Series() (model.TimeSeries, error) {
	if s.Sequences.File != "" {
		ts, err := data.Load(s.Sequences.File)
		if err != nil {
			return ts, fmt.Errorf("sequences: %w", err)
		}
		return ts, nil
	}
	return data.Sequences{
		Index:          s.Sequences.Index,
		Demand:         s.Sequences.Demand,
		SolarPotential: s.Sequences.SolarPotential,
	}.TimeSeries()
}

// SolverOptions maps the solver block.
func (s *Scenario) SolverOptions() solver.Options {
	return solver.Options{
		MIPGap:    s.Solver.MIPGap,
		TimeLimit: time.Duration(s.Solver.TimeLimit * float64(time.Second)),
	}
}

// Input assembles everything a run needs.
func (s *Scenario) Input() (optimize.Input, error) {
	sys, err := s.EnergySystemModel()
	if err != nil {
		return optimize.Input{}, err
	}
	grid, err := s.Grid()
	if err != nil {
		return optimize.Input{}, err
	}
	ts, err := s.Series()
	if err != nil {
		return optimize.Input{}, err
	}
	return optimize.Input{
		Name:       s.Name,
		System:     sys,
		Grid:       grid,
		Series:     ts,
		Financials: s.financials(),
	}, nil
}

// Inputs returns the base scenario followed by every variation.
func (s *Scenario) Inputs() ([]optimize.Input, error) {
	base, err := s.Input()
	if err != nil {
		return nil, err
	}
	out := []optimize.Input{base}
	for _, v := range s.Variations {
		sys, err := s.Variant(v).EnergySystemModel()
		if err != nil {
			return nil, fmt.Errorf("variation %q: %w", v.Name, err)
		}
		in := base
		in.Name = v.Name
		in.System = sys
		out = append(out, in)
	}
	return out, nil
}
