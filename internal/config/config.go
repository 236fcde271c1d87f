package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"offgrid-planner/internal/annuity"

	"gopkg.in/yaml.v3"
)

// Scenario is the on-disk shape of one planning run (YAML or JSON).
type Scenario struct {
	Name string `yaml:"name" json:"name"`
	// Optional: load component defaults from a separate file (e.g. a preset
	// from the component catalogue). Entries in EnergySystem override it.
	ComponentsFile string `yaml:"components_file" json:"components_file,omitempty"`
	// Units is "fraction" (default) or "percent". With percent, efficiencies,
	// SOC bounds, load limits, shortage limits, wacc and tax are divided by 100.
	Units      string             `yaml:"units" json:"units,omitempty"`
	Financials annuity.Financials `yaml:"financials" json:"financials"`

	EnergySystem Components `yaml:"energy_system_design" json:"energy_system_design"`
	GridDesign   Components `yaml:"grid_design" json:"grid_design,omitempty"`
	GridLayout   *Layout    `yaml:"grid_layout" json:"grid_layout,omitempty"`

	Sequences  Sequences   `yaml:"sequences" json:"sequences"`
	Solver     Solver      `yaml:"solver" json:"solver"`
	Variations []Variation `yaml:"variations" json:"variations,omitempty"`

	dir string
}

// Settings are pointers so overlays can tell "false" from "unset".
type Settings struct {
	IsSelected *bool `yaml:"is_selected,omitempty" json:"is_selected,omitempty"`
	Design     *bool `yaml:"design,omitempty" json:"design,omitempty"`
	Offset     *bool `yaml:"offset,omitempty" json:"offset,omitempty"`
}

type Component struct {
	Settings   Settings           `yaml:"settings" json:"settings"`
	Parameters map[string]float64 `yaml:"parameters" json:"parameters"`
}

// Components maps a component name to its settings and parameters.
type Components map[string]Component

// Layout is the output of the external grid optimizer.
type Layout struct {
	NPoles             int     `yaml:"n_poles" json:"n_poles"`
	NMGConsumers       int     `yaml:"n_mg_consumers" json:"n_mg_consumers"`
	NLinks             int     `yaml:"n_links" json:"n_links"`
	ConnectionLength   float64 `yaml:"length_connection_cable" json:"length_connection_cable"`
	DistributionLength float64 `yaml:"length_distribution_cable" json:"length_distribution_cable"`
}

// Sequences are either inline or read from File (.json or .csv).
type Sequences struct {
	File           string    `yaml:"file" json:"file,omitempty"`
	Index          []string  `yaml:"index" json:"index,omitempty"`
	Demand         []float64 `yaml:"demand" json:"demand,omitempty"`
	SolarPotential []float64 `yaml:"solar_potential" json:"solar_potential,omitempty"`
}

type Solver struct {
	Name   string  `yaml:"name" json:"name,omitempty"`
	MIPGap float64 `yaml:"mip_gap" json:"mip_gap,omitempty"`
	// TimeLimit in seconds; zero means none.
	TimeLimit float64 `yaml:"time_limit" json:"time_limit,omitempty"`
}

// Variation is an alternative energy system overlaid on the base scenario.
type Variation struct {
	Name         string     `yaml:"name" json:"name"`
	EnergySystem Components `yaml:"energy_system_design" json:"energy_system_design"`
}

const (
	UnitsFraction = "fraction"
	UnitsPercent  = "percent"
)

func Load(path string) (*Scenario, error) {
	s, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadUnchecked loads and merges a scenario but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	if s.ComponentsFile != "" {
		base, err := LoadComponents(s.resolve(s.ComponentsFile))
		if err != nil {
			return nil, err
		}
		s.EnergySystem = MergeComponents(base, s.EnergySystem)
	}
	if s.Sequences.File != "" {
		s.Sequences.File = s.resolve(s.Sequences.File)
	}
	return s, nil
}

// Parse decodes a scenario document. JSON is accepted as YAML.
func Parse(raw []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// resolve interprets relative paths against the scenario directory first and
// falls back to the path as given (relative to the working directory).
func (s *Scenario) resolve(p string) string {
	if filepath.IsAbs(p) || s.dir == "" {
		return p
	}
	cand := filepath.Join(s.dir, p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

type componentsFile struct {
	Description  string     `yaml:"description"`
	EnergySystem Components `yaml:"energy_system_design"`
}

// LoadComponents reads a components file: an energy_system_design block.
func LoadComponents(path string) (Components, error) {
	w, err := readComponentsFile(path)
	if err != nil {
		return nil, err
	}
	return w.EnergySystem, nil
}

func readComponentsFile(path string) (*componentsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w componentsFile
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if w.EnergySystem == nil {
		return nil, fmt.Errorf("%s: no energy_system_design block", path)
	}
	return &w, nil
}

// MergeComponents overlays every set field of override onto base. Neither
// argument is modified.
func MergeComponents(base, override Components) Components {
	out := make(Components, len(base)+len(override))
	for name, c := range base {
		out[name] = c.clone()
	}
	for name, o := range override {
		c := out[name].clone()
		if o.Settings.IsSelected != nil {
			c.Settings.IsSelected = o.Settings.IsSelected
		}
		if o.Settings.Design != nil {
			c.Settings.Design = o.Settings.Design
		}
		if o.Settings.Offset != nil {
			c.Settings.Offset = o.Settings.Offset
		}
		for k, v := range o.Parameters {
			c.Parameters[k] = v
		}
		out[name] = c
	}
	return out
}

func (c Component) clone() Component {
	out := Component{Settings: c.Settings, Parameters: make(map[string]float64, len(c.Parameters))}
	for k, v := range c.Parameters {
		out.Parameters[k] = v
	}
	return out
}

func (s *Scenario) Validate() error {
	if s == nil {
		return errors.New("scenario is nil")
	}
	var errs []error
	switch strings.ToLower(s.Units) {
	case "", UnitsFraction, UnitsPercent:
	default:
		errs = append(errs, fmt.Errorf("units must be %q or %q, got %q", UnitsFraction, UnitsPercent, s.Units))
	}
	if err := s.financials().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("financials: %w", err))
	}
	if len(s.EnergySystem) == 0 {
		errs = append(errs, errors.New("energy_system_design is required"))
	}
	if _, err := s.EnergySystemModel(); err != nil {
		errs = append(errs, err)
	}
	if s.GridDesign != nil {
		if _, err := s.Grid(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Sequences.File == "" && len(s.Sequences.Demand) == 0 {
		errs = append(errs, errors.New("sequences: file or inline demand is required"))
	}
	if s.Solver.MIPGap < 0 || s.Solver.TimeLimit < 0 {
		errs = append(errs, errors.New("solver: mip_gap and time_limit must be >= 0"))
	}
	seen := map[string]bool{s.Name: s.Name != ""}
	for i, v := range s.Variations {
		if v.Name == "" {
			errs = append(errs, fmt.Errorf("variations[%d]: name is required", i))
			continue
		}
		if seen[v.Name] {
			errs = append(errs, fmt.Errorf("variations[%d]: duplicate name %q", i, v.Name))
		}
		seen[v.Name] = true
		if _, err := s.Variant(v).EnergySystemModel(); err != nil {
			errs = append(errs, fmt.Errorf("variation %q: %w", v.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Variant returns a copy of the scenario with v's components overlaid and
// no variations of its own.
func (s *Scenario) Variant(v Variation) *Scenario {
	out := *s
	out.Name = v.Name
	out.EnergySystem = MergeComponents(s.EnergySystem, v.EnergySystem)
	out.Variations = nil
	return &out
}

func (s *Scenario) percent() bool { return strings.EqualFold(s.Units, UnitsPercent) }

func (s *Scenario) financials() annuity.Financials {
	f := s.Financials
	if s.percent() {
		f.WACC /= 100
		f.TaxRate /= 100
	}
	return f
}
