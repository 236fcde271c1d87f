package models

import (
	"offgrid-planner/internal/annuity"
	"offgrid-planner/internal/config"
)

// OptimizeRequest is the body of POST /api/v1/optimize. It has the shape of a
// scenario file, except that sequences are always inline and component
// defaults come from a catalogue preset instead of a file path.
type OptimizeRequest struct {
	Name       string             `json:"name,omitempty"`
	Preset     string             `json:"preset,omitempty"` // catalogue entry merged under energy_system_design
	Units      string             `json:"units,omitempty"`  // "fraction" (default) or "percent"
	Financials annuity.Financials `json:"financials"`

	EnergySystem config.Components `json:"energy_system_design"`
	GridDesign   config.Components `json:"grid_design,omitempty"`
	GridLayout   *config.Layout    `json:"grid_layout,omitempty"`

	Sequences SequencesInput  `json:"sequences"`
	Solver    SolverOptions   `json:"solver,omitempty"`
	Options   OptimizeOptions `json:"options,omitempty"`
}

// SequencesInput holds the hourly series. Index is optional.
type SequencesInput struct {
	Index          []string  `json:"index,omitempty"`
	Demand         []float64 `json:"demand" binding:"required"`
	SolarPotential []float64 `json:"solar_potential,omitempty"`
}

// SolverOptions override the server defaults for one run.
type SolverOptions struct {
	Name      string  `json:"name,omitempty"`
	MIPGap    float64 `json:"mip_gap,omitempty"`
	TimeLimit float64 `json:"time_limit,omitempty"` // seconds; capped by the server limit
}

type OptimizeOptions struct {
	IncludeSeries bool `json:"include_series,omitempty"` // default: false
	Round         bool `json:"round,omitempty"`          // round scalars for display
}

// CompareRequest runs a base scenario and each variation of it.
type CompareRequest struct {
	Base       OptimizeRequest    `json:"base"`
	Variations []config.Variation `json:"variations" binding:"required,min=1"`
}

// EPCRequest asks for the equivalent periodic cost of a set of assets.
type EPCRequest struct {
	Financials annuity.Financials `json:"financials"`
	Assets     []EPCAsset         `json:"assets" binding:"required,min=1,dive"`
	Days       float64            `json:"days,omitempty"` // scale the annual cost to a horizon
}

type EPCAsset struct {
	Name     string  `json:"name" binding:"required"`
	Capex    float64 `json:"capex"`
	Opex     float64 `json:"opex"`
	Lifetime int     `json:"lifetime" binding:"required,gt=0"`
}
