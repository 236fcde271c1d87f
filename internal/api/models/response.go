package models

import (
	"offgrid-planner/internal/analysis"
	"offgrid-planner/internal/optimize"
)

// OptimizeResponse is a run as returned by the API.
type OptimizeResponse struct {
	*optimize.Result
}

// CompareResponse ranks the base scenario and its variations by LCOE.
type CompareResponse struct {
	Rankings []analysis.Ranked `json:"rankings"`
	Runs     []RunRef          `json:"runs"`
}

// RunRef points at a stored run.
type RunRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Infeasible bool   `json:"infeasible"`
}

type EPCResponse struct {
	CRF    float64     `json:"crf"`
	Assets []EPCResult `json:"assets"`
	Total  float64     `json:"total"`
}

type EPCResult struct {
	Name        string  `json:"name"`
	Investments int     `json:"number_of_investments"`
	EPC         float64 `json:"epc"`         // currency per kW per year
	PeriodCost  float64 `json:"period_cost"` // EPC scaled to the requested days
}

// PresetInfo describes a components preset of the catalogue.
type PresetInfo struct {
	Name        string   `json:"name"`
	File        string   `json:"file"`
	Description string   `json:"description,omitempty"`
	Components  []string `json:"components"`
}

// SolverInfo describes a solver backend.
type SolverInfo struct {
	Name      string `json:"name"`
	Default   bool   `json:"default"`
	Available bool   `json:"available"`
	MIP       bool   `json:"mip"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
