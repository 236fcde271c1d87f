package analysis

import (
	"math"
	"sort"

	"offgrid-planner/internal/optimize"
	"offgrid-planner/internal/results"
)

// Scored is one scenario outcome to be compared.
type Scored struct {
	Name    string
	ID      string
	Results *results.Results
}

// Ranked is a compared scenario. DeltaLCOE is the distance to the cheapest
// feasible scenario in cent/kWh; it is zero for infeasible ones.
type Ranked struct {
	Rank       int     `json:"rank"`
	Name       string  `json:"name"`
	ID         string  `json:"id,omitempty"`
	Infeasible bool    `json:"infeasible"`
	LCOE       float64 `json:"lcoe"`
	RES        float64 `json:"res"`
	TotalCost  float64 `json:"epc_total"`
	Upfront    float64 `json:"upfront_investment"`
	DeltaLCOE  float64 `json:"delta_lcoe"`
}

// FromRuns adapts optimization results for ranking.
func FromRuns(runs []*optimize.Result) []Scored {
	out := make([]Scored, 0, len(runs))
	for _, r := range runs {
		if r == nil {
			continue
		}
		out = append(out, Scored{Name: r.Name, ID: r.ID, Results: r.Results})
	}
	return out
}

// RankByLCOE sorts feasible scenarios by ascending LCOE and puts infeasible
// ones last, keeping their input order.
func RankByLCOE(in []Scored) []Ranked {
	out := make([]Ranked, 0, len(in))
	best := math.Inf(1)
	for _, s := range in {
		r := Ranked{Name: s.Name, ID: s.ID, Infeasible: s.Results == nil || s.Results.Infeasible}
		if !r.Infeasible {
			r.LCOE = s.Results.LCOE
			r.RES = s.Results.RES
			r.TotalCost = s.Results.Costs.Total
			r.Upfront = s.Results.UpfrontInvestment.Total
			best = math.Min(best, r.LCOE)
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Infeasible != out[j].Infeasible {
			return !out[i].Infeasible
		}
		return out[i].LCOE < out[j].LCOE
	})
	for i := range out {
		out[i].Rank = i + 1
		if !out[i].Infeasible {
			out[i].DeltaLCOE = out[i].LCOE - best
		}
	}
	return out
}
