package analysis

import (
	"sort"
	"time"

	"offgrid-planner/internal/model"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Profile summarizes the input series of a scenario before any sizing.
// It does not depend on the energy system.
type Profile struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Hours int       `json:"hours"`
	Days  float64   `json:"days"`

	MinDemand  float64 `json:"min_demand"`
	PeakDemand float64 `json:"peak_demand"`
	MeanDemand float64 `json:"mean_demand"`
	P05Demand  float64 `json:"p05_demand"`
	P95Demand  float64 `json:"p95_demand"`

	TotalDemand        float64 `json:"total_demand"`
	AnnualDemand       float64 `json:"annual_demand"`
	LoadFactor         float64 `json:"load_factor"`
	PeakSolar          float64 `json:"peak_solar"`
	SolarFullLoadHours float64 `json:"solar_full_load_hours"`
}

// ComputeProfile derives demand statistics and the solar full-load hours
// (sum of the normalized solar shape) of a validated series.
func ComputeProfile(ts model.TimeSeries) Profile {
	p := Profile{Hours: ts.Len(), Days: ts.NDays()}
	if p.Hours == 0 {
		return p
	}
	stamps := ts.Timestamps()
	p.Start = stamps[0]
	p.End = stamps[len(stamps)-1].Add(time.Hour)

	vals := make([]float64, len(ts.Demand))
	copy(vals, ts.Demand)
	sort.Float64s(vals)
	p.MinDemand = vals[0]
	p.PeakDemand = vals[len(vals)-1]
	p.MeanDemand = stat.Mean(vals, nil)
	p.P05Demand = stat.Quantile(0.05, stat.LinInterp, vals, nil)
	p.P95Demand = stat.Quantile(0.95, stat.LinInterp, vals, nil)

	p.TotalDemand = floats.Sum(vals)
	p.AnnualDemand = p.TotalDemand / p.Days * 365
	if p.PeakDemand > 0 {
		p.LoadFactor = p.MeanDemand / p.PeakDemand
	}
	p.PeakSolar = ts.PeakSolar()
	p.SolarFullLoadHours = floats.Sum(ts.SolarShape())
	return p
}
