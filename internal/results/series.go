package results

import (
	"math"
	"sort"
	"time"

	"offgrid-planner/internal/annuity"
	"offgrid-planner/internal/model"
	"offgrid-planner/internal/network"

	"gonum.org/v1/gonum/floats"
)

// EmissionPoint is the cumulative CO2 (t) at the end of one day for a fully
// diesel supply and for the hybrid system.
type EmissionPoint struct {
	Day                               int     `json:"day"`
	NonRenewableElectricityProduction float64 `json:"non_renewable_electricity_production"`
	HybridElectricityProduction       float64 `json:"hybrid_electricity_production"`
}

// DurationPoint is one day of the load duration curves, each in percent of
// the series maximum.
type DurationPoint struct {
	PVPercentage     float64 `json:"pv_percentage"`
	DieselGenset     float64 `json:"diesel_genset_duration"`
	PV               float64 `json:"pv_duration"`
	Rectifier        float64 `json:"rectifier_duration"`
	Inverter         float64 `json:"inverter_duration"`
	BatteryCharge    float64 `json:"battery_charge_duration"`
	BatteryDischarge float64 `json:"battery_discharge_duration"`
}

// CoveragePoint splits one hour of demand by origin.
type CoveragePoint struct {
	Time         time.Time `json:"dt"`
	Demand       float64   `json:"demand"`
	Renewable    float64   `json:"renewable"`
	NonRenewable float64   `json:"non_renewable"`
	Surplus      float64   `json:"surplus"`
}

// HourlyRow is one hour of the energy flow table.
type HourlyRow struct {
	Index            int       `json:"index"`
	Time             time.Time `json:"dt"`
	DieselGenset     float64   `json:"diesel_genset_production"`
	PV               float64   `json:"pv_production"`
	Rectifier        float64   `json:"rectifier"`
	Inverter         float64   `json:"inverter"`
	BatteryCharge    float64   `json:"battery_charge"`
	BatteryDischarge float64   `json:"battery_discharge"`
	BatteryContent   float64   `json:"battery_content"`
	Demand           float64   `json:"demand"`
	Surplus          float64   `json:"surplus"`
	Shortage         float64   `json:"shortage"`
	Fuel             float64   `json:"fuel"`

	BatteryAction model.Action `json:"battery_action"`
}

// emissions accumulates hourly CO2 and keeps the last value of each day.
func emissions(demand, genset []float64, factor float64) []EmissionPoint {
	days := len(demand) / model.HoursPerDay
	out := make([]EmissionPoint, days)
	var base, hybrid float64
	for t := range demand {
		base += demand[t] * factor / 1000
		hybrid += genset[t] * factor / 1000
		d := t / model.HoursPerDay
		out[d] = EmissionPoint{Day: d, NonRenewableElectricityProduction: base, HybridElectricityProduction: hybrid}
	}
	return out
}

func maxSavings(points []EmissionPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	best := math.Inf(-1)
	for _, p := range points {
		best = math.Max(best, p.NonRenewableElectricityProduction-p.HybridElectricityProduction)
	}
	return best
}

// baseLoad is the 10th percentile of the demand scaled to a full year.
func baseLoad(demand []float64, nDays float64) float64 {
	if len(demand) == 0 {
		return 0
	}
	scaled := make([]float64, len(demand))
	for t, d := range demand {
		scaled[t] = annuity.Annualize(d, nDays)
	}
	sort.Float64s(scaled)
	return quantile(scaled, 0.1)
}

// quantile interpolates linearly between the order statistics around
// h = (n-1)*p, the default of numpy and pandas. x must be sorted.
func quantile(x []float64, p float64) float64 {
	h := float64(len(x)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(x)-1 {
		return x[len(x)-1]
	}
	return x[lo] + (h-float64(lo))*(x[lo+1]-x[lo])
}

// durationCurve sorts a series in descending order and scales it to percent
// of its maximum. An all-zero series stays zero.
func durationCurve(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	div := maxOf(out)
	if div <= 0 {
		div = 1
	}
	floats.Scale(100/div, out)
	return out
}

// durationCurves resamples each curve to its daily minimum.
func durationCurves(f map[string][]float64) []DurationPoint {
	genset := durationCurve(f[network.EdgeGenset])
	pv := durationCurve(f[network.EdgePV])
	rectifier := durationCurve(f[network.EdgeRectifierOut])
	inverter := durationCurve(f[network.EdgeInverterOut])
	charge := durationCurve(f[network.EdgeBatteryCharge])
	discharge := durationCurve(f[network.EdgeBatteryDischarge])

	days := len(genset) / model.HoursPerDay
	out := make([]DurationPoint, days)
	for d := range out {
		lo, hi := d*model.HoursPerDay, (d+1)*model.HoursPerDay
		out[d] = DurationPoint{
			PVPercentage:     round3(float64(d) / float64(days)),
			DieselGenset:     round3(floats.Min(genset[lo:hi])),
			PV:               round3(floats.Min(pv[lo:hi])),
			Rectifier:        round3(floats.Min(rectifier[lo:hi])),
			Inverter:         round3(floats.Min(inverter[lo:hi])),
			BatteryCharge:    round3(floats.Min(charge[lo:hi])),
			BatteryDischarge: round3(floats.Min(discharge[lo:hi])),
		}
	}
	return out
}

func demandCoverage(f map[string][]float64, ts model.TimeSeries) []CoveragePoint {
	stamps := timestamps(ts)
	out := make([]CoveragePoint, ts.Len())
	for t := range out {
		out[t] = CoveragePoint{
			Time:         stamps[t],
			Demand:       round3(f[network.EdgeDemand][t]),
			Renewable:    round3(f[network.EdgeInverterOut][t]),
			NonRenewable: round3(f[network.EdgeGenset][t]),
			Surplus:      round3(f[network.EdgeSurplus][t]),
		}
	}
	return out
}

func hourlyRows(f map[string][]float64, ts model.TimeSeries) []HourlyRow {
	stamps := timestamps(ts)
	out := make([]HourlyRow, ts.Len())
	for t := range out {
		out[t] = HourlyRow{
			Index:            t,
			Time:             stamps[t],
			DieselGenset:     round3(f[network.EdgeGenset][t]),
			PV:               round3(f[network.EdgePV][t]),
			Rectifier:        round3(f[network.EdgeRectifierOut][t]),
			Inverter:         round3(f[network.EdgeInverterOut][t]),
			BatteryCharge:    round3(f[network.EdgeBatteryCharge][t]),
			BatteryDischarge: round3(f[network.EdgeBatteryDischarge][t]),
			BatteryContent:   round3(f[network.EdgeBatteryContent][t]),
			Demand:           round3(f[network.EdgeDemand][t]),
			Surplus:          round3(f[network.EdgeSurplus][t]),
			Shortage:         round3(f[network.EdgeShortage][t]),
			Fuel:             round3(f[network.EdgeFuel][t]),
		}
		out[t].BatteryAction = model.BatteryAction(out[t].BatteryCharge, out[t].BatteryDischarge, 1e-3)
	}
	return out
}
