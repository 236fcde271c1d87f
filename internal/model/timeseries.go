package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// HoursPerDay is the fixed resolution of every series.
const HoursPerDay = 24

// TimeSeries holds the two hourly input profiles of a run.
// Units:
// - Demand: kW (hourly mean, equal to kWh per step)
// - SolarPotential: kW per kWp installed
type TimeSeries struct {
	Start          time.Time
	Demand         []float64
	SolarPotential []float64
}

func (ts TimeSeries) Validate() error {
	if len(ts.Demand) == 0 {
		return errors.New("demand series is empty")
	}
	if len(ts.Demand) != len(ts.SolarPotential) {
		return fmt.Errorf("demand has %d steps but solar_potential has %d", len(ts.Demand), len(ts.SolarPotential))
	}
	if len(ts.Demand)%HoursPerDay != 0 {
		return fmt.Errorf("series length %d is not a whole number of days", len(ts.Demand))
	}
	for i := range ts.Demand {
		if invalid(ts.Demand[i]) {
			return fmt.Errorf("demand[%d] = %v must be finite and >= 0", i, ts.Demand[i])
		}
		if invalid(ts.SolarPotential[i]) {
			return fmt.Errorf("solar_potential[%d] = %v must be finite and >= 0", i, ts.SolarPotential[i])
		}
	}
	return nil
}

func invalid(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v < 0
}

// Len is the number of hourly steps.
func (ts TimeSeries) Len() int { return len(ts.Demand) }

// NDays is the simulated horizon in days.
func (ts TimeSeries) NDays() float64 { return float64(len(ts.Demand)) / HoursPerDay }

func (ts TimeSeries) PeakDemand() float64 { return maxOrZero(ts.Demand) }

func (ts TimeSeries) PeakSolar() float64 { return maxOrZero(ts.SolarPotential) }

func (ts TimeSeries) TotalDemand() float64 { return floats.Sum(ts.Demand) }

// SolarShape is the solar potential normalized to its peak. A series with no
// sun yields an all-zero shape.
func (ts TimeSeries) SolarShape() []float64 {
	out := make([]float64, len(ts.SolarPotential))
	peak := ts.PeakSolar()
	if peak <= 0 {
		return out
	}
	copy(out, ts.SolarPotential)
	floats.Scale(1/peak, out)
	return out
}

// Timestamps returns the hourly index starting at Start.
func (ts TimeSeries) Timestamps() []time.Time {
	out := make([]time.Time, len(ts.Demand))
	for i := range out {
		out[i] = ts.Start.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func maxOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Max(xs)
}
