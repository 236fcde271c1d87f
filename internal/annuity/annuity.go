// Package annuity converts one-time capital expenditure plus fixed operating
// expenditure into a single annualized figure (equivalent periodic cost, EPC).
//
// Units:
// - WACC and tax rate: fractions (0.1 = 10%)
// - lifetimes: whole years
// - money: any single currency unit, never rounded here
package annuity

import (
	"errors"
	"math"
)

const daysPerYear = 365.0

// Financials holds the project-wide parameters every EPC is computed against.
type Financials struct {
	WACC            float64 `json:"wacc" yaml:"wacc"`
	ProjectLifetime int     `json:"project_lifetime" yaml:"project_lifetime"`
	TaxRate         float64 `json:"tax" yaml:"tax"`
}

func (f Financials) Validate() error {
	if f.WACC < 0 {
		return errors.New("wacc must be >= 0")
	}
	if f.ProjectLifetime <= 0 {
		return errors.New("project_lifetime must be > 0")
	}
	if f.TaxRate < 0 {
		return errors.New("tax must be >= 0")
	}
	return nil
}

// CRF is the capital recovery factor of the project.
func (f Financials) CRF() float64 {
	return CapitalRecoveryFactor(f.WACC, f.ProjectLifetime)
}

// EPC annualizes a component with the given capex, opex and lifetime.
func (f Financials) EPC(capex, opex float64, lifetime int) float64 {
	return EquivalentPeriodicCost(capex, opex, lifetime, f.WACC, f.ProjectLifetime, f.TaxRate)
}

// CapitalRecoveryFactor returns w(1+w)^L / ((1+w)^L - 1).
// At wacc == 0 the formula is 0/0; the limit 1/L is returned instead.
func CapitalRecoveryFactor(wacc float64, projectLifetime int) float64 {
	if projectLifetime <= 0 {
		return 0
	}
	if wacc == 0 {
		return 1 / float64(projectLifetime)
	}
	g := math.Pow(1+wacc, float64(projectLifetime))
	return wacc * g / (g - 1)
}

// NumberOfInvestments is how many purchases of a component are scheduled
// over the project horizon, including the first one.
func NumberOfInvestments(componentLifetime, projectLifetime int) int {
	if componentLifetime <= 0 {
		return 0
	}
	if componentLifetime == projectLifetime {
		return 1
	}
	// Half-to-even: 20/10+0.5 = 2.5 -> 2, 30/10+0.5 = 3.5 -> 4.
	return int(math.RoundToEven(float64(projectLifetime)/float64(componentLifetime) + 0.5))
}

// EquivalentCapex returns the year-0 value of the first purchase plus every
// discounted replacement, minus the discounted residual value of the last
// replacement when it outlives the project.
func EquivalentCapex(capex0 float64, componentLifetime int, wacc float64, projectLifetime int, taxRate float64) float64 {
	n := NumberOfInvestments(componentLifetime, projectLifetime)
	if n == 0 {
		return 0
	}
	first := capex0 * (1 + taxRate)
	lc := float64(componentLifetime)
	lp := float64(projectLifetime)

	capex := first
	for k := 1; k < n; k++ {
		if k*componentLifetime == projectLifetime {
			continue
		}
		capex += first / math.Pow(1+wacc, float64(k)*lc)
	}

	if float64(n)*lc > lp {
		last := first / math.Pow(1+wacc, float64(n-1)*lc)
		depreciationPerYear := last / lc
		unusedYears := float64(n)*lc - lp
		capex -= depreciationPerYear * unusedYears / math.Pow(1+wacc, lp)
	}
	return capex
}

// EquivalentPeriodicCost is CRF * equivalent capex + opex.
func EquivalentPeriodicCost(capex0, opex float64, lifetime int, wacc float64, projectLifetime int, taxRate float64) float64 {
	crf := CapitalRecoveryFactor(wacc, projectLifetime)
	return crf*EquivalentCapex(capex0, lifetime, wacc, projectLifetime, taxRate) + opex
}

// Annualize scales a value observed over nDays to a full year.
func Annualize(value, nDays float64) float64 {
	if nDays <= 0 {
		return 0
	}
	return value / nDays * daysPerYear
}

// PeriodShare is the fraction of a year covered by nDays.
func PeriodShare(nDays float64) float64 {
	return nDays / daysPerYear
}
