package annuity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestCapitalRecoveryFactor(t *testing.T) {
	g := math.Pow(1.1, 20)
	assert.InDelta(t, 0.1*g/(g-1), CapitalRecoveryFactor(0.1, 20), eps)
	assert.InDelta(t, 0.11745962477254576, CapitalRecoveryFactor(0.1, 20), 1e-12)
}

func TestCapitalRecoveryFactorZeroWACC(t *testing.T) {
	assert.InDelta(t, 1.0/20, CapitalRecoveryFactor(0, 20), eps)
	assert.InDelta(t, 1.0/25, CapitalRecoveryFactor(0, 25), eps)
	assert.False(t, math.IsNaN(CapitalRecoveryFactor(0, 20)))

	// The limit is continuous from above.
	assert.InDelta(t, CapitalRecoveryFactor(0, 20), CapitalRecoveryFactor(1e-9, 20), 1e-6)
}

func TestCapitalRecoveryFactorInvalidLifetime(t *testing.T) {
	assert.Equal(t, 0.0, CapitalRecoveryFactor(0.1, 0))
	assert.Equal(t, 0.0, CapitalRecoveryFactor(0.1, -3))
}

func TestEquivalentCapexSameLifetimeIsFirstInvestment(t *testing.T) {
	for _, wacc := range []float64{0, 0.03, 0.1, 0.25} {
		for _, tax := range []float64{0, 0.07} {
			got := EquivalentCapex(1000, 25, wacc, 25, tax)
			assert.InDelta(t, 1000*(1+tax), got, eps, "wacc=%v tax=%v", wacc, tax)
		}
	}
}

func TestEquivalentCapexSingleInvestment(t *testing.T) {
	assert.InDelta(t, 1000.0, EquivalentCapex(1000, 25, 0.1, 25, 0), eps)
}

func TestEquivalentCapexReplacementDiscounting(t *testing.T) {
	// One replacement at year 10, no residual value since 2*10 == 20.
	want := 1000 + 1000/math.Pow(1.1, 10)
	assert.InDelta(t, want, EquivalentCapex(1000, 10, 0.1, 20, 0), eps)
	assert.InDelta(t, 1385.5432894295313, EquivalentCapex(1000, 10, 0.1, 20, 0), 1e-9)
}

func TestEquivalentCapexSalvage(t *testing.T) {
	// 12/10: replacement at year 10 lives until 20, 8 years beyond the horizon.
	last := 1000 / math.Pow(1.1, 10)
	want := 1000 + last - last/10*8/math.Pow(1.1, 12)
	assert.InDelta(t, want, EquivalentCapex(1000, 10, 0.1, 12, 0), eps)
}

func TestNumberOfInvestmentsBoundaries(t *testing.T) {
	tests := []struct {
		project   int
		component int
		want      int
		capex     float64
	}{
		{project: 25, component: 25, want: 1, capex: 1000},
		{project: 20, component: 10, want: 2, capex: 1385.5432894295313},
		{project: 12, component: 10, want: 2, capex: 1287.2665105705935},
		{project: 15, component: 10, want: 2, capex: 1339.3952903409993},
		{project: 19, component: 10, want: 2, capex: 1379.239348566403},
		{project: 21, component: 10, want: 3, capex: 1516.1092489655275},
		{project: 25, component: 10, want: 3, capex: 1527.3273114431006},
		{project: 30, component: 10, want: 4, capex: 1530.902647172202},
		{project: 10, component: 20, want: 1, capex: 807.2283552852343},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NumberOfInvestments(tt.component, tt.project),
			"project=%d component=%d", tt.project, tt.component)
		assert.InDelta(t, tt.capex, EquivalentCapex(1000, tt.component, 0.1, tt.project, 0), 1e-6,
			"project=%d component=%d", tt.project, tt.component)
	}
}

func TestEquivalentCapexTax(t *testing.T) {
	base := EquivalentCapex(1000, 10, 0.1, 20, 0)
	taxed := EquivalentCapex(1000, 10, 0.1, 20, 0.2)
	assert.InDelta(t, base*1.2, taxed, 1e-9)
}

func TestEquivalentCapexZeroWACC(t *testing.T) {
	assert.InDelta(t, 2000.0, EquivalentCapex(1000, 10, 0, 20, 0), eps)
	// 12/10 at zero discount: 2000 minus 8 unused years of a 10-year asset.
	assert.InDelta(t, 2000.0-800.0, EquivalentCapex(1000, 10, 0, 12, 0), eps)
}

func TestEquivalentCapexInvalidLifetime(t *testing.T) {
	assert.Equal(t, 0.0, EquivalentCapex(1000, 0, 0.1, 20, 0))
}

func TestEquivalentPeriodicCost(t *testing.T) {
	crf := CapitalRecoveryFactor(0.1, 20)
	want := crf*EquivalentCapex(1000, 10, 0.1, 20, 0) + 25
	assert.InDelta(t, want, EquivalentPeriodicCost(1000, 25, 10, 0.1, 20, 0), eps)

	// Zero WACC stays finite: straight-line spread of two purchases.
	assert.InDelta(t, 2000.0/20+25, EquivalentPeriodicCost(1000, 25, 10, 0, 20, 0), eps)
}

func TestFinancials(t *testing.T) {
	f := Financials{WACC: 0.1, ProjectLifetime: 20}
	require.NoError(t, f.Validate())
	assert.InDelta(t, CapitalRecoveryFactor(0.1, 20), f.CRF(), eps)
	assert.InDelta(t, EquivalentPeriodicCost(500, 10, 25, 0.1, 20, 0), f.EPC(500, 10, 25), eps)

	assert.Error(t, Financials{WACC: -0.1, ProjectLifetime: 20}.Validate())
	assert.Error(t, Financials{WACC: 0.1}.Validate())
	assert.Error(t, Financials{WACC: 0.1, ProjectLifetime: 20, TaxRate: -1}.Validate())
}

func TestAnnualize(t *testing.T) {
	assert.InDelta(t, 365.0, Annualize(1, 1), eps)
	assert.InDelta(t, 100.0, Annualize(100, 365), eps)
	assert.Equal(t, 0.0, Annualize(100, 0))
	assert.InDelta(t, 7.0/365, PeriodShare(7), eps)
}
