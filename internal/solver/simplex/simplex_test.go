package simplex

import (
	"context"
	"errors"
	"math"
	"testing"

	"offgrid-planner/internal/solver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inf = math.Inf(1)

func TestSolveLP(t *testing.T) {
	m := solver.NewModel("lp")
	x := m.Continuous("x", 0, inf, -1)
	y := m.Continuous("y", 0, inf, -1)
	m.AddConstraint("c1", []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: 2}}, solver.LE, 4)
	m.AddConstraint("c2", []solver.Term{{Var: x, Coef: 3}, {Var: y, Coef: 1}}, solver.LE, 6)

	sol, err := New(Config{}).Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	assert.Equal(t, solver.StatusOptimal, sol.Status)
	assert.Equal(t, Name, sol.Backend)
	assert.InDelta(t, 1.6, sol.Values[x], 1e-7)
	assert.InDelta(t, 1.2, sol.Values[y], 1e-7)
	assert.InDelta(t, -2.8, sol.Objective, 1e-7)
}

func TestSolveBoundsAndFixedVariables(t *testing.T) {
	m := solver.NewModel("bounds")
	x := m.Continuous("x", 1, 2, 1)
	y := m.Continuous("y", 0, inf, 2)
	z := m.Continuous("z", 5, 5, 1)
	idle := m.Continuous("idle", 0.5, inf, 3)
	m.AddConstraint("cover", []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, solver.GE, 3)
	m.AddConstraint("fixed", []solver.Term{{Var: z, Coef: 1}, {Var: x, Coef: 1}}, solver.LE, 8)

	sol, err := New(Config{}).Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	require.Equal(t, solver.StatusOptimal, sol.Status)
	assert.InDelta(t, 2, sol.Values[x], 1e-7)
	assert.InDelta(t, 1, sol.Values[y], 1e-7)
	assert.Equal(t, 5.0, sol.Values[z])
	assert.Equal(t, 0.5, sol.Values[idle])
	assert.InDelta(t, 2+2+5+1.5, sol.Objective, 1e-7)
	assert.LessOrEqual(t, m.Violation(sol.Values), 1e-9)
}

func TestSolveInfeasible(t *testing.T) {
	t.Run("empty row after substitution", func(t *testing.T) {
		m := solver.NewModel("fixed")
		x := m.Continuous("x", 1, 1, 0)
		m.AddConstraint("need", []solver.Term{{Var: x, Coef: 1}}, solver.GE, 2)

		sol, err := New(Config{}).Solve(context.Background(), m, solver.Options{})
		require.NoError(t, err)
		assert.True(t, sol.Infeasible())
		assert.Nil(t, sol.Values)
	})

	t.Run("negative square solve", func(t *testing.T) {
		m := solver.NewModel("square")
		x := m.Continuous("x", 0, inf, 1)
		m.AddConstraint("balance", []solver.Term{{Var: x, Coef: -1}}, solver.EQ, 5)

		sol, err := New(Config{}).Solve(context.Background(), m, solver.Options{})
		require.NoError(t, err)
		assert.True(t, sol.Infeasible())
	})
}

func TestSolveDependentRows(t *testing.T) {
	m := solver.NewModel("dependent")
	x := m.Continuous("x", 0, inf, 1)
	y := m.Continuous("y", 0, inf, 2)
	m.AddConstraint("a", []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, solver.EQ, 2)
	m.AddConstraint("b", []solver.Term{{Var: x, Coef: 2}, {Var: y, Coef: 2}}, solver.EQ, 4)

	sol, err := New(Config{}).Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	require.Equal(t, solver.StatusOptimal, sol.Status)
	assert.InDelta(t, 2, sol.Values[x], 1e-7)
	assert.InDelta(t, 0, sol.Values[y], 1e-7)
	assert.InDelta(t, 2, sol.Objective, 1e-7)
}

func TestSolveUnboundedColumn(t *testing.T) {
	m := solver.NewModel("unbounded")
	m.Continuous("free", 0, inf, -1)
	_, err := New(Config{}).Solve(context.Background(), m, solver.Options{})
	assert.Error(t, err)
}

func TestSolveTooLarge(t *testing.T) {
	m := solver.NewModel("large")
	x := m.Continuous("x", 0, inf, 1)
	y := m.Continuous("y", 0, inf, 1)
	m.AddConstraint("a", []solver.Term{{Var: x, Coef: 1}}, solver.GE, 1)
	m.AddConstraint("b", []solver.Term{{Var: y, Coef: 1}}, solver.GE, 1)

	_, err := New(Config{MaxRows: 1}).Solve(context.Background(), m, solver.Options{})
	assert.True(t, errors.Is(err, ErrTooLarge))
}

// onOff is a unit with a minimum stable load: 3 <= out <= 10 when on.
func onOff(demand float64) (*solver.Model, int, int) {
	m := solver.NewModel("onoff")
	out := m.Continuous("out", 0, 10, 1)
	on := m.Binary("on", 0)
	m.AddConstraint("demand", []solver.Term{{Var: out, Coef: 1}}, solver.GE, demand)
	m.AddConstraint("max", []solver.Term{{Var: out, Coef: 1}, {Var: on, Coef: -10}}, solver.LE, 0)
	m.AddConstraint("min", []solver.Term{{Var: out, Coef: 1}, {Var: on, Coef: -3}}, solver.GE, 0)
	return m, out, on
}

func TestBranchAndBound(t *testing.T) {
	m, out, on := onOff(2)
	require.True(t, m.IsMIP())

	sol, err := New(Config{}).Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	require.Equal(t, solver.StatusOptimal, sol.Status)
	assert.Equal(t, 1.0, sol.Values[on])
	assert.InDelta(t, 3, sol.Values[out], 1e-7)
	assert.InDelta(t, 3, sol.Objective, 1e-7)
	assert.GreaterOrEqual(t, sol.Nodes, 2)
}

func TestBranchAndBoundInfeasible(t *testing.T) {
	m, _, _ := onOff(12)
	sol, err := New(Config{}).Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	assert.True(t, sol.Infeasible())
}

func TestBranchAndBoundNodeLimit(t *testing.T) {
	m, _, _ := onOff(2)
	_, err := New(Config{}).Solve(context.Background(), m, solver.Options{MaxNodes: 1})
	assert.True(t, errors.Is(err, ErrNodeLimit))
}

func TestBranchAndBoundCanceled(t *testing.T) {
	m, _, _ := onOff(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{}).Solve(ctx, m, solver.Options{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPresolveEliminatesFixedColumns(t *testing.T) {
	m := solver.NewModel("presolve")
	x := m.Continuous("x", 2, 2, 1)
	y := m.Continuous("y", 1, 4, 1)
	m.AddConstraint("row", []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, solver.LE, 5)

	sf, err := presolve(m, lowerBounds(m), upperBounds(m), feasTol)
	require.NoError(t, err)
	require.False(t, sf.infeasible)
	assert.Equal(t, -1, sf.col[x])
	assert.Equal(t, 0, sf.col[y])
	// y' + s1 = 5-2-1, y' + s2 = 3
	require.Len(t, sf.a, 2)
	assert.Equal(t, []float64{2, 3}, sf.b)
	assert.Equal(t, []float64{1, 1, 0}, sf.a[0])
	assert.Equal(t, []float64{1, 0, 1}, sf.a[1])
	assert.Equal(t, []float64{2, 1}, sf.expand(nil))
}
