package simplex

import (
	"errors"
	"math"

	"offgrid-planner/internal/solver"

	"gonum.org/v1/gonum/mat"
)

var errUnboundedColumn = errors.New("simplex: variable with negative cost and no upper bound appears in no row")

// standardForm is min cᵀy s.t. Ay = b, y >= 0, derived from a Model and a set
// of (possibly tightened) bounds. Structural columns come first, then slacks.
type standardForm struct {
	c []float64
	a [][]float64 // dense rows, len(c) wide
	b []float64

	// col[j] is the standard-form column of model variable j, or -1 if the
	// variable was eliminated and takes fixed[j].
	col   []int
	fixed []float64
	lower []float64

	infeasible bool
}

// presolve builds the standard form. Fixed variables are substituted,
// lower bounds shifted to zero, finite upper bounds become rows with slacks
// and inequality rows receive slacks. Rows left without free columns are
// checked and dropped.
func presolve(m *solver.Model, lower, upper []float64, feasTol float64) (*standardForm, error) {
	nv := len(m.Vars)
	sf := &standardForm{
		col:   make([]int, nv),
		fixed: make([]float64, nv),
		lower: lower,
	}

	used := make([]bool, nv)
	for _, c := range m.Constraints {
		for _, t := range c.Terms {
			used[t.Var] = true
		}
	}

	n := 0
	for j, v := range m.Vars {
		switch {
		case upper[j]-lower[j] <= 0:
			sf.col[j] = -1
			sf.fixed[j] = lower[j]
		case !used[j] && math.IsInf(upper[j], 1):
			if v.Cost < 0 {
				return nil, errUnboundedColumn
			}
			sf.col[j] = -1
			sf.fixed[j] = lower[j]
		case !used[j] && v.Cost >= 0:
			sf.col[j] = -1
			sf.fixed[j] = lower[j]
		case !used[j]:
			sf.col[j] = -1
			sf.fixed[j] = upper[j]
		default:
			sf.col[j] = n
			n++
		}
	}

	type row struct {
		terms []solver.Term // in standard-form columns
		sense solver.Sense
		rhs   float64
	}
	rows := make([]row, 0, len(m.Constraints)+n)
	for _, c := range m.Constraints {
		rhs := c.RHS
		terms := make([]solver.Term, 0, len(c.Terms))
		for _, t := range c.Terms {
			k := sf.col[t.Var]
			if k < 0 {
				rhs -= t.Coef * sf.fixed[t.Var]
				continue
			}
			rhs -= t.Coef * lower[t.Var]
			terms = append(terms, solver.Term{Var: k, Coef: t.Coef})
		}
		if len(terms) == 0 {
			if !emptyRowFeasible(c.Sense, rhs, feasTol*(1+math.Abs(c.RHS))) {
				sf.infeasible = true
				return sf, nil
			}
			continue
		}
		rows = append(rows, row{terms: terms, sense: c.Sense, rhs: rhs})
	}
	for j := range m.Vars {
		k := sf.col[j]
		if k < 0 || math.IsInf(upper[j], 1) {
			continue
		}
		rows = append(rows, row{terms: []solver.Term{{Var: k, Coef: 1}}, sense: solver.LE, rhs: upper[j] - lower[j]})
	}

	slacks := 0
	for _, r := range rows {
		if r.sense != solver.EQ {
			slacks++
		}
	}
	width := n + slacks
	sf.c = make([]float64, width)
	for j, v := range m.Vars {
		if k := sf.col[j]; k >= 0 {
			sf.c[k] = v.Cost
		}
	}
	sf.a = make([][]float64, len(rows))
	sf.b = make([]float64, len(rows))
	s := n
	for i, r := range rows {
		dense := make([]float64, width)
		for _, t := range r.terms {
			dense[t.Var] += t.Coef
		}
		switch r.sense {
		case solver.LE:
			dense[s] = 1
			s++
		case solver.GE:
			dense[s] = -1
			s++
		}
		sf.a[i] = dense
		sf.b[i] = r.rhs
	}
	return sf, nil
}

func emptyRowFeasible(sense solver.Sense, rhs, tol float64) bool {
	switch sense {
	case solver.LE:
		return rhs >= -tol
	case solver.GE:
		return rhs <= tol
	default:
		return math.Abs(rhs) <= tol
	}
}

// dropDependentRows removes rows that are linear combinations of earlier
// ones. An inconsistent combination marks the form infeasible.
func (sf *standardForm) dropDependentRows(tol float64) {
	width := len(sf.c)
	var basis [][]float64
	var basisRHS []float64
	var pivots []int
	keepA := sf.a[:0:0]
	keepB := sf.b[:0:0]
	for i, r := range sf.a {
		red := make([]float64, width)
		copy(red, r)
		rhs := sf.b[i]
		for k, p := range pivots {
			f := red[p] / basis[k][p]
			if f == 0 {
				continue
			}
			for j := range red {
				red[j] -= f * basis[k][j]
			}
			rhs -= f * basisRHS[k]
		}
		scale := 1.0
		for _, v := range r {
			scale = math.Max(scale, math.Abs(v))
		}
		p, best := -1, tol*scale
		for j, v := range red {
			if math.Abs(v) > best {
				p, best = j, math.Abs(v)
			}
		}
		if p < 0 {
			if math.Abs(rhs) > tol*(1+math.Abs(sf.b[i])) {
				sf.infeasible = true
				return
			}
			continue
		}
		basis = append(basis, red)
		basisRHS = append(basisRHS, rhs)
		pivots = append(pivots, p)
		keepA = append(keepA, r)
		keepB = append(keepB, sf.b[i])
	}
	sf.a, sf.b = keepA, keepB
}

func (sf *standardForm) matrix() *mat.Dense {
	m, n := len(sf.a), len(sf.c)
	data := make([]float64, 0, m*n)
	for _, r := range sf.a {
		data = append(data, r...)
	}
	return mat.NewDense(m, n, data)
}

// expand maps a standard-form point back to model variables.
func (sf *standardForm) expand(y []float64) []float64 {
	x := make([]float64, len(sf.col))
	for j, k := range sf.col {
		if k < 0 {
			x[j] = sf.fixed[j]
			continue
		}
		v := 0.0
		if y != nil {
			v = y[k]
		}
		x[j] = sf.lower[j] + v
	}
	return x
}
