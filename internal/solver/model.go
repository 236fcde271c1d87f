// Package solver defines the linear/mixed-integer program handed to a
// solver backend and the result contract every backend returns.
package solver

import (
	"fmt"
	"math"
)

// Sense of a constraint row.
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Variable is a column. Lower must be finite; Upper may be +Inf.
type Variable struct {
	Name    string
	Lower   float64
	Upper   float64
	Cost    float64
	Integer bool
}

// Fixed reports whether the bounds pin the variable to one value.
func (v Variable) Fixed() bool { return v.Lower == v.Upper }

// Term is one coefficient of a row.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is sum(terms) <sense> RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is a minimization problem.
type Model struct {
	Name        string
	Vars        []Variable
	Constraints []Constraint
}

func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddVar appends a column and returns its index.
func (m *Model) AddVar(v Variable) int {
	m.Vars = append(m.Vars, v)
	return len(m.Vars) - 1
}

// Continuous adds a variable in [lo, hi] with the given cost.
func (m *Model) Continuous(name string, lo, hi, cost float64) int {
	return m.AddVar(Variable{Name: name, Lower: lo, Upper: hi, Cost: cost})
}

// Binary adds a 0/1 variable.
func (m *Model) Binary(name string, cost float64) int {
	return m.AddVar(Variable{Name: name, Lower: 0, Upper: 1, Cost: cost, Integer: true})
}

// AddConstraint appends a row. Terms with a zero coefficient are dropped.
func (m *Model) AddConstraint(name string, terms []Term, sense Sense, rhs float64) {
	kept := make([]Term, 0, len(terms))
	for _, t := range terms {
		if t.Coef != 0 {
			kept = append(kept, t)
		}
	}
	m.Constraints = append(m.Constraints, Constraint{Name: name, Terms: kept, Sense: sense, RHS: rhs})
}

// IsMIP reports whether any variable is integer.
func (m *Model) IsMIP() bool {
	for _, v := range m.Vars {
		if v.Integer {
			return true
		}
	}
	return false
}

// NumIntegers counts integer columns.
func (m *Model) NumIntegers() int {
	n := 0
	for _, v := range m.Vars {
		if v.Integer {
			n++
		}
	}
	return n
}

// Objective evaluates the cost of x.
func (m *Model) Objective(x []float64) float64 {
	obj := 0.0
	for j, v := range m.Vars {
		obj += v.Cost * x[j]
	}
	return obj
}

// RowActivity evaluates the left-hand side of a row at x.
func (c Constraint) RowActivity(x []float64) float64 {
	sum := 0.0
	for _, t := range c.Terms {
		sum += t.Coef * x[t.Var]
	}
	return sum
}

// Violation returns the largest bound or row violation of x, scaled by
// 1+|rhs| for rows.
func (m *Model) Violation(x []float64) float64 {
	worst := 0.0
	for j, v := range m.Vars {
		if d := v.Lower - x[j]; d > worst {
			worst = d
		}
		if !math.IsInf(v.Upper, 1) {
			if d := x[j] - v.Upper; d > worst {
				worst = d
			}
		}
	}
	for _, c := range m.Constraints {
		lhs := c.RowActivity(x)
		var d float64
		switch c.Sense {
		case LE:
			d = lhs - c.RHS
		case GE:
			d = c.RHS - lhs
		case EQ:
			d = math.Abs(lhs - c.RHS)
		}
		d /= 1 + math.Abs(c.RHS)
		if d > worst {
			worst = d
		}
	}
	return worst
}

// Validate checks structural consistency before a solve.
func (m *Model) Validate() error {
	for j, v := range m.Vars {
		if math.IsNaN(v.Lower) || math.IsInf(v.Lower, 0) {
			return fmt.Errorf("variable %d (%s): lower bound must be finite", j, v.Name)
		}
		if math.IsNaN(v.Upper) || v.Upper < v.Lower {
			return fmt.Errorf("variable %d (%s): upper bound %v below lower bound %v", j, v.Name, v.Upper, v.Lower)
		}
		if math.IsNaN(v.Cost) || math.IsInf(v.Cost, 0) {
			return fmt.Errorf("variable %d (%s): cost must be finite", j, v.Name)
		}
	}
	for i, c := range m.Constraints {
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("constraint %d (%s): rhs must be finite", i, c.Name)
		}
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(m.Vars) {
				return fmt.Errorf("constraint %d (%s): unknown variable %d", i, c.Name, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("constraint %d (%s): coefficient must be finite", i, c.Name)
			}
		}
	}
	return nil
}
