package solver

import (
	"context"
	"fmt"
	"time"
)

// Status of a finished solve.
type Status int

const (
	StatusOptimal Status = iota
	// StatusFeasible: a limit stopped the search with an incumbent whose gap
	// was not proven.
	StatusFeasible
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// DefaultMIPGap is the relative optimality gap used when none is configured.
const DefaultMIPGap = 0.03

// Options tune a single solve.
type Options struct {
	// MIPGap is the relative gap at which branch-and-bound may stop.
	MIPGap float64
	// TimeLimit bounds wall-clock time; zero means none.
	TimeLimit time.Duration
	// MaxNodes bounds branch-and-bound nodes; zero means the backend default.
	MaxNodes int
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.MIPGap <= 0 {
		o.MIPGap = DefaultMIPGap
	}
	return o
}

// Solution is the outcome of a solve. Values is nil when Status is
// StatusInfeasible.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Gap       float64
	Nodes     int
	Runtime   time.Duration
	Backend   string
}

func (s *Solution) Infeasible() bool { return s != nil && s.Status == StatusInfeasible }

// Solver is a backend able to minimize a Model. Infeasibility is reported in
// the Solution, not as an error; errors mean the backend itself failed.
type Solver interface {
	Name() string
	Solve(ctx context.Context, m *Model, opts Options) (*Solution, error)
}
