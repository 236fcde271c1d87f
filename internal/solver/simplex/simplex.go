// Package simplex is the in-process solver backend. Linear programs go through
// gonum's dense simplex after a presolve into standard form; integer variables
// are handled by depth-first branch-and-bound on top of it.
package simplex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"offgrid-planner/internal/solver"

	"gonum.org/v1/gonum/optimize/convex/lp"
)

const Name = "simplex"

var (
	// ErrTooLarge is returned when the standard form exceeds Config.MaxRows.
	ErrTooLarge = errors.New("simplex: model too large for the dense backend")
	// ErrNodeLimit is returned when branch-and-bound stops before finding any
	// integer solution.
	ErrNodeLimit = errors.New("simplex: search limit reached without an integer solution")
)

// Config holds backend limits. Zero values select defaults.
type Config struct {
	MaxRows   int
	MaxNodes  int
	Tolerance float64
}

const (
	defaultMaxRows   = 4000
	defaultMaxNodes  = 10000
	defaultTolerance = 1e-10

	feasTol     = 1e-6
	integralTol = 1e-6
)

type Solver struct {
	cfg Config
}

func New(cfg Config) *Solver {
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = defaultMaxRows
	}
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = defaultMaxNodes
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = defaultTolerance
	}
	return &Solver{cfg: cfg}
}

func (s *Solver) Name() string { return Name }

func (s *Solver) Solve(ctx context.Context, m *solver.Model, opts solver.Options) (*solver.Solution, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()
	start := time.Now()

	var sol *solver.Solution
	var err error
	if m.IsMIP() {
		sol, err = s.branchAndBound(ctx, m, opts)
	} else {
		sol, err = s.solveRelaxation(m, lowerBounds(m), upperBounds(m))
	}
	if err != nil {
		return nil, err
	}
	sol.Runtime = time.Since(start)
	sol.Backend = Name
	return sol, nil
}

// solveRelaxation solves the LP of m with the given bounds, ignoring
// integrality.
func (s *Solver) solveRelaxation(m *solver.Model, lower, upper []float64) (*solver.Solution, error) {
	sf, err := presolve(m, lower, upper, feasTol)
	if err != nil {
		return nil, err
	}
	if sf.infeasible {
		return &solver.Solution{Status: solver.StatusInfeasible}, nil
	}
	if len(sf.a) > s.cfg.MaxRows {
		return nil, fmt.Errorf("%w: %d rows (limit %d)", ErrTooLarge, len(sf.a), s.cfg.MaxRows)
	}

	var y []float64
	if len(sf.a) > 0 {
		y, err = s.simplex(sf)
		if errors.Is(err, lp.ErrSingular) {
			sf.dropDependentRows(1e-9)
			if sf.infeasible {
				return &solver.Solution{Status: solver.StatusInfeasible}, nil
			}
			y, err = s.simplex(sf)
		}
		if errors.Is(err, lp.ErrInfeasible) {
			return &solver.Solution{Status: solver.StatusInfeasible}, nil
		}
		if err != nil {
			return nil, err
		}
	}

	x := sf.expand(y)
	for j, v := range x {
		// Clamp round-off so the point honors its bounds exactly.
		x[j] = math.Min(math.Max(v, lower[j]), upper[j])
	}
	if v := m.Violation(x); v > feasTol {
		return nil, fmt.Errorf("simplex: solution violates constraints by %g", v)
	}
	return &solver.Solution{Status: solver.StatusOptimal, Objective: m.Objective(x), Values: x}, nil
}

func (s *Solver) simplex(sf *standardForm) (y []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex: %v", r)
		}
	}()
	_, y, err = lp.Simplex(sf.c, sf.matrix(), sf.b, s.cfg.Tolerance, nil)
	if err != nil && !errors.Is(err, lp.ErrInfeasible) && !errors.Is(err, lp.ErrSingular) {
		return nil, fmt.Errorf("simplex: %w", err)
	}
	return y, err
}

func lowerBounds(m *solver.Model) []float64 {
	out := make([]float64, len(m.Vars))
	for j, v := range m.Vars {
		out[j] = v.Lower
	}
	return out
}

func upperBounds(m *solver.Model) []float64 {
	out := make([]float64, len(m.Vars))
	for j, v := range m.Vars {
		out[j] = v.Upper
	}
	return out
}
