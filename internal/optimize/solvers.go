package optimize

import (
	"errors"
	"fmt"

	"offgrid-planner/internal/solver"
	"offgrid-planner/internal/solver/cbc"
	"offgrid-planner/internal/solver/simplex"
)

var ErrUnknownSolver = errors.New("unknown solver")

// SolverNames lists the registered backends; the first one is the default.
var SolverNames = []string{simplex.Name, cbc.Name}

// SolverConfig carries the settings of every backend. Only the one selected
// by name is used.
type SolverConfig struct {
	Simplex simplex.Config
	CBC     cbc.Config
}

// NewSolver returns the backend registered under name. An empty name selects
// the in-process simplex backend.
func NewSolver(name string, cfg SolverConfig) (solver.Solver, error) {
	switch name {
	case "", simplex.Name:
		return simplex.New(cfg.Simplex), nil
	case cbc.Name:
		return cbc.New(cfg.CBC), nil
	default:
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownSolver, name, SolverNames)
	}
}
