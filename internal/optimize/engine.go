// Package optimize runs the full planning pipeline for one scenario: EPC
// annotation, network construction, the solve and results extraction.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"offgrid-planner/internal/annuity"
	"offgrid-planner/internal/model"
	"offgrid-planner/internal/network"
	"offgrid-planner/internal/results"
	"offgrid-planner/internal/solver"
	"offgrid-planner/internal/solver/cbc"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidFinancials = errors.New("invalid financials")
	ErrInvalidGrid       = errors.New("invalid grid design")
)

// IsInvalidInput reports whether err comes from input validation rather than
// from the solve.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidFinancials) ||
		errors.Is(err, ErrInvalidGrid) ||
		errors.Is(err, network.ErrInvalidSystem) ||
		errors.Is(err, network.ErrInvalidSeries)
}

// Input is everything a single run needs. Costs are raw: EPCs are derived
// from Financials during the run.
type Input struct {
	Name       string
	System     model.EnergySystem
	Grid       *results.Grid
	Series     model.TimeSeries
	Financials annuity.Financials
}

// Result of one run. Results.Infeasible is mirrored in Infeasible.
type Result struct {
	ID         string            `json:"id"`
	Name       string            `json:"name,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	Backend    string            `json:"solver"`
	Status     string            `json:"status"`
	Infeasible bool              `json:"infeasible"`
	Objective  float64           `json:"objective"`
	Gap        float64           `json:"gap"`
	BuildTime  float64           `json:"build_time_seconds"`
	SolveTime  float64           `json:"solve_time_seconds"`
	Stats      network.Stats     `json:"stats"`
	Results    *results.Results  `json:"results"`
	Warnings   []string          `json:"warnings,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"`
}

type Engine struct {
	Solver    solver.Solver
	Logger    *zap.Logger
	Constants model.Constants
	Options   solver.Options
	// BigM overrides the genset status bound; zero uses the network default.
	BigM float64

	now func() time.Time
}

func New(s solver.Solver, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		Solver:    s,
		Logger:    logger,
		Constants: model.DefaultConstants(),
	}
}

// Run executes one scenario. Infeasibility is reported in the result, not as
// an error.
func (e *Engine) Run(ctx context.Context, in Input) (*Result, error) {
	if e.Solver == nil {
		return nil, errors.New("solver is nil")
	}
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := in.Financials.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFinancials, err)
	}

	res := &Result{
		ID:        uuid.NewString(),
		Name:      in.Name,
		CreatedAt: e.clock(),
		Backend:   e.Solver.Name(),
	}
	log = log.With(zap.String("run_id", res.ID), zap.String("solver", res.Backend))
	if in.Name != "" {
		log = log.With(zap.String("scenario", in.Name))
	}

	sys := in.System.WithEPC(in.Financials)
	if e.Solver.Name() == cbc.Name && sys.DieselGenset.Offset && sys.DieselGenset.Design {
		sys = sys.WithLinearGenset()
		res.Warnings = append(res.Warnings, "diesel_genset: offset formulation is not available with cbc, using the linear genset")
		log.Warn("offset genset replaced by linear genset")
	}

	var grid *results.Grid
	if in.Grid != nil {
		if err := in.Grid.Design.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidGrid, err)
		}
		grid = &results.Grid{Design: in.Grid.Design.WithEPC(in.Financials), Layout: in.Grid.Layout}
	}

	start := time.Now()
	net, err := network.Build(sys, in.Series, network.Options{BigM: e.BigM, Constants: e.Constants})
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}
	res.BuildTime = time.Since(start).Seconds()
	res.Stats = net.Describe()
	log.Info("network built",
		zap.Int("steps", res.Stats.Steps),
		zap.Int("variables", res.Stats.Variables),
		zap.Int("constraints", res.Stats.Constraints),
		zap.Int("integers", res.Stats.Integers),
		zap.Float64("build_seconds", res.BuildTime),
	)

	start = time.Now()
	sol, err := e.Solver.Solve(ctx, net.Model, e.Options.WithDefaults())
	if err != nil {
		log.Error("solve failed", zap.Error(err))
		return nil, fmt.Errorf("solve: %w", err)
	}
	res.SolveTime = time.Since(start).Seconds()
	res.Status = sol.Status.String()
	res.Infeasible = sol.Infeasible()
	if !res.Infeasible {
		res.Objective = sol.Objective
		res.Gap = sol.Gap
	}

	out, err := results.Extract(net, sol, grid)
	if err != nil {
		return nil, fmt.Errorf("extract results: %w", err)
	}
	res.Results = out

	fields := []zap.Field{
		zap.String("status", res.Status),
		zap.Float64("solve_seconds", res.SolveTime),
		zap.Int("nodes", sol.Nodes),
	}
	if res.Infeasible {
		log.Warn("optimization infeasible", fields...)
		return res, nil
	}
	log.Info("optimization finished", append(fields,
		zap.Float64("objective", res.Objective),
		zap.Float64("lcoe", out.LCOE),
		zap.Float64("res", out.RES),
	)...)
	return res, nil
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now().UTC()
}
