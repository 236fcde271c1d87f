package simplex

import (
	"context"
	"errors"
	"fmt"
	"math"

	"offgrid-planner/internal/solver"
)

type node struct {
	lower, upper []float64
	bound        float64
}

// branchAndBound searches depth-first, branching on the most fractional
// integer variable. Nodes whose relaxation cannot improve the incumbent by
// more than opts.MIPGap (relative) are pruned.
func (s *Solver) branchAndBound(ctx context.Context, m *solver.Model, opts solver.Options) (*solver.Solution, error) {
	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit)
		defer cancel()
	}
	maxNodes := s.cfg.MaxNodes
	if opts.MaxNodes > 0 {
		maxNodes = opts.MaxNodes
	}

	var (
		incumbent []float64
		best      = math.Inf(1)
		lowest    = math.Inf(1) // smallest bound among nodes pruned by gap
		nodes     int
		limited   bool
	)
	stack := []node{{lower: lowerBounds(m), upper: upperBounds(m), bound: math.Inf(-1)}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			if opts.TimeLimit <= 0 || !errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("simplex: %w", err)
			}
			limited = true
			break
		}
		if nodes >= maxNodes {
			limited = true
			break
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if pruned(nd.bound, best, opts.MIPGap) {
			lowest = math.Min(lowest, nd.bound)
			continue
		}
		nodes++

		rel, err := s.solveRelaxation(m, nd.lower, nd.upper)
		if err != nil {
			return nil, err
		}
		if rel.Infeasible() {
			continue
		}
		if pruned(rel.Objective, best, opts.MIPGap) {
			lowest = math.Min(lowest, rel.Objective)
			continue
		}

		j := mostFractional(m, rel.Values)
		if j < 0 {
			incumbent, best = rel.Values, rel.Objective
			continue
		}

		v := rel.Values[j]
		down := node{lower: clone(nd.lower), upper: clone(nd.upper), bound: rel.Objective}
		down.upper[j] = math.Floor(v)
		up := node{lower: clone(nd.lower), upper: clone(nd.upper), bound: rel.Objective}
		up.lower[j] = math.Ceil(v)
		// The nearer side is explored first.
		if v-math.Floor(v) < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
	}

	if incumbent == nil {
		if limited {
			return nil, fmt.Errorf("%w after %d nodes", ErrNodeLimit, nodes)
		}
		return &solver.Solution{Status: solver.StatusInfeasible, Nodes: nodes}, nil
	}

	for _, nd := range stack {
		lowest = math.Min(lowest, nd.bound)
	}
	for j, v := range m.Vars {
		if v.Integer {
			incumbent[j] = math.Round(incumbent[j])
		}
	}
	status := solver.StatusOptimal
	if limited {
		status = solver.StatusFeasible
	}
	return &solver.Solution{
		Status:    status,
		Objective: m.Objective(incumbent),
		Values:    incumbent,
		Gap:       relativeGap(best, math.Min(lowest, best)),
		Nodes:     nodes,
	}, nil
}

func pruned(bound, best, gap float64) bool {
	if math.IsInf(best, 1) || math.IsInf(bound, -1) {
		return false
	}
	return bound >= best-gap*math.Abs(best)
}

func relativeGap(best, bound float64) float64 {
	if math.IsInf(bound, -1) {
		return math.Inf(1)
	}
	d := math.Max(math.Abs(best), 1e-9)
	return math.Max(0, (best-bound)/d)
}

func mostFractional(m *solver.Model, x []float64) int {
	idx, worst := -1, integralTol
	for j, v := range m.Vars {
		if !v.Integer {
			continue
		}
		f := math.Abs(x[j] - math.Round(x[j]))
		if f > worst {
			idx, worst = j, f
		}
	}
	return idx
}

func clone(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	return out
}
