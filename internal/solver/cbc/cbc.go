// Package cbc runs the COIN-OR CBC command-line solver on a model written
// as a CPLEX LP file.
package cbc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"offgrid-planner/internal/solver"
)

const Name = "cbc"

var (
	ErrNotInstalled = errors.New("cbc: executable not found")
	ErrUnbounded    = errors.New("problem is unbounded")
	ErrNoSolution   = errors.New("stopped without an integer solution")
)

// Runner executes the solver binary in dir. It returns the combined output.
type Runner func(ctx context.Context, dir, path string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, path string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

type Config struct {
	// Path to the cbc executable; "cbc" resolves through PATH.
	Path string
	// WorkDir holds the temporary model directory; empty uses os.TempDir.
	WorkDir string
	// KeepFiles leaves the model and solution files on disk.
	KeepFiles bool
	Runner    Runner
}

type Solver struct {
	cfg Config
}

func New(cfg Config) *Solver {
	if cfg.Path == "" {
		cfg.Path = "cbc"
	}
	if cfg.Runner == nil {
		cfg.Runner = execRunner
	}
	return &Solver{cfg: cfg}
}

func (s *Solver) Name() string { return Name }

// Available reports whether the configured executable can be found.
func (s *Solver) Available() bool {
	_, err := exec.LookPath(s.cfg.Path)
	return err == nil
}

func (s *Solver) Solve(ctx context.Context, m *solver.Model, opts solver.Options) (*solver.Solution, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()
	if emptyRowsInfeasible(m) {
		return &solver.Solution{Status: solver.StatusInfeasible, Backend: Name}, nil
	}

	dir, err := os.MkdirTemp(s.cfg.WorkDir, "cbc-")
	if err != nil {
		return nil, fmt.Errorf("cbc: create work dir: %w", err)
	}
	if !s.cfg.KeepFiles {
		defer os.RemoveAll(dir)
	}

	modelPath := filepath.Join(dir, "model.lp")
	f, err := os.Create(modelPath)
	if err != nil {
		return nil, fmt.Errorf("cbc: create model file: %w", err)
	}
	if err := WriteLP(f, m); err != nil {
		f.Close()
		return nil, fmt.Errorf("cbc: write model: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("cbc: write model: %w", err)
	}

	start := time.Now()
	out, err := s.cfg.Runner(ctx, dir, s.cfg.Path, Args("model.lp", "sol.txt", opts)...)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotInstalled, s.cfg.Path)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("cbc: %w", ctxErr)
		}
		return nil, fmt.Errorf("cbc: run failed: %w: %s", err, tail(out, 512))
	}

	sf, err := os.Open(filepath.Join(dir, "sol.txt"))
	if err != nil {
		return nil, fmt.Errorf("cbc: no solution file: %w: %s", err, tail(out, 512))
	}
	defer sf.Close()
	parsed, err := parseSolution(sf, len(m.Vars))
	if err != nil {
		return nil, err
	}

	sol := &solver.Solution{Status: parsed.status, Runtime: elapsed, Backend: Name}
	if parsed.status == solver.StatusInfeasible {
		return sol, nil
	}
	sol.Values = parsed.values
	sol.Objective = m.Objective(parsed.values)
	return sol, nil
}

// Args is the CBC command line for solving model into solution.
func Args(model, solution string, opts solver.Options) []string {
	args := []string{model, "-ratioGap", strconv.FormatFloat(opts.MIPGap, 'g', -1, 64)}
	if opts.TimeLimit > 0 {
		args = append(args, "-seconds", strconv.FormatFloat(opts.TimeLimit.Seconds(), 'g', -1, 64))
	}
	return append(args, "-solve", "-solu", solution)
}

func emptyRowsInfeasible(m *solver.Model) bool {
	for _, c := range m.Constraints {
		if len(c.Terms) > 0 {
			continue
		}
		switch c.Sense {
		case solver.LE:
			if c.RHS < 0 {
				return true
			}
		case solver.GE:
			if c.RHS > 0 {
				return true
			}
		default:
			if math.Abs(c.RHS) > 0 {
				return true
			}
		}
	}
	return false
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
