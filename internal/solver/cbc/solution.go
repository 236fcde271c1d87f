package cbc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"offgrid-planner/internal/solver"
)

// parsedSolution is the content of a CBC -solu file.
type parsedSolution struct {
	status    solver.Status
	objective float64
	values    []float64
}

// parseSolution reads a CBC solution file for a model with n columns.
// Columns missing from the file are zero.
func parseSolution(r io.Reader, n int) (*parsedSolution, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("cbc: empty solution file")
	}
	head := strings.TrimSpace(sc.Text())
	out := &parsedSolution{values: make([]float64, n)}

	st, err := parseStatus(head)
	if err != nil {
		return nil, err
	}
	out.status = st
	if i := strings.LastIndex(head, "objective value"); i >= 0 {
		fields := strings.Fields(head[i+len("objective value"):])
		if len(fields) > 0 {
			if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
				out.objective = v
			}
		}
	}
	if st == solver.StatusInfeasible {
		out.values = nil
		return out, nil
	}

	line := 1
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 && fields[0] == "**" {
			fields = fields[1:]
		}
		if len(fields) < 3 {
			continue
		}
		name := fields[1]
		if !strings.HasPrefix(name, "x") {
			// Row activities share the file when CBC prints all values.
			continue
		}
		j, err := strconv.Atoi(name[1:])
		if err != nil || j < 0 || j >= n {
			return nil, fmt.Errorf("cbc: line %d: unknown column %q", line, name)
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("cbc: line %d: invalid value %q: %w", line, fields[2], err)
		}
		out.values[j] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseStatus(head string) (solver.Status, error) {
	lower := strings.ToLower(head)
	switch {
	case strings.HasPrefix(lower, "optimal"):
		return solver.StatusOptimal, nil
	case strings.Contains(lower, "unbounded"):
		return 0, fmt.Errorf("cbc: %w", ErrUnbounded)
	case strings.HasPrefix(lower, "stopped") && strings.Contains(lower, "no integer solution"):
		return 0, fmt.Errorf("cbc: %w: %s", ErrNoSolution, head)
	case strings.Contains(lower, "infeasible"):
		return solver.StatusInfeasible, nil
	case strings.HasPrefix(lower, "stopped"):
		return solver.StatusFeasible, nil
	}
	return 0, fmt.Errorf("cbc: unrecognized status line %q", head)
}
