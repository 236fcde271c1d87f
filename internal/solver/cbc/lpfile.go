package cbc

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"offgrid-planner/internal/solver"
)

// WriteLP writes m in CPLEX LP format. Columns are named x<index> and rows
// c<index> so that arbitrary model names never clash with the format.
func WriteLP(w io.Writer, m *solver.Model) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "\\ %s\n", m.Name)
	bw.WriteString("Minimize\n obj:")
	wrote := false
	for j, v := range m.Vars {
		if v.Cost == 0 {
			continue
		}
		writeTerm(bw, v.Cost, j)
		wrote = true
	}
	if !wrote && len(m.Vars) > 0 {
		writeTerm(bw, 0, 0)
	}
	bw.WriteString("\nSubject To\n")
	for i, c := range m.Constraints {
		if len(c.Terms) == 0 {
			continue
		}
		fmt.Fprintf(bw, " c%d:", i)
		for _, t := range c.Terms {
			writeTerm(bw, t.Coef, t.Var)
		}
		fmt.Fprintf(bw, " %s %s\n", senseToken(c.Sense), fmtNum(c.RHS))
	}

	bw.WriteString("Bounds\n")
	for j, v := range m.Vars {
		switch {
		case v.Fixed():
			fmt.Fprintf(bw, " x%d = %s\n", j, fmtNum(v.Lower))
		case math.IsInf(v.Upper, 1):
			fmt.Fprintf(bw, " x%d >= %s\n", j, fmtNum(v.Lower))
		default:
			fmt.Fprintf(bw, " %s <= x%d <= %s\n", fmtNum(v.Lower), j, fmtNum(v.Upper))
		}
	}

	if m.IsMIP() {
		bw.WriteString("Generals\n")
		for j, v := range m.Vars {
			if v.Integer {
				fmt.Fprintf(bw, " x%d\n", j)
			}
		}
	}
	bw.WriteString("End\n")
	return bw.Flush()
}

func writeTerm(w *bufio.Writer, coef float64, j int) {
	if coef < 0 {
		fmt.Fprintf(w, " - %s x%d", fmtNum(-coef), j)
		return
	}
	fmt.Fprintf(w, " + %s x%d", fmtNum(coef), j)
}

func senseToken(s solver.Sense) string {
	switch s {
	case solver.LE:
		return "<="
	case solver.GE:
		return ">="
	default:
		return "="
	}
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
