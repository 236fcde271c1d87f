package network

import (
	"fmt"

	"offgrid-planner/internal/model"
)

// Flow returns the hourly series of edge at solution x. Edges of disabled
// components are all zero. Flows that are not variables of the problem
// (fixed PV output, converter outputs, fuel and demand) are derived.
func (n *Network) Flow(edge string, x []float64) ([]float64, error) {
	out := make([]float64, n.steps)
	switch edge {
	case EdgePV:
		c := n.Capacity(model.PV, x)
		for t := range out {
			out[t] = n.shape[t] * c
		}
	case EdgeFuel:
		gen := n.values(EdgeGenset, x)
		if eff := n.System.DieselGenset.MaxEfficiency; eff > 0 {
			for t, v := range gen {
				out[t] = v / eff
			}
		}
	case EdgeRectifierOut:
		scaled(out, n.values(EdgeRectifierIn, x), n.System.Rectifier.Efficiency)
	case EdgeInverterOut:
		scaled(out, n.values(EdgeInverterIn, x), n.System.Inverter.Efficiency)
	case EdgeDemand:
		copy(out, n.Series.Demand)
	case EdgeGenset, EdgeRectifierIn, EdgeInverterIn, EdgeBatteryCharge,
		EdgeBatteryDischarge, EdgeBatteryContent, EdgeSurplus, EdgeShortage:
		copy(out, n.values(edge, x))
	default:
		return nil, fmt.Errorf("unknown edge %q", edge)
	}
	return out, nil
}

// Flows returns every edge series keyed by edge name.
func (n *Network) Flows(x []float64) map[string][]float64 {
	out := make(map[string][]float64, len(Edges))
	for _, e := range Edges {
		// Edges only holds known names.
		out[e], _ = n.Flow(e, x)
	}
	return out
}

// Capacity is the installed size of c: the investment result in design mode,
// the nominal capacity in dispatch mode and zero when disabled.
func (n *Network) Capacity(c model.Component, x []float64) float64 {
	switch n.System.Mode(c) {
	case model.ModeCapacityOptimized:
		if j, ok := n.capacity[c]; ok {
			return x[j]
		}
	case model.ModeCapacityFixed:
		return n.System.NominalCapacity(c)
	}
	return 0
}

// Capacities returns the installed size of every optimizable component keyed
// by its capacity edge.
func (n *Network) Capacities(x []float64) map[string]float64 {
	out := make(map[string]float64, len(CapacityEdge))
	for c, edge := range CapacityEdge {
		out[edge] = n.Capacity(c, x)
	}
	return out
}

// GensetStatus returns the on/off series, or nil for the linear genset.
func (n *Network) GensetStatus(x []float64) []float64 {
	if n.status == nil {
		return nil
	}
	out := make([]float64, len(n.status))
	for t, j := range n.status {
		out[t] = x[j]
	}
	return out
}

func (n *Network) values(edge string, x []float64) []float64 {
	out := make([]float64, n.steps)
	for t, j := range n.flows[edge] {
		out[t] = x[j]
	}
	return out
}

func scaled(dst, src []float64, f float64) {
	for t, v := range src {
		dst[t] = v * f
	}
}
