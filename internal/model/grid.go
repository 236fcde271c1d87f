package model

import (
	"errors"
	"math"

	"offgrid-planner/internal/annuity"
)

// GridComponent is a distribution asset priced per unit (pole) or per meter
// (cable). Grid assets carry no opex.
type GridComponent struct {
	Capex    float64
	Lifetime int
	EPC      float64
}

// GridDesign holds the unit costs of the mini-grid. MGConnectionCost is the
// one-off cost of connecting a household and is annualized over the project
// lifetime.
type GridDesign struct {
	Pole              GridComponent
	DistributionCable GridComponent
	ConnectionCable   GridComponent
	MGConnectionCost  float64
	MGEPC             float64
}

func (g GridDesign) Validate() error {
	var errs []error
	for _, c := range []struct {
		name Component
		gc   GridComponent
	}{
		{Pole, g.Pole},
		{DistributionCable, g.DistributionCable},
		{ConnectionCable, g.ConnectionCable},
	} {
		if c.gc.Capex < 0 {
			errs = append(errs, errors.New(string(c.name)+": capex must be >= 0"))
		}
		if c.gc.Lifetime <= 0 {
			errs = append(errs, errors.New(string(c.name)+": lifetime must be > 0"))
		}
	}
	if g.MGConnectionCost < 0 {
		errs = append(errs, errors.New("mg: connection_cost must be >= 0"))
	}
	return errors.Join(errs...)
}

// WithEPC returns a copy with every grid EPC computed at zero opex.
func (g GridDesign) WithEPC(f annuity.Financials) GridDesign {
	out := g
	out.Pole.EPC = f.EPC(g.Pole.Capex, 0, g.Pole.Lifetime)
	out.DistributionCable.EPC = f.EPC(g.DistributionCable.Capex, 0, g.DistributionCable.Lifetime)
	out.ConnectionCable.EPC = f.EPC(g.ConnectionCable.Capex, 0, g.ConnectionCable.Lifetime)
	out.MGEPC = f.EPC(g.MGConnectionCost, 0, f.ProjectLifetime)
	return out
}

// GridLayout is what the spatial grid optimizer hands back: counts and
// cable lengths in meters.
type GridLayout struct {
	NPoles             int
	NMGConsumers       int
	NLinks             int
	ConnectionLength   float64
	DistributionLength float64
}

// Cost is the annual cost of a layout. A layout without poles or links is not
// a grid and costs +Inf.
func (g GridDesign) Cost(l GridLayout) float64 {
	if l.NPoles == 0 || l.NLinks == 0 {
		return math.Inf(1)
	}
	cost := float64(l.NPoles)*g.Pole.EPC +
		float64(l.NMGConsumers)*g.MGEPC +
		l.ConnectionLength*g.ConnectionCable.EPC +
		l.DistributionLength*g.DistributionCable.EPC
	return math.Round(cost*100) / 100
}

// UpfrontInvestment is the undiscounted purchase cost of a layout.
func (g GridDesign) UpfrontInvestment(l GridLayout) float64 {
	return float64(l.NPoles)*g.Pole.Capex +
		float64(l.NMGConsumers)*g.MGConnectionCost +
		l.ConnectionLength*g.ConnectionCable.Capex +
		l.DistributionLength*g.DistributionCable.Capex
}
