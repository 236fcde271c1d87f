package main

import (
	"fmt"

	"offgrid-planner/internal/analysis"
	"offgrid-planner/internal/config"

	"github.com/spf13/cobra"
)

func validateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [scenario.yaml ...]",
		Short: "Check scenarios and print their demand and solar profile without solving",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			for _, path := range args {
				if err := runValidate(g, path); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return nil
		},
	}
}

func runValidate(g *globalFlags, path string) error {
	sc, err := config.Load(path)
	if err != nil {
		return err
	}
	inputs, err := sc.Inputs()
	if err != nil {
		return err
	}
	if _, err := g.engine(sc.Solver, g.logger()); err != nil {
		return err
	}

	in := inputs[0]
	p := analysis.ComputeProfile(in.Series)
	fmt.Printf("%s: ok (%d run(s))\n", path, len(inputs))
	fmt.Printf("  horizon:     %d h (%.0f days)\n", p.Hours, p.Days)
	if !p.Start.IsZero() {
		fmt.Printf("  period:      %s .. %s\n", p.Start.Format("2006-01-02 15:04"), p.End.Format("2006-01-02 15:04"))
	}
	fmt.Printf("  demand:      min %.2f  mean %.2f  peak %.2f kW\n", p.MinDemand, p.MeanDemand, p.PeakDemand)
	fmt.Printf("  p05/p95:     %.2f / %.2f kW\n", p.P05Demand, p.P95Demand)
	fmt.Printf("  annual:      %.0f kWh (load factor %.2f)\n", p.AnnualDemand, p.LoadFactor)
	fmt.Printf("  solar:       %.0f full-load hours\n", p.SolarFullLoadHours)
	for _, in := range inputs {
		fmt.Printf("  %-20s genset=%s pv=%s battery=%s inverter=%s rectifier=%s\n", in.Name,
			in.System.DieselGenset.Mode(), in.System.PV.Mode(), in.System.Battery.Mode(),
			in.System.Inverter.Mode(), in.System.Rectifier.Mode())
	}
	return nil
}
