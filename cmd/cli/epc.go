package main

import (
	"fmt"

	"offgrid-planner/internal/annuity"

	"github.com/spf13/cobra"
)

func epcCmd() *cobra.Command {
	var (
		f                 annuity.Financials
		capex, opex, days float64
		lifetime          int
	)
	cmd := &cobra.Command{
		Use:   "epc",
		Short: "Compute the equivalent periodic cost of one asset",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := f.Validate(); err != nil {
				return err
			}
			if lifetime <= 0 {
				return fmt.Errorf("lifetime must be > 0")
			}
			epc := f.EPC(capex, opex, lifetime)
			fmt.Printf("crf:          %.6f\n", f.CRF())
			fmt.Printf("investments:  %d\n", annuity.NumberOfInvestments(lifetime, f.ProjectLifetime))
			fmt.Printf("capex (eq.):  %.2f\n", annuity.EquivalentCapex(capex, lifetime, f.WACC, f.ProjectLifetime, f.TaxRate))
			fmt.Printf("epc:          %.4f per unit and year\n", epc)
			if days > 0 {
				fmt.Printf("period cost:  %.4f per unit over %.0f days\n", epc*annuity.PeriodShare(days), days)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&capex, "capex", 0, "initial investment per unit")
	cmd.Flags().Float64Var(&opex, "opex", 0, "operating cost per unit and year")
	cmd.Flags().IntVar(&lifetime, "lifetime", 0, "component lifetime in years")
	cmd.Flags().Float64Var(&f.WACC, "wacc", 0.1, "weighted average cost of capital (fraction)")
	cmd.Flags().IntVar(&f.ProjectLifetime, "project-lifetime", 20, "project lifetime in years")
	cmd.Flags().Float64Var(&f.TaxRate, "tax", 0, "tax on capital expenditure (fraction)")
	cmd.Flags().Float64Var(&days, "days", 0, "also print the cost share of a horizon of this many days")
	_ = cmd.MarkFlagRequired("lifetime")
	return cmd
}
