package main

import (
	"fmt"
	"os"

	"offgrid-planner/internal/logging"
	"offgrid-planner/internal/optimize"
	"offgrid-planner/internal/solver/cbc"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type globalFlags struct {
	logLevel string
	solver   string
	cbcPath  string
}

func main() {
	var g globalFlags
	rootCmd := &cobra.Command{
		Use:           "offgrid",
		Short:         "Size and dispatch off-grid hybrid mini-grids at least cost",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&g.solver, "solver", "", "solver backend, overrides the scenario (simplex, cbc)")
	rootCmd.PersistentFlags().StringVar(&g.cbcPath, "cbc-path", "cbc", "path to the cbc executable")

	rootCmd.AddCommand(optimizeCmd(&g))
	rootCmd.AddCommand(validateCmd(&g))
	rootCmd.AddCommand(epcCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (g *globalFlags) logger() *zap.Logger {
	logger, err := logging.New(g.logLevel, false)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (g *globalFlags) solverConfig() optimize.SolverConfig {
	return optimize.SolverConfig{CBC: cbc.Config{Path: g.cbcPath}}
}
