package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"offgrid-planner/internal/analysis"
	"offgrid-planner/internal/config"
	"offgrid-planner/internal/optimize"
	"offgrid-planner/internal/results"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type optimizeFlags struct {
	outDir       string
	parallel     int
	asJSON       bool
	noVariations bool
}

func optimizeCmd(g *globalFlags) *cobra.Command {
	var f optimizeFlags
	cmd := &cobra.Command{
		Use:   "optimize [scenario.yaml ...]",
		Short: "Optimize one or more scenarios and rank them by LCOE",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runOptimize(ctx, g, f, args)
		},
	}
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "", "write <name>.json and <name>_flows.csv for each run to this directory")
	cmd.Flags().IntVarP(&f.parallel, "parallel", "p", 2, "number of runs solved concurrently")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print results as JSON instead of the summary")
	cmd.Flags().BoolVar(&f.noVariations, "no-variations", false, "skip the variations of each scenario")
	return cmd
}

type job struct {
	input optimize.Input
	opts  config.Solver
}

func runOptimize(ctx context.Context, g *globalFlags, f optimizeFlags, paths []string) error {
	logger := g.logger()
	defer logger.Sync() //nolint:errcheck

	var jobs []job
	for _, path := range paths {
		sc, err := config.Load(path)
		if err != nil {
			return err
		}
		if sc.Name == "" {
			sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		if f.noVariations {
			sc.Variations = nil
		}
		inputs, err := sc.Inputs()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, in := range inputs {
			jobs = append(jobs, job{input: in, opts: sc.Solver})
		}
	}

	runs := make([]*optimize.Result, len(jobs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(f.parallel, 1))
	for i, j := range jobs {
		i, j := i, j
		eg.Go(func() error {
			engine, err := g.engine(j.opts, logger)
			if err != nil {
				return err
			}
			res, err := engine.Run(ctx, j.input)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", j.input.Name, err)
			}
			runs[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if f.outDir != "" {
		if err := writeRuns(f.outDir, runs); err != nil {
			return err
		}
	}
	if f.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(compact(runs))
	}
	for _, res := range runs {
		fmt.Printf("\n%s (%s, %s, %.2fs)\n", res.Name, res.Backend, res.Status, res.SolveTime)
		for _, w := range res.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
		fmt.Print(res.Results.Summary())
	}
	if len(runs) > 1 {
		printRanking(analysis.RankByLCOE(analysis.FromRuns(runs)))
	}
	return nil
}

// engine builds an engine for one scenario. The --solver flag wins over the
// scenario's solver block.
func (g *globalFlags) engine(opts config.Solver, logger *zap.Logger) (*optimize.Engine, error) {
	name := opts.Name
	if g.solver != "" {
		name = g.solver
	}
	s, err := optimize.NewSolver(name, g.solverConfig())
	if err != nil {
		return nil, err
	}
	e := optimize.New(s, logger)
	e.Options = (&config.Scenario{Solver: opts}).SolverOptions()
	return e, nil
}

func compact(runs []*optimize.Result) []*optimize.Result {
	out := make([]*optimize.Result, len(runs))
	for i, res := range runs {
		c := *res
		if c.Results != nil {
			r := c.Results.Rounded().WithoutSeries()
			c.Results = &r
		}
		out[i] = &c
	}
	return out
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func writeRuns(dir string, runs []*optimize.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, res := range runs {
		base := unsafeName.ReplaceAllString(res.Name, "_")
		if base == "" {
			base = res.ID
		}
		raw, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, base+".json"), raw, 0o644); err != nil {
			return err
		}
		if res.Infeasible {
			continue
		}
		path := filepath.Join(dir, base+"_flows.csv")
		if err := results.WriteFlowsCSV(path, res.Results.EnergyFlows); err != nil {
			return err
		}
		fmt.Printf("Wrote %d rows to %s\n", len(res.Results.EnergyFlows), path)
	}
	return nil
}

func printRanking(ranked []analysis.Ranked) {
	fmt.Printf("\n%-4s %-24s %-10s %-8s %-12s %-10s\n", "rank", "scenario", "lcoe", "res%", "epc_total", "delta")
	for _, r := range ranked {
		if r.Infeasible {
			fmt.Printf("%-4d %-24s %s\n", r.Rank, r.Name, "infeasible")
			continue
		}
		fmt.Printf("%-4d %-24s %-10.2f %-8.1f %-12.2f %-10.2f\n", r.Rank, r.Name, r.LCOE, r.RES, r.TotalCost, r.DeltaLCOE)
	}
}
