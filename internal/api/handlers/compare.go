package handlers

import (
	"fmt"
	"net/http"

	"offgrid-planner/internal/analysis"
	"offgrid-planner/internal/api/models"
	"offgrid-planner/internal/optimize"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Compare handles POST /api/v1/optimize/compare. The base scenario and every
// variation run concurrently; all runs are stored and ranked by LCOE.
func (h *OptimizeHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	sc, err := h.scenario(req.Base)
	if err != nil {
		abortScenarioError(c, err)
		return
	}
	if sc.Name == "" {
		sc.Name = "base"
	}
	sc.Variations = req.Variations
	if err := sc.Validate(); err != nil {
		abortScenarioError(c, err)
		return
	}
	inputs, err := sc.Inputs()
	if err != nil {
		abortScenarioError(c, err)
		return
	}

	engine, err := h.engine(req.Base.Solver)
	if err != nil {
		abortError(c, http.StatusBadRequest, "UNKNOWN_SOLVER", err.Error(), map[string]interface{}{
			"available": optimize.SolverNames,
		})
		return
	}

	runs := make([]*optimize.Result, len(inputs))
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(h.cfg.Parallelism)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			res, err := engine.Run(ctx, in)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", in.Name, err)
			}
			runs[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		abortRunError(c, err)
		return
	}

	resp := models.CompareResponse{
		Rankings: analysis.RankByLCOE(analysis.FromRuns(runs)),
		Runs:     make([]models.RunRef, 0, len(runs)),
	}
	for _, res := range runs {
		h.save(c.Request.Context(), res)
		resp.Runs = append(resp.Runs, models.RunRef{
			ID:         res.ID,
			Name:       res.Name,
			Status:     res.Status,
			Infeasible: res.Infeasible,
		})
	}
	h.logger.Info("comparison finished", zap.Int("runs", len(runs)), zap.String("best", resp.Rankings[0].Name))
	c.JSON(http.StatusOK, resp)
}
