package handlers

import (
	"net/http"

	"offgrid-planner/internal/api/models"
	"offgrid-planner/internal/optimize"
	"offgrid-planner/internal/solver/cbc"

	"github.com/gin-gonic/gin"
)

// ListSolvers handles GET /api/v1/solvers
func (h *OptimizeHandler) ListSolvers(c *gin.Context) {
	def := h.cfg.Solver
	if def == "" {
		def = optimize.SolverNames[0]
	}
	solvers := make([]models.SolverInfo, 0, len(optimize.SolverNames))
	for _, name := range optimize.SolverNames {
		info := models.SolverInfo{Name: name, Default: name == def, Available: true, MIP: true}
		if name == cbc.Name {
			info.Available = cbc.New(h.cfg.Solvers.CBC).Available()
		}
		solvers = append(solvers, info)
	}
	c.JSON(http.StatusOK, gin.H{"solvers": solvers})
}
