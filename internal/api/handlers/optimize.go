package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"offgrid-planner/internal/api/models"
	"offgrid-planner/internal/config"
	"offgrid-planner/internal/optimize"
	"offgrid-planner/internal/results"
	"offgrid-planner/internal/solver"
	"offgrid-planner/internal/solver/cbc"
	"offgrid-planner/internal/solver/simplex"
	"offgrid-planner/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errUnknownPreset = errors.New("unknown preset")

// OptimizeConfig holds the server-side defaults of every run.
type OptimizeConfig struct {
	Solver       string
	Solvers      optimize.SolverConfig
	MIPGap       float64
	TimeLimit    time.Duration // upper bound for per-request limits; zero means none
	ComponentDir string
	// Parallelism bounds concurrent runs of one compare request.
	Parallelism int
}

// OptimizeHandler handles optimization requests
type OptimizeHandler struct {
	cfg    OptimizeConfig
	store  store.Store
	logger *zap.Logger
}

// NewOptimizeHandler creates a new optimize handler
func NewOptimizeHandler(cfg OptimizeConfig, st store.Store, logger *zap.Logger) *OptimizeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 2
	}
	return &OptimizeHandler{cfg: cfg, store: st, logger: logger}
}

// Run handles POST /api/v1/optimize
func (h *OptimizeHandler) Run(c *gin.Context) {
	var req models.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	sc, err := h.scenario(req)
	if err != nil {
		abortScenarioError(c, err)
		return
	}
	if err := sc.Validate(); err != nil {
		abortScenarioError(c, err)
		return
	}
	in, err := sc.Input()
	if err != nil {
		abortScenarioError(c, err)
		return
	}

	engine, err := h.engine(req.Solver)
	if err != nil {
		abortError(c, http.StatusBadRequest, "UNKNOWN_SOLVER", err.Error(), map[string]interface{}{
			"available": optimize.SolverNames,
		})
		return
	}

	res, err := engine.Run(c.Request.Context(), in)
	if err != nil {
		abortRunError(c, err)
		return
	}
	h.save(c.Request.Context(), res)

	c.JSON(http.StatusOK, present(res, req.Options))
}

// Get handles GET /api/v1/optimize/:id
func (h *OptimizeHandler) Get(c *gin.Context) {
	res, ok := h.load(c)
	if !ok {
		return
	}
	opts := models.OptimizeOptions{
		IncludeSeries: c.Query("include_series") == "true",
		Round:         c.Query("round") == "true",
	}
	c.JSON(http.StatusOK, present(res, opts))
}

// Flows handles GET /api/v1/optimize/:id/flows and streams the hourly energy
// flows as CSV.
func (h *OptimizeHandler) Flows(c *gin.Context) {
	res, ok := h.load(c)
	if !ok {
		return
	}
	if res.Infeasible || res.Results == nil {
		abortError(c, http.StatusConflict, "INFEASIBLE", "the optimization is infeasible and has no energy flows", nil)
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.ID+"_flows.csv"))
	c.Status(http.StatusOK)
	if err := results.WriteFlows(c.Writer, res.Results.EnergyFlows); err != nil {
		h.logger.Error("write flows", zap.String("run_id", res.ID), zap.Error(err))
	}
}

func (h *OptimizeHandler) load(c *gin.Context) (*optimize.Result, bool) {
	id := c.Param("id")
	res, err := h.store.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		abortError(c, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("no result with id %q", id), nil)
		return nil, false
	}
	if err != nil {
		h.logger.Error("load result", zap.String("run_id", id), zap.Error(err))
		abortError(c, http.StatusInternalServerError, "STORE_ERROR", err.Error(), nil)
		return nil, false
	}
	return res, true
}

// save stores a result. A failing store does not fail the run; the caller
// still gets the result, only later lookups by id will miss.
func (h *OptimizeHandler) save(ctx context.Context, res *optimize.Result) {
	if err := h.store.Put(ctx, res); err != nil {
		h.logger.Warn("store result", zap.String("run_id", res.ID), zap.Error(err))
		res.Warnings = append(res.Warnings, "result could not be stored: "+err.Error())
	}
}

// scenario turns a request into a scenario, merging the preset if one is
// named.
func (h *OptimizeHandler) scenario(req models.OptimizeRequest) (*config.Scenario, error) {
	sc := &config.Scenario{
		Name:         req.Name,
		Units:        req.Units,
		Financials:   req.Financials,
		EnergySystem: req.EnergySystem,
		GridDesign:   req.GridDesign,
		GridLayout:   req.GridLayout,
		Sequences: config.Sequences{
			Index:          req.Sequences.Index,
			Demand:         req.Sequences.Demand,
			SolarPotential: req.Sequences.SolarPotential,
		},
		Solver: config.Solver{
			Name:      req.Solver.Name,
			MIPGap:    req.Solver.MIPGap,
			TimeLimit: req.Solver.TimeLimit,
		},
	}
	if req.Preset == "" {
		return sc, nil
	}
	cat, err := config.ScanPresets(h.cfg.ComponentDir)
	if err != nil {
		return nil, err
	}
	p, ok := cat.Find(req.Preset)
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownPreset, req.Preset)
	}
	sc.EnergySystem = config.MergeComponents(p.Components, req.EnergySystem)
	return sc, nil
}

// engine builds an engine for the requested solver. Request limits may only
// tighten the server limits.
func (h *OptimizeHandler) engine(opts models.SolverOptions) (*optimize.Engine, error) {
	name := opts.Name
	if name == "" {
		name = h.cfg.Solver
	}
	s, err := optimize.NewSolver(name, h.cfg.Solvers)
	if err != nil {
		return nil, err
	}
	e := optimize.New(s, h.logger)
	e.Options = solver.Options{MIPGap: h.cfg.MIPGap, TimeLimit: h.cfg.TimeLimit}
	if opts.MIPGap > 0 {
		e.Options.MIPGap = opts.MIPGap
	}
	if opts.TimeLimit > 0 {
		limit := time.Duration(opts.TimeLimit * float64(time.Second))
		if h.cfg.TimeLimit == 0 || limit < h.cfg.TimeLimit {
			e.Options.TimeLimit = limit
		}
	}
	return e, nil
}

func present(res *optimize.Result, opts models.OptimizeOptions) models.OptimizeResponse {
	out := *res
	if out.Results != nil {
		r := *out.Results
		if opts.Round {
			r = r.Rounded()
		}
		if !opts.IncludeSeries {
			r = r.WithoutSeries()
		}
		out.Results = &r
	}
	return models.OptimizeResponse{Result: &out}
}

func abortScenarioError(c *gin.Context, err error) {
	if errors.Is(err, errUnknownPreset) {
		abortError(c, http.StatusBadRequest, "UNKNOWN_PRESET", err.Error(), nil)
		return
	}
	abortError(c, http.StatusBadRequest, "INVALID_SCENARIO", err.Error(), nil)
}

func abortRunError(c *gin.Context, err error) {
	switch {
	case optimize.IsInvalidInput(err):
		abortError(c, http.StatusBadRequest, "INVALID_SCENARIO", err.Error(), nil)
	case errors.Is(err, cbc.ErrNotInstalled):
		abortError(c, http.StatusServiceUnavailable, "SOLVER_UNAVAILABLE", err.Error(), nil)
	case errors.Is(err, simplex.ErrTooLarge):
		abortError(c, http.StatusUnprocessableEntity, "MODEL_TOO_LARGE", err.Error(), map[string]interface{}{
			"hint": "use the cbc solver or a shorter horizon",
		})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		abortError(c, http.StatusGatewayTimeout, "SOLVER_TIMEOUT", err.Error(), nil)
	default:
		abortError(c, http.StatusInternalServerError, "OPTIMIZATION_ERROR", err.Error(), nil)
	}
}

func abortError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
