// Package api wires the HTTP surface of the planner.
package api

import (
	"net/http"
	"strings"

	"offgrid-planner/internal/api/handlers"
	"offgrid-planner/internal/api/middleware"
	"offgrid-planner/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	Optimize     handlers.OptimizeConfig
	Store        store.Store
	Logger       *zap.Logger
	CORSOrigins  []string
	Production   bool
	StaticDir    string // optional web front end
	HealthChecks map[string]func() error
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(opts.CORSOrigins))

	optimizeHandler := handlers.NewOptimizeHandler(opts.Optimize, opts.Store, logger)
	componentHandler := handlers.NewComponentHandler(opts.Optimize.ComponentDir, logger)

	router.GET("/health", func(c *gin.Context) {
		checks := gin.H{}
		status := http.StatusOK
		for name, check := range opts.HealthChecks {
			if err := check(); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": checks})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/optimize", optimizeHandler.Run)
		api.POST("/optimize/compare", optimizeHandler.Compare)
		api.GET("/optimize/:id", optimizeHandler.Get)
		api.GET("/optimize/:id/flows", optimizeHandler.Flows)

		api.POST("/epc", handlers.ComputeEPC)
		api.GET("/components", componentHandler.ListComponents)
		api.GET("/components/:name", componentHandler.GetComponent)
		api.GET("/solvers", optimizeHandler.ListSolvers)
	}

	if opts.StaticDir != "" {
		router.Static("/assets", opts.StaticDir+"/assets")
		router.StaticFile("/favicon.ico", opts.StaticDir+"/favicon.ico")
		router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
				return
			}
			c.File(opts.StaticDir + "/index.html")
		})
	}
	return router
}
