package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"offgrid-planner/internal/api"
	"offgrid-planner/internal/api/handlers"
	"offgrid-planner/internal/config"
	"offgrid-planner/internal/logging"
	"offgrid-planner/internal/optimize"
	"offgrid-planner/internal/solver/cbc"
	"offgrid-planner/internal/store"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Production())
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Server, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, checks := openStore(ctx, cfg, logger)
	defer st.Close()

	// Serve static files from web/dist (if it exists)
	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "./web/dist"
	}
	if info, err := os.Stat(staticDir); err != nil || !info.IsDir() {
		logger.Info("static directory not found, skipping static file serving", zap.String("dir", staticDir))
		staticDir = ""
	}

	solvers := optimize.SolverConfig{CBC: cbc.Config{Path: cfg.CBCPath}}
	if cfg.Solver == cbc.Name && !cbc.New(solvers.CBC).Available() {
		logger.Warn("cbc selected but not found", zap.String("path", cfg.CBCPath))
	}

	router := api.NewRouter(api.Options{
		Optimize: handlers.OptimizeConfig{
			Solver:       cfg.Solver,
			Solvers:      solvers,
			MIPGap:       cfg.SolverGap,
			TimeLimit:    cfg.TimeLimit,
			ComponentDir: cfg.ComponentDir,
		},
		Store:        st,
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
		Production:   cfg.Production(),
		StaticDir:    staticDir,
		HealthChecks: checks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("solver", cfg.Solver),
			zap.String("store", cfg.Store),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore returns the configured result store. A redis store that cannot be
// reached at startup is still used; /health reports it as degraded.
func openStore(ctx context.Context, cfg *config.Server, logger *zap.Logger) (store.Store, map[string]func() error) {
	if cfg.Store != config.StoreRedis {
		return store.NewMemory(cfg.ResultTTL, 0), nil
	}
	rs := store.NewRedis(store.RedisConfig{Addr: cfg.RedisAddr, TTL: cfg.ResultTTL})
	ping := func() error {
		pctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return rs.Ping(pctx)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rs.Ping(pctx); err != nil {
		logger.Warn("redis not reachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return rs, map[string]func() error{"redis": ping}
}
