// Package server exposes the solver over HTTP. Every request is solved by
// its own controller, so requests run concurrently.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"cutting_stock_cg/src/cutstock"
	"cutting_stock_cg/src/oracle"
	"cutting_stock_cg/src/report"
)

type SolveRequest struct {
	BoardLength float64   `json:"boardLength" binding:"required"`
	Sizes       []float64 `json:"sizes" binding:"required"`
	Quantities  []float64 `json:"quantities" binding:"required"`
	// History adds the iteration history to the response.
	History bool `json:"history"`
}

type Server struct {
	solver  oracle.Solver
	opts    cutstock.Options
	metrics *report.Metrics
	log     logr.Logger
	engine  *gin.Engine
}

// New builds the router. metrics may be nil; requests run concurrently, so
// it should come from report.NewSharedMetrics.
func New(log logr.Logger, solver oracle.Solver, opts cutstock.Options, metrics *report.Metrics) *Server {
	s := &Server{
		solver:  solver,
		opts:    opts,
		metrics: metrics,
		log:     log,
		engine:  gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.logRequests)
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/solvers", s.handleSolvers)
	s.engine.POST("/solve", s.handleSolve)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("server running", "addr", addr, "solver", s.solver.Name())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.V(1).Info("request", "method", c.Request.Method, "path", c.FullPath(),
		"status", c.Writer.Status(), "duration", time.Since(start))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSolvers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"default": s.solver.Name(), "available": oracle.Names()})
}

func (s *Server) handleSolve(c *gin.Context) {
	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inst, err := cutstock.NewInstance(req.BoardLength, req.Sizes, req.Quantities)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var observers []cutstock.Observer
	if s.metrics != nil {
		observers = append(observers, s.metrics)
	}
	ctx := logr.NewContext(c.Request.Context(), s.log.WithValues("remote", c.ClientIP()))
	res, err := cutstock.Solve(ctx, inst, s.solver, s.opts, observers...)
	if err != nil {
		s.log.Error(err, "solve failed", "types", inst.NumTypes())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report.NewSummary(s.solver.Name(), inst, res, req.History))
}
