package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aic-platform/orchestrator/pkg/models"
	"github.com/aic-platform/orchestrator/pkg/runs"
)

// Runner executes a pipeline walk. *pipeline.Orchestrator implements it.
type Runner interface {
	Execute(ctx context.Context, runID string, pipeline models.Pipeline, inputs map[string]any) error
}

// ApprovalStore flips gate markers on resume. The state sink implements it.
type ApprovalStore interface {
	Approval(ctx context.Context, runID, stepID string) (models.ApprovalMarker, bool)
	PutApproval(ctx context.Context, runID, stepID string, marker models.ApprovalMarker)
}

// StatusReader serves the latest shadow mirror of a run. The shadow store
// implements it.
type StatusReader interface {
	RunUpdate(ctx context.Context, runID string) ([]byte, bool, error)
}

// Server represents the HTTP server
type Server struct {
	runner    Runner
	manager   *runs.Manager
	approvals ApprovalStore
	status    StatusReader
	logger    *slog.Logger

	engine     *gin.Engine
	httpServer *http.Server
}

// NewServer creates the API server and registers its routes.
func NewServer(runner Runner, manager *runs.Manager, approvals ApprovalStore, status StatusReader) *Server {
	s := &Server{
		runner:    runner,
		manager:   manager,
		approvals: approvals,
		status:    status,
		logger:    slog.With("component", "api"),
	}

	engine := gin.New()
	engine.Use(requestID(), requestLogger(s.logger), gin.Recovery())

	engine.GET("/health", s.handleHealth)

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/runs/:runId/start", s.handleStartRun)
		v1.POST("/runs/:runId/resume", s.handleResumeRun)
		v1.GET("/runs/:runId/status", s.handleRunStatus)
	}

	s.engine = engine
	return s
}

// Start begins serving on addr and blocks until the listener closes.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
