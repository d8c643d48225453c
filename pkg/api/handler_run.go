package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aic-platform/orchestrator/pkg/models"
)

// handleStartRun handles POST /api/v1/runs/:runId/start. Execution happens
// on a background goroutine; the response only acknowledges scheduling.
func (s *Server) handleStartRun(c *gin.Context) {
	runID := c.Param("runId")

	var req StartRunRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Pipeline == nil || req.Inputs == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing pipeline or inputs"})
		return
	}

	if err := s.launch(runID, *req.Pipeline, req.Inputs); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, RunAccepted{Status: "accepted", RunID: runID, Message: "Run started"})
}

// handleResumeRun handles POST /api/v1/runs/:runId/resume. Pending approval
// markers for the pipeline's gates are flipped to approved before the fresh
// walk is scheduled, so the walk falls through them.
func (s *Server) handleResumeRun(c *gin.Context) {
	runID := c.Param("runId")

	var req ResumeRunRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Pipeline == nil || req.Inputs == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing pipeline or inputs"})
		return
	}
	if req.Decision != models.ApprovalApproved {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Run not approved"})
		return
	}

	s.approveGates(c.Request.Context(), runID, *req.Pipeline)

	if err := s.launch(runID, *req.Pipeline, req.Inputs); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, RunAccepted{Status: "resumed", RunID: runID, Message: "Run resumed"})
}

// handleRunStatus handles GET /api/v1/runs/:runId/status, serving the shadow
// mirror of the run's latest transition.
func (s *Server) handleRunStatus(c *gin.Context) {
	runID := c.Param("runId")

	raw, ok, err := s.status.RunUpdate(c.Request.Context(), runID)
	if err != nil {
		s.logger.Warn("Status read failed", "run_id", runID, "error", err)
		ok = false
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "unknown"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (s *Server) launch(runID string, pipeline models.Pipeline, inputs map[string]any) error {
	return s.manager.Launch(runID, func(ctx context.Context) {
		if err := s.runner.Execute(ctx, runID, pipeline, inputs); err != nil {
			s.logger.Error("Run finished with error", "run_id", runID, "error", err)
		}
	})
}

// approveGates flips pending markers for the pipeline's approval nodes.
// Gates the walk never reached have no marker and are left alone; they
// suspend the run again when reached.
func (s *Server) approveGates(ctx context.Context, runID string, pipeline models.Pipeline) {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, node := range pipeline.Steps.Nodes {
		if node.Type != models.NodeTypeApproval {
			continue
		}
		marker, ok := s.approvals.Approval(ctx, runID, node.ID)
		if !ok || marker.Decision != models.ApprovalPending {
			continue
		}
		marker.Decision = models.ApprovalApproved
		marker.DecidedAt = now
		s.approvals.PutApproval(ctx, runID, node.ID, marker)
		s.logger.Info("Approval recorded", "run_id", runID, "step_id", node.ID)
	}
}
