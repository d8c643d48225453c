package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleHealth handles GET /health.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: "aic-orchestrator"})
}
