package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aic-platform/orchestrator/pkg/runs"
)

// respondError maps service-layer errors to HTTP error responses.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, runs.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": "run already in flight"})
		return
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
