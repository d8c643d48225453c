package api

import "github.com/aic-platform/orchestrator/pkg/models"

// StartRunRequest is the HTTP request body for POST /api/v1/runs/:runId/start.
// Inputs may be an empty object; only a missing field counts as absent.
type StartRunRequest struct {
	Pipeline *models.Pipeline `json:"pipeline"`
	Inputs   map[string]any   `json:"inputs"`
}

// ResumeRunRequest is the HTTP request body for POST /api/v1/runs/:runId/resume.
type ResumeRunRequest struct {
	Pipeline *models.Pipeline `json:"pipeline"`
	Inputs   map[string]any   `json:"inputs"`
	Decision string           `json:"decision"`
}
