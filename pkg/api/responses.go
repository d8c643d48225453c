package api

// RunAccepted is returned by the start and resume endpoints.
type RunAccepted struct {
	Status  string `json:"status"`
	RunID   string `json:"runId"`
	Message string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
