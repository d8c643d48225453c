package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aic-platform/orchestrator/pkg/models"
)

// The control plane answers status patches quickly; step creation walks a
// heavier insert path and gets more room.
const (
	runPatchTimeout   = 2 * time.Second
	stepCreateTimeout = 5 * time.Second
	stepPatchTimeout  = 2 * time.Second
)

// ControlPlaneClient provides HTTP access to the platform API that owns the
// durable run and step records.
type ControlPlaneClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewControlPlaneClient creates a client for the platform API at baseURL.
func NewControlPlaneClient(baseURL string) *ControlPlaneClient {
	return &ControlPlaneClient{
		httpClient: &http.Client{},
		baseURL:    baseURL,
	}
}

// UpdateRunStatus patches the run's status record.
func (c *ControlPlaneClient) UpdateRunStatus(ctx context.Context, runID string, update models.RunUpdate) error {
	url := fmt.Sprintf("%s/api/v1/runs/%s/status", c.baseURL, runID)
	return c.patch(ctx, url, update, runPatchTimeout)
}

// CreateStep registers a planned step and returns the record id assigned by
// the control plane. A 201 without an id in the body falls back to the
// composite step-run id.
func (c *ControlPlaneClient) CreateStep(ctx context.Context, runID string, record models.StepRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, stepCreateTimeout)
	defer cancel()

	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode step record: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/runs/%s/steps", c.baseURL, runID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create step record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("control plane returned HTTP %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil || created.ID == "" {
		return models.StepRunID(runID, record.StepID), nil
	}
	return created.ID, nil
}

// UpdateStep patches a step-run record.
func (c *ControlPlaneClient) UpdateStep(ctx context.Context, runID, stepID string, update models.StepUpdate) error {
	url := fmt.Sprintf("%s/api/v1/runs/%s/steps/%s", c.baseURL, runID, stepID)
	return c.patch(ctx, url, update, stepPatchTimeout)
}

func (c *ControlPlaneClient) patch(ctx context.Context, url string, payload any, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("patch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("control plane returned HTTP %d", resp.StatusCode)
	}
	return nil
}
