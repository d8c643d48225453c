package state

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aic-platform/orchestrator/pkg/models"
)

// newTestControlPlaneClient points a client at the test server.
func newTestControlPlaneClient(server *httptest.Server) *ControlPlaneClient {
	client := NewControlPlaneClient(server.URL)
	client.httpClient = server.Client()
	return client
}

func TestControlPlaneClient_UpdateRunStatus(t *testing.T) {
	t.Run("patches the run status endpoint", func(t *testing.T) {
		var gotMethod, gotPath string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newTestControlPlaneClient(server)
		err := client.UpdateRunStatus(context.Background(), "run-1", models.RunUpdate{
			Status:    models.RunStatusRunning,
			StartedAt: "2026-01-02T15:04:05Z",
		})
		require.NoError(t, err)

		assert.Equal(t, http.MethodPatch, gotMethod)
		assert.Equal(t, "/api/v1/runs/run-1/status", gotPath)
		assert.Equal(t, "running", gotBody["status"])
		assert.Equal(t, "2026-01-02T15:04:05Z", gotBody["startedAt"])
		assert.NotContains(t, gotBody, "errorMessage")
	})

	t.Run("HTTP 500 returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newTestControlPlaneClient(server)
		err := client.UpdateRunStatus(context.Background(), "run-1", models.RunUpdate{Status: models.RunStatusRunning})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 500")
	})

	t.Run("unreachable server returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close()

		client := NewControlPlaneClient(server.URL)
		err := client.UpdateRunStatus(context.Background(), "run-1", models.RunUpdate{Status: models.RunStatusRunning})
		require.Error(t, err)
	})
}

func TestControlPlaneClient_CreateStep(t *testing.T) {
	record := models.StepRecord{
		StepID:     "research",
		StepType:   models.NodeTypeTool,
		ToolUsed:   "web_search",
		Status:     models.StepStatusPending,
		OrderIndex: 2,
		Inputs:     `{"idea":"x"}`,
	}

	t.Run("returns the id assigned by the control plane", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"db-123"}`))
		}))
		defer server.Close()

		client := newTestControlPlaneClient(server)
		id, err := client.CreateStep(context.Background(), "run-1", record)
		require.NoError(t, err)
		assert.Equal(t, "db-123", id)

		assert.Equal(t, "/api/v1/runs/run-1/steps", gotPath)
		assert.Equal(t, "research", gotBody["stepId"])
		assert.Equal(t, "web_search", gotBody["toolUsed"])
		assert.Equal(t, float64(2), gotBody["orderIndex"])
		assert.Equal(t, "pending", gotBody["status"])
	})

	t.Run("falls back to the composite id without one", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := newTestControlPlaneClient(server)
		id, err := client.CreateStep(context.Background(), "run-1", record)
		require.NoError(t, err)
		assert.Equal(t, "run-1:step:research", id)
	})

	t.Run("falls back to the composite id on a bad body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`created`))
		}))
		defer server.Close()

		client := newTestControlPlaneClient(server)
		id, err := client.CreateStep(context.Background(), "run-1", record)
		require.NoError(t, err)
		assert.Equal(t, "run-1:step:research", id)
	})

	t.Run("non-201 returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer server.Close()

		client := newTestControlPlaneClient(server)
		_, err := client.CreateStep(context.Background(), "run-1", record)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 409")
	})
}

func TestControlPlaneClient_UpdateStep(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cost := 0.25
	client := newTestControlPlaneClient(server)
	err := client.UpdateStep(context.Background(), "run-1", "research", models.StepUpdate{
		Status:     models.StepStatusCompleted,
		Outputs:    `{"research_query":"x"}`,
		Cost:       &cost,
		FinishedAt: "2026-01-02T15:04:06Z",
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/v1/runs/run-1/steps/research", gotPath)
	assert.Equal(t, "completed", gotBody["status"])
	assert.Equal(t, 0.25, gotBody["cost"])
	assert.NotContains(t, gotBody, "latencyMs")
}
