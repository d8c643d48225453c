package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTavilyClient(t *testing.T, handler http.HandlerFunc) *TavilyClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewTavilyClient("tvly-test-key")
	client.baseURL = server.URL
	client.httpClient = server.Client()
	return client
}

func TestTavilySearch(t *testing.T) {
	var captured tavilySearchRequest
	client := newTestTavilyClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Acme - home automation", "url": "https://acme.io", "content": "Acme automates homes", "score": 0.93},
			},
		})
	})

	hits, err := client.Search(context.Background(), "home automation startups", 5)
	require.NoError(t, err)

	assert.Equal(t, "tvly-test-key", captured.APIKey)
	assert.Equal(t, "home automation startups", captured.Query)
	assert.Equal(t, "advanced", captured.SearchDepth)
	assert.Equal(t, 5, captured.MaxResults)

	require.Len(t, hits, 1)
	assert.Equal(t, "Acme - home automation", hits[0].Title)
	assert.Equal(t, "https://acme.io", hits[0].URL)
	assert.Equal(t, "Acme automates homes", hits[0].Content)
	assert.InDelta(t, 0.93, hits[0].Score, 1e-9)
}

func TestTavilySearchHTTPError(t *testing.T) {
	client := newTestTavilyClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 429")
}

func TestWebSearch(t *testing.T) {
	client := newTestTavilyClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "First", "url": "https://one.example", "content": "one", "score": 0.9},
				{"title": "Second", "url": "https://two.example", "content": "two", "score": 0.5},
			},
		})
	})
	tool := NewWebSearchTool(client)

	result, err := tool.Search(context.Background(), "anything", 0)
	require.NoError(t, err)

	assert.Equal(t, "anything", result["query"])
	assert.Equal(t, []string{"https://one.example", "https://two.example"}, result["sources"])
	results, ok := result["results"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, results, 2)
	assert.Equal(t, "First", results[0]["title"])
	_, hasFallback := result["fallback"]
	assert.False(t, hasFallback)
}

func TestWebSearchFallback(t *testing.T) {
	tool := NewWebSearchTool(nil)

	result, err := tool.Search(context.Background(), "smart plugs", 5)
	require.NoError(t, err)

	assert.Equal(t, true, result["fallback"])
	assert.Equal(t, "smart plugs", result["query"])
	results, ok := result["results"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, "Result for: smart plugs", results[0]["title"])
	assert.Equal(t, "https://example.com", results[0]["url"])
	assert.Equal(t, "Sample content related to smart plugs", results[0]["content"])
	_, hasSources := result["sources"]
	assert.False(t, hasSources)
}

func TestWebSearchBackendError(t *testing.T) {
	client := newTestTavilyClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	tool := NewWebSearchTool(client)

	_, err := tool.Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolFailure)
	assert.Contains(t, err.Error(), "web search error")
}
