package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const tavilyBaseURL = "https://api.tavily.com"

// TavilyClient provides HTTP access to the Tavily search API.
type TavilyClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewTavilyClient creates an HTTP client for Tavily searches.
func NewTavilyClient(apiKey string) *TavilyClient {
	return &TavilyClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    tavilyBaseURL,
		apiKey:     apiKey,
	}
}

// TavilyResult is a single search hit.
type TavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilySearchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilySearchResponse struct {
	Results []TavilyResult `json:"results"`
}

// Search runs an advanced-depth search and returns the hits.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]TavilyResult, error) {
	payload, err := json.Marshal(tavilySearchRequest{
		APIKey:      c.apiKey,
		Query:       query,
		SearchDepth: "advanced",
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Tavily returned HTTP %d", resp.StatusCode)
	}

	var parsed tavilySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return parsed.Results, nil
}
