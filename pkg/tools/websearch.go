package tools

import (
	"context"
	"fmt"
	"log/slog"
)

const defaultMaxResults = 5

// WebSearchTool performs web searches through Tavily. Without an API key it
// serves a canned fallback result so pipelines keep working offline.
type WebSearchTool struct {
	client *TavilyClient
}

// NewWebSearchTool wraps the Tavily client. A nil client switches every
// search to the fallback result.
func NewWebSearchTool(client *TavilyClient) *WebSearchTool {
	if client == nil {
		slog.Warn("Tavily API key not configured, web search serves fallback results")
	}
	return &WebSearchTool{client: client}
}

// Search returns a result document with the matched pages and their source
// URLs. The query arrives fully resolved.
func (t *WebSearchTool) Search(ctx context.Context, query string, maxResults int) (map[string]any, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	if t.client == nil {
		return map[string]any{
			"results": []map[string]any{
				{
					"title":   "Result for: " + query,
					"url":     "https://example.com",
					"content": "Sample content related to " + query,
				},
			},
			"query":    query,
			"fallback": true,
		}, nil
	}

	hits, err := t.client.Search(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: web search error: %v", ErrToolFailure, err)
	}

	results := make([]map[string]any, 0, len(hits))
	sources := make([]string, 0, len(hits))
	for _, hit := range hits {
		results = append(results, map[string]any{
			"title":   hit.Title,
			"url":     hit.URL,
			"content": hit.Content,
			"score":   hit.Score,
		})
		sources = append(sources, hit.URL)
	}

	return map[string]any{
		"results": results,
		"query":   query,
		"sources": sources,
	}, nil
}
