// Package tools implements the tool registry available to pipeline steps:
// web search backed by Tavily and a competitor analysis built on top of it.
// Tool configs arrive fully resolved; no placeholder substitution happens
// here.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Registry dispatches tool executions by name.
type Registry struct {
	webSearch  *WebSearchTool
	competitor *CompetitorAnalysisTool
}

// NewRegistry wires the built-in tools. tavily may be nil, switching web
// search to fallback results, and generator may be nil, disabling the
// competitor analysis LLM refinement.
func NewRegistry(tavily *TavilyClient, generator Generator) *Registry {
	webSearch := NewWebSearchTool(tavily)
	return &Registry{
		webSearch:  webSearch,
		competitor: NewCompetitorAnalysisTool(webSearch, generator),
	}
}

// Execute runs the named tool and returns its output envelope.
func (r *Registry) Execute(ctx context.Context, name string, config map[string]any) (map[string]any, error) {
	switch name {
	case "web_search":
		query, _ := config["query"].(string)
		result, err := r.webSearch.Search(ctx, query, intValue(config["max_results"], defaultMaxResults))
		if err != nil {
			return nil, err
		}
		sources, _ := result["sources"].([]string)
		if sources == nil {
			sources = []string{}
		}
		return map[string]any{
			"result":  result,
			"query":   query,
			"sources": sources,
		}, nil

	case "competitor_analysis":
		idea, _ := config["idea"].(string)
		result, err := r.competitor.Analyze(ctx, idea, searchResultsArg(config["searchResults"]))
		if err != nil {
			return nil, err
		}
		competitors := result["competitors"]
		if competitors == nil {
			competitors = []any{}
		}
		analysis := result["analysis"]
		if analysis == nil {
			analysis = ""
		}
		return map[string]any{
			"result":      result,
			"competitors": competitors,
			"analysis":    analysis,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrToolUnknown, name)
	}
}

// searchResultsArg accepts either an inline search document or its JSON
// string form, as an upstream web_search step leaves in the context.
func searchResultsArg(v any) map[string]any {
	switch arg := v.(type) {
	case map[string]any:
		return arg
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(arg), &parsed); err == nil {
			return parsed
		}
	}
	return nil
}

func intValue(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return fallback
}
