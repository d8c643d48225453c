package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aic-platform/orchestrator/pkg/llm"
)

// Generator produces LLM completions. *llm.Service satisfies it.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (*llm.Result, error)
}

const (
	maxCompetitors = 5

	competitorSystemPrompt = "You are a competitive intelligence analyst. Provide structured, actionable insights."
)

// fencedJSON extracts a JSON object from a markdown code block.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// CompetitorAnalysisTool extracts competitor candidates from web search
// results and optionally refines them with an LLM pass.
type CompetitorAnalysisTool struct {
	search *WebSearchTool
	llm    Generator
	logger *slog.Logger
}

// NewCompetitorAnalysisTool builds the tool. A nil generator disables the
// LLM refinement pass.
func NewCompetitorAnalysisTool(search *WebSearchTool, generator Generator) *CompetitorAnalysisTool {
	return &CompetitorAnalysisTool{
		search: search,
		llm:    generator,
		logger: slog.Default(),
	}
}

// Analyze builds a competitor landscape for the idea. When searchResults is
// nil the tool performs its own web search first.
func (t *CompetitorAnalysisTool) Analyze(ctx context.Context, idea string, searchResults map[string]any) (map[string]any, error) {
	if searchResults == nil {
		var err error
		searchResults, err = t.search.Search(ctx, idea+" competitors alternatives market analysis", 10)
		if err != nil {
			return nil, err
		}
	}

	results := resultList(searchResults["results"])
	if len(results) > maxCompetitors {
		results = results[:maxCompetitors]
	}

	competitors := make([]map[string]any, 0, len(results))
	sources := make([]string, 0, len(results))
	seen := make(map[string]bool)

	for _, result := range results {
		title, _ := result["title"].(string)
		content, _ := result["content"].(string)
		url, _ := result["url"].(string)

		// Crude name extraction: the part before a hyphen in page titles
		// like "Acme - the home automation platform".
		name := truncate(title, 50)
		if i := strings.Index(title, "-"); i >= 0 {
			name = strings.TrimSpace(title[:i])
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		competitors = append(competitors, map[string]any{
			"name":        name,
			"description": truncate(content, 200),
			"source":      url,
		})
		sources = append(sources, url)
	}

	if t.llm != nil && len(competitors) > 0 {
		refined, err := t.refine(ctx, idea, competitors, sources)
		if err != nil {
			t.logger.Warn("Competitor analysis LLM refinement failed", "error", err)
		} else {
			return refined, nil
		}
	}

	return map[string]any{
		"idea":         idea,
		"competitors":  competitors,
		"sources":      sources,
		"llm_enhanced": false,
	}, nil
}

func (t *CompetitorAnalysisTool) refine(ctx context.Context, idea string, competitors []map[string]any, sources []string) (map[string]any, error) {
	competitorsJSON, err := json.MarshalIndent(competitors, "", "  ")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Analyze the following startup idea and its competitors:

Idea: %s

Competitors found:
%s

Provide a structured competitor analysis with:
1. Direct competitors (products solving the same problem)
2. Indirect competitors (alternative solutions)
3. Market gaps and opportunities

Format the response as JSON with competitors array and analysis.`, idea, competitorsJSON)

	res, err := t.llm.Generate(ctx, llm.GenerateRequest{
		Provider:     llm.ProviderAuto,
		Prompt:       prompt,
		SystemPrompt: competitorSystemPrompt,
		MaxTokens:    2000,
		Temperature:  0.7,
	})
	if err != nil {
		return nil, err
	}

	refined := map[string]any{
		"idea":         idea,
		"competitors":  competitors,
		"analysis":     res.Content,
		"sources":      sources,
		"llm_enhanced": true,
	}
	if m := fencedJSON.FindStringSubmatch(res.Content); m != nil {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(m[1]), &parsed); err == nil {
			if v, ok := parsed["competitors"]; ok {
				refined["competitors"] = v
			}
			if v, ok := parsed["analysis"]; ok {
				refined["analysis"] = v
			}
		}
	}
	return refined, nil
}

// resultList tolerates both in-process search documents and documents that
// went through a JSON round trip.
func resultList(v any) []map[string]any {
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func truncate(s string, n int) string {
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n])
	}
	return s
}
