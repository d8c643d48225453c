package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aic-platform/orchestrator/pkg/llm"
)

type fakeGenerator struct {
	calls int
	last  llm.GenerateRequest
	res   *llm.Result
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.GenerateRequest) (*llm.Result, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func TestCompetitorAnalyzeHeuristics(t *testing.T) {
	tool := NewCompetitorAnalysisTool(NewWebSearchTool(nil), nil)

	searchResults := map[string]any{
		"results": []map[string]any{
			{"title": "Acme - home automation leader", "content": strings.Repeat("a", 250), "url": "https://acme.io"},
			{"title": "Acme - duplicate entry", "content": "dup", "url": "https://dup.example"},
			{"title": "This title has no hyphen and is longer than fifty characters total", "content": "desc", "url": "https://long.example"},
			{"title": "", "content": "skipped", "url": "https://empty.example"},
			{"title": "Beta - rival", "content": "", "url": "https://beta.example"},
			{"title": "Gamma - beyond the first five results", "content": "x", "url": "https://gamma.example"},
		},
	}

	result, err := tool.Analyze(context.Background(), "smart home hub", searchResults)
	require.NoError(t, err)

	assert.Equal(t, "smart home hub", result["idea"])
	assert.Equal(t, false, result["llm_enhanced"])
	_, hasAnalysis := result["analysis"]
	assert.False(t, hasAnalysis)

	competitors, ok := result["competitors"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, competitors, 3)

	assert.Equal(t, "Acme", competitors[0]["name"])
	assert.Len(t, competitors[0]["description"], 200)
	assert.Equal(t, "https://acme.io", competitors[0]["source"])

	assert.Equal(t, "This title has no hyphen and is longer than fifty ", competitors[1]["name"])
	assert.Equal(t, "Beta", competitors[2]["name"])
	assert.Equal(t, "", competitors[2]["description"])

	assert.Equal(t, []string{"https://acme.io", "https://long.example", "https://beta.example"}, result["sources"])
}

func TestCompetitorAnalyzePerformsSearch(t *testing.T) {
	tool := NewCompetitorAnalysisTool(NewWebSearchTool(nil), nil)

	result, err := tool.Analyze(context.Background(), "solar chargers", nil)
	require.NoError(t, err)

	competitors, ok := result["competitors"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, competitors, 1)
	assert.Equal(t, "https://example.com", competitors[0]["source"])
}

func TestCompetitorAnalyzeLLMRefinement(t *testing.T) {
	gen := &fakeGenerator{res: &llm.Result{
		Content: "Here you go:\n```json\n{\"competitors\": [{\"name\": \"Acme\", \"type\": \"direct\"}], \"analysis\": \"crowded market\"}\n```",
	}}
	tool := NewCompetitorAnalysisTool(NewWebSearchTool(nil), gen)

	searchResults := map[string]any{
		"results": []map[string]any{
			{"title": "Acme - rival", "content": "c", "url": "https://acme.io"},
		},
	}
	result, err := tool.Analyze(context.Background(), "smart hub", searchResults)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, llm.ProviderAuto, gen.last.Provider)
	assert.Equal(t, competitorSystemPrompt, gen.last.SystemPrompt)
	assert.Equal(t, 2000, gen.last.MaxTokens)
	assert.Equal(t, 0.7, gen.last.Temperature)
	assert.Contains(t, gen.last.Prompt, "Idea: smart hub")
	assert.Contains(t, gen.last.Prompt, `"name": "Acme"`)

	assert.Equal(t, true, result["llm_enhanced"])
	assert.Equal(t, "crowded market", result["analysis"])
	competitors, ok := result["competitors"].([]any)
	require.True(t, ok)
	require.Len(t, competitors, 1)
	first, ok := competitors[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "direct", first["type"])
	assert.Equal(t, []string{"https://acme.io"}, result["sources"])
}

func TestCompetitorAnalyzeLLMPlainText(t *testing.T) {
	gen := &fakeGenerator{res: &llm.Result{Content: "prose without any code fences"}}
	tool := NewCompetitorAnalysisTool(NewWebSearchTool(nil), gen)

	searchResults := map[string]any{
		"results": []map[string]any{
			{"title": "Acme - rival", "content": "c", "url": "https://acme.io"},
		},
	}
	result, err := tool.Analyze(context.Background(), "hub", searchResults)
	require.NoError(t, err)

	assert.Equal(t, true, result["llm_enhanced"])
	assert.Equal(t, "prose without any code fences", result["analysis"])
	competitors, ok := result["competitors"].([]map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Acme", competitors[0]["name"])
}

func TestCompetitorAnalyzeBadFencedJSON(t *testing.T) {
	gen := &fakeGenerator{res: &llm.Result{Content: "```json\n{not valid json}\n```"}}
	tool := NewCompetitorAnalysisTool(NewWebSearchTool(nil), gen)

	searchResults := map[string]any{
		"results": []map[string]any{
			{"title": "Acme - rival", "content": "c", "url": "https://acme.io"},
		},
	}
	result, err := tool.Analyze(context.Background(), "hub", searchResults)
	require.NoError(t, err)

	assert.Equal(t, true, result["llm_enhanced"])
	assert.Equal(t, "```json\n{not valid json}\n```", result["analysis"])
	_, ok := result["competitors"].([]map[string]any)
	assert.True(t, ok)
}

func TestCompetitorAnalyzeLLMFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("provider down")}
	tool := NewCompetitorAnalysisTool(NewWebSearchTool(nil), gen)

	searchResults := map[string]any{
		"results": []map[string]any{
			{"title": "Acme - rival", "content": "c", "url": "https://acme.io"},
		},
	}
	result, err := tool.Analyze(context.Background(), "hub", searchResults)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, false, result["llm_enhanced"])
	_, hasAnalysis := result["analysis"]
	assert.False(t, hasAnalysis)
}

func TestCompetitorAnalyzeSkipsLLMWithoutCandidates(t *testing.T) {
	gen := &fakeGenerator{res: &llm.Result{Content: "unused"}}
	tool := NewCompetitorAnalysisTool(NewWebSearchTool(nil), gen)

	result, err := tool.Analyze(context.Background(), "hub", map[string]any{"results": []map[string]any{}})
	require.NoError(t, err)

	assert.Zero(t, gen.calls)
	assert.Equal(t, false, result["llm_enhanced"])
	competitors, ok := result["competitors"].([]map[string]any)
	require.True(t, ok)
	assert.Empty(t, competitors)
}
