package llm

import (
	"context"
	"strings"
)

const mockPreviewLimit = 1000

// MockProvider answers every request locally with zero cost and zero token
// usage. It backs pipelines that run without any vendor credentials and is
// scriptable in tests through FixedContent.
type MockProvider struct {
	// FixedContent, when non-empty, is returned verbatim instead of the
	// canned preview response.
	FixedContent string
}

func (p *MockProvider) Generate(_ context.Context, req Request) (*Result, error) {
	model := req.Model
	if model == "" {
		model = "mock-llm"
	}
	content := p.FixedContent
	if content == "" {
		preview := strings.TrimSpace(req.SystemPrompt + "\n" + req.Prompt)
		if runes := []rune(preview); len(runes) > mockPreviewLimit {
			preview = string(runes[:mockPreviewLimit])
		}
		content = "MOCK LLM RESPONSE (no real model was called).\n\nPrompt preview:\n" + preview
	}
	return &Result{Content: content, Model: model}, nil
}

func (p *MockProvider) CountTokens(string) int { return 0 }

func (p *MockProvider) CalculateCost(int, int, string) float64 { return 0 }
