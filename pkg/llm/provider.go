// Package llm routes prompts to language model providers and accounts for
// their token usage and cost. Adapters exist for OpenAI and Anthropic, plus
// a mock provider that needs no credentials and is used as the last resort
// during auto-selection.
package llm

import "context"

// Request is a single prompt dispatch to one provider. The prompt and system
// prompt arrive fully resolved; adapters perform no substitution.
type Request struct {
	Prompt       string
	SystemPrompt string
	Model        string // empty selects the adapter default
	MaxTokens    int    // zero selects the adapter default
	Temperature  float64
}

// Result is a completed generation with its usage accounting.
type Result struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Cost         float64
}

// Provider is the capability set shared by all vendor adapters.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Result, error)

	// CountTokens estimates how many tokens text occupies in the
	// provider's tokenizer.
	CountTokens(text string) int

	// CalculateCost returns the USD cost of a call against the model's
	// price table.
	CalculateCost(inputTokens, outputTokens int, model string) float64
}

// pricing is USD per one million tokens.
type pricing struct {
	input  float64
	output float64
}

func (p pricing) cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1_000_000*p.input + float64(outputTokens)/1_000_000*p.output
}

// approxTokens estimates roughly four bytes per token, the usual ballpark
// for English text. Used wherever no real tokenizer is available.
func approxTokens(text string) int {
	return len(text) / 4
}
