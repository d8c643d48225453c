package llm

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// MessagesClient captures the subset of the Anthropic SDK message service
// used by the adapter. *sdk.MessageService satisfies it.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

const (
	defaultAnthropicModel     = "claude-3-haiku-20240307"
	defaultAnthropicMaxTokens = 2000
)

var anthropicPricing = map[string]pricing{
	"claude-3-5-sonnet-20241022": {input: 3.0, output: 15.0},
	"claude-3-opus-20240229":     {input: 15.0, output: 75.0},
	"claude-3-sonnet-20240229":   {input: 3.0, output: 15.0},
	"claude-3-haiku-20240307":    {input: 0.25, output: 1.25},
}

// AnthropicProvider adapts the Anthropic messages API.
type AnthropicProvider struct {
	messages         MessagesClient
	defaultModel     string
	defaultMaxTokens int
}

// AnthropicOptions configures the Anthropic adapter.
type AnthropicOptions struct {
	Client           MessagesClient
	DefaultModel     string
	DefaultMaxTokens int
}

func NewAnthropicProvider(opts AnthropicOptions) (*AnthropicProvider, error) {
	if opts.Client == nil {
		return nil, errors.New("anthropic client is required")
	}
	p := &AnthropicProvider{
		messages:         opts.Client,
		defaultModel:     opts.DefaultModel,
		defaultMaxTokens: opts.DefaultMaxTokens,
	}
	if p.defaultModel == "" {
		p.defaultModel = defaultAnthropicModel
	}
	if p.defaultMaxTokens <= 0 {
		p.defaultMaxTokens = defaultAnthropicMaxTokens
	}
	return p, nil
}

// NewAnthropicProviderFromAPIKey constructs the adapter with the stock SDK
// HTTP client.
func NewAnthropicProviderFromAPIKey(apiKey, defaultModel string, defaultMaxTokens int) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicProvider(AnthropicOptions{
		Client:           &ac.Messages,
		DefaultModel:     defaultModel,
		DefaultMaxTokens: defaultMaxTokens,
	})
}

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.defaultMaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}

	msg, err := p.messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: anthropic api error: %v", ErrProviderFailure, err)
	}

	var content string
	for _, block := range msg.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	inputTokens := int(msg.Usage.InputTokens)
	outputTokens := int(msg.Usage.OutputTokens)
	return &Result{
		Content:      content,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		Cost:         p.CalculateCost(inputTokens, outputTokens, model),
	}, nil
}

// CountTokens approximates with bytes/4. Anthropic ships no local tokenizer.
func (p *AnthropicProvider) CountTokens(text string) int {
	return approxTokens(text)
}

// CalculateCost prices unknown models at the claude-3-haiku rate.
func (p *AnthropicProvider) CalculateCost(inputTokens, outputTokens int, model string) float64 {
	price, ok := anthropicPricing[model]
	if !ok {
		price = anthropicPricing[defaultAnthropicModel]
	}
	return price.cost(inputTokens, outputTokens)
}
