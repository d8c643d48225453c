package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	openai "github.com/sashabaranov/go-openai"
)

// ChatClient captures the subset of the go-openai client used by the
// adapter so tests can substitute a fake.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const (
	defaultOpenAIModel     = "gpt-4o-mini"
	defaultOpenAIMaxTokens = 2000
)

var openAIPricing = map[string]pricing{
	"gpt-4-turbo-preview": {input: 10.0, output: 30.0},
	"gpt-4":               {input: 30.0, output: 60.0},
	"gpt-3.5-turbo":       {input: 0.5, output: 1.5},
	"gpt-4o":              {input: 2.5, output: 10.0},
	"gpt-4o-mini":         {input: 0.15, output: 0.6},
}

// OpenAIProvider adapts the OpenAI chat completions API.
type OpenAIProvider struct {
	chat             ChatClient
	defaultModel     string
	defaultMaxTokens int

	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
}

// OpenAIOptions configures the OpenAI adapter. Zero-value model and token
// fields fall back to the adapter defaults.
type OpenAIOptions struct {
	Client           ChatClient
	DefaultModel     string
	DefaultMaxTokens int
}

// NewOpenAIProvider builds the adapter.
func NewOpenAIProvider(opts OpenAIOptions) (*OpenAIProvider, error) {
	if opts.Client == nil {
		return nil, errors.New("openai client is required")
	}
	p := &OpenAIProvider{
		chat:             opts.Client,
		defaultModel:     opts.DefaultModel,
		defaultMaxTokens: opts.DefaultMaxTokens,
	}
	if p.defaultModel == "" {
		p.defaultModel = defaultOpenAIModel
	}
	if p.defaultMaxTokens <= 0 {
		p.defaultMaxTokens = defaultOpenAIMaxTokens
	}
	return p, nil
}

// NewOpenAIProviderFromAPIKey constructs the adapter with the stock
// go-openai HTTP client.
func NewOpenAIProviderFromAPIKey(apiKey, defaultModel string, defaultMaxTokens int) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	return NewOpenAIProvider(OpenAIOptions{
		Client:           openai.NewClient(apiKey),
		DefaultModel:     defaultModel,
		DefaultMaxTokens: defaultMaxTokens,
	})
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.defaultMaxTokens
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai api error: %v", ErrProviderFailure, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai returned no choices", ErrProviderFailure)
	}

	inputTokens := resp.Usage.PromptTokens
	outputTokens := resp.Usage.CompletionTokens
	return &Result{
		Content:      resp.Choices[0].Message.Content,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  resp.Usage.TotalTokens,
		Cost:         p.CalculateCost(inputTokens, outputTokens, model),
	}, nil
}

// CountTokens counts with the gpt-3.5-turbo BPE encoding, loaded on first
// use. Loading can require a network fetch; when it fails the count degrades
// to the bytes/4 estimate.
func (p *OpenAIProvider) CountTokens(text string) int {
	p.encodingOnce.Do(func() {
		enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
		if err != nil {
			slog.Warn("Tiktoken encoding unavailable, token estimates degrade", "error", err)
			return
		}
		p.encoding = enc
	})
	if p.encoding == nil {
		return approxTokens(text)
	}
	return len(p.encoding.Encode(text, nil, nil))
}

// CalculateCost prices unknown models at the gpt-3.5-turbo rate.
func (p *OpenAIProvider) CalculateCost(inputTokens, outputTokens int, model string) float64 {
	price, ok := openAIPricing[model]
	if !ok {
		price = openAIPricing["gpt-3.5-turbo"]
	}
	return price.cost(inputTokens, outputTokens)
}
