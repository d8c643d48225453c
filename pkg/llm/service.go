package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// Provider names accepted in step configs.
const (
	ProviderAuto      = "auto"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// GenerateRequest is a provider-routed prompt dispatch.
type GenerateRequest struct {
	// Provider routes the request. "auto" or empty picks the first
	// available adapter in the order openai, anthropic, mock.
	Provider     string
	Prompt       string
	SystemPrompt string
	Model        string
	MaxTokens    int
	Temperature  float64
}

// ServiceOptions carries the credentials and per-vendor defaults used to
// initialize adapters.
type ServiceOptions struct {
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIMaxTokens    int
	AnthropicAPIKey    string
	AnthropicModel     string
	AnthropicMaxTokens int
}

// Service routes generation requests to whichever provider adapters could
// be initialized. The mock adapter always exists, so Generate with auto
// selection never fails for lack of credentials.
type Service struct {
	openai    Provider
	anthropic Provider
	mock      Provider
}

// NewService initializes an adapter for every vendor with credentials in
// opts. A vendor whose adapter cannot be built is logged and left
// unavailable rather than failing service construction.
func NewService(opts ServiceOptions) *Service {
	s := &Service{mock: &MockProvider{}}
	if opts.OpenAIAPIKey != "" {
		p, err := NewOpenAIProviderFromAPIKey(opts.OpenAIAPIKey, opts.OpenAIModel, opts.OpenAIMaxTokens)
		if err != nil {
			slog.Warn("OpenAI provider unavailable", "error", err)
		} else {
			s.openai = p
			slog.Info("OpenAI provider initialized", "default_model", p.defaultModel)
		}
	}
	if opts.AnthropicAPIKey != "" {
		p, err := NewAnthropicProviderFromAPIKey(opts.AnthropicAPIKey, opts.AnthropicModel, opts.AnthropicMaxTokens)
		if err != nil {
			slog.Warn("Anthropic provider unavailable", "error", err)
		} else {
			s.anthropic = p
			slog.Info("Anthropic provider initialized", "default_model", p.defaultModel)
		}
	}
	return s
}

// NewServiceWithProviders wires explicit adapters; nil slots stay
// unavailable. A nil mock is replaced with the stock MockProvider.
func NewServiceWithProviders(openAI, anthropic, mock Provider) *Service {
	if mock == nil {
		mock = &MockProvider{}
	}
	return &Service{openai: openAI, anthropic: anthropic, mock: mock}
}

// HasVendor reports whether at least one real vendor adapter is available.
func (s *Service) HasVendor() bool {
	return s.openai != nil || s.anthropic != nil
}

// Generate routes req to the named provider. Prompts arrive fully resolved;
// the service performs no placeholder substitution.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	provider := req.Provider
	if provider == "" || provider == ProviderAuto {
		switch {
		case s.openai != nil:
			provider = ProviderOpenAI
		case s.anthropic != nil:
			provider = ProviderAnthropic
		default:
			provider = ProviderMock
		}
	}

	call := Request{
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		Model:        req.Model,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	}

	switch provider {
	case ProviderOpenAI:
		if s.openai == nil {
			return nil, fmt.Errorf("%w: openai", ErrProviderUnavailable)
		}
		return s.openai.Generate(ctx, call)
	case ProviderAnthropic:
		if s.anthropic == nil {
			return nil, fmt.Errorf("%w: anthropic", ErrProviderUnavailable)
		}
		return s.anthropic.Generate(ctx, call)
	case ProviderMock:
		return s.mock.Generate(ctx, call)
	default:
		return nil, fmt.Errorf("%w: %q", ErrProviderUnknown, provider)
	}
}
