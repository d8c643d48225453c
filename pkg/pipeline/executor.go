package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aic-platform/orchestrator/pkg/llm"
	"github.com/aic-platform/orchestrator/pkg/models"
	"github.com/aic-platform/orchestrator/pkg/template"
)

const (
	defaultAgentPrompt      = "Analyze the input"
	defaultAgentTemperature = 0.7
)

// ToolExecutor runs registry tools. *tools.Registry satisfies it.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, config map[string]any) (map[string]any, error)
}

// Generator produces LLM completions. *llm.Service satisfies it.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (*llm.Result, error)
}

// Executor dispatches single pipeline steps by node type. Placeholder
// interpolation against the run context happens here, exactly once per step
// input; tools and providers receive resolved values.
type Executor struct {
	tools     ToolExecutor
	llm       Generator
	condition Evaluator
}

// NewExecutor wires the step executor. A nil evaluator defaults to the
// clause evaluator.
func NewExecutor(toolExec ToolExecutor, generator Generator, evaluator Evaluator) *Executor {
	if evaluator == nil {
		evaluator = ClauseEvaluator{}
	}
	return &Executor{tools: toolExec, llm: generator, condition: evaluator}
}

// ExecuteStep runs one node against the current context and returns the
// step's output envelope.
func (e *Executor) ExecuteStep(ctx context.Context, node models.Node, runCtx map[string]any, policies *models.Policies) (map[string]any, error) {
	switch node.Type {
	case models.NodeTypeTool:
		return e.executeTool(ctx, node, runCtx, policies)
	case models.NodeTypeAgent:
		return e.executeAgent(ctx, node, runCtx)
	case models.NodeTypeCondition:
		return e.executeCondition(node, runCtx), nil
	case models.NodeTypeApproval:
		// Gating happens in the orchestrator; an approved gate executes
		// as a no-op.
		return map[string]any{}, nil
	default:
		return nil, fmt.Errorf("unknown step type: %s", node.Type)
	}
}

func (e *Executor) executeTool(ctx context.Context, node models.Node, runCtx map[string]any, policies *models.Policies) (map[string]any, error) {
	name := toolName(node)
	if !policies.Allows(name) {
		return nil, fmt.Errorf("tool %s is %w", name, ErrToolDenied)
	}

	config := make(map[string]any, len(node.Config))
	for k, v := range node.Config {
		if k == "tool" {
			continue
		}
		config[k] = v
	}

	envelope, err := e.tools.Execute(ctx, name, template.RenderMap(config, runCtx))
	if err != nil {
		return nil, err
	}

	// Tool outputs are namespaced by node id so parallel branches cannot
	// clobber each other in the context.
	prefix := node.ID + "_"
	prefixed := make(map[string]any, len(envelope))
	for k, v := range envelope {
		if strings.HasPrefix(k, prefix) {
			prefixed[k] = v
		} else {
			prefixed[prefix+k] = v
		}
	}
	return prefixed, nil
}

func (e *Executor) executeAgent(ctx context.Context, node models.Node, runCtx map[string]any) (map[string]any, error) {
	prompt, _ := node.Config["prompt"].(string)
	if prompt == "" {
		prompt = defaultAgentPrompt
	}
	prompt = template.Render(prompt, runCtx)

	systemPrompt, _ := node.Config["system_prompt"].(string)
	if systemPrompt != "" {
		systemPrompt = template.Render(systemPrompt, runCtx)
	}

	provider, _ := node.Config["provider"].(string)
	model, _ := node.Config["model"].(string)

	res, err := e.llm.Generate(ctx, llm.GenerateRequest{
		Provider:     provider,
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Model:        model,
		MaxTokens:    asInt(node.Config["max_tokens"], 0),
		Temperature:  asFloat(node.Config["temperature"], defaultAgentTemperature),
	})
	if err != nil {
		return nil, err
	}

	// Replies that look like JSON become structured context values.
	var output any = res.Content
	trimmed := strings.TrimSpace(res.Content)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			output = parsed
		}
	}

	return map[string]any{
		node.ID + "_output": output,
		"content":           res.Content,
		"input_tokens":      res.InputTokens,
		"output_tokens":     res.OutputTokens,
		"total_tokens":      res.TotalTokens,
		"cost":              res.Cost,
		"model":             res.Model,
	}, nil
}

func (e *Executor) executeCondition(node models.Node, runCtx map[string]any) map[string]any {
	condition, _ := node.Config["condition"].(string)
	if condition == "" {
		condition = "true"
	}
	return map[string]any{
		"condition_result": e.condition.Evaluate(condition, runCtx),
		"condition":        condition,
	}
}

func toolName(node models.Node) string {
	if t, ok := node.Config["tool"].(string); ok && t != "" {
		return t
	}
	return node.ID
}

func asInt(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return fallback
}

func asFloat(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return fallback
}
