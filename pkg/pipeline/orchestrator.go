// Package pipeline contains the run orchestrator and its supporting parts:
// the graph scheduler, the per-step executor and the condition evaluator.
// A run walks its pipeline strictly sequentially; concurrency exists only
// across runs.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/aic-platform/orchestrator/pkg/models"
	"github.com/aic-platform/orchestrator/pkg/state"
)

// Orchestrator executes pipeline runs, recording every run and step
// transition through the sink.
type Orchestrator struct {
	executor *Executor
	sink     state.Sink
	logger   *slog.Logger
}

func NewOrchestrator(executor *Executor, sink state.Sink) *Orchestrator {
	return &Orchestrator{
		executor: executor,
		sink:     sink,
		logger:   slog.With("component", "orchestrator"),
	}
}

// Execute walks the pipeline for runID with the given initial inputs. An
// approval gate without an approved marker suspends the run: Execute
// returns nil and a later resume performs a fresh walk. Step failures stop
// the walk and surface as a *StepError.
func (o *Orchestrator) Execute(ctx context.Context, runID string, pipeline models.Pipeline, inputs map[string]any) error {
	logger := o.logger.With("run_id", runID)
	logger.Info("Run started", "nodes", len(pipeline.Steps.Nodes))

	o.sink.RecordRunTransition(ctx, runID, models.RunUpdate{
		Status:    models.RunStatusRunning,
		StartedAt: nowRFC3339(),
	})

	order, err := ExecutionOrder(pipeline.Steps)
	if err != nil {
		logger.Error("Pipeline rejected", "error", err)
		o.sink.RecordRunTransition(ctx, runID, models.RunUpdate{
			Status:       models.RunStatusFailed,
			ErrorMessage: err.Error(),
			FinishedAt:   nowRFC3339(),
		})
		return err
	}

	nodes := nodeIndex(pipeline.Steps.Nodes)
	runCtx := maps.Clone(inputs)
	if runCtx == nil {
		runCtx = map[string]any{}
	}

	// All step records are created up front so observers see the whole
	// plan while the run progresses.
	for i, stepID := range order {
		node := nodes[stepID]
		record := models.StepRecord{
			StepID:     stepID,
			StepType:   node.Type,
			Status:     models.StepStatusPending,
			OrderIndex: i,
			Inputs:     asJSON(runCtx),
		}
		if node.Type == models.NodeTypeTool {
			record.ToolUsed = toolName(node)
		}
		o.sink.CreateStepRecord(ctx, runID, record)
	}

	var totalCost float64
	var totalTokens int

	for _, stepID := range order {
		node := nodes[stepID]

		if node.Type == models.NodeTypeApproval {
			marker, ok := o.sink.Approval(ctx, runID, stepID)
			if !ok || marker.Decision != models.ApprovalApproved {
				if !ok {
					o.sink.PutApproval(ctx, runID, stepID, models.ApprovalMarker{
						Decision:    models.ApprovalPending,
						RequestedAt: nowRFC3339(),
					})
				}
				o.sink.RecordRunTransition(ctx, runID, models.RunUpdate{
					Status: models.RunStatusNeedsApproval,
				})
				logger.Info("Run suspended awaiting approval", "step_id", stepID)
				return nil
			}
			logger.Info("Approval gate passed", "step_id", stepID)
			// Approved gates fall through and execute as a no-op.
		}

		o.sink.RecordStepTransition(ctx, runID, stepID, models.StepUpdate{
			Status:    models.StepStatusRunning,
			StartedAt: nowRFC3339(),
			Inputs:    asJSON(runCtx),
		})

		started := time.Now()
		envelope, execErr := o.executor.ExecuteStep(ctx, node, runCtx, pipeline.Policies)
		latencyMs := time.Since(started).Milliseconds()

		if execErr != nil {
			logger.Error("Step failed", "step_id", stepID, "error", execErr)
			o.sink.RecordStepTransition(ctx, runID, stepID, models.StepUpdate{
				Status:       models.StepStatusFailed,
				ErrorMessage: execErr.Error(),
				FinishedAt:   nowRFC3339(),
			})
			o.sink.RecordRunTransition(ctx, runID, models.RunUpdate{
				Status:       models.RunStatusFailed,
				ErrorMessage: fmt.Sprintf("Step %s failed: %s", stepID, execErr),
				FinishedAt:   nowRFC3339(),
			})
			return &StepError{NodeID: stepID, Err: execErr}
		}

		stepCost := asFloat(envelope["cost"], 0)
		stepTokens := envelopeTokens(envelope)
		stripAccounting(envelope)

		totalCost += stepCost
		totalTokens += stepTokens

		o.sink.RecordStepTransition(ctx, runID, stepID, models.StepUpdate{
			Status:     models.StepStatusCompleted,
			Outputs:    asJSON(envelope),
			Cost:       &stepCost,
			TokensUsed: &stepTokens,
			LatencyMs:  &latencyMs,
			FinishedAt: nowRFC3339(),
		})
		logger.Info("Step completed", "step_id", stepID, "latency_ms", latencyMs, "cost", stepCost)

		maps.Copy(runCtx, envelope)
	}

	o.sink.RecordRunTransition(ctx, runID, models.RunUpdate{
		Status:     models.RunStatusCompleted,
		Outputs:    asJSON(runCtx),
		Cost:       &totalCost,
		TokensUsed: &totalTokens,
		FinishedAt: nowRFC3339(),
	})
	logger.Info("Run completed", "cost", totalCost, "tokens", totalTokens)
	return nil
}

// accountingKeys are pulled into run/step totals and stripped from envelopes
// before they reach outputs or the context.
var accountingKeys = []string{"cost", "input_tokens", "output_tokens", "total_tokens", "model"}

func stripAccounting(envelope map[string]any) {
	for _, k := range accountingKeys {
		delete(envelope, k)
	}
}

// envelopeTokens prefers the total count and falls back to output tokens.
func envelopeTokens(envelope map[string]any) int {
	if v, ok := envelope["total_tokens"]; ok {
		return asInt(v, 0)
	}
	if v, ok := envelope["output_tokens"]; ok {
		return asInt(v, 0)
	}
	return 0
}

func nodeIndex(nodes []models.Node) map[string]models.Node {
	index := make(map[string]models.Node, len(nodes))
	for _, node := range nodes {
		index[node.ID] = node
	}
	return index
}

func asJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
