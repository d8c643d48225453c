// Package state persists run and step execution records.
//
// Writes fan out to two backends: the control plane REST API, which owns
// the durable record, and a Redis shadow used for fast status reads and
// approval markers. Both paths are best effort; a degraded backend slows
// nothing down and never fails a run.
package state

import (
	"context"

	"github.com/aic-platform/orchestrator/pkg/models"
)

// Sink receives execution state transitions. Implementations log write
// failures instead of returning them.
type Sink interface {
	// RecordRunTransition applies a status update to a run.
	RecordRunTransition(ctx context.Context, runID string, update models.RunUpdate)

	// CreateStepRecord registers a planned step and returns its record ID.
	CreateStepRecord(ctx context.Context, runID string, record models.StepRecord) string

	// RecordStepTransition applies a status update to a step record.
	RecordStepTransition(ctx context.Context, runID, stepID string, update models.StepUpdate)

	// Approval fetches the approval marker for a gate, if one exists.
	Approval(ctx context.Context, runID, stepID string) (models.ApprovalMarker, bool)

	// PutApproval stores the approval marker for a gate.
	PutApproval(ctx context.Context, runID, stepID string, marker models.ApprovalMarker)
}
