package state

import (
	"context"
	"log/slog"

	"github.com/aic-platform/orchestrator/pkg/models"
)

// ControlPlane is the durable half of the sink. *ControlPlaneClient
// implements it.
type ControlPlane interface {
	UpdateRunStatus(ctx context.Context, runID string, update models.RunUpdate) error
	CreateStep(ctx context.Context, runID string, record models.StepRecord) (string, error)
	UpdateStep(ctx context.Context, runID, stepID string, update models.StepUpdate) error
}

// Shadow is the Redis half of the sink. *ShadowStore implements it.
type Shadow interface {
	WriteRunUpdate(ctx context.Context, runID string, update models.RunUpdate) error
	WriteStepRecord(ctx context.Context, runID string, record models.StepRecord) error
	WriteStepUpdate(ctx context.Context, runID, stepID string, update models.StepUpdate) error
	Approval(ctx context.Context, runID, stepID string) (models.ApprovalMarker, bool, error)
	PutApproval(ctx context.Context, runID, stepID string, marker models.ApprovalMarker) error
}

var (
	_ ControlPlane = (*ControlPlaneClient)(nil)
	_ Shadow       = (*ShadowStore)(nil)
)

// DualSink fans every transition out to the shadow store and the control
// plane. Either backend may be down; writes degrade to a WARN log and the
// run keeps going. Approval markers live in the shadow only.
type DualSink struct {
	controlPlane ControlPlane
	shadow       Shadow
	logger       *slog.Logger
}

var _ Sink = (*DualSink)(nil)

func NewDualSink(controlPlane ControlPlane, shadow Shadow) *DualSink {
	return &DualSink{
		controlPlane: controlPlane,
		shadow:       shadow,
		logger:       slog.With("component", "state_sink"),
	}
}

// RecordRunTransition mirrors the update to Redis and patches the control
// plane record.
func (d *DualSink) RecordRunTransition(ctx context.Context, runID string, update models.RunUpdate) {
	if err := d.shadow.WriteRunUpdate(ctx, runID, update); err != nil {
		d.logger.Warn("state sync degraded", "path", "shadow", "run_id", runID, "error", err)
	}
	if err := d.controlPlane.UpdateRunStatus(ctx, runID, update); err != nil {
		d.logger.Warn("state sync degraded", "path", "control_plane", "run_id", runID, "error", err)
	}
}

// CreateStepRecord registers the planned step on both paths. When the
// control plane cannot assign an id the composite step-run id stands in, so
// later transitions still address the record.
func (d *DualSink) CreateStepRecord(ctx context.Context, runID string, record models.StepRecord) string {
	if err := d.shadow.WriteStepRecord(ctx, runID, record); err != nil {
		d.logger.Warn("state sync degraded", "path", "shadow", "run_id", runID, "step_id", record.StepID, "error", err)
	}
	id, err := d.controlPlane.CreateStep(ctx, runID, record)
	if err != nil {
		d.logger.Warn("state sync degraded", "path", "control_plane", "run_id", runID, "step_id", record.StepID, "error", err)
		return models.StepRunID(runID, record.StepID)
	}
	return id
}

// RecordStepTransition mirrors the update to Redis and patches the control
// plane record.
func (d *DualSink) RecordStepTransition(ctx context.Context, runID, stepID string, update models.StepUpdate) {
	if err := d.shadow.WriteStepUpdate(ctx, runID, stepID, update); err != nil {
		d.logger.Warn("state sync degraded", "path", "shadow", "run_id", runID, "step_id", stepID, "error", err)
	}
	if err := d.controlPlane.UpdateStep(ctx, runID, stepID, update); err != nil {
		d.logger.Warn("state sync degraded", "path", "control_plane", "run_id", runID, "step_id", stepID, "error", err)
	}
}

// Approval reads the gate marker from the shadow store. A read failure
// reports the marker as absent; the gate stays closed.
func (d *DualSink) Approval(ctx context.Context, runID, stepID string) (models.ApprovalMarker, bool) {
	marker, ok, err := d.shadow.Approval(ctx, runID, stepID)
	if err != nil {
		d.logger.Warn("state sync degraded", "path", "shadow", "run_id", runID, "step_id", stepID, "error", err)
		return models.ApprovalMarker{}, false
	}
	return marker, ok
}

// PutApproval stores the gate marker in the shadow store.
func (d *DualSink) PutApproval(ctx context.Context, runID, stepID string, marker models.ApprovalMarker) {
	if err := d.shadow.PutApproval(ctx, runID, stepID, marker); err != nil {
		d.logger.Warn("state sync degraded", "path", "shadow", "run_id", runID, "step_id", stepID, "error", err)
	}
}
