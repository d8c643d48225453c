package models

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusPending       RunStatus = "pending"
	RunStatusRunning       RunStatus = "running"
	RunStatusCompleted     RunStatus = "completed"
	RunStatusFailed        RunStatus = "failed"
	RunStatusNeedsApproval RunStatus = "needs_approval"
)

// StepStatus is the lifecycle state of a single step run.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// Approval gate decisions.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
)

// StepRunID returns the deterministic composite identity of a step run,
// used when the control plane does not assign one.
func StepRunID(runID, stepID string) string {
	return runID + ":step:" + stepID
}

// RunUpdate is a partial run mutation pushed through the state sink. The
// control plane owns the canonical record; only set fields are written.
type RunUpdate struct {
	Status       RunStatus `json:"status"`
	StartedAt    string    `json:"startedAt,omitempty"`
	FinishedAt   string    `json:"finishedAt,omitempty"`
	Outputs      string    `json:"outputs,omitempty"`
	Cost         *float64  `json:"cost,omitempty"`
	TokensUsed   *int      `json:"tokensUsed,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// StepRecord contains fields for creating a new step-run record.
type StepRecord struct {
	StepID     string     `json:"stepId"`
	StepType   NodeType   `json:"stepType"`
	ToolUsed   string     `json:"toolUsed,omitempty"`
	Status     StepStatus `json:"status"`
	OrderIndex int        `json:"orderIndex"`
	Inputs     string     `json:"inputs,omitempty"`
}

// StepUpdate is a partial step-run mutation.
type StepUpdate struct {
	Status       StepStatus `json:"status"`
	StartedAt    string     `json:"startedAt,omitempty"`
	FinishedAt   string     `json:"finishedAt,omitempty"`
	Inputs       string     `json:"inputs,omitempty"`
	Outputs      string     `json:"outputs,omitempty"`
	Cost         *float64   `json:"cost,omitempty"`
	TokensUsed   *int       `json:"tokensUsed,omitempty"`
	LatencyMs    *int64     `json:"latencyMs,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// ApprovalMarker records the decision state of an approval gate.
type ApprovalMarker struct {
	Decision    string `json:"decision"`
	RequestedAt string `json:"requestedAt,omitempty"`
	DecidedAt   string `json:"decidedAt,omitempty"`
}
