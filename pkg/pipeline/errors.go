package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrPipelineMalformed is returned for duplicate node ids or edges
	// referencing nodes that do not exist.
	ErrPipelineMalformed = errors.New("malformed pipeline")

	// ErrPipelineCyclic is returned when the graph has no topological
	// order.
	ErrPipelineCyclic = errors.New("pipeline contains a cycle")

	// ErrToolDenied is returned when run policies forbid a tool.
	ErrToolDenied = errors.New("not allowed by policy")
)

// StepError ties a failure to the node where it happened.
type StepError struct {
	NodeID string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.NodeID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
