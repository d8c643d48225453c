package tools

import "errors"

var (
	// ErrToolUnknown is returned when a step names a tool the registry
	// does not provide.
	ErrToolUnknown = errors.New("unknown tool")

	// ErrToolFailure wraps errors from a tool's backing service.
	ErrToolFailure = errors.New("tool execution failed")
)
