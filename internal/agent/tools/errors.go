package tools

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Registry.Get when no tool is registered under the
// requested name. The orchestrator treats it as a recoverable, per-call error.
var ErrNotFound = errors.New("tool not found")

// InvocationError wraps any failure raised while executing a tool, including
// argument validation failures. It carries the tool name so the failure can be
// reported back to the model as text.
type InvocationError struct {
	Tool string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
