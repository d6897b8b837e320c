package agents

import (
	"errors"
	"fmt"
)

// Sentinel errors for agents. Use errors.Is to check.
var (
	// ErrMissingDescription is returned by NewAgent / NewAsyncAgent when no
	// description is supplied. Descriptions are what the LLM sees; an agent
	// without one is unusable.
	ErrMissingDescription = errors.New("agent description is required")
	// ErrNotAnAgent is returned by MetadataOf for values that were never
	// built as agents.
	ErrNotAnAgent = errors.New("value is not an agent")
	// ErrUnknownAgent is returned by Call and Invoke for names with no
	// registration.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrDuplicateAgent is returned by Register when the resolved name is
	// already taken. Registering two agents under one name is a caller error;
	// the first registration wins and the Register call fails.
	ErrDuplicateAgent = errors.New("agent already registered")
	// ErrEmptyBatch is returned by Invoke when called with zero requests.
	ErrEmptyBatch = errors.New("at least one request is required")
	// ErrValidation is wrapped by ArgumentError for errors.Is checks.
	ErrValidation = errors.New("argument validation failed")
)

// ArgumentError reports malformed, missing, or mismatched arguments. Reason
// carries the per-field detail from the schema validator and is safe to send
// back to the LLM for self-correction. It wraps ErrValidation.
type ArgumentError struct {
	Reason string
	Err    error
}

func (e *ArgumentError) Error() string {
	return "invalid agent arguments: " + e.Reason
}

// Unwrap supports errors.Is/errors.As on wrapped chains (e.g. errors.Is(err, ErrValidation)).
func (e *ArgumentError) Unwrap() error { return e.Err }

// ExecutionError wraps any error (or recovered panic) raised by the agent
// function itself, as opposed to lookup and validation errors raised before
// the function ran.
type ExecutionError struct {
	Agent string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("agent %q execution failed: %v", e.Agent, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// IsArgumentError returns true if err is or wraps an ArgumentError.
func IsArgumentError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}

// IsExecutionError returns true if err is or wraps an ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}

// wrapJSONParseError returns an ArgumentError for JSON unmarshal failures so
// parse errors read the same on every path (Call, Invoke, Extractor).
func wrapJSONParseError(err error) error {
	return &ArgumentError{Reason: "json parse error: " + err.Error(), Err: ErrValidation}
}

// panicError wraps a recovered panic value for ExecutionError; used by
// Registry and the WithRecovery middleware.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
