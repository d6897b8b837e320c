package agents

import (
	"context"
	"encoding/json"
)

// Agent is the contract for an LLM-callable function. It is provider-agnostic
// (no knowledge of OpenAI, Anthropic, etc.). Implementations are built with
// NewAgent or NewAsyncAgent.
type Agent interface {
	Metadata() Metadata
	// Invoke validates argsJSON against the agent's schema, applies declared
	// defaults, calls the underlying function, and returns its marshaled result.
	Invoke(ctx context.Context, argsJSON []byte) (json.RawMessage, error)
}

// Metadata describes a registered agent. It is built once at construction and
// immutable afterwards; the schema it carries is the exact schema used to
// validate incoming arguments.
type Metadata struct {
	Name        string
	Description string
	// IsAsync reports whether the underlying function returns a Promise
	// (NewAsyncAgent) rather than a value directly (NewAgent).
	IsAsync bool

	schema map[string]any
}

// InputSchema returns a deep copy of the agent's parameter schema:
// {type: "object", properties, required, description}. Adapters may mutate
// the copy freely (e.g. delete the description key before embedding it in a
// provider envelope).
func (m Metadata) InputSchema() map[string]any {
	return deepCopySchema(m.schema)
}

// Request is a single execution request, as extracted from a provider
// response. Arguments is either a JSON-encoded string, a []byte /
// json.RawMessage, or an already-structured map. Extras is opaque correlation
// data (e.g. a provider tool-call ID) echoed back in the matching Result.
type Request struct {
	Name      string
	Arguments any
	Extras    any
}

// Result pairs an agent's marshaled return value with the Extras of the
// Request that produced it. Err is set instead of Value when that request
// failed; other requests in the same batch are unaffected.
type Result struct {
	Value  json.RawMessage
	Extras any
	Err    error
}

// MetadataOf returns the Metadata of v, or ErrNotAnAgent if v was not built
// with NewAgent or NewAsyncAgent (or does not otherwise implement Agent).
func MetadataOf(v any) (Metadata, error) {
	a, ok := v.(Agent)
	if !ok || a == nil {
		return Metadata{}, ErrNotAnAgent
	}
	return a.Metadata(), nil
}
