package agents

import "context"

// agentOptions hold optional per-agent settings.
type agentOptions struct {
	strict bool
}

// AgentOption configures an agent built by NewAgent or NewAsyncAgent.
type AgentOption func(*agentOptions)

// WithStrict builds the agent's own schema in strict mode:
// additionalProperties: false on every object node, and validation rejects
// unknown fields. Adapters that need a strict rendering of a non-strict agent
// use StrictSchema instead.
func WithStrict() AgentOption {
	return func(o *agentOptions) {
		o.strict = true
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	recoverPanics bool
	onBefore      func(context.Context, Request)
	onAfter       func(context.Context, Request, Result)
}

// WithRecoverPanics controls whether a panic in an agent function is
// recovered and returned as *ExecutionError (default true). Disable to let
// panics crash tests loudly.
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.recoverPanics = enable
	}
}

// WithOnBeforeInvoke sets a hook called before each agent invocation.
func WithOnBeforeInvoke(fn func(context.Context, Request)) RegistryOption {
	return func(o *registryOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterInvoke sets a hook called after each agent invocation with the
// final Result (value or error). Hooks run on the invoking goroutine and must
// be safe for concurrent use when batches are dispatched.
func WithOnAfterInvoke(fn func(context.Context, Request, Result)) RegistryOption {
	return func(o *registryOptions) {
		o.onAfter = fn
	}
}
