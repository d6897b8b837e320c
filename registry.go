package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/sourcegraph/conc/pool"
)

// Registry holds a name-indexed set of agents and dispatches invocation
// requests to them.
//
// Registration happens once at startup: Register every agent, optionally
// Use middlewares, then dispatch. The name map is read-only during dispatch,
// so concurrent Call and Invoke batches need no locking; Register and Use
// are not safe to run concurrently with dispatch.
type Registry struct {
	agents    map[string]Agent // wrapped with middlewares, used for dispatch
	rawAgents map[string]Agent // unwrapped, used by Use to re-apply middlewares from scratch
	mws       []Middleware
	opts      registryOptions
}

// NewRegistry creates an empty Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{recoverPanics: true}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		agents:    make(map[string]Agent),
		rawAgents: make(map[string]Agent),
		opts:      o,
	}
}

// Register adds agents, keyed by their resolved names. A name that is
// already taken fails the whole call with ErrDuplicateAgent and registers
// none of the arguments; re-registering under the same name is a caller
// error, not a silent replace.
func (r *Registry) Register(list ...Agent) error {
	for _, a := range list {
		if a == nil {
			return errors.New("agent must not be nil")
		}
		name := a.Metadata().Name
		if _, exists := r.rawAgents[name]; exists {
			return fmt.Errorf("agent %q: %w", name, ErrDuplicateAgent)
		}
	}
	for _, a := range list {
		name := a.Metadata().Name
		r.rawAgents[name] = a
		r.agents[name] = applyMiddlewares(a, r.mws)
	}
	return nil
}

// Use stores the given middlewares and reapplies them from scratch to all
// registered agents (onion order: first middleware is outermost). Agents
// registered after Use also get them. Calling Use again replaces the chain
// and rewraps from the raw agents, avoiding double-wrapping.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mws = middlewares
	for name, raw := range r.rawAgents {
		r.agents[name] = applyMiddlewares(raw, middlewares)
	}
}

// Agents returns all registered agents (e.g. for exporting to LLM
// providers), sorted by name for deterministic order.
func (r *Registry) Agents() []Agent {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]Agent, 0, len(names))
	for _, name := range names {
		out = append(out, r.agents[name])
	}
	return out
}

// Get returns the agent registered under name (after middlewares), or
// (nil, false) if there is none.
func (r *Registry) Get(name string) (Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// Call looks up and invokes one agent synchronously. arguments is a
// JSON-encoded string, []byte / json.RawMessage, or a structured map.
// Fails with ErrUnknownAgent for an unregistered name, *ArgumentError for
// payloads the schema rejects, and *ExecutionError for errors raised by the
// agent function itself. ctx may be nil; context.Background() is used then.
func (r *Registry) Call(ctx context.Context, name string, arguments any) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	a, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", name, ErrUnknownAgent)
	}
	return r.invokeOne(ctx, a, Request{Name: name, Arguments: arguments})
}

// Invoke dispatches one or more requests concurrently and returns the
// results keyed by agent name. Zero requests fail with ErrEmptyBatch. Every
// target name is resolved before anything executes, so an unknown name fails
// the whole batch synchronously with ErrUnknownAgent and no agent runs.
//
// All requests are submitted before any is awaited; completion order across
// the batch is unspecified. Errors are collected, not fatal: each Result
// carries its own Err and one failing agent never cancels its siblings. If
// two requests target the same agent name, the later request's result
// overwrites the earlier in the returned map — a known collision policy of
// the name-keyed result shape, not a bug.
func (r *Registry) Invoke(ctx context.Context, reqs ...Request) (map[string]Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}
	targets := make([]Agent, len(reqs))
	for i, req := range reqs {
		a, ok := r.agents[req.Name]
		if !ok {
			return nil, fmt.Errorf("agent %q: %w", req.Name, ErrUnknownAgent)
		}
		targets[i] = a
	}

	type entry struct {
		index int
		name  string
		res   Result
	}
	p := pool.NewWithResults[entry]()
	for i, req := range reqs {
		target := targets[i]
		p.Go(func() entry {
			value, err := r.invokeOne(ctx, target, req)
			return entry{
				index: i,
				name:  req.Name,
				res:   Result{Value: value, Extras: req.Extras, Err: err},
			}
		})
	}
	entries := p.Wait()
	// Pool results arrive in completion order; fold in submission order so
	// the duplicate-name overwrite policy is deterministic.
	slices.SortFunc(entries, func(a, b entry) int { return a.index - b.index })
	out := make(map[string]Result, len(entries))
	for _, e := range entries {
		out[e.name] = e.res
	}
	return out, nil
}

// invokeOne runs one agent with panic recovery and the before/after hooks.
func (r *Registry) invokeOne(ctx context.Context, a Agent, req Request) (value json.RawMessage, err error) {
	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, req)
	}
	if r.opts.onAfter != nil {
		defer func() {
			r.opts.onAfter(ctx, req, Result{Value: value, Extras: req.Extras, Err: err})
		}()
	}
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				value = nil
				err = &ExecutionError{Agent: req.Name, Err: &panicError{p: p}}
			}
		}()
	}
	argsJSON, err := NormalizeArguments(req.Arguments)
	if err != nil {
		return nil, err
	}
	return a.Invoke(ctx, argsJSON)
}
