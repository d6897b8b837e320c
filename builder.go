package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// agent is the internal implementation of Agent built by NewAgent and
// NewAsyncAgent.
type agent struct {
	meta   Metadata
	invoke func(ctx context.Context, argsJSON []byte) (json.RawMessage, error)
}

func (a *agent) Metadata() Metadata { return a.meta }

func (a *agent) Invoke(ctx context.Context, argsJSON []byte) (json.RawMessage, error) {
	return a.invoke(ctx, argsJSON)
}

// NewAgent builds an Agent from a synchronous function. Schema and validation
// are delegated to Extractor[T]; the argument struct's json, description,
// enum, and default tags drive the schema the provider sees.
//
// name falls back to the function's own identifier when empty. description is
// required (ErrMissingDescription); it is what the LLM reads to decide when
// to call the agent. An error returned by fn is wrapped as *ExecutionError.
func NewAgent[T any, R any](
	name, description string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...AgentOption,
) (Agent, error) {
	if fn == nil {
		return nil, fmt.Errorf("agent %q: function must not be nil", name)
	}
	meta, ext, err := buildMetadata[T](name, description, reflect.ValueOf(fn), false, opts)
	if err != nil {
		return nil, err
	}
	invoke := func(ctx context.Context, argsJSON []byte) (json.RawMessage, error) {
		args, err := ext.ParseAndValidate(argsJSON)
		if err != nil {
			return nil, err
		}
		out, err := fn(ctx, args)
		if err != nil {
			return nil, &ExecutionError{Agent: meta.Name, Err: err}
		}
		return marshalResult(meta.Name, out)
	}
	return &agent{meta: meta, invoke: invoke}, nil
}

// NewAsyncAgent builds an Agent from an asynchronous function: fn returns a
// Promise immediately and the dispatcher awaits it (IsAsync is set on the
// metadata). Name, description, and schema handling match NewAgent.
func NewAsyncAgent[T any, R any](
	name, description string,
	fn func(ctx context.Context, args T) *Promise[R],
	opts ...AgentOption,
) (Agent, error) {
	if fn == nil {
		return nil, fmt.Errorf("agent %q: function must not be nil", name)
	}
	meta, ext, err := buildMetadata[T](name, description, reflect.ValueOf(fn), true, opts)
	if err != nil {
		return nil, err
	}
	invoke := func(ctx context.Context, argsJSON []byte) (json.RawMessage, error) {
		args, err := ext.ParseAndValidate(argsJSON)
		if err != nil {
			return nil, err
		}
		promise := fn(ctx, args)
		if promise == nil {
			return nil, &ExecutionError{Agent: meta.Name, Err: errors.New("returned a nil promise")}
		}
		out, err := promise.Await(ctx)
		if err != nil {
			return nil, &ExecutionError{Agent: meta.Name, Err: err}
		}
		return marshalResult(meta.Name, out)
	}
	return &agent{meta: meta, invoke: invoke}, nil
}

// buildMetadata resolves name and description, generates the schema once via
// the extractor, and assembles the immutable Metadata both constructors share.
func buildMetadata[T any](name, description string, fnVal reflect.Value, isAsync bool, opts []AgentOption) (Metadata, *Extractor[T], error) {
	var o agentOptions
	for _, opt := range opts {
		opt(&o)
	}
	if name == "" {
		name = functionName(fnVal)
	}
	if name == "" {
		return Metadata{}, nil, errors.New("agent name could not be resolved; pass one explicitly")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return Metadata{}, nil, fmt.Errorf("agent %q: %w", name, ErrMissingDescription)
	}
	ext, err := NewExtractor[T](o.strict)
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("agent %q: %w", name, err)
	}
	schema := ext.Schema()
	schema["description"] = description
	meta := Metadata{
		Name:        name,
		Description: description,
		IsAsync:     isAsync,
		schema:      schema,
	}
	return meta, ext, nil
}

func marshalResult(name string, out any) (json.RawMessage, error) {
	data, err := json.Marshal(out)
	if err != nil {
		return nil, &ExecutionError{Agent: name, Err: err}
	}
	return data, nil
}

// functionName derives an agent name from the function symbol, e.g.
// "github.com/acme/pkg.Greet" -> "Greet" and bound methods
// "pkg.(*Svc).Lookup-fm" -> "Lookup". Anonymous functions yield their
// compiler-assigned "funcN" names; pass an explicit name for those.
func functionName(fnVal reflect.Value) string {
	if fnVal.Kind() != reflect.Func {
		return ""
	}
	rf := runtime.FuncForPC(fnVal.Pointer())
	if rf == nil {
		return ""
	}
	name := rf.Name()
	name = name[strings.LastIndex(name, "/")+1:]
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

var _ Agent = (*agent)(nil)
