// Package openai renders an agents.Registry in the OpenAI chat completions
// tool format and extracts invocation requests from OpenAI tool calls.
package openai

import (
	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/skosovsky/agents"
)

// Adapter wraps a Registry for the OpenAI tool-calling API. It only formats
// and extracts; it never calls the API itself.
type Adapter struct {
	registry *agents.Registry
	strict   bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithStrict controls OpenAI structured-outputs strict mode (default true):
// every object node in the transmitted schema gets additionalProperties:
// false and the function definition carries strict: true.
func WithStrict(strict bool) Option {
	return func(a *Adapter) {
		a.strict = strict
	}
}

// New creates an Adapter over reg.
func New(reg *agents.Registry, opts ...Option) *Adapter {
	a := &Adapter{registry: reg, strict: true}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Tools returns one tool definition per registered agent, name-sorted. The
// agent description is surfaced through the function description field, so
// the description key is removed from the parameters schema itself.
func (a *Adapter) Tools() []oai.ChatCompletionToolParam {
	list := a.registry.Agents()
	tools := make([]oai.ChatCompletionToolParam, 0, len(list))
	for _, ag := range list {
		meta := ag.Metadata()
		schema := meta.InputSchema()
		delete(schema, "description")
		if a.strict {
			schema = agents.StrictSchema(schema)
		}
		tools = append(tools, oai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        meta.Name,
				Description: param.NewOpt(meta.Description),
				Strict:      param.NewOpt(a.strict),
				Parameters:  shared.FunctionParameters(schema),
			},
		})
	}
	return tools
}

// ExtractRequest pulls the agent name and raw JSON arguments out of an
// OpenAI tool call. The tool-call ID rides along in Extras so the caller can
// pair the eventual result with the provider's tool message.
func (a *Adapter) ExtractRequest(tc oai.ChatCompletionMessageToolCall) agents.Request {
	return agents.Request{
		Name:      tc.Function.Name,
		Arguments: tc.Function.Arguments,
		Extras:    tc.ID,
	}
}
