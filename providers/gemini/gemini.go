// Package gemini renders an agents.Registry as Gemini function declarations
// and extracts invocation requests from genai function calls.
package gemini

import (
	"github.com/google/generative-ai-go/genai"

	"github.com/skosovsky/agents"
)

// Adapter wraps a Registry for the Gemini function-calling API. It only
// formats and extracts; it never calls the API itself.
type Adapter struct {
	registry *agents.Registry
}

// New creates an Adapter over reg.
func New(reg *agents.Registry) *Adapter {
	return &Adapter{registry: reg}
}

// Tools returns one Tool per registered agent, name-sorted, each carrying a
// single function declaration. The genai SDK takes a typed *genai.Schema
// rather than a plain map, so the agent schema is converted field by field;
// the top-level description moves to the declaration and is not repeated on
// the parameters object.
func (a *Adapter) Tools() []*genai.Tool {
	list := a.registry.Agents()
	tools := make([]*genai.Tool, 0, len(list))
	for _, ag := range list {
		meta := ag.Metadata()
		schema := meta.InputSchema()
		delete(schema, "description")
		tools = append(tools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        meta.Name,
					Description: meta.Description,
					Parameters:  convertSchema(schema),
				},
			},
		})
	}
	return tools
}

// ExtractRequest pulls the agent name and structured arguments out of a
// function call. Gemini function calls carry no correlation ID, so Extras is
// nil.
func (a *Adapter) ExtractRequest(fc genai.FunctionCall) agents.Request {
	return agents.Request{
		Name:      fc.Name,
		Arguments: fc.Args,
	}
}

// convertSchema maps a plain JSON Schema node onto the genai typed schema,
// recursing through object properties and array items. Nodes the genai type
// system cannot express (additionalProperties, defaults) are dropped; the
// registry still enforces them at dispatch time.
func convertSchema(node map[string]any) *genai.Schema {
	if node == nil {
		return nil
	}
	out := &genai.Schema{}
	if desc, ok := node["description"].(string); ok {
		out.Description = desc
	}
	if format, ok := node["format"].(string); ok {
		out.Format = format
	}
	switch node["type"] {
	case "string":
		out.Type = genai.TypeString
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
		if items, ok := node["items"].(map[string]any); ok {
			out.Items = convertSchema(items)
		}
	case "object":
		out.Type = genai.TypeObject
	default:
		out.Type = genai.TypeUnspecified
	}
	if props, ok := node["properties"].(map[string]any); ok {
		if out.Type == genai.TypeUnspecified {
			out.Type = genai.TypeObject
		}
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, val := range props {
			if prop, ok := val.(map[string]any); ok {
				out.Properties[name] = convertSchema(prop)
			}
		}
	}
	if raw, ok := node["required"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	if raw, ok := node["enum"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}
	return out
}
