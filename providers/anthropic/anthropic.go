// Package anthropic renders an agents.Registry in the Anthropic Messages
// tool format and extracts invocation requests from tool_use content blocks.
package anthropic

import (
	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/skosovsky/agents"
)

// Adapter wraps a Registry for the Anthropic tool-use API. It only formats
// and extracts; it never calls the API itself.
type Adapter struct {
	registry *agents.Registry
}

// New creates an Adapter over reg.
func New(reg *agents.Registry) *Adapter {
	return &Adapter{registry: reg}
}

// Tools returns one tool definition per registered agent, name-sorted.
// Anthropic carries the description in its own field, so only the properties
// and required parts of the schema go into input_schema.
func (a *Adapter) Tools() []sdk.ToolUnionParam {
	list := a.registry.Agents()
	tools := make([]sdk.ToolUnionParam, 0, len(list))
	for _, ag := range list {
		meta := ag.Metadata()
		schema := meta.InputSchema()
		tool := sdk.ToolParam{
			Name:        meta.Name,
			Description: sdk.String(meta.Description),
			InputSchema: sdk.ToolInputSchemaParam{
				Properties: schema["properties"],
				Required:   requiredNames(schema),
			},
		}
		tools = append(tools, sdk.ToolUnionParam{OfTool: &tool})
	}
	return tools
}

// ExtractRequest pulls the agent name and structured arguments out of a
// tool_use block. The block ID rides along in Extras so the caller can pair
// the eventual result with its tool_result block.
func (a *Adapter) ExtractRequest(block sdk.ToolUseBlock) agents.Request {
	return agents.Request{
		Name:      block.Name,
		Arguments: block.Input,
		Extras:    block.ID,
	}
}

// requiredNames converts the schema's required array back to []string for
// the SDK param type.
func requiredNames(schema map[string]any) []string {
	raw, ok := schema["required"].([]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	return names
}
