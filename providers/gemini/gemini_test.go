package gemini

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/agents"
)

type greetArgs struct {
	Name string `json:"name" description:"Who to greet"`
	Unit string `json:"unit" enum:"formal,casual" default:"formal"`
}

func newRegistry(t *testing.T) *agents.Registry {
	t.Helper()
	greet, err := agents.NewAgent("greet", "greets a person", func(_ context.Context, a greetArgs) (string, error) {
		return fmt.Sprintf("Hello, %s!", a.Name), nil
	})
	require.NoError(t, err)
	reg := agents.NewRegistry()
	require.NoError(t, reg.Register(greet))
	return reg
}

func TestAdapter_Tools(t *testing.T) {
	t.Parallel()
	adapter := New(newRegistry(t))
	tools := adapter.Tools()
	require.Len(t, tools, 1)
	require.Len(t, tools[0].FunctionDeclarations, 1)
	decl := tools[0].FunctionDeclarations[0]
	assert.Equal(t, "greet", decl.Name)
	assert.Equal(t, "greets a person", decl.Description)
	require.NotNil(t, decl.Parameters)
	assert.Equal(t, genai.TypeObject, decl.Parameters.Type)
	assert.Empty(t, decl.Parameters.Description, "the description moves to the declaration")
	name, ok := decl.Parameters.Properties["name"]
	require.True(t, ok)
	assert.Equal(t, genai.TypeString, name.Type)
	assert.Equal(t, "Who to greet", name.Description)
	unit, ok := decl.Parameters.Properties["unit"]
	require.True(t, ok)
	assert.Equal(t, []string{"formal", "casual"}, unit.Enum)
	assert.Equal(t, []string{"name"}, decl.Parameters.Required)
}

func TestConvertSchema(t *testing.T) {
	t.Parallel()
	node := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count": map[string]any{"type": "integer", "description": "How many"},
			"ratio": map[string]any{"type": "number"},
			"on":    map[string]any{"type": "boolean"},
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"nested": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"inner": map[string]any{"type": "string"},
				},
				"required": []any{"inner"},
			},
		},
		"required": []any{"count"},
	}
	s := convertSchema(node)
	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, genai.TypeInteger, s.Properties["count"].Type)
	assert.Equal(t, "How many", s.Properties["count"].Description)
	assert.Equal(t, genai.TypeNumber, s.Properties["ratio"].Type)
	assert.Equal(t, genai.TypeBoolean, s.Properties["on"].Type)
	assert.Equal(t, genai.TypeArray, s.Properties["tags"].Type)
	require.NotNil(t, s.Properties["tags"].Items)
	assert.Equal(t, genai.TypeString, s.Properties["tags"].Items.Type)
	nested := s.Properties["nested"]
	assert.Equal(t, genai.TypeObject, nested.Type)
	assert.Equal(t, []string{"inner"}, nested.Required)
	assert.Equal(t, []string{"count"}, s.Required)
}

func TestConvertSchema_Nil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, convertSchema(nil))
}

func TestAdapter_ExtractRequest(t *testing.T) {
	t.Parallel()
	adapter := New(newRegistry(t))
	fc := genai.FunctionCall{
		Name: "greet",
		Args: map[string]any{"name": "Alice"},
	}
	req := adapter.ExtractRequest(fc)
	assert.Equal(t, "greet", req.Name)
	assert.Equal(t, map[string]any{"name": "Alice"}, req.Arguments)
	assert.Nil(t, req.Extras)
}

func TestAdapter_RoundTrip(t *testing.T) {
	t.Parallel()
	reg := newRegistry(t)
	adapter := New(reg)
	fc := genai.FunctionCall{Name: "greet", Args: map[string]any{"name": "Alice"}}
	results, err := reg.Invoke(context.Background(), adapter.ExtractRequest(fc))
	require.NoError(t, err)
	res := results["greet"]
	require.NoError(t, res.Err)
	assert.JSONEq(t, `"Hello, Alice!"`, string(res.Value))
}
