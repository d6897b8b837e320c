package openai

import (
	"context"
	"fmt"
	"testing"

	oai "github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/agents"
)

type greetArgs struct {
	Name string `json:"name" description:"Who to greet"`
	Unit string `json:"unit" default:"formal"`
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

func TestAdapter_Tools_Strict(t *testing.T) {
	t.Parallel()
	adapter := New(newRegistry(t))
	tools := adapter.Tools()
	require.Len(t, tools, 1)
	fn := tools[0].Function
	assert.Equal(t, "greet", fn.Name)
	assert.Equal(t, "greets a person", fn.Description.Value)
	assert.True(t, fn.Strict.Value)

	params := map[string]any(fn.Parameters)
	_, hasDesc := params["description"]
	assert.False(t, hasDesc, "description lives in the function field, not the schema")
	assert.Equal(t, false, params["additionalProperties"], "strict tools close their object schemas")
	props, ok := params["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "unit")
	required, ok := params["required"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"name"}, required, "defaulted fields stay optional even under strict")
}

func TestAdapter_Tools_NonStrict(t *testing.T) {
	t.Parallel()
	adapter := New(newRegistry(t), WithStrict(false))
	tools := adapter.Tools()
	require.Len(t, tools, 1)
	fn := tools[0].Function
	assert.False(t, fn.Strict.Value)
	params := map[string]any(fn.Parameters)
	_, has := params["additionalProperties"]
	assert.False(t, has, "non-strict schemas never carry additionalProperties")
}

func TestAdapter_Tools_DoesNotMutateAgentSchema(t *testing.T) {
	t.Parallel()
	reg := newRegistry(t)
	adapter := New(reg)
	_ = adapter.Tools()
	ag, ok := reg.Get("greet")
	require.True(t, ok)
	schema := ag.Metadata().InputSchema()
	assert.Equal(t, "greets a person", schema["description"], "stripping the envelope copy must not touch the agent")
	_, has := schema["additionalProperties"]
	assert.False(t, has)
}

func TestAdapter_ExtractRequest(t *testing.T) {
	t.Parallel()
	adapter := New(newRegistry(t))
	var tc oai.ChatCompletionMessageToolCall
	tc.ID = "call_abc"
	tc.Function.Name = "greet"
	tc.Function.Arguments = `{"name":"Alice"}`

	req := adapter.ExtractRequest(tc)
	assert.Equal(t, "greet", req.Name)
	assert.Equal(t, `{"name":"Alice"}`, req.Arguments)
	assert.Equal(t, "call_abc", req.Extras)
}

// End to end: the arguments OpenAI hands back dispatch through the registry
// and the tool-call ID comes back in the result's extras.
func TestAdapter_RoundTrip(t *testing.T) {
	t.Parallel()
	reg := newRegistry(t)
	adapter := New(reg)
	var tc oai.ChatCompletionMessageToolCall
	tc.ID = "call_1"
	tc.Function.Name = "greet"
	tc.Function.Arguments = `{"name":"Alice"}`

	results, err := reg.Invoke(context.Background(), adapter.ExtractRequest(tc))
	require.NoError(t, err)
	res := results["greet"]
	require.NoError(t, res.Err)
	assert.JSONEq(t, `"Hello, Alice!"`, string(res.Value))
	assert.Equal(t, "call_1", res.Extras)
}
