// Package agents turns plain Go functions into tools that LLM providers can
// invoke. A function is registered with a name and description; its argument
// struct drives a JSON Schema shown to the provider, and the same schema
// validates the arguments the provider sends back.
//
// # Overview
//
// LLMs produce tool calls as JSON. This package turns that JSON into concrete
// Go function calls: normalize (string or structured arguments) → apply
// declared defaults → validate against the schema → call the function →
// marshal the result or return a clear error.
//
// Pipeline: Go function + argument struct → NewAgent (reflection + schema) →
// Agent → Registry → Call / Invoke → result keyed by agent name.
//
// # Key concepts
//
//   - Single Source of Truth: the schema sent to the provider and the schema
//     used for validation are built from the same argument struct, once, at
//     agent construction. They cannot drift apart.
//   - Defaults drive required: a field with a default tag is optional and the
//     default is filled in when the argument is omitted; every other field is
//     listed in the schema's required array.
//   - Partial Success: Invoke collects all results; one failing agent does not
//     cancel the others in the batch.
//   - Mixed sync/async: NewAgent wraps a blocking function, NewAsyncAgent a
//     function returning a Promise. Invoke awaits both uniformly.
//
// Provider adapters live in providers/openai, providers/anthropic and
// providers/gemini. Each wraps a Registry, renders every agent's schema in
// that provider's tool envelope, and extracts Requests from that provider's
// response types. The core never talks to a provider itself.
//
// There are no timeouts or retries at this layer: a hung agent blocks its
// batch until it returns. Wrap agent functions with their own deadlines if
// they can hang.
//
// # Example
//
//	type Args struct {
//		Name string `json:"name" description:"Who to greet"`
//	}
//	greet, err := agents.NewAgent("greet", "greets a person",
//		func(_ context.Context, a Args) (string, error) {
//			return "Hello, " + a.Name + "!", nil
//		})
//	if err != nil { ... }
//	reg := agents.NewRegistry()
//	if err := reg.Register(greet); err != nil { ... }
//	out, err := reg.Call(ctx, "greet", `{"name":"Alice"}`)
package agents
