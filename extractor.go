package agents

import (
	"encoding/json"
	"strings"
)

// Extractor provides JSON Schema generation and validated parsing for an
// argument type T without binding to the Agent interface. Use it in custom
// orchestrators that need schema export and validated argument
// reconstruction but not the Registry dispatch pipeline.
type Extractor[T any] struct {
	compiled *compiledSchema
}

// NewExtractor creates an Extractor for type T. When strict is true, the
// generated schema has additionalProperties: false for all objects and
// validation rejects unknown fields.
func NewExtractor[T any](strict bool) (*Extractor[T], error) {
	compiled, err := generateSchema[T](strict)
	if err != nil {
		return nil, err
	}
	return &Extractor[T]{compiled: compiled}, nil
}

// Schema returns a deep copy of the JSON Schema for T. Callers may mutate
// the copy freely.
func (e *Extractor[T]) Schema() map[string]any {
	return deepCopySchema(e.compiled.schema)
}

// ParseAndValidate reconstructs a typed T from raw arguments: a JSON-encoded
// string, []byte / json.RawMessage, or an already-structured map. Declared
// defaults are applied for omitted fields before validation, so validating
// the result of a previous parse yields the same values. Returns an
// ArgumentError (wrapping ErrValidation) for invalid JSON, type mismatches,
// missing required fields, or unknown fields under strict mode.
func (e *Extractor[T]) ParseAndValidate(raw any) (T, error) {
	var zero T
	argsJSON, err := NormalizeArguments(raw)
	if err != nil {
		return zero, err
	}
	var v any
	if err := json.Unmarshal(argsJSON, &v); err != nil {
		return zero, wrapJSONParseError(err)
	}
	if m, ok := v.(map[string]any); ok {
		applyDefaults(e.compiled.schema, m)
		v = m
		if argsJSON, err = json.Marshal(m); err != nil {
			return zero, wrapJSONParseError(err)
		}
	}
	if err := e.compiled.resolved.Validate(v); err != nil {
		return zero, &ArgumentError{Reason: err.Error(), Err: ErrValidation}
	}
	var args T
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		return zero, wrapJSONParseError(err)
	}
	return args, nil
}

// NormalizeArguments converts the raw argument forms providers produce into
// a JSON payload: strings are taken as already-encoded JSON (OpenAI sends
// arguments this way), []byte and json.RawMessage pass through, and any
// other value (e.g. the structured maps Anthropic and Gemini return) is
// marshaled. Nil and empty inputs normalize to an empty object so agents
// whose fields all carry defaults accept an empty call.
func NormalizeArguments(raw any) (json.RawMessage, error) {
	emptyObject := json.RawMessage(`{}`)
	switch v := raw.(type) {
	case nil:
		return emptyObject, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return emptyObject, nil
		}
		return json.RawMessage(v), nil
	case json.RawMessage:
		if len(v) == 0 {
			return emptyObject, nil
		}
		return v, nil
	case []byte:
		if len(v) == 0 {
			return emptyObject, nil
		}
		return json.RawMessage(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, wrapJSONParseError(err)
		}
		return data, nil
	}
}
