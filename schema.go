package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// compiledSchema pairs the normalized schema map with its compiled validator.
// Shared between agents of the same argument type; treated as read-only.
type compiledSchema struct {
	schema   map[string]any
	resolved *jsonschema.Resolved
}

type schemaCacheKey struct {
	typ    reflect.Type
	strict bool
}

// schemaCache memoizes schema generation per (argument type, strict) pair.
// Deriving the schema involves reflection and a validator compile; doing it
// once per distinct type also guarantees two agents over the same arguments
// can never disagree on the schema.
var schemaCache sync.Map // schemaCacheKey -> *compiledSchema

// generateSchema produces the normalized JSON Schema map and a compiled
// validator for type T. strict sets additionalProperties: false for every
// object node (OpenAI structured outputs).
func generateSchema[T any](strict bool) (*compiledSchema, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	key := schemaCacheKey{typ: typ, strict: strict}
	if cached, ok := schemaCache.Load(key); ok {
		return cached.(*compiledSchema), nil
	}
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, errNilSchema
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return nil, err
	}
	inlineRefs(schemaMap)
	stripSchemaNoise(schemaMap)
	if err := annotateFromStructTags(schemaMap, typ); err != nil {
		return nil, err
	}
	if strict {
		applyStrictMode(schemaMap)
	}
	resolved, err := compileRawSchema(schemaMap)
	if err != nil {
		return nil, err
	}
	cs := &compiledSchema{schema: schemaMap, resolved: resolved}
	actual, _ := schemaCache.LoadOrStore(key, cs)
	return actual.(*compiledSchema), nil
}

// maxInlineDepth bounds $ref expansion. jsonschema.For rejects cyclic types
// before generation ("cycle detected"), so generated schemas never hit the
// cap; it only guards schemas assembled by hand.
const maxInlineDepth = 32

// inlineRefs resolves every internal $ref against the top-level $defs (or
// definitions) section and drops that section once inlining is complete.
// Provider tool schemas must be fully self-contained: no $ref indirection
// survives in the returned map.
func inlineRefs(schemaMap map[string]any) {
	if schemaMap == nil {
		return
	}
	defs, _ := schemaMap["$defs"].(map[string]any)
	if defs == nil {
		defs, _ = schemaMap["definitions"].(map[string]any)
	}

	var resolveNode func(node map[string]any, depth int) map[string]any
	resolveChildren := func(node map[string]any, depth int) {
		for key, val := range node {
			switch v := val.(type) {
			case map[string]any:
				node[key] = resolveNode(v, depth)
			case []any:
				for i, item := range v {
					if m, ok := item.(map[string]any); ok {
						v[i] = resolveNode(m, depth)
					}
				}
			}
		}
	}
	resolveNode = func(node map[string]any, depth int) map[string]any {
		if depth < maxInlineDepth {
			if target := lookupDef(defs, node); target != nil {
				node = deepCopySchema(target)
			}
		}
		resolveChildren(node, depth+1)
		return node
	}

	// The root may itself be a bare $ref to a $defs entry; merge the target
	// into the root rather than replacing the map the caller holds.
	if target := lookupDef(defs, schemaMap); target != nil {
		delete(schemaMap, "$ref")
		for k, v := range deepCopySchema(target) {
			schemaMap[k] = v
		}
	}
	resolveChildren(schemaMap, 0)
	delete(schemaMap, "$defs")
	delete(schemaMap, "definitions")
}

// lookupDef returns the $defs entry a node's $ref points at, or nil if the
// node has no resolvable local $ref.
func lookupDef(defs map[string]any, node map[string]any) map[string]any {
	ref, ok := node["$ref"].(string)
	if !ok || defs == nil {
		return nil
	}
	name := ref[strings.LastIndex(ref, "/")+1:]
	target, ok := defs[name].(map[string]any)
	if !ok {
		return nil
	}
	return target
}

// stripSchemaNoise removes title, $id, and id keys from every schema node.
// Titles are cosmetic output of generic schema generation; ids would make the
// compiled validator resolution depend on them. additionalProperties is also
// dropped here: the generator closes struct schemas unconditionally, but open
// objects are the default and only strict mode closes them again. Only the
// boolean form goes; a subschema under additionalProperties (map-typed
// fields) stays.
func stripSchemaNoise(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		delete(n, "title")
		delete(n, "$id")
		delete(n, "id")
		if _, isBool := n["additionalProperties"].(bool); isBool {
			delete(n, "additionalProperties")
		}
	})
}

// Child keys of a schema node that hold a single subschema.
var schemaChildKeys = []string{
	"items", "additionalProperties", "additionalItems", "contains",
	"propertyNames", "not", "if", "then", "else",
}

// Child keys holding a list of subschemas.
var schemaChildListKeys = []string{"allOf", "anyOf", "oneOf", "prefixItems"}

// Child keys holding a name-to-subschema container map. The container's own
// keys are user-chosen names, so the container map itself is not a schema
// node and is never visited.
var schemaChildMapKeys = []string{
	"properties", "patternProperties", "$defs", "definitions",
}

// walkSchema recursively visits every schema node in the tree. A parameter
// named "title" or "id" lives as a key inside a properties container, not as
// a schema node, so the walk descends only through known subschema positions.
func walkSchema(schemaMap map[string]any, visit func(map[string]any)) {
	if schemaMap == nil {
		return
	}
	visit(schemaMap)
	for _, key := range schemaChildKeys {
		if m, ok := schemaMap[key].(map[string]any); ok {
			walkSchema(m, visit)
		}
	}
	for _, key := range schemaChildListKeys {
		list, ok := schemaMap[key].([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				walkSchema(m, visit)
			}
		}
	}
	for _, key := range schemaChildMapKeys {
		container, ok := schemaMap[key].(map[string]any)
		if !ok {
			continue
		}
		for _, val := range container {
			if m, ok := val.(map[string]any); ok {
				walkSchema(m, visit)
			}
		}
	}
}

// annotateFromStructTags walks the schema alongside the argument struct type
// and applies per-field tags: description, enum (comma-separated), and
// default. It then recomputes each object's required array as exactly the
// fields without a default, name-sorted. Recurses into nested object
// properties and array items.
func annotateFromStructTags(schemaMap map[string]any, typ reflect.Type) error {
	if schemaMap == nil || typ == nil {
		return nil
	}
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	switch typ.Kind() {
	case reflect.Slice, reflect.Array:
		if items, ok := schemaMap["items"].(map[string]any); ok {
			return annotateFromStructTags(items, typ.Elem())
		}
		return nil
	case reflect.Struct:
	default:
		return nil
	}
	props, ok := schemaMap["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return nil
	}

	jsonToField := collectFields(typ)

	required := make([]string, 0, len(props))
	for key, val := range props {
		prop, ok := val.(map[string]any)
		if !ok {
			continue
		}
		field, ok := jsonToField[key]
		if !ok {
			continue
		}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		if enumStr := field.Tag.Get("enum"); enumStr != "" {
			parts := strings.Split(enumStr, ",")
			enum := make([]any, len(parts))
			for i, p := range parts {
				enum[i] = strings.TrimSpace(p)
			}
			prop["enum"] = enum
		}
		if raw, hasDefault := field.Tag.Lookup("default"); hasDefault {
			def, err := parseDefaultTag(raw, field.Type)
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			prop["default"] = def
		} else {
			required = append(required, key)
		}
		if err := annotateFromStructTags(prop, field.Type); err != nil {
			return err
		}
	}
	slices.Sort(required)
	if len(required) > 0 {
		asAny := make([]any, len(required))
		for i, name := range required {
			asAny[i] = name
		}
		schemaMap["required"] = asAny
	} else {
		delete(schemaMap, "required")
	}
	return nil
}

// collectFields maps JSON property names to struct fields, flattening
// untagged anonymous struct fields the way encoding/json promotes them. At
// each level the named fields are recorded before descending, so an outer
// field shadows a promoted one with the same name.
func collectFields(typ reflect.Type) map[string]reflect.StructField {
	fields := make(map[string]reflect.StructField)
	var collect func(t reflect.Type, promoted bool)
	collect = func(t reflect.Type, promoted bool) {
		var embedded []reflect.Type
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous && field.Tag.Get("json") == "" {
				ft := field.Type
				for ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					embedded = append(embedded, ft)
					continue
				}
			}
			if !field.IsExported() {
				continue
			}
			name := strings.Split(field.Tag.Get("json"), ",")[0]
			if name == "-" {
				continue
			}
			if name == "" {
				name = field.Name
			}
			if _, taken := fields[name]; taken && promoted {
				continue
			}
			fields[name] = field
		}
		for _, ft := range embedded {
			collect(ft, true)
		}
	}
	collect(typ, false)
	return fields
}

// parseDefaultTag converts a default tag value to the JSON value it stands
// for. String-kinded fields take the tag verbatim; everything else is parsed
// as a JSON literal (numbers, booleans, arrays, objects).
func parseDefaultTag(raw string, typ reflect.Type) (any, error) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() == reflect.String {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("invalid default tag %q: %w", raw, err)
	}
	return v, nil
}

// applyDefaults fills declared defaults into args for every property the
// payload omits, recursing into nested objects the payload does include.
// Safe to run repeatedly: a present key is never touched.
func applyDefaults(schemaMap map[string]any, args map[string]any) {
	props, ok := schemaMap["properties"].(map[string]any)
	if !ok {
		return
	}
	for name, val := range props {
		prop, ok := val.(map[string]any)
		if !ok {
			continue
		}
		if _, present := args[name]; !present {
			if def, hasDefault := prop["default"]; hasDefault {
				args[name] = deepCopyValue(def)
			}
			continue
		}
		if nested, ok := args[name].(map[string]any); ok {
			applyDefaults(prop, nested)
		}
	}
}

// StrictSchema returns a deep copy of schema with additionalProperties: false
// set on every object node, nested objects included. The input is never
// mutated; schemas built without strict mode never carry the key.
func StrictSchema(schema map[string]any) map[string]any {
	out := deepCopySchema(schema)
	applyStrictMode(out)
	return out
}

// applyStrictMode closes every object in the schema against unknown fields.
func applyStrictMode(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		if _, isObj := n["properties"]; isObj {
			n["additionalProperties"] = false
		}
	})
}

// compileRawSchema compiles a raw JSON Schema map into a resolved validator.
// The map is not mutated.
func compileRawSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}

var errNilSchema = errors.New("schema reflection returned nil")

// deepCopySchema clones a schema map via a JSON round trip, the only copy
// that is safe to hand to callers who will mutate nested nodes.
func deepCopySchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// deepCopyValue clones a JSON-shaped value so a default injected into one
// payload is never aliased by the next.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return val
	}
}
