package tools

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
)

// decodeArgs decodes raw tool arguments into a typed struct. Decoding is
// weakly typed: MCP clients routinely send integers as floats and booleans
// as strings.
func decodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("tools: failed to create argument decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func errMissing(name string) error {
	return fmt.Errorf("missing required argument %q", name)
}

// getMap returns v[key] as an object, or nil when absent or not an object.
func getMap(v any, key string) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	child, ok := m[key].(map[string]any)
	if !ok {
		return nil
	}
	return child
}

// asList normalizes a value to a list. The API collapses single-element
// arrays to bare values, so callers cannot rely on the JSON shape.
func asList(v any) []any {
	if v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// asString returns v as a string, or "" for non-strings.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// sortedKeys returns the keys of m in sorted order, for deterministic
// query construction from map arguments.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// dig walks nested objects along path and returns the value at the end,
// or nil when any step is missing.
func dig(v any, path ...string) any {
	current := v
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[key]
		if !ok {
			return nil
		}
	}
	return current
}
