package client

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// cacheKey fingerprints a request as method + endpoint + canonical payload.
// Canonicalization sorts map keys recursively so logically identical requests
// collapse to the same key regardless of call-site parameter order.
func cacheKey(method, endpoint string, payload any) (string, error) {
	canonical, err := canonicalize(payload)
	if err != nil {
		return "", fmt.Errorf("client: failed to canonicalize request payload: %w", err)
	}

	hash := sha256.Sum256(append([]byte(method+" "+endpoint+" "), canonical...))
	return method + ":" + endpoint + ":" + hex.EncodeToString(hash[:8]), nil
}

func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case Params:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	case []string:
		generic := make([]any, len(val))
		for i, s := range val {
			generic[i] = s
		}
		return canonicalizeSlice(generic)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}
