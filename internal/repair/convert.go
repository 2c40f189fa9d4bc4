package repair

import (
	"encoding/json"
	"fmt"
	"log"
)

// convert moves an untyped value into T through its JSON encoding, so the
// typed model's own decoding rules apply.
func convert[T any](v any) (T, error) {
	var out T
	if _, ok := v.(map[string]any); !ok {
		return out, fmt.Errorf("not an object")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("encode: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

// lenient moves obj into T key by key. A key whose value does not fit T is
// left at its zero value, and a list keeps only the entries that fit, so one
// mistyped field never costs the whole element.
func lenient[T any](obj map[string]any, what string) T {
	if out, err := convert[T](obj); err == nil {
		return out
	}
	kept := make(map[string]any, len(obj))
	for k, v := range obj {
		if fits[T](k, v) {
			kept[k] = v
			continue
		}
		if items, ok := v.([]any); ok {
			entries := make([]any, 0, len(items))
			for _, item := range items {
				if fits[T](k, []any{item}) {
					entries = append(entries, item)
				}
			}
			log.Printf("repair: %s: kept %d of %d entries of %q", what, len(entries), len(items), k)
			kept[k] = entries
			continue
		}
		log.Printf("repair: %s: resetting malformed %q", what, k)
	}
	out, err := convert[T](kept)
	if err != nil {
		log.Printf("repair: %s: %v", what, err)
	}
	return out
}

func fits[T any](key string, v any) bool {
	_, err := convert[T](map[string]any{key: v})
	return err == nil
}

// truthy coerces a JSON value to a bool the way a loosely typed document
// writer would: zero values and null are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
