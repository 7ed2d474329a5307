package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// arrayFields are always arrays in a recipe document; scalars are wrapped.
var arrayFields = []string{"ingredients", "instructions", "tags"}

// Repair parses text as a JSON object, running a best-effort structural repair
// (unbalanced brackets, unquoted keys, stray commas, ...) when the direct parse
// fails.
func Repair(text string) (map[string]any, error) {
	var tree any
	if err := json.Unmarshal([]byte(text), &tree); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(text)
		if repairErr != nil {
			return nil, newError(ErrUnrecoverableJSON, text, fmt.Errorf("repair failed: %w", repairErr))
		}
		if err := json.Unmarshal([]byte(repaired), &tree); err != nil {
			return nil, newError(ErrUnrecoverableJSON, text, fmt.Errorf("parse after repair: %w", err))
		}
	}

	obj, ok := tree.(map[string]any)
	if !ok {
		perr := violation("$", "expected a JSON object, got %s", typeName(tree))
		perr.Raw = text
		return nil, perr
	}

	for _, field := range arrayFields {
		v, present := obj[field]
		if !present || v == nil {
			continue
		}
		if _, isArray := v.([]any); !isArray {
			obj[field] = []any{v}
		}
	}
	return obj, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
