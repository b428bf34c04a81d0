package tools

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// ValidateArgs checks a raw JSON argument payload against a tool's declared
// parameter schema: required fields must be present and values must match the
// declared primitive types. Nested schemas are only checked one level deep,
// which covers every tool this system ships.
func ValidateArgs(raw string, schema jsonschema.Definition) error {
	if raw == "" {
		raw = "{}"
	}

	var params map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return fmt.Errorf("arguments are not a JSON object: %w", err)
	}

	for _, field := range schema.Required {
		if _, exists := params[field]; !exists {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	for key, value := range params {
		propDef, ok := schema.Properties[key]
		if !ok {
			continue
		}
		if propDef.Type == "" {
			continue
		}
		if err := validateType(value, propDef.Type); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}

	return nil
}

func validateType(value interface{}, expected jsonschema.DataType) error {
	switch expected {
	case jsonschema.String:
		if _, ok := value.(string); ok {
			return nil
		}
	case jsonschema.Number:
		if isNumber(value) {
			return nil
		}
	case jsonschema.Integer:
		if isInteger(value) {
			return nil
		}
	case jsonschema.Boolean:
		if _, ok := value.(bool); ok {
			return nil
		}
	case jsonschema.Object:
		if _, ok := value.(map[string]interface{}); ok {
			return nil
		}
	case jsonschema.Array:
		if _, ok := value.([]interface{}); ok {
			return nil
		}
	case jsonschema.Null:
		if value == nil {
			return nil
		}
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

func isNumber(value interface{}) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case int, int32, int64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

func isInteger(value interface{}) bool {
	switch v := value.(type) {
	case int, int32, int64:
		return true
	case float64:
		return math.Trunc(v) == v
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}
