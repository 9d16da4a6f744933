package util

import "fmt"

// ArgumentError describes one tool-call argument that failed validation
// against the tool's declared parameter schema.
type ArgumentError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %q: %s", e.Field, e.Message)
}

// ValidateParameters checks decoded call arguments against a JSON-schema
// parameter declaration. Every required field must be present and every
// declared field must match its declared type; undeclared extra arguments
// pass through untouched so tools can evolve their schemas forward.
//
// Schemas arrive from two sources with different decodings: Go-authored
// definitions carry required as []string, YAML and JSON decoded ones carry
// []any. Both are accepted.
func ValidateParameters(args map[string]any, schema map[string]any) error {
	for _, field := range requiredFields(schema) {
		if _, ok := args[field]; !ok {
			return &ArgumentError{Field: field, Message: "required argument is missing"}
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for field, value := range args {
		prop, ok := properties[field].(map[string]any)
		if !ok {
			continue
		}

		want, _ := prop["type"].(string)
		if want == "" || matchesType(value, want) {
			continue
		}

		return &ArgumentError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("expected %s, got %T", want, value),
		}
	}

	return nil
}

func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		fields := make([]string, 0, len(req))
		for _, r := range req {
			if name, ok := r.(string); ok {
				fields = append(fields, name)
			}
		}
		return fields
	default:
		return nil
	}
}

// matchesType reports whether a decoded argument satisfies a JSON-schema
// primitive type name. Completion backends deliver arguments through JSON,
// so numbers usually arrive as float64 regardless of the declared type.
func matchesType(value any, want string) bool {
	if value == nil {
		return true
	}

	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == float64(int64(v))
		default:
			return false
		}
	case "number":
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return true
		default:
			return false
		}
	case "array":
		switch value.(type) {
		case []any, []string:
			return true
		default:
			return false
		}
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
