package gemlink

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// SchemaFor derives a JSON Schema object from the struct type T, for use as
// tool parameters or as a structured response schema.
//
// Property names come from json tags. Fields tagged omitempty are optional,
// all others are required. A `desc` tag sets the description and an `enum`
// tag lists comma-separated allowed values:
//
//	type Forecast struct {
//	    City string `json:"city" desc:"City name"`
//	    Unit string `json:"unit,omitempty" enum:"celsius,fahrenheit"`
//	}
func SchemaFor[T any]() (json.RawMessage, error) {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema requires a struct type, got %s", t)
	}
	return json.Marshal(objectSchema(t, map[reflect.Type]bool{}))
}

// MustSchemaFor is like SchemaFor but panics on error.
func MustSchemaFor[T any]() json.RawMessage {
	s, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return s
}

func objectSchema(t reflect.Type, visiting map[reflect.Type]bool) map[string]any {
	// Recursive types stop at an unconstrained object.
	if visiting[t] {
		return map[string]any{"type": "object"}
	}
	visiting[t] = true
	defer delete(visiting, t)

	props := map[string]any{}
	var required []string

	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}

		prop := typeSchema(field.Type, visiting)
		if desc := field.Tag.Get("desc"); desc != "" {
			prop["description"] = desc
		}
		if enum := field.Tag.Get("enum"); enum != "" {
			prop["enum"] = strings.Split(enum, ",")
		}
		props[name] = prop

		if !strings.Contains(opts, "omitempty") {
			required = append(required, name)
		}
	}

	out := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func typeSchema(t reflect.Type, visiting map[reflect.Type]bool) map[string]any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": typeSchema(t.Elem(), visiting)}
	case reflect.Struct:
		return objectSchema(t, visiting)
	case reflect.Map:
		return map[string]any{"type": "object"}
	default:
		return map[string]any{"type": "string"}
	}
}
