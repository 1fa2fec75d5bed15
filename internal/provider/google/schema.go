package google

import (
	"encoding/json"

	"google.golang.org/genai"
)

// ConvertJSONSchemaToGenaiSchema converts JSON Schema to Google genai Schema.
// Returns nil for empty or malformed input.
func ConvertJSONSchemaToGenaiSchema(schemaJSON json.RawMessage) *genai.Schema {
	if len(schemaJSON) == 0 {
		return nil
	}

	var schema map[string]any
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return nil
	}

	return convertSchemaObject(schema)
}

var schemaTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

func convertSchemaObject(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	result := &genai.Schema{}

	// "type" is either a name or a list such as ["string", "null"].
	switch t := schema["type"].(type) {
	case string:
		result.Type = schemaTypes[t]
	case []any:
		for _, v := range t {
			name, _ := v.(string)
			if name == "null" {
				nullable := true
				result.Nullable = &nullable
			} else if gt, ok := schemaTypes[name]; ok {
				result.Type = gt
			}
		}
	}

	result.Description, _ = schema["description"].(string)
	result.Format, _ = schema["format"].(string)
	result.Enum = stringList(schema["enum"])
	result.Required = stringList(schema["required"])

	if v, ok := schema["minimum"].(float64); ok {
		result.Minimum = &v
	}
	if v, ok := schema["maximum"].(float64); ok {
		result.Maximum = &v
	}

	if props, ok := schema["properties"].(map[string]any); ok {
		result.Properties = make(map[string]*genai.Schema, len(props))
		for name, propSchema := range props {
			if propMap, ok := propSchema.(map[string]any); ok {
				result.Properties[name] = convertSchemaObject(propMap)
			}
		}
	}

	if items, ok := schema["items"].(map[string]any); ok {
		result.Items = convertSchemaObject(items)
	}

	return result
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
