package gemlink

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Tool declares a function the model may ask the caller to invoke.
type Tool struct {
	// Name is the unique identifier for the tool within a call.
	Name string `json:"name" yaml:"name"`
	// Description explains what the tool does (helps the model decide when to use it).
	Description string `json:"description" yaml:"description"`
	// Parameters is a JSON Schema object defining the function parameters.
	Parameters json.RawMessage `json:"parameters,omitempty" yaml:"-"`
}

// FunctionCall is a request from the model to invoke a declared tool.
// The client never executes it.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResponse is the result of a tool-augmented generation.
type ToolResponse struct {
	Content string `json:"content"`
	// FunctionCall is nil when the model answered in natural language.
	FunctionCall *FunctionCall `json:"functionCall"`
	Usage        *Usage        `json:"usage,omitempty"`
}

// ValidateTools checks a tool list before it is sent: at least one tool,
// non-empty unique names, and parameters that compile as JSON Schema.
func ValidateTools(tools []Tool) error {
	if len(tools) == 0 {
		return &ValidationError{Field: "tools", Reason: "at least one tool is required", Err: ErrEmptyInput}
	}

	seen := make(map[string]bool, len(tools))
	for i, t := range tools {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return &ValidationError{Field: "tools", Reason: fmt.Sprintf("tool %d has no name", i)}
		}
		if seen[name] {
			return &ValidationError{Field: "tools", Reason: fmt.Sprintf("duplicate tool name %q", name)}
		}
		seen[name] = true

		if len(t.Parameters) == 0 {
			continue
		}
		if _, err := t.schema(); err != nil {
			return &ValidationError{
				Field:  "tools",
				Reason: fmt.Sprintf("tool %q has an invalid parameter schema", name),
				Err:    err,
			}
		}
	}
	return nil
}

func (t Tool) schema() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(t.Parameters))
}

// ValidateArgs checks function call arguments against the tool's parameter
// schema. Tools without parameters accept any arguments.
func (t Tool) ValidateArgs(args map[string]any) error {
	if len(t.Parameters) == 0 {
		return nil
	}
	schema, err := t.schema()
	if err != nil {
		return &ValidationError{Field: "parameters", Reason: "schema does not compile", Err: err}
	}

	if args == nil {
		args = map[string]any{}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return &ValidationError{Field: "args", Reason: "arguments could not be validated", Err: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			msgs = append(msgs, re.String())
		}
		return &ValidationError{Field: "args", Reason: strings.Join(msgs, "; ")}
	}
	return nil
}

// FindTool returns the tool with the given name.
func FindTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}
