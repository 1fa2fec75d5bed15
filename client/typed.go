package client

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/spetersoncode/gemlink"
)

// GenerateJSON sends a prompt and decodes the model's JSON answer into T.
// The response schema is derived from T with gemlink.SchemaFor, so T must be
// a struct (or a pointer to one).
//
//	type City struct {
//	    Name    string `json:"name"`
//	    Country string `json:"country"`
//	}
//	city, err := client.GenerateJSON[City](ctx, c, "Largest city in Japan?")
//
// Options are applied after the schema options and may override them.
func GenerateJSON[T any](ctx context.Context, c *Client, prompt string, opts ...gemlink.Option) (T, error) {
	var zero T

	schema, err := gemlink.SchemaFor[T]()
	if err != nil {
		return zero, &gemlink.ValidationError{Field: "response type", Reason: "cannot derive schema", Err: err}
	}

	allOpts := make([]gemlink.Option, 0, len(opts)+1)
	allOpts = append(allOpts, gemlink.WithGenerationConfig(map[string]any{
		"responseMimeType":   "application/json",
		"responseJsonSchema": schema,
	}))
	allOpts = append(allOpts, opts...)

	resp, err := c.Generate(ctx, prompt, allOpts...)
	if err != nil {
		return zero, err
	}

	var result T
	if err := json.Unmarshal([]byte(resp.Text()), &result); err != nil {
		return zero, &UnmarshalError{
			Content:    resp.Text(),
			TargetType: reflect.TypeFor[T]().String(),
			Err:        err,
		}
	}
	return result, nil
}

// UnmarshalError is returned when the model's answer cannot be decoded into
// the target type.
type UnmarshalError struct {
	Content    string
	TargetType string
	Err        error
}

func (e *UnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal response into %s: %v", e.TargetType, e.Err)
}

func (e *UnmarshalError) Unwrap() error {
	return e.Err
}
