package google

import (
	"google.golang.org/genai"

	"github.com/spetersoncode/gemlink"
)

// ConvertTools converts tool declarations to a single genai Tool.
func ConvertTools(tools []gemlink.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	funcs := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		funcs[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  ConvertJSONSchemaToGenaiSchema(t.Parameters),
		}
	}

	return []*genai.Tool{{FunctionDeclarations: funcs}}
}

// ExtractFunctionCall returns the first function-call part of the first
// candidate, or nil when the model answered in text.
func ExtractFunctionCall(resp *genai.GenerateContentResponse) *gemlink.FunctionCall {
	for _, part := range firstCandidateParts(resp) {
		if part == nil || part.FunctionCall == nil {
			continue
		}
		args := part.FunctionCall.Args
		if args == nil {
			args = map[string]any{}
		}
		return &gemlink.FunctionCall{Name: part.FunctionCall.Name, Args: args}
	}
	return nil
}
