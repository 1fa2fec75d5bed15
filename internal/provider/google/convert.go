package google

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/spetersoncode/gemlink"
	"github.com/spetersoncode/gemlink/config"
)

// ReservedKeys are generation-config keys that only the client may set.
// Safety settings in particular always come from client settings.
var ReservedKeys = []string{"safetySettings", "tools", "toolConfig", "systemInstruction", "httpOptions"}

// Request holds everything that goes into a GenerateContentConfig.
type Request struct {
	// Params is the resolved generation config keyed by wire name.
	Params            map[string]any
	SafetySettings    []config.SafetySetting
	SystemInstruction string
	Tools             []gemlink.Tool
}

// BuildConfig converts a request into the SDK's generation config. Unknown or
// mistyped parameters and reserved keys are validation errors.
func BuildConfig(req Request) (*genai.GenerateContentConfig, error) {
	for _, key := range ReservedKeys {
		if _, ok := req.Params[key]; ok {
			return nil, &gemlink.ValidationError{
				Field:  "generationConfig",
				Reason: fmt.Sprintf("%q cannot be set through generation config", key),
			}
		}
	}

	cfg := &genai.GenerateContentConfig{}
	if len(req.Params) > 0 {
		data, err := json.Marshal(req.Params)
		if err != nil {
			return nil, &gemlink.ValidationError{Field: "generationConfig", Reason: "cannot encode parameters", Err: err}
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, &gemlink.ValidationError{Field: "generationConfig", Reason: "unsupported or mistyped parameter", Err: err}
		}
	}

	cfg.SafetySettings = ConvertSafetySettings(req.SafetySettings)
	if strings.TrimSpace(req.SystemInstruction) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		cfg.Tools = ConvertTools(req.Tools)
		cfg.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}
	return cfg, nil
}

// ConvertSafetySettings converts configured safety settings to genai settings.
func ConvertSafetySettings(settings []config.SafetySetting) []*genai.SafetySetting {
	if len(settings) == 0 {
		return nil
	}
	out := make([]*genai.SafetySetting, len(settings))
	for i, s := range settings {
		out[i] = &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		}
	}
	return out
}

// ConvertHistory converts prior turns plus an optional new user prompt into
// role-tagged contents, preserving order.
func ConvertHistory(history []gemlink.HistoryEntry, prompt string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, e := range history {
		role := genai.Role(genai.RoleUser)
		if e.Role == gemlink.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(e.Content, role))
	}
	if prompt != "" {
		contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
	}
	return contents
}

// ImageContents builds a single user turn holding the prompt and the image.
func ImageContents(data []byte, mimeType, prompt string) []*genai.Content {
	parts := []*genai.Part{genai.NewPartFromText(prompt), genai.NewPartFromBytes(data, mimeType)}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

// EmbedConfig converts embedding options into the SDK's embed config.
func EmbedConfig(opts *gemlink.EmbeddingOptions) *genai.EmbedContentConfig {
	cfg := &genai.EmbedContentConfig{}
	if opts.Dimensions > 0 {
		dims := int32(opts.Dimensions)
		cfg.OutputDimensionality = &dims
	}
	if opts.TaskType != "" {
		cfg.TaskType = string(opts.TaskType)
	}
	return cfg
}
