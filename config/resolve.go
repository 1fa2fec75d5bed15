package config

import "maps"

// DefaultGenerationConfig returns the compiled-in generation layer.
func DefaultGenerationConfig() map[string]any {
	return map[string]any{
		"temperature":     0.7,
		"topP":            0.95,
		"topK":            40,
		"maxOutputTokens": 8192,
	}
}

// Resolve merges generation-config layers, later layers winning key by key.
// The merge is shallow: a nested value such as thinkingConfig is replaced
// whole. Nil layers count as empty and no layer is modified.
func Resolve(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, layer := range layers {
		maps.Copy(out, layer)
	}
	return out
}
