package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"dario.cat/mergo"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
	"google.golang.org/genai"

	"github.com/spetersoncode/gemlink/models"
)

const (
	// DefaultModel is the generation model used when none is configured.
	DefaultModel = models.DefaultChatModel
	// DefaultEmbeddingModel is the embedding model used when none is configured.
	DefaultEmbeddingModel = models.DefaultEmbeddingModel
	// DefaultRequestsPerMinute is the client-side request budget.
	DefaultRequestsPerMinute = 60
)

// SafetySetting is one category/threshold pair sent with every request.
// Values use the provider's enum names, e.g. HARM_CATEGORY_HARASSMENT and
// BLOCK_MEDIUM_AND_ABOVE.
type SafetySetting struct {
	Category  string `yaml:"category" json:"category"`
	Threshold string `yaml:"threshold" json:"threshold"`
}

// RateLimit is the client-side request budget.
type RateLimit struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// Settings is the file-backed client configuration. The client reads it once
// at construction and never mutates it.
type Settings struct {
	DefaultModel   string `yaml:"default_model,omitempty" json:"default_model,omitempty"`
	EmbeddingModel string `yaml:"embedding_model,omitempty" json:"embedding_model,omitempty"`

	// GenerationConfig is the file layer of the generation config. Keys are
	// the provider's wire names.
	GenerationConfig map[string]any `yaml:"generation_config,omitempty" json:"generation_config,omitempty"`

	SafetySettings []SafetySetting `yaml:"safety_settings,omitempty" json:"safety_settings,omitempty"`
	RateLimit      RateLimit       `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
}

// DefaultSettings returns the compiled-in settings. Generation defaults live
// in DefaultGenerationConfig so that a file layer is only what the file says.
func DefaultSettings() Settings {
	return Settings{
		DefaultModel:   DefaultModel,
		EmbeddingModel: DefaultEmbeddingModel,
		SafetySettings: DefaultSafetySettings(),
		RateLimit:      RateLimit{RequestsPerMinute: DefaultRequestsPerMinute},
	}
}

// DefaultSafetySettings blocks medium and above for the four core categories.
func DefaultSafetySettings() []SafetySetting {
	threshold := string(genai.HarmBlockThresholdBlockMediumAndAbove)
	return []SafetySetting{
		{Category: string(genai.HarmCategoryHarassment), Threshold: threshold},
		{Category: string(genai.HarmCategoryHateSpeech), Threshold: threshold},
		{Category: string(genai.HarmCategorySexuallyExplicit), Threshold: threshold},
		{Category: string(genai.HarmCategoryDangerousContent), Threshold: threshold},
	}
}

// Clone returns a copy of s that shares no maps or slices with it. Nested
// generation-config values are copied too.
func (s Settings) Clone() Settings {
	s.SafetySettings = slices.Clone(s.SafetySettings)
	if s.GenerationConfig != nil {
		s.GenerationConfig = cloneMap(s.GenerationConfig)
	}
	return s
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(v)
	default:
		return v
	}
}

// Validate checks settings that would otherwise fail at request time.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.DefaultModel) == "" {
		return fmt.Errorf("default_model is required")
	}
	if s.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive, got %d", s.RateLimit.RequestsPerMinute)
	}
	for i, ss := range s.SafetySettings {
		if ss.Category == "" || ss.Threshold == "" {
			return fmt.Errorf("safety_settings[%d] needs both category and threshold", i)
		}
	}
	return nil
}

// LoadSettings reads a settings file and fills every missing field from
// DefaultSettings. YAML (.yaml, .yml) and JSON with comments (.json, .jsonc)
// are supported. An empty path returns the defaults.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		return DefaultSettings(), nil
	}

	var settings Settings
	if err := decodeFile(path, &settings); err != nil {
		return Settings{}, err
	}
	if err := mergo.Merge(&settings, DefaultSettings()); err != nil {
		return Settings{}, fmt.Errorf("failed to apply default settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings in %q: %w", path, err)
	}
	return settings, nil
}

// decodeFile unmarshals a YAML or JSON(C) file into v based on its extension.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path) //#nosec G304 -- caller-chosen config path
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse %q: %w", path, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), v); err != nil {
			return fmt.Errorf("failed to parse %q: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q for %q", ext, path)
	}
	return nil
}
