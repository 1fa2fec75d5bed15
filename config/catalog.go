package config

import (
	"fmt"
	"maps"
	"slices"

	"dario.cat/mergo"

	"github.com/spetersoncode/gemlink"
	"github.com/spetersoncode/gemlink/models"
)

// Model pricing last verified: December 14, 2025
// Source: https://ai.google.dev/gemini-api/docs/pricing

// longContextThreshold is the prompt size above which long-context pricing applies.
const longContextThreshold = 200_000

// TaskType names a kind of work a model can be recommended for.
type TaskType string

const (
	TaskChat            TaskType = "chat"
	TaskCodeGeneration  TaskType = "code_generation"
	TaskAnalysis        TaskType = "analysis"
	TaskReasoning       TaskType = "reasoning"
	TaskSummarization   TaskType = "summarization"
	TaskCreativeWriting TaskType = "creative_writing"
	TaskImageAnalysis   TaskType = "image_analysis"
	TaskToolUse         TaskType = "tool_use"
	TaskEmbedding       TaskType = "embedding"
	TaskRealTime        TaskType = "real_time"
)

// Pricing contains prices per million tokens (USD).
// Some models have tiered pricing based on context length.
type Pricing struct {
	InputPerMillion      float64 `yaml:"input_per_million" json:"input_per_million"`             // Standard (<=200K tokens)
	OutputPerMillion     float64 `yaml:"output_per_million" json:"output_per_million"`           // Standard
	InputPerMillionLong  float64 `yaml:"input_per_million_long" json:"input_per_million_long"`   // Long context (>200K tokens)
	OutputPerMillionLong float64 `yaml:"output_per_million_long" json:"output_per_million_long"` // Long context
}

// ModelInfo describes a named model configuration.
type ModelInfo struct {
	ID               string  `yaml:"id" json:"id"`
	DisplayName      string  `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	Description      string  `yaml:"description,omitempty" json:"description,omitempty"`
	InputTokenLimit  int     `yaml:"input_token_limit,omitempty" json:"input_token_limit,omitempty"`
	OutputTokenLimit int     `yaml:"output_token_limit,omitempty" json:"output_token_limit,omitempty"`
	Multimodal       bool    `yaml:"multimodal,omitempty" json:"multimodal,omitempty"`
	Pricing          Pricing `yaml:"pricing,omitempty" json:"pricing,omitempty"`
}

// EstimateCost calculates the estimated cost in USD for the given usage.
// Long-context rates apply when the prompt exceeds 200K tokens and the model
// has them.
func (m ModelInfo) EstimateCost(u gemlink.Usage) float64 {
	in, out := m.Pricing.InputPerMillion, m.Pricing.OutputPerMillion
	if u.PromptTokens > longContextThreshold {
		if m.Pricing.InputPerMillionLong > 0 {
			in = m.Pricing.InputPerMillionLong
		}
		if m.Pricing.OutputPerMillionLong > 0 {
			out = m.Pricing.OutputPerMillionLong
		}
	}
	// Thinking tokens are billed as output.
	output := u.CandidatesTokens + u.ThoughtsTokens
	return (float64(u.PromptTokens)*in + float64(output)*out) / 1_000_000
}

// Catalog is the set of named models plus the task-type to model mapping.
type Catalog struct {
	Models          []ModelInfo         `yaml:"models" json:"models"`
	Recommendations map[TaskType]string `yaml:"recommendations" json:"recommendations"`
}

// Clone returns a copy of c that shares no slices or maps with it.
func (c Catalog) Clone() Catalog {
	c.Models = slices.Clone(c.Models)
	if c.Recommendations != nil {
		c.Recommendations = maps.Clone(c.Recommendations)
	}
	return c
}

// Model returns the catalog entry with the given id.
func (c Catalog) Model(id string) (ModelInfo, bool) {
	i := slices.IndexFunc(c.Models, func(m ModelInfo) bool { return m.ID == id })
	if i < 0 {
		return ModelInfo{}, false
	}
	return c.Models[i], true
}

// Recommended returns the model recommended for task, or fallback when the
// task has no mapping.
func (c Catalog) Recommended(task TaskType, fallback string) string {
	if id, ok := c.Recommendations[task]; ok && id != "" {
		return id
	}
	return fallback
}

// DefaultCatalog returns the compiled-in model catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Models: []ModelInfo{
			{
				ID:               models.Gemini25Pro,
				DisplayName:      "Gemini 2.5 Pro",
				Description:      "Most capable model for complex reasoning and coding",
				InputTokenLimit:  1_048_576,
				OutputTokenLimit: 65_536,
				Multimodal:       true,
				Pricing: Pricing{
					InputPerMillion: 1.25, OutputPerMillion: 10.00,
					InputPerMillionLong: 2.50, OutputPerMillionLong: 15.00,
				},
			},
			{
				ID:               models.Gemini25Flash,
				DisplayName:      "Gemini 2.5 Flash",
				Description:      "Balanced price and performance",
				InputTokenLimit:  1_048_576,
				OutputTokenLimit: 65_536,
				Multimodal:       true,
				Pricing: Pricing{
					InputPerMillion: 0.15, OutputPerMillion: 0.60,
					InputPerMillionLong: 0.15, OutputPerMillionLong: 0.60,
				},
			},
			{
				ID:               models.Gemini25FlashLite,
				DisplayName:      "Gemini 2.5 Flash-Lite",
				Description:      "Fastest and cheapest for high-volume work",
				InputTokenLimit:  1_048_576,
				OutputTokenLimit: 65_536,
				Multimodal:       true,
				Pricing: Pricing{
					InputPerMillion: 0.075, OutputPerMillion: 0.30,
					InputPerMillionLong: 0.075, OutputPerMillionLong: 0.30,
				},
			},
			{
				ID:              models.GeminiEmbedding001,
				DisplayName:     "Gemini Embedding",
				Description:     "Text embeddings, 3072 dimensions by default",
				InputTokenLimit: 2048,
				Pricing:         Pricing{InputPerMillion: 0.15},
			},
		},
		Recommendations: map[TaskType]string{
			TaskChat:            models.Gemini25Flash,
			TaskCodeGeneration:  models.Gemini25Pro,
			TaskAnalysis:        models.Gemini25Pro,
			TaskReasoning:       models.Gemini25Pro,
			TaskSummarization:   models.Gemini25Flash,
			TaskCreativeWriting: models.Gemini25Pro,
			TaskImageAnalysis:   models.Gemini25Flash,
			TaskToolUse:         models.Gemini25Flash,
			TaskEmbedding:       models.GeminiEmbedding001,
			TaskRealTime:        models.Gemini25FlashLite,
		},
	}
}

// LoadCatalog reads a models file. A file without models keeps the default
// model list, and recommendations the file does not name keep their defaults.
// An empty path returns DefaultCatalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	var catalog Catalog
	if err := decodeFile(path, &catalog); err != nil {
		return Catalog{}, err
	}
	if err := mergo.Merge(&catalog, DefaultCatalog()); err != nil {
		return Catalog{}, fmt.Errorf("failed to apply default catalog: %w", err)
	}

	seen := make(map[string]bool, len(catalog.Models))
	for i, m := range catalog.Models {
		if m.ID == "" {
			return Catalog{}, fmt.Errorf("invalid catalog in %q: models[%d] has no id", path, i)
		}
		if seen[m.ID] {
			return Catalog{}, fmt.Errorf("invalid catalog in %q: duplicate model id %q", path, m.ID)
		}
		seen[m.ID] = true
	}
	return catalog, nil
}
