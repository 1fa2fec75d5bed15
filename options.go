package gemlink

import "maps"

// Options contains per-call configuration for a generation request.
type Options struct {
	// Model overrides the client's default model when non-empty.
	Model string
	// GenerationConfig is the call-override layer of the generation config.
	GenerationConfig map[string]any
	// SystemInstruction is sent as the provider's system instruction.
	SystemInstruction string
}

// Option is a functional option for configuring generation requests.
type Option func(*Options)

// WithModel sets the model to use for the request.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithGenerationConfig sets call-override generation parameters. Keys are the
// provider's wire names (temperature, topP, maxOutputTokens, ...).
// Repeated use merges key by key, later calls winning.
func WithGenerationConfig(cfg map[string]any) Option {
	return func(o *Options) {
		if o.GenerationConfig == nil {
			o.GenerationConfig = make(map[string]any, len(cfg))
		}
		maps.Copy(o.GenerationConfig, cfg)
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(t float64) Option {
	return WithGenerationConfig(map[string]any{"temperature": t})
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return WithGenerationConfig(map[string]any{"maxOutputTokens": n})
}

// WithTopP sets nucleus sampling probability.
func WithTopP(p float64) Option {
	return WithGenerationConfig(map[string]any{"topP": p})
}

// WithSystemInstruction sets the system instruction for the request.
func WithSystemInstruction(text string) Option {
	return func(o *Options) {
		o.SystemInstruction = text
	}
}

// ApplyOptions applies functional options to an Options struct.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
