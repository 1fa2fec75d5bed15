package client

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"slices"
	"time"

	"dario.cat/mergo"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spetersoncode/gemlink"
	"github.com/spetersoncode/gemlink/chat"
	"github.com/spetersoncode/gemlink/config"
	"github.com/spetersoncode/gemlink/internal/provider/google"
	"github.com/spetersoncode/gemlink/internal/ratelimit"
)

// Transport is the provider boundary. The default implementation talks to the
// Gemini API through the Google GenAI SDK; tests substitute a fake.
type Transport interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
	CountTokens(ctx context.Context, model string, contents []*genai.Content) (*genai.CountTokensResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
	ListModels(ctx context.Context) ([]*genai.Model, error)
}

var _ Transport = (*google.Client)(nil)

// Config holds configuration for creating a client.
type Config struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// Settings are the file-backed defaults. Zero fields are filled from
	// config.DefaultSettings.
	Settings config.Settings

	// Catalog lists known models and task recommendations. Missing entries are
	// filled from config.DefaultCatalog.
	Catalog config.Catalog

	// Transport replaces the Gemini API transport. When nil, one is built from
	// APIKey, BaseURL and HTTPClient.
	Transport Transport

	// BaseURL overrides the API endpoint of the default transport.
	BaseURL string

	// HTTPClient is used by the default transport.
	HTTPClient *http.Client

	// Logger receives request logs. Defaults to a no-op logger.
	Logger *zap.Logger

	// Events is an optional channel for receiving client operation events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event
}

// Client is the Gemini content client. It is safe for concurrent use.
//
// Every operation validates its inputs locally, resolves the generation
// config, waits on the rate limiter and then calls the provider once. Provider
// failures are returned as *gemlink.Error. There are no automatic retries; see
// the retry package for caller-side backoff.
type Client struct {
	transport Transport
	settings  config.Settings
	catalog   config.Catalog
	limiter   *ratelimit.Limiter
	logger    *zap.Logger
	events    chan<- Event
}

// New creates a client. It returns gemlink.ErrMissingAPIKey when no key is
// configured.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, gemlink.ErrMissingAPIKey
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// The client owns its copies; later edits by the caller have no effect.
	settings := cfg.Settings.Clone()
	if err := mergo.Merge(&settings, config.DefaultSettings()); err != nil {
		return nil, fmt.Errorf("failed to apply default settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	catalog := cfg.Catalog.Clone()
	if err := mergo.Merge(&catalog, config.DefaultCatalog()); err != nil {
		return nil, fmt.Errorf("failed to apply default catalog: %w", err)
	}

	limiter, err := ratelimit.New(settings.RateLimit.RequestsPerMinute, logger.Named("ratelimit"))
	if err != nil {
		return nil, err
	}

	transport := cfg.Transport
	if transport == nil {
		var opts []google.ClientOption
		if cfg.BaseURL != "" {
			opts = append(opts, google.WithBaseURL(cfg.BaseURL))
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, google.WithHTTPClient(cfg.HTTPClient))
		}
		gc, err := google.New(ctx, cfg.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		transport = gc
	}

	return &Client{
		transport: transport,
		settings:  settings,
		catalog:   catalog,
		limiter:   limiter,
		logger:    logger,
		events:    cfg.Events,
	}, nil
}

// Settings returns a copy of the effective settings.
func (c *Client) Settings() config.Settings {
	return c.settings.Clone()
}

// AvailableModels returns the catalog's models.
func (c *Client) AvailableModels() []config.ModelInfo {
	return slices.Clone(c.catalog.Models)
}

// RecommendedModel returns the model recommended for task, or the default
// model when the task has no recommendation.
func (c *Client) RecommendedModel(task config.TaskType) string {
	return c.catalog.Recommended(task, c.settings.DefaultModel)
}

// StartChat opens a conversation that replays its transcript through c.
func (c *Client) StartChat(opts ...chat.Option) (*chat.Session, error) {
	return chat.New(c, opts...)
}

// request tracks one provider call for events and logs.
type request struct {
	id        string
	operation string
	model     string
	start     time.Time
}

// prepare resolves the model and the generation config for a call. It does no
// I/O, so every failure here is local.
func (c *Client) prepare(options *gemlink.Options, tools []gemlink.Tool) (string, *genai.GenerateContentConfig, error) {
	model := options.Model
	if model == "" {
		model = c.settings.DefaultModel
	}

	params := config.Resolve(config.DefaultGenerationConfig(), c.settings.GenerationConfig, options.GenerationConfig)
	cfg, err := google.BuildConfig(google.Request{
		Params:            params,
		SafetySettings:    c.settings.SafetySettings,
		SystemInstruction: options.SystemInstruction,
		Tools:             tools,
	})
	if err != nil {
		return "", nil, err
	}
	return model, cfg, nil
}

// begin waits for a rate-limit slot and starts tracking the call.
// Context errors from the wait are returned as is.
func (c *Client) begin(ctx context.Context, operation, model string) (*request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	r := &request{
		id:        uuid.NewString(),
		operation: operation,
		model:     model,
		start:     time.Now(),
	}
	emit(c.events, Event{
		Type:      EventRequestStart,
		Operation: operation,
		RequestID: r.id,
		Model:     model,
	})
	c.logger.Debug("request started",
		zap.String("operation", operation),
		zap.String("request_id", r.id),
		zap.String("model", model),
	)
	return r, nil
}

// fail classifies a provider failure and reports it.
func (c *Client) fail(r *request, err error) error {
	classified := gemlink.Classify(err)
	elapsed := time.Since(r.start)

	emit(c.events, Event{
		Type:      EventRequestError,
		Operation: r.operation,
		RequestID: r.id,
		Model:     r.model,
		Duration:  elapsed,
		Error:     classified,
	})
	c.logger.Warn("request failed",
		zap.String("operation", r.operation),
		zap.String("request_id", r.id),
		zap.String("model", r.model),
		zap.Stringer("kind", classified.Kind),
		zap.Int("status", classified.StatusCode),
		zap.Duration("duration", elapsed),
		zap.Error(classified.Cause),
	)
	return classified
}

func (c *Client) complete(r *request, usage *gemlink.Usage) {
	elapsed := time.Since(r.start)
	emit(c.events, Event{
		Type:      EventRequestComplete,
		Operation: r.operation,
		RequestID: r.id,
		Model:     r.model,
		Duration:  elapsed,
		Usage:     usage,
	})

	fields := []zap.Field{
		zap.String("operation", r.operation),
		zap.String("request_id", r.id),
		zap.String("model", r.model),
		zap.Duration("duration", elapsed),
	}
	if usage != nil {
		fields = append(fields,
			zap.Int("prompt_tokens", usage.PromptTokens),
			zap.Int("output_tokens", usage.CandidatesTokens),
			zap.Int("total_tokens", usage.TotalTokens),
		)
	}
	c.logger.Debug("request completed", fields...)
}

func requireText(field, text string) error {
	if text == "" {
		return &gemlink.ValidationError{Field: field, Reason: "must not be empty", Err: gemlink.ErrEmptyInput}
	}
	return nil
}
