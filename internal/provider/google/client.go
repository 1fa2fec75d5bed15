// Package google is the Gemini API transport built on the Google GenAI SDK,
// plus the conversions between gemlink types and genai wire types.
package google

import (
	"context"
	"iter"
	"net/http"

	"google.golang.org/genai"
)

// Client wraps the Google GenAI SDK. It performs no validation, rate limiting
// or error classification; callers do that around it.
type Client struct {
	models *genai.Models
}

type clientOptions struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures the Google client.
type ClientOption func(*clientOptions)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

// New creates a new Google GenAI client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	if o.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{models: client.Models}, nil
}

// GenerateContent performs a single generation call.
func (c *Client) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.models.GenerateContent(ctx, model, contents, cfg)
}

// GenerateContentStream performs a streaming generation call.
func (c *Client) GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	return c.models.GenerateContentStream(ctx, model, contents, cfg)
}

// CountTokens asks the provider how many tokens contents would consume.
func (c *Client) CountTokens(ctx context.Context, model string, contents []*genai.Content) (*genai.CountTokensResponse, error) {
	return c.models.CountTokens(ctx, model, contents, nil)
}

// EmbedContent computes embeddings for contents.
func (c *Client) EmbedContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	return c.models.EmbedContent(ctx, model, contents, cfg)
}

// ListModels returns every model the provider reports, following pagination.
func (c *Client) ListModels(ctx context.Context) ([]*genai.Model, error) {
	var out []*genai.Model
	for m, err := range c.models.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
