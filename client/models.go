package client

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"github.com/spetersoncode/gemlink"
	"github.com/spetersoncode/gemlink/internal/provider/google"
)

var errNoEmbedding = errors.New("provider returned no embedding")

// CountTokens returns how many tokens text would consume for the selected
// model. It is a billed provider call and waits on the rate limiter.
func (c *Client) CountTokens(ctx context.Context, text string, opts ...gemlink.Option) (int, error) {
	if err := requireText("text", text); err != nil {
		return 0, err
	}

	model := gemlink.ApplyOptions(opts...).Model
	if model == "" {
		model = c.settings.DefaultModel
	}

	r, err := c.begin(ctx, OpCountTokens, model)
	if err != nil {
		return 0, err
	}

	resp, err := c.transport.CountTokens(ctx, model, google.ConvertHistory(nil, text))
	if err != nil {
		return 0, c.fail(r, err)
	}

	c.complete(r, nil)
	if resp == nil {
		return 0, nil
	}
	return int(resp.TotalTokens), nil
}

// Embed returns the embedding vector for text. The embedding model defaults
// to the configured embedding model.
func (c *Client) Embed(ctx context.Context, text string, opts ...gemlink.EmbeddingOption) ([]float64, error) {
	if err := requireText("text", text); err != nil {
		return nil, err
	}

	options := gemlink.ApplyEmbeddingOptions(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}
	model := options.Model
	if model == "" {
		model = c.settings.EmbeddingModel
	}

	r, err := c.begin(ctx, OpEmbed, model)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := c.transport.EmbedContent(ctx, model, contents, google.EmbedConfig(options))
	if err != nil {
		return nil, c.fail(r, err)
	}

	values := google.ConvertEmbedding(resp)
	if values == nil {
		return nil, c.fail(r, errNoEmbedding)
	}

	c.complete(r, nil)
	return values, nil
}

// ListModels returns the models the provider reports for this API key.
func (c *Client) ListModels(ctx context.Context) ([]gemlink.ModelDescriptor, error) {
	r, err := c.begin(ctx, OpListModels, "")
	if err != nil {
		return nil, err
	}

	list, err := c.transport.ListModels(ctx)
	if err != nil {
		return nil, c.fail(r, err)
	}

	out := make([]gemlink.ModelDescriptor, 0, len(list))
	for _, m := range list {
		if m == nil {
			continue
		}
		out = append(out, google.ConvertModel(m))
	}

	c.complete(r, nil)
	return out, nil
}
