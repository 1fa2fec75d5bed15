package client

import (
	"context"
	"iter"
	"os"

	"google.golang.org/genai"

	"github.com/spetersoncode/gemlink"
	"github.com/spetersoncode/gemlink/internal/provider/google"
)

// DefaultImageMIMEType is assumed for raw image data without a MIME type.
const DefaultImageMIMEType = "image/jpeg"

// Generate sends a single prompt and returns the normalized response.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...gemlink.Option) (*gemlink.Response, error) {
	return c.GenerateTurns(ctx, nil, prompt, opts...)
}

// GenerateTurns replays history followed by prompt as one request.
// History entries must carry the user or model role.
func (c *Client) GenerateTurns(ctx context.Context, history []gemlink.HistoryEntry, prompt string, opts ...gemlink.Option) (*gemlink.Response, error) {
	if err := requireText("prompt", prompt); err != nil {
		return nil, err
	}
	if err := gemlink.ValidateHistory(history); err != nil {
		return nil, err
	}
	return c.generate(ctx, OpGenerate, google.ConvertHistory(history, prompt), opts)
}

// AnalyzeImage sends an image together with a prompt. Exactly one of
// img.Path and img.Data must be set; the file is read before any rate-limit
// budget is spent.
func (c *Client) AnalyzeImage(ctx context.Context, img gemlink.ImageInput, prompt string, opts ...gemlink.Option) (*gemlink.Response, error) {
	data, mimeType, err := loadImage(img)
	if err != nil {
		return nil, err
	}
	if err := requireText("prompt", prompt); err != nil {
		return nil, err
	}
	return c.generate(ctx, OpAnalyzeImage, google.ImageContents(data, mimeType, prompt), opts)
}

func (c *Client) generate(ctx context.Context, operation string, contents []*genai.Content, opts []gemlink.Option) (*gemlink.Response, error) {
	model, cfg, err := c.prepare(gemlink.ApplyOptions(opts...), nil)
	if err != nil {
		return nil, err
	}

	r, err := c.begin(ctx, operation, model)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, c.fail(r, err)
	}
	out, err := google.NormalizeResponse(resp)
	if err != nil {
		return nil, c.fail(r, err)
	}

	c.complete(r, out.Usage)
	return out, nil
}

// GenerateWithTools sends a prompt along with tool declarations. The first
// function call the model requests is returned; it is never executed.
// FunctionCall is nil when the model answered in text.
func (c *Client) GenerateWithTools(ctx context.Context, prompt string, tools []gemlink.Tool, opts ...gemlink.Option) (*gemlink.ToolResponse, error) {
	if err := requireText("prompt", prompt); err != nil {
		return nil, err
	}
	if err := gemlink.ValidateTools(tools); err != nil {
		return nil, err
	}

	model, cfg, err := c.prepare(gemlink.ApplyOptions(opts...), tools)
	if err != nil {
		return nil, err
	}

	r, err := c.begin(ctx, OpTools, model)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.GenerateContent(ctx, model, google.ConvertHistory(nil, prompt), cfg)
	if err != nil {
		return nil, c.fail(r, err)
	}
	if err := google.CheckBlocked(resp); err != nil {
		return nil, c.fail(r, err)
	}

	out := &gemlink.ToolResponse{
		Content:      google.CandidateText(resp),
		FunctionCall: google.ExtractFunctionCall(resp),
		Usage:        google.ConvertUsage(resp.UsageMetadata),
	}
	c.complete(r, out.Usage)
	return out, nil
}

// GenerateStream sends a prompt and streams the response text.
//
// Validation and the rate-limit wait happen before the channel is returned.
// A successful stream ends with exactly one chunk whose Done is set. A failed
// stream ends with a single chunk carrying the classified error and no Done
// chunk. The channel is closed in both cases. Cancelling ctx stops the
// stream.
func (c *Client) GenerateStream(ctx context.Context, prompt string, opts ...gemlink.Option) (<-chan gemlink.StreamChunk, error) {
	if err := requireText("prompt", prompt); err != nil {
		return nil, err
	}

	model, cfg, err := c.prepare(gemlink.ApplyOptions(opts...), nil)
	if err != nil {
		return nil, err
	}

	r, err := c.begin(ctx, OpStream, model)
	if err != nil {
		return nil, err
	}

	seq := c.transport.GenerateContentStream(ctx, model, google.ConvertHistory(nil, prompt), cfg)
	ch := make(chan gemlink.StreamChunk)
	go c.stream(ctx, r, seq, ch)
	return ch, nil
}

func (c *Client) stream(ctx context.Context, r *request, seq iter.Seq2[*genai.GenerateContentResponse, error], ch chan<- gemlink.StreamChunk) {
	defer close(ch)

	send := func(chunk gemlink.StreamChunk) bool {
		select {
		case ch <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var usage *gemlink.Usage
	for resp, err := range seq {
		if err == nil {
			err = google.CheckBlocked(resp)
		}
		if err != nil {
			send(gemlink.StreamChunk{Err: c.fail(r, err)})
			return
		}
		if resp == nil {
			continue
		}
		if u := google.ConvertUsage(resp.UsageMetadata); u != nil {
			usage = u
		}
		if text := google.CandidateText(resp); text != "" {
			if !send(gemlink.StreamChunk{Text: text}) {
				// The consumer went away mid-stream.
				_ = c.fail(r, ctx.Err())
				return
			}
		}
	}

	c.complete(r, usage)
	send(gemlink.StreamChunk{Done: true, Usage: usage})
}

func loadImage(img gemlink.ImageInput) ([]byte, string, error) {
	hasPath := img.Path != ""
	hasData := len(img.Data) > 0

	switch {
	case hasPath && hasData:
		return nil, "", &gemlink.ValidationError{Field: "image", Reason: "set either a path or data", Err: gemlink.ErrAmbiguousImageInput}
	case hasPath:
		data, err := os.ReadFile(img.Path) //#nosec G304 -- caller-chosen image path
		if err != nil {
			return nil, "", &gemlink.ValidationError{Field: "image", Reason: "cannot read image file", Err: err}
		}
		if len(data) == 0 {
			return nil, "", &gemlink.ValidationError{Field: "image", Reason: "image file is empty", Err: gemlink.ErrEmptyInput}
		}
		return data, gemlink.MIMEType(img.Path), nil
	case hasData:
		mimeType := img.MIMEType
		if mimeType == "" {
			mimeType = DefaultImageMIMEType
		}
		return img.Data, mimeType, nil
	default:
		return nil, "", &gemlink.ValidationError{Field: "image", Reason: "no image given", Err: gemlink.ErrNoImageInput}
	}
}
