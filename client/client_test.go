package client

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/spetersoncode/gemlink"
	"github.com/spetersoncode/gemlink/chat"
	"github.com/spetersoncode/gemlink/config"
	"github.com/spetersoncode/gemlink/models"
)

type streamItem struct {
	resp *genai.GenerateContentResponse
	err  error
}

// fakeTransport is an in-memory Transport that records the last request.
type fakeTransport struct {
	mu sync.Mutex

	response *genai.GenerateContentResponse
	stream   []streamItem
	tokens   *genai.CountTokensResponse
	embed    *genai.EmbedContentResponse
	models   []*genai.Model
	err      error

	calls        int
	callTimes    []time.Time
	lastModel    string
	lastContents []*genai.Content
	lastConfig   *genai.GenerateContentConfig
	lastEmbed    *genai.EmbedContentConfig
}

func (f *fakeTransport) record(model string, contents []*genai.Content) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.callTimes = append(f.callTimes, time.Now())
	f.lastModel = model
	f.lastContents = contents
}

func (f *fakeTransport) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.record(model, contents)
	f.mu.Lock()
	f.lastConfig = cfg
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeTransport) GenerateContentStream(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.record(model, contents)
	f.lastConfig = cfg
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, item := range f.stream {
			if !yield(item.resp, item.err) {
				return
			}
		}
	}
}

func (f *fakeTransport) CountTokens(_ context.Context, model string, contents []*genai.Content) (*genai.CountTokensResponse, error) {
	f.record(model, contents)
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

func (f *fakeTransport) EmbedContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.record(model, contents)
	f.lastEmbed = cfg
	if f.err != nil {
		return nil, f.err
	}
	return f.embed, nil
}

func (f *fakeTransport) ListModels(_ context.Context) ([]*genai.Model, error) {
	f.record("", nil)
	if f.err != nil {
		return nil, f.err
	}
	return f.models, nil
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     4,
			CandidatesTokenCount: 2,
			TotalTokenCount:      6,
		},
	}
}

// fastSettings keeps the limiter interval at 10ms.
func fastSettings() config.Settings {
	s := config.DefaultSettings()
	s.RateLimit.RequestsPerMinute = 6000
	return s
}

func newTestClient(t *testing.T, ft *fakeTransport, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		APIKey:    "test-key",
		Settings:  fastSettings(),
		Transport: ft,
		Logger:    zaptest.NewLogger(t),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		_, err := New(context.Background(), Config{Transport: &fakeTransport{}})
		assert.ErrorIs(t, err, gemlink.ErrMissingAPIKey)
	})

	t.Run("fills default settings", func(t *testing.T) {
		c, err := New(context.Background(), Config{APIKey: "k", Transport: &fakeTransport{}})
		require.NoError(t, err)

		s := c.Settings()
		assert.Equal(t, config.DefaultModel, s.DefaultModel)
		assert.Equal(t, config.DefaultEmbeddingModel, s.EmbeddingModel)
		assert.Equal(t, config.DefaultSafetySettings(), s.SafetySettings)
		assert.Equal(t, config.DefaultRequestsPerMinute, s.RateLimit.RequestsPerMinute)
		assert.NotEmpty(t, c.AvailableModels())
	})

	t.Run("rejects invalid settings", func(t *testing.T) {
		_, err := New(context.Background(), Config{
			APIKey:    "k",
			Transport: &fakeTransport{},
			Settings:  config.Settings{RateLimit: config.RateLimit{RequestsPerMinute: -5}},
		})
		assert.Error(t, err)
	})

	t.Run("builds the Gemini transport", func(t *testing.T) {
		c, err := New(context.Background(), Config{
			APIKey:     "k",
			BaseURL:    "http://127.0.0.1:1",
			HTTPClient: http.DefaultClient,
		})
		require.NoError(t, err)
		assert.NotNil(t, c.transport)
	})
}

func TestNewCopiesCallerConfig(t *testing.T) {
	settings := fastSettings()
	settings.GenerationConfig = map[string]any{
		"temperature":    0.3,
		"thinkingConfig": map[string]any{"thinkingBudget": 128},
	}
	catalog := config.Catalog{
		Recommendations: map[config.TaskType]string{config.TaskChat: models.Gemini25Pro},
	}

	ft := &fakeTransport{response: textResponse("ok")}
	c, err := New(context.Background(), Config{
		APIKey:    "k",
		Settings:  settings,
		Catalog:   catalog,
		Transport: ft,
		Logger:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	// Defaults are merged into the client's copy only.
	assert.Len(t, catalog.Recommendations, 1)
	assert.Equal(t, models.Gemini25Pro, c.RecommendedModel(config.TaskCodeGeneration))

	settings.SafetySettings[0].Threshold = string(genai.HarmBlockThresholdBlockNone)
	settings.GenerationConfig["temperature"] = 1.9
	settings.GenerationConfig["thinkingConfig"].(map[string]any)["thinkingBudget"] = 0
	catalog.Recommendations[config.TaskCodeGeneration] = "gemini-custom"
	catalog.Recommendations[config.TaskChat] = "gemini-custom"

	assertOriginal := func(t *testing.T) {
		t.Helper()
		_, err := c.Generate(context.Background(), "hi")
		require.NoError(t, err)

		cfg := ft.lastConfig
		require.NotEmpty(t, cfg.SafetySettings)
		assert.Equal(t, genai.HarmBlockThresholdBlockMediumAndAbove, cfg.SafetySettings[0].Threshold)
		require.NotNil(t, cfg.Temperature)
		assert.InDelta(t, 0.3, *cfg.Temperature, 1e-6)
		require.NotNil(t, cfg.ThinkingConfig)
		require.NotNil(t, cfg.ThinkingConfig.ThinkingBudget)
		assert.Equal(t, int32(128), *cfg.ThinkingConfig.ThinkingBudget)

		assert.Equal(t, models.Gemini25Pro, c.RecommendedModel(config.TaskCodeGeneration))
		assert.Equal(t, models.Gemini25Pro, c.RecommendedModel(config.TaskChat))
	}

	t.Run("caller edits after New", assertOriginal)

	t.Run("edits to returned settings", func(t *testing.T) {
		s := c.Settings()
		s.SafetySettings[0].Threshold = string(genai.HarmBlockThresholdBlockNone)
		s.GenerationConfig["temperature"] = 1.9

		assertOriginal(t)
	})
}

func TestGenerate(t *testing.T) {
	ft := &fakeTransport{response: textResponse("Paris")}
	c := newTestClient(t, ft, func(cfg *Config) {
		cfg.Settings.GenerationConfig = map[string]any{"temperature": 0.3, "topP": 0.5}
	})

	resp, err := c.Generate(context.Background(), "Capital of France?",
		gemlink.WithMaxTokens(100),
		gemlink.WithTopP(0.8),
	)
	require.NoError(t, err)
	assert.Equal(t, "Paris", resp.Text())
	assert.Equal(t, "STOP", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 6, resp.Usage.TotalTokens)

	assert.Equal(t, config.DefaultModel, ft.lastModel)
	require.Len(t, ft.lastContents, 1)
	assert.Equal(t, "Capital of France?", ft.lastContents[0].Parts[0].Text)

	cfg := ft.lastConfig
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.3, *cfg.Temperature, 1e-6)
	require.NotNil(t, cfg.TopP)
	assert.InDelta(t, 0.8, *cfg.TopP, 1e-6)
	require.NotNil(t, cfg.TopK)
	assert.InDelta(t, 40, *cfg.TopK, 1e-6)
	assert.Equal(t, int32(100), cfg.MaxOutputTokens)
	assert.Len(t, cfg.SafetySettings, len(config.DefaultSafetySettings()))
}

func TestGenerateModelOverride(t *testing.T) {
	ft := &fakeTransport{response: textResponse("ok")}
	c := newTestClient(t, ft)

	_, err := c.Generate(context.Background(), "hi", gemlink.WithModel("gemini-2.5-pro"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", ft.lastModel)
}

func TestGenerateLocalValidation(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		opts   []gemlink.Option
		target error
	}{
		{name: "empty prompt", prompt: "", target: gemlink.ErrEmptyInput},
		{name: "reserved safety key", prompt: "hi", opts: []gemlink.Option{
			gemlink.WithGenerationConfig(map[string]any{"safetySettings": []any{}}),
		}},
		{name: "reserved tools key", prompt: "hi", opts: []gemlink.Option{
			gemlink.WithGenerationConfig(map[string]any{"tools": []any{}}),
		}},
		{name: "unknown key", prompt: "hi", opts: []gemlink.Option{
			gemlink.WithGenerationConfig(map[string]any{"temprature": 1}),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{response: textResponse("unused")}
			c := newTestClient(t, ft)

			_, err := c.Generate(context.Background(), tt.prompt, tt.opts...)

			var ve *gemlink.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.Zero(t, ft.callCount())
			assert.True(t, c.limiter.LastGrant().IsZero())
		})
	}
}

func TestGenerateTurns(t *testing.T) {
	ft := &fakeTransport{response: textResponse("Rome")}
	c := newTestClient(t, ft)

	history := []gemlink.HistoryEntry{
		gemlink.UserEntry("Capital of France?"),
		gemlink.ModelEntry("Paris"),
	}
	_, err := c.GenerateTurns(context.Background(), history, "And Italy?")
	require.NoError(t, err)

	require.Len(t, ft.lastContents, 3)
	assert.Equal(t, "model", ft.lastContents[1].Role)
	assert.Equal(t, "And Italy?", ft.lastContents[2].Parts[0].Text)

	t.Run("invalid role", func(t *testing.T) {
		_, err := c.GenerateTurns(context.Background(),
			[]gemlink.HistoryEntry{{Role: "assistant", Content: "x"}}, "hi")
		var ve *gemlink.ValidationError
		assert.True(t, errors.As(err, &ve))
	})
}

func TestGenerateClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind gemlink.ErrorKind
	}{
		{
			name: "quota",
			err:  genai.APIError{Code: 429, Message: "Resource has been exhausted", Status: "RESOURCE_EXHAUSTED"},
			kind: gemlink.KindRateLimit,
		},
		{
			name: "permission",
			err:  genai.APIError{Code: 403, Message: "Permission denied", Status: "PERMISSION_DENIED"},
			kind: gemlink.KindAuthentication,
		},
		{
			name: "api key message",
			err:  errors.New("API key not valid"),
			kind: gemlink.KindAuthentication,
		},
		{
			name: "timeout",
			err:  context.DeadlineExceeded,
			kind: gemlink.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{err: tt.err}
			c := newTestClient(t, ft)

			_, err := c.Generate(context.Background(), "hi")

			var classified *gemlink.Error
			require.True(t, errors.As(err, &classified))
			assert.Equal(t, tt.kind, classified.Kind)
			assert.Equal(t, tt.err, classified.Cause)
			assert.Equal(t, 1, ft.callCount())
		})
	}
}

func TestGenerateBlockedPrompt(t *testing.T) {
	ft := &fakeTransport{response: &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	}}
	c := newTestClient(t, ft)

	_, err := c.Generate(context.Background(), "something bad")
	assert.True(t, gemlink.IsSafety(err))
}

func TestGenerateCancelledBeforeWait(t *testing.T) {
	ft := &fakeTransport{response: textResponse("unused")}
	c := newTestClient(t, ft)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Generate(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gemlink.KindUnknown, gemlink.KindOf(err))
	assert.Zero(t, ft.callCount())
}

func TestRateLimitSpacesCalls(t *testing.T) {
	const tolerance = 20 * time.Millisecond

	assertSpaced := func(t *testing.T, stamps []time.Time, interval time.Duration) {
		t.Helper()
		slices.SortFunc(stamps, func(a, b time.Time) int { return a.Compare(b) })
		for i := 1; i < len(stamps); i++ {
			assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), interval-tolerance, "gap before call %d", i)
		}
	}

	t.Run("sequential", func(t *testing.T) {
		ft := &fakeTransport{response: textResponse("ok")}
		c := newTestClient(t, ft, func(cfg *Config) {
			cfg.Settings.RateLimit.RequestsPerMinute = 600
		})

		for range 2 {
			_, err := c.Generate(context.Background(), "hi")
			require.NoError(t, err)
		}
		require.Len(t, ft.callTimes, 2)
		assert.Equal(t, 100*time.Millisecond, c.limiter.Interval())
		assertSpaced(t, ft.callTimes, c.limiter.Interval())
	})

	t.Run("concurrent callers", func(t *testing.T) {
		ft := &fakeTransport{response: textResponse("ok")}
		c := newTestClient(t, ft, func(cfg *Config) {
			cfg.Settings.RateLimit.RequestsPerMinute = 600
		})

		const callers = 4
		var wg sync.WaitGroup
		errs := make(chan error, callers)
		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.Generate(context.Background(), "hi")
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		ft.mu.Lock()
		stamps := slices.Clone(ft.callTimes)
		ft.mu.Unlock()
		require.Len(t, stamps, callers)
		assertSpaced(t, stamps, c.limiter.Interval())
	})
}

func TestAnalyzeImage(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "cat.PNG")
	require.NoError(t, os.WriteFile(pngPath, []byte{0x89, 'P', 'N', 'G'}, 0o600))

	t.Run("path resolves mime type", func(t *testing.T) {
		ft := &fakeTransport{response: textResponse("a cat")}
		c := newTestClient(t, ft)

		resp, err := c.AnalyzeImage(context.Background(), gemlink.ImageInput{Path: pngPath}, "What is this?")
		require.NoError(t, err)
		assert.Equal(t, "a cat", resp.Text())

		require.Len(t, ft.lastContents, 1)
		parts := ft.lastContents[0].Parts
		require.Len(t, parts, 2)
		assert.Equal(t, "What is this?", parts[0].Text)
		assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, parts[1].InlineData.Data)
	})

	t.Run("raw data defaults to jpeg", func(t *testing.T) {
		ft := &fakeTransport{response: textResponse("ok")}
		c := newTestClient(t, ft)

		_, err := c.AnalyzeImage(context.Background(), gemlink.ImageInput{Data: []byte{0xFF, 0xD8}}, "Describe")
		require.NoError(t, err)
		assert.Equal(t, DefaultImageMIMEType, ft.lastContents[0].Parts[1].InlineData.MIMEType)
	})

	t.Run("raw data keeps given type", func(t *testing.T) {
		ft := &fakeTransport{response: textResponse("ok")}
		c := newTestClient(t, ft)

		_, err := c.AnalyzeImage(context.Background(), gemlink.ImageInput{Data: []byte{1}, MIMEType: "image/webp"}, "Describe")
		require.NoError(t, err)
		assert.Equal(t, "image/webp", ft.lastContents[0].Parts[1].InlineData.MIMEType)
	})

	local := []struct {
		name   string
		input  gemlink.ImageInput
		target error
	}{
		{name: "no input", input: gemlink.ImageInput{}, target: gemlink.ErrNoImageInput},
		{name: "both inputs", input: gemlink.ImageInput{Path: pngPath, Data: []byte{1}}, target: gemlink.ErrAmbiguousImageInput},
		{name: "missing file", input: gemlink.ImageInput{Path: filepath.Join(dir, "nope.jpg")}, target: os.ErrNotExist},
	}
	for _, tt := range local {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{response: textResponse("unused")}
			c := newTestClient(t, ft)

			_, err := c.AnalyzeImage(context.Background(), tt.input, "Describe")
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, gemlink.KindUnknown, gemlink.KindOf(err))
			assert.Zero(t, ft.callCount())
			assert.True(t, c.limiter.LastGrant().IsZero())
		})
	}
}

func collect(t *testing.T, ch <-chan gemlink.StreamChunk) []gemlink.StreamChunk {
	t.Helper()
	var out []gemlink.StreamChunk
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, chunk)
		case <-timeout:
			t.Fatal("stream did not close")
			return out
		}
	}
}

func TestGenerateStream(t *testing.T) {
	final := textResponse("!")
	ft := &fakeTransport{stream: []streamItem{
		{resp: textResponse("Hel")},
		{resp: &genai.GenerateContentResponse{}},
		{resp: textResponse("lo")},
		{resp: final},
	}}
	c := newTestClient(t, ft)

	ch, err := c.GenerateStream(context.Background(), "Say hello")
	require.NoError(t, err)
	chunks := collect(t, ch)

	require.Len(t, chunks, 4)
	assert.Equal(t, "Hel", chunks[0].Text)
	assert.Equal(t, "lo", chunks[1].Text)
	assert.Equal(t, "!", chunks[2].Text)

	done := 0
	for _, chunk := range chunks {
		assert.NoError(t, chunk.Err)
		if chunk.Done {
			done++
		}
	}
	assert.Equal(t, 1, done)

	last := chunks[len(chunks)-1]
	assert.True(t, last.Done)
	assert.Empty(t, last.Text)
	require.NotNil(t, last.Usage)
	assert.Equal(t, 6, last.Usage.TotalTokens)
}

func TestGenerateStreamEmpty(t *testing.T) {
	c := newTestClient(t, &fakeTransport{})

	ch, err := c.GenerateStream(context.Background(), "hi")
	require.NoError(t, err)
	chunks := collect(t, ch)

	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].Done)
	assert.Nil(t, chunks[0].Usage)
}

func TestGenerateStreamErrors(t *testing.T) {
	tests := []struct {
		name string
		item streamItem
		kind gemlink.ErrorKind
	}{
		{
			name: "provider error",
			item: streamItem{err: genai.APIError{Code: 429, Message: "quota", Status: "RESOURCE_EXHAUSTED"}},
			kind: gemlink.KindRateLimit,
		},
		{
			name: "blocked mid-stream",
			item: streamItem{resp: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			}},
			kind: gemlink.KindSafety,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{stream: []streamItem{
				{resp: textResponse("partial")},
				tt.item,
				{resp: textResponse("never sent")},
			}}
			c := newTestClient(t, ft)

			ch, err := c.GenerateStream(context.Background(), "hi")
			require.NoError(t, err)
			chunks := collect(t, ch)

			require.Len(t, chunks, 2)
			assert.Equal(t, "partial", chunks[0].Text)
			assert.False(t, chunks[1].Done)
			assert.Equal(t, tt.kind, gemlink.KindOf(chunks[1].Err))
		})
	}
}

func TestGenerateStreamValidatesFirst(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(t, ft)

	ch, err := c.GenerateStream(context.Background(), "")
	assert.Nil(t, ch)
	assert.ErrorIs(t, err, gemlink.ErrEmptyInput)
	assert.Zero(t, ft.callCount())
}

func TestGenerateStreamCancel(t *testing.T) {
	ft := &fakeTransport{stream: []streamItem{
		{resp: textResponse("one")},
		{resp: textResponse("two")},
	}}
	c := newTestClient(t, ft)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := c.GenerateStream(ctx, "hi")
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, "one", first.Text)
	cancel()

	// The producer stops and closes the channel without blocking.
	collect(t, ch)
}

func TestGenerateStreamCancelReportsError(t *testing.T) {
	events := make(chan Event, 10)
	ft := &fakeTransport{stream: []streamItem{
		{resp: textResponse("one")},
		{resp: textResponse("two")},
	}}
	c := newTestClient(t, ft, func(cfg *Config) { cfg.Events = events })

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := c.GenerateStream(ctx, "hi")
	require.NoError(t, err)

	started := <-events
	assert.Equal(t, EventRequestStart, started.Type)

	// Nothing reads the first chunk, so the producer can only see the cancel.
	cancel()

	var failed Event
	select {
	case failed = <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("no event after cancel")
	}
	assert.Equal(t, EventRequestError, failed.Type)
	assert.Equal(t, OpStream, failed.Operation)
	assert.Equal(t, started.RequestID, failed.RequestID)
	require.NotNil(t, failed.Error)
	assert.ErrorIs(t, failed.Error, context.Canceled)

	assert.Empty(t, collect(t, ch))
	assert.Empty(t, events)
}

var weatherTool = gemlink.Tool{
	Name:        "get_weather",
	Description: "Current weather for a city",
	Parameters:  []byte(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`),
}

func TestGenerateWithTools(t *testing.T) {
	t.Run("text answer has no function call", func(t *testing.T) {
		ft := &fakeTransport{response: textResponse("I can answer that directly.")}
		c := newTestClient(t, ft)

		resp, err := c.GenerateWithTools(context.Background(), "Hello", []gemlink.Tool{weatherTool})
		require.NoError(t, err)
		assert.Nil(t, resp.FunctionCall)
		assert.NotEmpty(t, resp.Content)
		require.NotNil(t, resp.Usage)

		require.Len(t, ft.lastConfig.Tools, 1)
		assert.Equal(t, "get_weather", ft.lastConfig.Tools[0].FunctionDeclarations[0].Name)
	})

	t.Run("function call is returned, not executed", func(t *testing.T) {
		ft := &fakeTransport{response: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{Name: "get_weather", Args: map[string]any{"city": "Oslo"}}},
				}},
			}},
		}}
		c := newTestClient(t, ft)

		resp, err := c.GenerateWithTools(context.Background(), "Weather in Oslo?", []gemlink.Tool{weatherTool})
		require.NoError(t, err)
		require.NotNil(t, resp.FunctionCall)
		assert.Equal(t, "get_weather", resp.FunctionCall.Name)
		assert.NoError(t, weatherTool.ValidateArgs(resp.FunctionCall.Args))
	})

	t.Run("duplicate tools rejected locally", func(t *testing.T) {
		ft := &fakeTransport{}
		c := newTestClient(t, ft)

		_, err := c.GenerateWithTools(context.Background(), "hi", []gemlink.Tool{weatherTool, weatherTool})
		var ve *gemlink.ValidationError
		assert.True(t, errors.As(err, &ve))
		assert.Zero(t, ft.callCount())
	})

	t.Run("no tools", func(t *testing.T) {
		c := newTestClient(t, &fakeTransport{})
		_, err := c.GenerateWithTools(context.Background(), "hi", nil)
		assert.ErrorIs(t, err, gemlink.ErrEmptyInput)
	})
}

func TestCountTokens(t *testing.T) {
	ft := &fakeTransport{tokens: &genai.CountTokensResponse{TotalTokens: 12}}
	c := newTestClient(t, ft)

	n, err := c.CountTokens(context.Background(), "How many tokens?", gemlink.WithModel("gemini-2.5-pro"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, "gemini-2.5-pro", ft.lastModel)
	assert.False(t, c.limiter.LastGrant().IsZero())

	ft.err = errors.New("quota exceeded")
	_, err = c.CountTokens(context.Background(), "again")
	assert.True(t, gemlink.IsRateLimit(err))
}

func TestEmbed(t *testing.T) {
	ft := &fakeTransport{embed: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{0.5, 0.25}}},
	}}
	c := newTestClient(t, ft)

	vec, err := c.Embed(context.Background(), "hello",
		gemlink.WithEmbeddingDimensions(2),
		gemlink.WithEmbeddingTaskType(gemlink.EmbedRetrievalQuery),
	)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.25}, vec)
	assert.Equal(t, config.DefaultEmbeddingModel, ft.lastModel)
	require.NotNil(t, ft.lastEmbed.OutputDimensionality)
	assert.Equal(t, int32(2), *ft.lastEmbed.OutputDimensionality)
	assert.Equal(t, "RETRIEVAL_QUERY", ft.lastEmbed.TaskType)

	t.Run("empty text", func(t *testing.T) {
		_, err := c.Embed(context.Background(), "")
		assert.ErrorIs(t, err, gemlink.ErrEmptyInput)
	})

	t.Run("invalid options fail before the provider", func(t *testing.T) {
		ft := &fakeTransport{}
		c := newTestClient(t, ft)
		_, err := c.Embed(context.Background(), "hello", gemlink.WithEmbeddingTaskType("SEARCH"))
		var verr *gemlink.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Zero(t, ft.calls)
	})

	t.Run("missing vector", func(t *testing.T) {
		c := newTestClient(t, &fakeTransport{embed: &genai.EmbedContentResponse{}})
		_, err := c.Embed(context.Background(), "hello")
		assert.Equal(t, gemlink.KindUnknown, gemlink.KindOf(err))
		assert.ErrorIs(t, err, errNoEmbedding)
	})
}

func TestListModels(t *testing.T) {
	ft := &fakeTransport{models: []*genai.Model{
		{Name: "models/gemini-2.5-flash", DisplayName: "Gemini 2.5 Flash", InputTokenLimit: 1048576},
		nil,
		{Name: "models/gemini-embedding-001"},
	}}
	c := newTestClient(t, ft)

	list, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "models/gemini-2.5-flash", list[0].Name)
	assert.Equal(t, 1048576, list[0].InputTokenLimit)
}

func TestCatalogAccess(t *testing.T) {
	c := newTestClient(t, &fakeTransport{}, func(cfg *Config) {
		cfg.Catalog = config.Catalog{
			Recommendations: map[config.TaskType]string{config.TaskCodeGeneration: "custom-model"},
		}
	})

	assert.Equal(t, "custom-model", c.RecommendedModel(config.TaskCodeGeneration))
	assert.Equal(t, config.DefaultModel, c.RecommendedModel("unknown_task"))

	available := c.AvailableModels()
	require.NotEmpty(t, available)
	available[0].ID = "mutated"
	assert.NotEqual(t, "mutated", c.AvailableModels()[0].ID)
}

func TestEvents(t *testing.T) {
	events := make(chan Event, 10)
	ft := &fakeTransport{response: textResponse("ok")}
	c := newTestClient(t, ft, func(cfg *Config) { cfg.Events = events })

	_, err := c.Generate(context.Background(), "hi")
	require.NoError(t, err)

	ft.err = genai.APIError{Code: 401, Message: "unauthenticated"}
	_, err = c.Generate(context.Background(), "hi")
	require.Error(t, err)

	close(events)
	var got []Event
	for e := range events {
		got = append(got, e)
	}

	require.Len(t, got, 4)
	assert.Equal(t, EventRequestStart, got[0].Type)
	assert.Equal(t, EventRequestComplete, got[1].Type)
	assert.Equal(t, got[0].RequestID, got[1].RequestID)
	assert.Equal(t, OpGenerate, got[1].Operation)
	require.NotNil(t, got[1].Usage)
	assert.Equal(t, 6, got[1].Usage.TotalTokens)

	assert.NotEqual(t, got[0].RequestID, got[2].RequestID)
	assert.Equal(t, EventRequestError, got[3].Type)
	require.NotNil(t, got[3].Error)
	assert.Equal(t, gemlink.KindAuthentication, got[3].Error.Kind)
	assert.False(t, got[3].Timestamp.IsZero())
}

func TestStartChat(t *testing.T) {
	ft := &fakeTransport{response: textResponse("Nice to meet you.")}
	c := newTestClient(t, ft)

	session, err := c.StartChat(chat.WithModel("gemini-2.5-pro"))
	require.NoError(t, err)

	_, err = session.SendMessage(context.Background(), "Hi, I'm Sam.")
	require.NoError(t, err)
	_, err = session.SendMessage(context.Background(), "What's my name?")
	require.NoError(t, err)

	assert.Equal(t, 4, session.Len())
	assert.Equal(t, "gemini-2.5-pro", ft.lastModel)
	require.Len(t, ft.lastContents, 3)
	assert.Equal(t, "Hi, I'm Sam.", ft.lastContents[0].Parts[0].Text)

	t.Run("failure keeps history", func(t *testing.T) {
		ft.err = genai.APIError{Code: 500, Message: "internal"}
		_, err := session.SendMessage(context.Background(), "Still there?")
		assert.Equal(t, gemlink.KindUnknown, gemlink.KindOf(err))
		assert.Equal(t, 4, session.Len())
	})
}
