// Package client provides the Gemini content client.
//
// The Client covers text generation, streaming, image analysis, tool calling,
// token counting, embeddings and model listing. It provides:
//
//   - Layered generation config: compiled defaults, settings file, per-call options
//   - Fixed safety settings: taken from settings only, never from call options
//   - Client-side rate limiting: one request per interval, shared by all calls
//   - Classified errors: every provider failure is a *gemlink.Error
//   - Event emission: observable operations via channel
//
// # Basic Usage
//
//	c, err := client.New(ctx, client.Config{
//	    APIKey: os.Getenv("GEMINI_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := c.Generate(ctx, "Hello!")
//
// # Local Validation
//
// Inputs are checked before the rate limiter is touched. Empty prompts,
// missing or ambiguous images, invalid tool declarations and reserved
// generation-config keys return a *gemlink.ValidationError and cost nothing.
//
// # Structured Output
//
// GenerateJSON derives a response schema from a struct type and decodes the
// answer:
//
//	type Capital struct {
//	    City    string `json:"city"`
//	    Country string `json:"country"`
//	}
//	capital, err := client.GenerateJSON[Capital](ctx, c, "Capital of Peru?")
//
// # Retries
//
// The client never retries. Wrap calls with the retry package to back off on
// rate-limit errors:
//
//	resp, err := retry.Do(ctx, retry.DefaultConfig(), func() (*gemlink.Response, error) {
//	    return c.Generate(ctx, prompt)
//	})
//
// # Events
//
// Subscribe to request events for monitoring:
//
//	events := make(chan client.Event, 100)
//	c, _ := client.New(ctx, client.Config{APIKey: key, Events: events})
//
//	go func() {
//	    for e := range events {
//	        log.Printf("[%s] %s %s (%v)", e.Type, e.Operation, e.Model, e.Duration)
//	    }
//	}()
package client
