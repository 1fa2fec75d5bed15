// Package gemlink provides a single, testable client for the Gemini
// generative-AI API.
//
// The root package holds the shared vocabulary: requests options, normalized
// responses, tool declarations, streaming chunks and the classified error
// taxonomy. The client itself lives in [github.com/spetersoncode/gemlink/client],
// conversations in [github.com/spetersoncode/gemlink/chat] and settings in
// [github.com/spetersoncode/gemlink/config].
//
// # Basic Usage
//
//	settings, err := config.LoadSettings("settings.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c, err := client.New(ctx, client.Config{
//	    APIKey:   os.Getenv("GEMINI_API_KEY"),
//	    Settings: settings,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := c.Generate(ctx, "What is the capital of France?")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Text())
//
// # Per-Call Overrides
//
// Generation parameters are merged from compiled defaults, the settings file
// and per-call options, in that order:
//
//	resp, err := c.Generate(ctx, prompt,
//	    gemlink.WithModel("gemini-2.5-pro"),
//	    gemlink.WithTemperature(0.2),
//	)
//
// The merge is shallow. Overriding a nested value such as thinkingConfig
// replaces the whole object.
//
// # Streaming
//
//	stream, err := c.GenerateStream(ctx, prompt)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for chunk := range stream {
//	    if chunk.Err != nil {
//	        log.Fatal(chunk.Err)
//	    }
//	    if chunk.Done {
//	        break
//	    }
//	    fmt.Print(chunk.Text)
//	}
//
// # Errors
//
// Every provider failure is returned as a [*Error] with one of four kinds.
// Callers branch on the kind:
//
//	switch gemlink.KindOf(err) {
//	case gemlink.KindRateLimit:
//	    // back off and retry, see the retry package
//	case gemlink.KindAuthentication:
//	    // refresh credentials
//	case gemlink.KindSafety:
//	    // rephrase the prompt
//	}
//
// Local validation failures such as [ErrNoImageInput] are returned before any
// rate-limit budget is spent and are never classified.
package gemlink
