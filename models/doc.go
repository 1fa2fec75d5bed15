// Package models provides Gemini model identifiers.
//
// Use them with gemlink.WithModel or in a client's settings:
//
//	import (
//	    "github.com/spetersoncode/gemlink"
//	    "github.com/spetersoncode/gemlink/models"
//	)
//
//	resp, err := c.Generate(ctx, "Explain quicksort", gemlink.WithModel(models.Gemini25Pro))
//
// Pricing, token limits and task recommendations for these models live in the
// config package's catalog.
package models
