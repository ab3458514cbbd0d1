// Package generativeAI wraps the language model backends used by the
// enhanced query path.
package generativeAI

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when a backend answers with no text.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// GenerationOptions tune one completion. Zero values leave the backend default.
type GenerationOptions struct {
	Model       string
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// LLMClient is the contract the query pipeline needs from a model backend.
type LLMClient interface {
	Provider() string
	// Models lists the models this client may be asked to use, preferred first.
	Models() []string
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
	Available(ctx context.Context) bool
}
