package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

var _ LLMClient = (*GeminiClient)(nil)

type GeminiConfig struct {
	APIKey string
	Models []string
}

// GeminiClient is the hosted backend.
type GeminiClient struct {
	client *genai.Client
	models []string
	logger *slog.Logger
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewGeminiClient")
	defer span.End()

	if cfg.APIKey == "" {
		err := errors.New("gemini API key is not set")
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []string{DefaultGeminiModel}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	span.SetStatus(codes.Ok, "Gemini client created")
	return &GeminiClient{client: client, models: cfg.Models, logger: logger}, nil
}

func (c *GeminiClient) Provider() string { return ProviderGemini }

func (c *GeminiClient) Models() []string {
	out := make([]string, len(c.models))
	copy(out, c.models)
	return out
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.models[0]
	}
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "GeminiGenerate", trace.WithAttributes(
		attribute.Int("prompt.length", len(prompt)),
		attribute.String("model", model),
	))
	defer span.End()

	config := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		config.Temperature = genai.Ptr[float32](opts.Temperature)
	}
	if opts.TopP > 0 {
		config.TopP = genai.Ptr[float32](opts.TopP)
	}

	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to generate content")
		return "", fmt.Errorf("gemini generate with %s: %w", model, err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		span.SetStatus(codes.Error, "empty completion")
		return "", ErrEmptyCompletion
	}
	span.SetAttributes(attribute.Int("response.length", len(text)))
	span.SetStatus(codes.Ok, "Content generated successfully")
	return text, nil
}

// Available reports whether a client was built; the hosted API has no cheap probe.
func (c *GeminiClient) Available(context.Context) bool {
	return c.client != nil
}
