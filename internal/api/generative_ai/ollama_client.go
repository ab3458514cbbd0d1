package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultOllamaURL     = "http://localhost:11434"
	DefaultOllamaModel   = "qwen2.5:0.5b"
	DefaultOllamaTimeout = 60 * time.Second
)

var _ LLMClient = (*OllamaClient)(nil)

type OllamaConfig struct {
	BaseURL string
	Models  []string
	Timeout time.Duration
}

// OllamaClient talks to a local Ollama server through langchaingo.
type OllamaClient struct {
	llm        *ollama.LLM
	baseURL    string
	models     []string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOllamaClient(cfg OllamaConfig, httpClient *http.Client, logger *slog.Logger) (*OllamaClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaURL
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []string{DefaultOllamaModel}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultOllamaTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Models[0]),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}

	return &OllamaClient{
		llm:        llm,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		models:     cfg.Models,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

func (c *OllamaClient) Provider() string { return ProviderOllama }

func (c *OllamaClient) Models() []string {
	out := make([]string, len(c.models))
	copy(out, c.models)
	return out
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.models[0]
	}
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "OllamaGenerate", trace.WithAttributes(
		attribute.Int("prompt.length", len(prompt)),
		attribute.String("model", model),
	))
	defer span.End()

	callOpts := []llms.CallOption{llms.WithModel(model)}
	if opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(float64(opts.Temperature)))
	}
	if opts.TopP > 0 {
		callOpts = append(callOpts, llms.WithTopP(float64(opts.TopP)))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	resp, err := c.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, callOpts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ollama generation failed")
		return "", fmt.Errorf("ollama generate with %s: %w", model, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		span.SetStatus(codes.Error, "empty completion")
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	span.SetAttributes(attribute.Int("response.length", len(text)))
	span.SetStatus(codes.Ok, "")
	return text, nil
}

// Available probes the server's model listing.
func (c *OllamaClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "Ollama not reachable", slog.Any("error", err))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
