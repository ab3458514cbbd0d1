package llmInteraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	generativeAI "github.com/FACorreiaa/go-tourism-agent/internal/api/generative_ai"
	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

// ErrAnalysisFailed wraps every reason the model's analysis cannot be used.
var ErrAnalysisFailed = errors.New("query analysis failed")

const analysisSchema = `{
  "type": "object",
  "required": ["location", "intents"],
  "properties": {
    "location": {"type": "string", "minLength": 1},
    "secondary_locations": {"type": ["array", "null"], "items": {"type": "string"}},
    "intents": {"type": "array", "items": {"type": "string"}},
    "time_frame": {"type": ["object", "null"]},
    "group_info": {"type": ["object", "null"]},
    "preferences": {
      "type": ["object", "null"],
      "properties": {
        "interests": {"type": ["array", "null"], "items": {"type": "string"}}
      }
    },
    "confidence": {"type": ["number", "null"], "minimum": 0, "maximum": 1}
  }
}`

var compiledAnalysisSchema = mustSchema(analysisSchema)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid analysis schema: %v", err))
	}
	return s
}

// Analyzer asks the model for a structured reading of a query.
type Analyzer struct {
	client      generativeAI.LLMClient
	temperature float32
	logger      *slog.Logger
}

func NewAnalyzer(client generativeAI.LLMClient, temperature float32, logger *slog.Logger) *Analyzer {
	if temperature <= 0 {
		temperature = 0.1
	}
	return &Analyzer{client: client, temperature: temperature, logger: logger}
}

// Analyze returns an error wrapping ErrAnalysisFailed unless the model
// produced an object that satisfies the analysis schema.
func (a *Analyzer) Analyze(ctx context.Context, query, model string) (*types.QueryAnalysis, error) {
	ctx, span := otel.Tracer("LlmInteractionService").Start(ctx, "Analyze", trace.WithAttributes(
		attribute.String("model", model),
	))
	defer span.End()

	raw, err := a.client.Generate(ctx, analysisPrompt(query), generativeAI.GenerationOptions{
		Model:       model,
		Temperature: a.temperature,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		a.logger.WarnContext(ctx, "Discarding model analysis", slog.Any("error", err), slog.String("raw", truncate(raw, 200)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid analysis")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("analysis.location", analysis.Location),
		attribute.StringSlice("analysis.intents", analysis.Intents),
	)
	return analysis, nil
}

// parseAnalysis takes the text between the first '{' and the last '}',
// validates it against the schema and decodes it.
func parseAnalysis(raw string) (*types.QueryAnalysis, error) {
	doc, ok := cleanJSONResponse(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrAnalysisFailed)
	}

	result, err := compiledAnalysisSchema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrAnalysisFailed, strings.Join(msgs, "; "))
	}

	var analysis types.QueryAnalysis
	if err := json.Unmarshal([]byte(doc), &analysis); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	analysis.Location = strings.TrimSpace(analysis.Location)
	switch strings.ToLower(analysis.Location) {
	case "", "null", "none", "unknown":
		return nil, fmt.Errorf("%w: empty location", ErrAnalysisFailed)
	}
	return &analysis, nil
}

func cleanJSONResponse(response string) (string, bool) {
	first := strings.Index(response, "{")
	last := strings.LastIndex(response, "}")
	if first == -1 || last <= first {
		return "", false
	}
	return response[first : last+1], true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
