package llmInteraction

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-tourism-agent/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/go-tourism-agent/internal/api/generative_ai"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/performance"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/responsecache"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/tourism"
	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

const pathEnhanced = "enhanced"

var (
	_ LlmInteractionService = (*LlmInteractionServiceImpl)(nil)
	_ Deterministic         = (*tourism.ServiceImpl)(nil)
)

// LlmInteractionService answers queries with a language model, falling back
// to the deterministic pipeline whenever the model path cannot finish.
type LlmInteractionService interface {
	Answer(ctx context.Context, query string) (types.TourismAnswer, error)
	Status(ctx context.Context) types.SystemStatus
	CacheStats(ctx context.Context) types.CacheStats
	ClearCache(ctx context.Context) error
	ResetPerformance(ctx context.Context) types.PerformanceStats
}

// Deterministic is the part of the tourism service the model path reuses.
type Deterministic interface {
	Answer(ctx context.Context, query string) (types.TourismAnswer, error)
	Resolve(ctx context.Context, place string) *types.GeoPoint
	Gather(ctx context.Context, point types.GeoPoint, intents types.IntentSet) tourism.Gathered
	Collaborators() types.CollaboratorStatus
}

type Config struct {
	Enabled             bool
	ResponseTemperature float32
	ResponseTopP        float32
	ResponseMaxTokens   int
}

type LlmInteractionServiceImpl struct {
	logger        *slog.Logger
	deterministic Deterministic
	client        generativeAI.LLMClient
	analyzer      *Analyzer
	cache         responsecache.Store
	manager       *performance.Manager
	metrics       *metrics.AppMetrics
	cfg           Config
}

func NewLlmInteractionService(
	deterministic Deterministic,
	client generativeAI.LLMClient,
	analyzer *Analyzer,
	cache responsecache.Store,
	manager *performance.Manager,
	appMetrics *metrics.AppMetrics,
	cfg Config,
	logger *slog.Logger,
) *LlmInteractionServiceImpl {
	if cache == nil {
		cache = responsecache.NewMemoryStore()
	}
	if manager == nil {
		manager = performance.NewManager(nil, nil)
	}
	if appMetrics == nil {
		appMetrics = metrics.NewNoop()
	}
	if cfg.ResponseTemperature <= 0 {
		cfg.ResponseTemperature = 0.7
	}
	if cfg.ResponseTopP <= 0 {
		cfg.ResponseTopP = 0.9
	}
	if cfg.ResponseMaxTokens <= 0 {
		cfg.ResponseMaxTokens = 2000
	}
	if analyzer == nil && client != nil {
		analyzer = NewAnalyzer(client, 0, logger)
	}
	return &LlmInteractionServiceImpl{
		logger:        logger,
		deterministic: deterministic,
		client:        client,
		analyzer:      analyzer,
		cache:         cache,
		manager:       manager,
		metrics:       appMetrics,
		cfg:           cfg,
	}
}

func (s *LlmInteractionServiceImpl) Answer(ctx context.Context, query string) (types.TourismAnswer, error) {
	ctx, span := otel.Tracer("LlmInteractionService").Start(ctx, "Answer")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return types.TourismAnswer{}, types.ErrEmptyQuery
	}
	if !s.cfg.Enabled || s.client == nil {
		return s.fallback(ctx, query, "disabled")
	}

	start := time.Now()
	l := s.logger.With(slog.String("method", "Answer"))
	model := s.manager.RecommendModel(query)
	span.SetAttributes(attribute.String("model", model))

	analysis, err := s.analyzer.Analyze(ctx, query, model)
	if err != nil {
		l.WarnContext(ctx, "Model analysis unusable", slog.Any("error", err))
		s.manager.Monitor.RecordError()
		return s.fallback(ctx, query, "analysis")
	}

	point := s.deterministic.Resolve(ctx, analysis.Location)
	if point == nil {
		l.InfoContext(ctx, "Analysed location could not be geocoded", slog.String("location", analysis.Location))
		return s.fallback(ctx, query, "geocode")
	}

	intents := analysis.IntentSet()
	got := s.deterministic.Gather(ctx, *point, intents)
	scenario := SelectScenario(*analysis)
	span.SetAttributes(
		attribute.String("tourism.scenario", scenario.String()),
		attribute.StringSlice("tourism.intents", intents.Sorted()),
	)

	answer := func(text string) types.TourismAnswer {
		coords := point.Coordinates()
		name := point.DisplayName
		return types.TourismAnswer{
			Response:    text,
			PlaceName:   &name,
			Coordinates: &coords,
			Weather:     got.Weather,
			Places:      got.Places,
		}
	}

	key := responsecache.Key(query, point.DisplayName, string(analysis.SpecialContext), string(analysis.GroupInfo.Type))
	if cached, ok := s.cache.Get(ctx, key); ok {
		l.DebugContext(ctx, "Response cache hit")
		s.metrics.ResponseCacheHitsTotal.Add(ctx, 1)
		s.record(ctx, start, model, true)
		return answer(cached), nil
	}

	prompt := responsePrompt(scenario, newPromptData(*analysis, point.DisplayName, got.Weather, got.Places), query)
	text, err := s.client.Generate(ctx, prompt, generativeAI.GenerationOptions{
		Model:       model,
		Temperature: s.cfg.ResponseTemperature,
		TopP:        s.cfg.ResponseTopP,
		MaxTokens:   s.cfg.ResponseMaxTokens,
	})
	if err != nil {
		l.WarnContext(ctx, "Response generation failed", slog.Any("error", err))
		span.RecordError(err)
		s.manager.Monitor.RecordError()
		return s.fallback(ctx, query, "generation")
	}

	if err := s.cache.Set(ctx, key, text); err != nil {
		l.WarnContext(ctx, "Failed to cache response", slog.Any("error", err))
	}
	s.record(ctx, start, model, false)
	span.SetStatus(codes.Ok, "")
	l.InfoContext(ctx, "Enhanced query answered",
		slog.String("place", point.DisplayName),
		slog.String("scenario", scenario.String()),
		slog.String("model", model))
	return answer(text), nil
}

// fallback hands the whole query to the deterministic pipeline. Nothing the
// model produced is carried over.
func (s *LlmInteractionServiceImpl) fallback(ctx context.Context, query, reason string) (types.TourismAnswer, error) {
	s.metrics.LLMFallbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	s.logger.DebugContext(ctx, "Falling back to deterministic pipeline", slog.String("reason", reason))
	return s.deterministic.Answer(ctx, query)
}

func (s *LlmInteractionServiceImpl) record(ctx context.Context, start time.Time, model string, cached bool) {
	elapsed := time.Since(start)
	s.manager.Monitor.RecordQuery(elapsed, model, cached)
	attrs := metric.WithAttributes(attribute.String("path", pathEnhanced))
	s.metrics.QueriesTotal.Add(ctx, 1, attrs)
	s.metrics.QueryDurationSeconds.Record(ctx, elapsed.Seconds(), attrs)
}

func (s *LlmInteractionServiceImpl) available(ctx context.Context) bool {
	return s.cfg.Enabled && s.client != nil && s.client.Available(ctx)
}

func (s *LlmInteractionServiceImpl) Status(ctx context.Context) types.SystemStatus {
	ok := s.available(ctx)
	perf := s.manager.Stats()
	if ok {
		perf.RecommendedModel = s.manager.RecommendModel("")
	}
	return types.SystemStatus{
		LLMAvailable:      ok,
		TraditionalAgents: s.deterministic.Collaborators(),
		LLMAgents:         types.LLMAgentStatus{Intent: ok, Response: ok},
		Performance:       perf,
		Cache:             s.cacheStats(ctx, ok),
	}
}

func (s *LlmInteractionServiceImpl) CacheStats(ctx context.Context) types.CacheStats {
	return s.cacheStats(ctx, s.available(ctx))
}

func (s *LlmInteractionServiceImpl) cacheStats(ctx context.Context, available bool) types.CacheStats {
	model := ""
	if s.client != nil {
		if models := s.client.Models(); len(models) > 0 {
			model = models[0]
		}
	}
	return types.CacheStats{
		Size:      s.cache.Len(ctx),
		Backend:   s.cache.Backend(),
		Available: available,
		Model:     model,
	}
}

func (s *LlmInteractionServiceImpl) ClearCache(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Clearing response cache", slog.String("backend", s.cache.Backend()))
	return s.cache.Clear(ctx)
}

// ResetPerformance clears the monitor counters and returns the stats as they
// were before the reset.
func (s *LlmInteractionServiceImpl) ResetPerformance(ctx context.Context) types.PerformanceStats {
	before := s.manager.Stats()
	s.manager.Reset()
	s.logger.InfoContext(ctx, "Performance counters reset", slog.Int64("query_count", before.QueryCount))
	return before
}
