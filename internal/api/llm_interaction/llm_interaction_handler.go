package llmInteraction

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourism-agent/internal/api"
	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

type LlmInteractionHandler struct {
	llmInteractionService LlmInteractionService
	logger                *slog.Logger
}

func NewLLMHandler(llmInteractionService LlmInteractionService, logger *slog.Logger) *LlmInteractionHandler {
	return &LlmInteractionHandler{
		llmInteractionService: llmInteractionService,
		logger:                logger,
	}
}

// QueryEnhanced answers with the language model path when it is available.
func (h *LlmInteractionHandler) QueryEnhanced(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LlmInteractionHandler").Start(r.Context(), "QueryEnhanced", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/query/enhanced"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "QueryEnhanced"))
	l.DebugContext(ctx, "Enhanced query handler invoked")

	query, err := api.DecodeQuery(w, r)
	if err != nil {
		if errors.Is(err, types.ErrEmptyQuery) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Query cannot be empty")
			return
		}
		l.WarnContext(ctx, "Failed to decode query body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := h.llmInteractionService.Answer(ctx, query)
	if err != nil {
		if errors.Is(err, types.ErrEmptyQuery) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Query cannot be empty")
			return
		}
		l.ErrorContext(ctx, "Failed to process enhanced query", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "enhanced query failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Sorry, something went wrong while processing your query. Please try again.")
		return
	}

	span.SetStatus(codes.Ok, "")
	api.WriteJSONResponse(w, r, http.StatusOK, types.QueryResponse{
		Response:  answer.Response,
		PlaceName: answer.PlaceName,
	})
}

// Status reports collaborator, model, performance and cache state.
func (h *LlmInteractionHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LlmInteractionHandler").Start(r.Context(), "Status", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/status"),
	))
	defer span.End()

	api.WriteJSONResponse(w, r, http.StatusOK, h.llmInteractionService.Status(ctx))
}

// Root describes the service.
func (h *LlmInteractionHandler) Root(w http.ResponseWriter, r *http.Request) {
	status := h.llmInteractionService.Status(r.Context())
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"message":    "Multi-Agent Tourism System API",
		"version":    "3.0.0",
		"features":   []string{"Map Integration", "Favorites", "LLM Enhancement"},
		"llm_status": status.LLMAvailable,
		"endpoints":  map[string]string{
			"POST /api/v1/query":                    "Process tourism queries",
			"POST /api/v1/query/enhanced":           "Process queries with the language model when available",
			"POST /api/v1/query/map":                "Process queries with map data",
			"GET /api/v1/favorites":                 "List favorites",
			"POST /api/v1/favorites":                "Add a favorite",
			"POST /api/v1/favorites/add-from-query": "Answer a query and save the place",
			"GET /api/v1/favorites/{id}":            "Get a favorite",
			"DELETE /api/v1/favorites/{id}":         "Remove a favorite",
			"DELETE /api/v1/favorites?name=":        "Remove a favorite by name",
			"GET /api/v1/llm/cache/stats":           "Response cache statistics",
			"DELETE /api/v1/llm/cache":              "Clear the response cache",
			"DELETE /api/v1/llm/performance":        "Reset performance counters",
			"GET /health":                           "Health check",
			"GET /status":                           "System component status",
		},
	})
}

func (h *LlmInteractionHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, h.llmInteractionService.CacheStats(r.Context()))
}

func (h *LlmInteractionHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LlmInteractionHandler").Start(r.Context(), "ClearCache", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/llm/cache"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "ClearCache"))
	if err := h.llmInteractionService.ClearCache(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to clear response cache", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "clear failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to clear response cache")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"success": true,
		"message": "Response cache cleared",
	})
}

// ResetPerformance zeroes the performance monitor.
func (h *LlmInteractionHandler) ResetPerformance(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LlmInteractionHandler").Start(r.Context(), "ResetPerformance", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/llm/performance"),
	))
	defer span.End()

	previous := h.llmInteractionService.ResetPerformance(ctx)
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Performance counters reset",
		"previous": previous,
	})
}
