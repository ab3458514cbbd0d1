package tourism

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

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Query answers a query with the response text and place name only.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TourismHandler").Start(r.Context(), "Query", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/query"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Query"))
	l.DebugContext(ctx, "Query handler invoked")

	answer, ok := h.answer(w, r.WithContext(ctx), l, span)
	if !ok {
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.QueryResponse{
		Response:  answer.Response,
		PlaceName: answer.PlaceName,
	})
}

// QueryMap answers a query with coordinates, weather and places for map views.
func (h *Handler) QueryMap(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TourismHandler").Start(r.Context(), "QueryMap", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/query/map"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "QueryMap"))
	l.DebugContext(ctx, "QueryMap handler invoked")

	answer, ok := h.answer(w, r.WithContext(ctx), l, span)
	if !ok {
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, answer)
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request, l *slog.Logger, span trace.Span) (types.TourismAnswer, bool) {
	ctx := r.Context()

	query, err := api.DecodeQuery(w, r)
	if err != nil {
		if errors.Is(err, types.ErrEmptyQuery) {
			l.InfoContext(ctx, "Rejected empty query")
			api.ErrorResponse(w, r, http.StatusBadRequest, "Query cannot be empty")
			return types.TourismAnswer{}, false
		}
		l.WarnContext(ctx, "Failed to decode query body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return types.TourismAnswer{}, false
	}

	answer, err := h.service.Answer(ctx, query)
	if err != nil {
		if errors.Is(err, types.ErrEmptyQuery) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Query cannot be empty")
			return types.TourismAnswer{}, false
		}
		l.ErrorContext(ctx, "Failed to process query", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Sorry, something went wrong while processing your query. Please try again.")
		return types.TourismAnswer{}, false
	}

	span.SetStatus(codes.Ok, "")
	return answer, true
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "tourism-agent",
	})
}
