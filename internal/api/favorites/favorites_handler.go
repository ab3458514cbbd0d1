package favorites

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourism-agent/internal/api"
	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

// QueryAnswerer is the slice of the tourism service used by add-from-query.
type QueryAnswerer interface {
	Answer(ctx context.Context, query string) (types.TourismAnswer, error)
}

type Handler struct {
	service  Service
	answerer QueryAnswerer
	logger   *slog.Logger
}

func NewHandler(service Service, answerer QueryAnswerer, logger *slog.Logger) *Handler {
	return &Handler{service: service, answerer: answerer, logger: logger}
}

func startSpan(r *http.Request, op, route string) (context.Context, trace.Span) {
	return otel.Tracer("FavoritesHandler").Start(r.Context(), op, trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(route),
	))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "List", "/favorites")
	defer span.End()

	list, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list favorites", slog.String("handler", "List"), slog.Any("error", err))
		span.SetStatus(codes.Error, "list failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load favorites")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, list)
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "Add", "/favorites")
	defer span.End()
	l := h.logger.With(slog.String("handler", "Add"))

	var req types.AddFavoriteRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode favorite", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.add(ctx, w, r, l, req)
}

func (h *Handler) add(ctx context.Context, w http.ResponseWriter, r *http.Request, l *slog.Logger, req types.AddFavoriteRequest) {
	result, err := h.service.Add(ctx, req)
	switch {
	case errors.Is(err, ErrDuplicateFavorite):
		api.WriteJSONResponse(w, r, http.StatusBadRequest, result)
	case errors.Is(err, ErrInvalidFavorite):
		api.ErrorResponse(w, r, http.StatusBadRequest, result.Message)
	case err != nil:
		l.ErrorContext(ctx, "Failed to add favorite", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, result.Message)
	default:
		api.WriteJSONResponse(w, r, http.StatusOK, result)
	}
}

// AddFromQuery answers the query and saves the resolved place.
func (h *Handler) AddFromQuery(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "AddFromQuery", "/favorites/add-from-query")
	defer span.End()
	l := h.logger.With(slog.String("handler", "AddFromQuery"))

	query, err := api.DecodeQuery(w, r)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, types.ErrEmptyQuery) {
			msg = "Query cannot be empty"
		}
		api.ErrorResponse(w, r, http.StatusBadRequest, msg)
		return
	}

	answer, err := h.answerer.Answer(ctx, query)
	if err != nil {
		l.ErrorContext(ctx, "Failed to answer query", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "answer failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Sorry, something went wrong while processing your query. Please try again.")
		return
	}
	if answer.Coordinates == nil || answer.PlaceName == nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Could not geocode the place")
		return
	}
	span.SetAttributes(attribute.String("favorite.place_name", *answer.PlaceName))

	h.add(ctx, w, r, l, types.AddFavoriteRequest{
		PlaceName:   *answer.PlaceName,
		Coordinates: answer.Coordinates,
		WeatherData: answer.Weather,
		PlacesData:  answer.Places,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "Get", "/favorites/{id}")
	defer span.End()

	id, err := api.IntURLParam(r, "id")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	fav, err := h.service.Get(ctx, id)
	switch {
	case errors.Is(err, ErrFavoriteNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, MessageNotFound)
	case err != nil:
		h.logger.ErrorContext(ctx, "Failed to get favorite", slog.String("handler", "Get"), slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load favorite")
	default:
		api.WriteJSONResponse(w, r, http.StatusOK, fav)
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "Delete", "/favorites/{id}")
	defer span.End()

	id, err := api.IntURLParam(r, "id")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.service.Remove(ctx, id)
	h.writeRemoval(ctx, w, r, result, err)
}

// DeleteByName handles DELETE /favorites?name=.
func (h *Handler) DeleteByName(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "DeleteByName", "/favorites")
	defer span.End()

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "name query parameter is required")
		return
	}
	result, err := h.service.RemoveByName(ctx, name)
	h.writeRemoval(ctx, w, r, result, err)
}

func (h *Handler) writeRemoval(ctx context.Context, w http.ResponseWriter, r *http.Request, result types.FavoriteResult, err error) {
	switch {
	case errors.Is(err, ErrFavoriteNotFound):
		api.WriteJSONResponse(w, r, http.StatusNotFound, result)
	case err != nil:
		h.logger.ErrorContext(ctx, "Failed to remove favorite", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, result.Message)
	default:
		api.WriteJSONResponse(w, r, http.StatusOK, result)
	}
}
