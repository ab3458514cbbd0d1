package favorites

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourism-agent/app/observability/metrics"
	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

const (
	MessageAdded     = "Place added to favorites"
	MessageDuplicate = "Place already in favorites"
	MessageRemoved   = "Favorite removed successfully"
	MessageNotFound  = "Favorite not found"
)

var _ Service = (*ServiceImpl)(nil)

// Service wraps a Repository and turns its outcomes into FavoriteResults.
// Duplicate and not-found outcomes come back as a result with Success false
// together with the matching sentinel error.
type Service interface {
	List(ctx context.Context) (types.FavoritesList, error)
	Add(ctx context.Context, req types.AddFavoriteRequest) (types.FavoriteResult, error)
	Get(ctx context.Context, id int64) (types.Favorite, error)
	Remove(ctx context.Context, id int64) (types.FavoriteResult, error)
	RemoveByName(ctx context.Context, name string) (types.FavoriteResult, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	repository Repository
	metrics    *metrics.AppMetrics
}

func NewServiceImpl(repo Repository, appMetrics *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	if appMetrics == nil {
		appMetrics = metrics.NewNoop()
	}
	return &ServiceImpl{
		logger:     logger,
		repository: repo,
		metrics:    appMetrics,
	}
}

func (s *ServiceImpl) List(ctx context.Context) (types.FavoritesList, error) {
	ctx, span := otel.Tracer("FavoritesService").Start(ctx, "List")
	defer span.End()

	favs, err := s.repository.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return types.FavoritesList{}, err
	}
	return types.FavoritesList{Favorites: favs, Count: len(favs)}, nil
}

func (s *ServiceImpl) Add(ctx context.Context, req types.AddFavoriteRequest) (types.FavoriteResult, error) {
	ctx, span := otel.Tracer("FavoritesService").Start(ctx, "Add", trace.WithAttributes(
		attribute.String("favorite.place_name", req.PlaceName),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Add"), slog.String("place", req.PlaceName))

	name := strings.TrimSpace(req.PlaceName)
	if name == "" {
		return types.FavoriteResult{Message: ErrInvalidFavorite.Error()}, ErrInvalidFavorite
	}

	fav, err := s.repository.Add(ctx, types.Favorite{
		PlaceName:   name,
		Coordinates: req.Coordinates,
		WeatherData: req.WeatherData,
		PlacesData:  req.PlacesData,
	})
	switch {
	case errors.Is(err, ErrDuplicateFavorite):
		l.DebugContext(ctx, "Favorite already stored", slog.Int64("id", fav.ID))
		return types.FavoriteResult{Message: MessageDuplicate, Favorite: &fav}, err
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "add failed")
		return types.FavoriteResult{Message: "Failed to save favorite"}, err
	}

	s.changed(ctx, "add")
	l.InfoContext(ctx, "Favorite added", slog.Int64("id", fav.ID))
	span.SetStatus(codes.Ok, "")
	return types.FavoriteResult{Success: true, Message: MessageAdded, Favorite: &fav}, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id int64) (types.Favorite, error) {
	ctx, span := otel.Tracer("FavoritesService").Start(ctx, "Get", trace.WithAttributes(
		attribute.Int64("favorite.id", id),
	))
	defer span.End()
	return s.repository.Get(ctx, id)
}

func (s *ServiceImpl) Remove(ctx context.Context, id int64) (types.FavoriteResult, error) {
	ctx, span := otel.Tracer("FavoritesService").Start(ctx, "Remove", trace.WithAttributes(
		attribute.Int64("favorite.id", id),
	))
	defer span.End()
	return s.removed(ctx, s.repository.Delete(ctx, id))
}

func (s *ServiceImpl) RemoveByName(ctx context.Context, name string) (types.FavoriteResult, error) {
	ctx, span := otel.Tracer("FavoritesService").Start(ctx, "RemoveByName", trace.WithAttributes(
		attribute.String("favorite.place_name", name),
	))
	defer span.End()
	return s.removed(ctx, s.repository.DeleteByName(ctx, strings.TrimSpace(name)))
}

func (s *ServiceImpl) removed(ctx context.Context, err error) (types.FavoriteResult, error) {
	switch {
	case errors.Is(err, ErrFavoriteNotFound):
		return types.FavoriteResult{Message: MessageNotFound}, err
	case err != nil:
		s.logger.ErrorContext(ctx, "Failed to remove favorite", slog.Any("error", err))
		return types.FavoriteResult{Message: "Failed to remove favorite"}, err
	}
	s.changed(ctx, "remove")
	return types.FavoriteResult{Success: true, Message: MessageRemoved}, nil
}

func (s *ServiceImpl) changed(ctx context.Context, op string) {
	s.metrics.FavoritesChangesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
