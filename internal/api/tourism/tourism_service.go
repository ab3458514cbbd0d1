package tourism

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-tourism-agent/app/observability/metrics"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/compose"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/geocode"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/performance"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/places"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/weather"
	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

const (
	NoLocationMessage   = "I couldn't identify a place name in your query. Please specify a location."
	UnknownPlaceMessage = "I don't know this place exists. Could you please provide a valid place name?"

	// ModelDeterministic labels answers that never reached a language model.
	ModelDeterministic = "deterministic"
)

var _ Service = (*ServiceImpl)(nil)

// Service answers free-text tourism queries.
type Service interface {
	Answer(ctx context.Context, query string) (types.TourismAnswer, error)
	Resolve(ctx context.Context, place string) *types.GeoPoint
	Gather(ctx context.Context, point types.GeoPoint, intents types.IntentSet) Gathered
	Collaborators() types.CollaboratorStatus
}

type LocationExtractor interface {
	Extract(text string) (string, bool)
}

type IntentClassifier interface {
	Classify(text string) types.IntentSet
}

// Gathered is the outcome of the weather and places lookups for one query.
// Weather is nil when not requested or unavailable; Places is never nil.
type Gathered struct {
	Weather *types.WeatherSnapshot
	Places  []types.PlaceOfInterest
}

type ServiceImpl struct {
	logger      *slog.Logger
	extractor   LocationExtractor
	classifier  IntentClassifier
	geocoder    geocode.Geocoder
	weather     weather.Lookup
	places      places.Lookup
	composer    *compose.Composer
	placesLimit int
	metrics     *metrics.AppMetrics
	monitor     *performance.Monitor
}

type Options struct {
	PlacesLimit int
	Metrics     *metrics.AppMetrics
	Monitor     *performance.Monitor
}

func NewServiceImpl(
	extractor LocationExtractor,
	classifier IntentClassifier,
	geocoder geocode.Geocoder,
	weatherLookup weather.Lookup,
	placesLookup places.Lookup,
	opts Options,
	logger *slog.Logger,
) *ServiceImpl {
	if opts.PlacesLimit <= 0 {
		opts.PlacesLimit = places.DefaultLimit
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	if opts.Monitor == nil {
		opts.Monitor = performance.NewMonitor()
	}
	return &ServiceImpl{
		logger:      logger,
		extractor:   extractor,
		classifier:  classifier,
		geocoder:    geocoder,
		weather:     weatherLookup,
		places:      placesLookup,
		composer:    compose.NewComposer(),
		placesLimit: opts.PlacesLimit,
		metrics:     opts.Metrics,
		monitor:     opts.Monitor,
	}
}

// Answer runs extract, geocode, classify, lookup and compose. The only error
// it returns is types.ErrEmptyQuery; every other failure becomes answer text.
func (s *ServiceImpl) Answer(ctx context.Context, query string) (types.TourismAnswer, error) {
	ctx, span := otel.Tracer("TourismService").Start(ctx, "Answer")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return types.TourismAnswer{}, types.ErrEmptyQuery
	}

	start := time.Now()
	l := s.logger.With(slog.String("method", "Answer"))
	l.DebugContext(ctx, "Answering query", slog.String("query", query))

	defer func() {
		elapsed := time.Since(start)
		s.monitor.RecordQuery(elapsed, ModelDeterministic, false)
		s.metrics.QueriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("path", ModelDeterministic)))
		s.metrics.QueryDurationSeconds.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("path", ModelDeterministic)))
	}()

	name, ok := s.extractor.Extract(query)
	if !ok {
		l.InfoContext(ctx, "No location found in query")
		span.SetAttributes(attribute.String("tourism.outcome", "no_location"))
		return types.NewTourismAnswer(NoLocationMessage), nil
	}
	span.SetAttributes(attribute.String("tourism.location", name))

	point := s.Resolve(ctx, name)
	if point == nil {
		l.InfoContext(ctx, "Location could not be geocoded", slog.String("location", name))
		span.SetAttributes(attribute.String("tourism.outcome", "unknown_place"))
		answer := types.NewTourismAnswer(UnknownPlaceMessage)
		answer.PlaceName = &name
		return answer, nil
	}

	intents := s.classifier.Classify(query)
	span.SetAttributes(attribute.StringSlice("tourism.intents", intents.Sorted()))

	got := s.Gather(ctx, *point, intents)
	text := s.composer.Compose(intents, got.Weather, got.Places, point.DisplayName)

	coords := point.Coordinates()
	displayName := point.DisplayName
	span.SetAttributes(attribute.String("tourism.outcome", "answered"))
	l.InfoContext(ctx, "Query answered",
		slog.String("place", displayName),
		slog.Any("intents", intents.Sorted()),
		slog.Bool("weather", got.Weather != nil),
		slog.Int("places", len(got.Places)))

	return types.TourismAnswer{
		Response:    text,
		PlaceName:   &displayName,
		Coordinates: &coords,
		Weather:     got.Weather,
		Places:      got.Places,
	}, nil
}

// Resolve geocodes a place name, counting misses.
func (s *ServiceImpl) Resolve(ctx context.Context, place string) *types.GeoPoint {
	point := s.geocoder.Geocode(ctx, place)
	if point == nil {
		s.lookupFailed(ctx, "geocode")
	}
	return point
}

// Gather fetches the requested categories concurrently. Each lookup absorbs
// its own failures so neither can block the other.
func (s *ServiceImpl) Gather(ctx context.Context, point types.GeoPoint, intents types.IntentSet) Gathered {
	ctx, span := otel.Tracer("TourismService").Start(ctx, "Gather", trace.WithAttributes(
		attribute.Float64("geo.lat", point.Latitude),
		attribute.Float64("geo.lon", point.Longitude),
	))
	defer span.End()

	out := Gathered{Places: []types.PlaceOfInterest{}}
	var g errgroup.Group

	if intents.Has(types.IntentWeather) {
		g.Go(func() error {
			out.Weather = s.weather.Current(ctx, point.Latitude, point.Longitude)
			if out.Weather == nil {
				s.lookupFailed(ctx, "weather")
			}
			return nil
		})
	}
	if intents.WantsPlaces() {
		g.Go(func() error {
			found := s.places.Nearby(ctx, point.Latitude, point.Longitude, s.placesLimit)
			if len(found) == 0 {
				s.lookupFailed(ctx, "places")
				return nil
			}
			out.Places = found
			return nil
		})
	}
	_ = g.Wait() // lookups absorb their own failures
	return out
}

// Collaborators reports which lookups are wired.
func (s *ServiceImpl) Collaborators() types.CollaboratorStatus {
	return types.CollaboratorStatus{
		Geocoding: s.geocoder != nil,
		Weather:   s.weather != nil,
		Places:    s.places != nil,
	}
}

func (s *ServiceImpl) lookupFailed(ctx context.Context, source string) {
	s.metrics.LookupFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
