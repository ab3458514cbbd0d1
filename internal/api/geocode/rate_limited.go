package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

// DefaultMinInterval is the courtesy gap the public Nominatim instance asks for.
const DefaultMinInterval = time.Second

var _ Geocoder = (*RateLimitedGeocoder)(nil)

// RateLimitedGeocoder keeps at least minInterval between upstream requests.
type RateLimitedGeocoder struct {
	geocoder Geocoder
	limiter  *rate.Limiter
	name     string
	logger   *slog.Logger
}

func NewRateLimitedGeocoder(g Geocoder, minInterval time.Duration, logger *slog.Logger) *RateLimitedGeocoder {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &RateLimitedGeocoder{
		geocoder: g,
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
		name:     fmt.Sprintf("%s [Rate Limited]", g.Name()),
		logger:   logger,
	}
}

func (r *RateLimitedGeocoder) Name() string { return r.name }

// Geocode waits for the limiter, then forwards. A cancelled wait counts as
// an unavailable geocoder.
func (r *RateLimitedGeocoder) Geocode(ctx context.Context, place string) *types.GeoPoint {
	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.WarnContext(ctx, "Geocode rate limit wait cancelled",
			slog.String("place", place), slog.Any("error", err))
		return nil
	}
	return r.geocoder.Geocode(ctx, place)
}
