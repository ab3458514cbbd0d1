// Package geocode resolves place names to coordinates using Nominatim.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourism-agent/internal/textnorm"
	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org/search"
	DefaultUserAgent = "Tourism-AI-Agent/1.0"
	DefaultTimeout   = 10 * time.Second
)

// Geocoder resolves a place name. A nil result means the place is unknown
// or the service could not be reached; errors never cross this boundary.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, place string) *types.GeoPoint
}

var _ Geocoder = (*NominatimClient)(nil)

type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

type NominatimClient struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

func NewNominatimClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *NominatimClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &NominatimClient{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *NominatimClient) Name() string { return "nominatim" }

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *NominatimClient) Geocode(ctx context.Context, place string) *types.GeoPoint {
	ctx, span := otel.Tracer("GeocodeClient").Start(ctx, "Geocode", trace.WithAttributes(
		attribute.String("geocode.place", place),
	))
	defer span.End()

	l := c.logger.With(slog.String("method", "Geocode"), slog.String("place", place))

	point, err := c.lookup(ctx, place)
	if err != nil {
		l.WarnContext(ctx, "Geocoding failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocoding failed")
		return nil
	}
	if point == nil {
		l.InfoContext(ctx, "Place not found")
		span.SetStatus(codes.Ok, "place not found")
		return nil
	}

	span.SetAttributes(attribute.String("geocode.display_name", point.DisplayName))
	span.SetStatus(codes.Ok, "place resolved")
	return point
}

func (c *NominatimClient) lookup(ctx context.Context, place string) (*types.GeoPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", place)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding nominatim response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", results[0].Lon, err)
	}

	display := textnorm.ASCII(results[0].DisplayName)
	if display == "" {
		display = textnorm.ASCII(place)
	}
	if display == "" {
		display = place
	}

	return &types.GeoPoint{Latitude: lat, Longitude: lon, DisplayName: display}, nil
}
