// Package weather fetches current conditions from Open-Meteo.
package weather

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

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

const (
	DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	DefaultTimeout = 10 * time.Second
)

// Lookup returns current conditions at a coordinate, or nil when they are
// unavailable for any reason.
type Lookup interface {
	Current(ctx context.Context, lat, lon float64) *types.WeatherSnapshot
}

var _ Lookup = (*OpenMeteoClient)(nil)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type OpenMeteoClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOpenMeteoClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *OpenMeteoClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OpenMeteoClient{
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		logger:     logger,
	}
}

type forecastResponse struct {
	Current *struct {
		Time                     *string  `json:"time"`
		Temperature2m            *float64 `json:"temperature_2m"`
		PrecipitationProbability *float64 `json:"precipitation_probability"`
	} `json:"current"`
}

func (c *OpenMeteoClient) Current(ctx context.Context, lat, lon float64) *types.WeatherSnapshot {
	ctx, span := otel.Tracer("WeatherClient").Start(ctx, "Current", trace.WithAttributes(
		attribute.Float64("weather.lat", lat),
		attribute.Float64("weather.lon", lon),
	))
	defer span.End()

	snapshot, err := c.fetch(ctx, lat, lon)
	if err != nil {
		c.logger.WarnContext(ctx, "Weather lookup failed",
			slog.Float64("lat", lat), slog.Float64("lon", lon), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "weather lookup failed")
		return nil
	}
	span.SetStatus(codes.Ok, "weather fetched")
	return snapshot
}

func (c *OpenMeteoClient) fetch(ctx context.Context, lat, lon float64) (*types.WeatherSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", "temperature_2m,precipitation_probability")
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting open-meteo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open-meteo returned status %d", resp.StatusCode)
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding open-meteo response: %w", err)
	}

	snapshot := &types.WeatherSnapshot{}
	if body.Current == nil {
		return snapshot, nil
	}
	snapshot.Temperature = body.Current.Temperature2m
	snapshot.Time = body.Current.Time
	if p := body.Current.PrecipitationProbability; p != nil {
		v := int(*p)
		snapshot.PrecipitationProbability = &v
	}
	return snapshot, nil
}
