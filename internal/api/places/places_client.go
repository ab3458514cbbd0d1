// Package places finds named points of interest around a coordinate using
// the Overpass API.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourism-agent/internal/textnorm"
	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

const (
	DefaultBaseURL      = "https://overpass-api.de/api/interpreter"
	DefaultTimeout      = 15 * time.Second
	DefaultRadiusMeters = 10000
	DefaultLimit        = 5
	minNameLength       = 3
)

// Lookup returns at most limit named places near a coordinate. Failures
// yield an empty list.
type Lookup interface {
	Nearby(ctx context.Context, lat, lon float64, limit int) []types.PlaceOfInterest
}

var _ Lookup = (*OverpassClient)(nil)

type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RadiusMeters int
}

type OverpassClient struct {
	baseURL    string
	timeout    time.Duration
	radius     int
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOverpassClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *OverpassClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = DefaultRadiusMeters
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OverpassClient{
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		radius:     cfg.RadiusMeters,
		httpClient: httpClient,
		logger:     logger,
	}
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (e overpassElement) coordinates() (float64, float64, bool) {
	if e.Lat != nil && e.Lon != nil {
		return *e.Lat, *e.Lon, true
	}
	if e.Center != nil {
		return e.Center.Lat, e.Center.Lon, true
	}
	return 0, 0, false
}

// BuildQuery renders the Overpass QL query for tourism, leisure parks and
// historic features within radius metres.
func BuildQuery(lat, lon float64, radius int, timeout time.Duration) string {
	around := fmt.Sprintf("(around:%d,%f,%f)", radius, lat, lon)
	selectors := []string{
		`node["tourism"]`,
		`way["tourism"]`,
		`relation["tourism"]`,
		`node["leisure"~"^(park|theme_park)$"]`,
		`way["leisure"~"^(park|theme_park)$"]`,
		`node["historic"]`,
		`way["historic"]`,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", int(timeout.Seconds()))
	for _, s := range selectors {
		b.WriteString("  ")
		b.WriteString(s)
		b.WriteString(around)
		b.WriteString(";\n")
	}
	b.WriteString(");\nout center;\n")
	return b.String()
}

func (c *OverpassClient) Nearby(ctx context.Context, lat, lon float64, limit int) []types.PlaceOfInterest {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ctx, span := otel.Tracer("PlacesClient").Start(ctx, "Nearby", trace.WithAttributes(
		attribute.Float64("places.lat", lat),
		attribute.Float64("places.lon", lon),
		attribute.Int("places.limit", limit),
	))
	defer span.End()

	elements, err := c.fetch(ctx, lat, lon)
	if err != nil {
		c.logger.WarnContext(ctx, "Places lookup failed",
			slog.Float64("lat", lat), slog.Float64("lon", lon), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "places lookup failed")
		return []types.PlaceOfInterest{}
	}

	result := collect(elements, limit)
	span.SetAttributes(attribute.Int("places.count", len(result)))
	span.SetStatus(codes.Ok, "places fetched")
	return result
}

func (c *OverpassClient) fetch(ctx context.Context, lat, lon float64) ([]overpassElement, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("data", BuildQuery(lat, lon, c.radius, c.timeout))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting overpass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass returned status %d", resp.StatusCode)
	}

	var body overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding overpass response: %w", err)
	}
	return body.Elements, nil
}

// collect keeps discovery order, folds names to ASCII, drops names shorter
// than three runes after folding, drops elements without coordinates and
// de-duplicates by folded name. The result never exceeds limit.
func collect(elements []overpassElement, limit int) []types.PlaceOfInterest {
	out := make([]types.PlaceOfInterest, 0, limit)
	seen := make(map[string]struct{})

	for _, e := range elements {
		if len(out) >= limit {
			break
		}
		raw := strings.TrimSpace(e.Tags["name"])
		if raw == "" {
			continue
		}
		name := textnorm.ASCII(raw)
		if utf8.RuneCountInString(name) < minNameLength {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		lat, lon, ok := e.coordinates()
		if !ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, types.PlaceOfInterest{Name: name, Lat: lat, Lon: lon})
	}
	return out
}
