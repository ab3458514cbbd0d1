package metrics

import (
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	QueriesTotal           metric.Int64Counter
	QueryDurationSeconds   metric.Float64Histogram
	LookupFailuresTotal    metric.Int64Counter
	LLMFallbacksTotal      metric.Int64Counter
	ResponseCacheHitsTotal metric.Int64Counter
	FavoritesChangesTotal  metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// New creates the instruments on the given meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	var err error
	m := &AppMetrics{}

	m.QueriesTotal, err = meter.Int64Counter(
		"tourism_queries_total",
		metric.WithDescription("Total number of tourism queries answered"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tourism_queries_total: %w", err)
	}

	m.QueryDurationSeconds, err = meter.Float64Histogram(
		"tourism_query_duration_seconds",
		metric.WithDescription("Duration of tourism queries in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tourism_query_duration_seconds: %w", err)
	}

	m.LookupFailuresTotal, err = meter.Int64Counter(
		"tourism_lookup_failures_total",
		metric.WithDescription("Geocode, weather and places lookups that came back empty"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tourism_lookup_failures_total: %w", err)
	}

	m.LLMFallbacksTotal, err = meter.Int64Counter(
		"tourism_llm_fallbacks_total",
		metric.WithDescription("Enhanced queries answered by the deterministic pipeline instead"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tourism_llm_fallbacks_total: %w", err)
	}

	m.ResponseCacheHitsTotal, err = meter.Int64Counter(
		"tourism_response_cache_hits_total",
		metric.WithDescription("Generated responses served from the response cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tourism_response_cache_hits_total: %w", err)
	}

	m.FavoritesChangesTotal, err = meter.Int64Counter(
		"tourism_favorites_changes_total",
		metric.WithDescription("Favorites added or removed"),
		metric.WithUnit("{change}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tourism_favorites_changes_total: %w", err)
	}

	return m, nil
}

// NewNoop returns instruments that record nothing. Used by tests.
func NewNoop() *AppMetrics {
	m, err := New(noop.NewMeterProvider().Meter("noop"))
	if err != nil {
		panic(err)
	}
	return m
}

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		m, err := New(otel.GetMeterProvider().Meter("TourismAgent"))
		if err != nil {
			log.Fatalf("Metrics: %v", err)
		}
		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
