package container

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-tourism-agent/app/db"
	"github.com/FACorreiaa/go-tourism-agent/app/observability/metrics"
	"github.com/FACorreiaa/go-tourism-agent/config"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/extractor"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/favorites"
	generativeAI "github.com/FACorreiaa/go-tourism-agent/internal/api/generative_ai"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/geocode"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/intent"
	llmInteraction "github.com/FACorreiaa/go-tourism-agent/internal/api/llm_interaction"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/performance"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/places"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/responsecache"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/tourism"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/weather"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	TourismService   *tourism.ServiceImpl
	LLMService       *llmInteraction.LlmInteractionServiceImpl
	TourismHandler   *tourism.Handler
	LLMHandler       *llmInteraction.LlmInteractionHandler
	FavoritesHandler *favorites.Handler
	closers          []func()
}

// NewContainer builds every service and handler from cfg. Optional backends
// that cannot be reached (Redis, the language model) degrade to their local
// or deterministic alternative; a configured Postgres that cannot be reached
// is an error.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	metrics.InitAppMetrics()
	appMetrics := metrics.Get()
	monitor := performance.NewMonitor()

	geocoder := geocode.NewRateLimitedGeocoder(
		geocode.NewNominatimClient(geocode.Config{
			BaseURL:   cfg.Geocode.BaseURL,
			UserAgent: cfg.Geocode.UserAgent,
			Timeout:   cfg.Geocode.Timeout,
		}, nil, logger),
		cfg.Geocode.MinInterval,
		logger,
	)
	weatherLookup := weather.NewOpenMeteoClient(weather.Config{
		BaseURL: cfg.Weather.BaseURL,
		Timeout: cfg.Weather.Timeout,
	}, nil, logger)
	placesLookup := places.NewOverpassClient(places.Config{
		BaseURL:      cfg.Places.BaseURL,
		Timeout:      cfg.Places.Timeout,
		RadiusMeters: cfg.Places.RadiusMeters,
	}, nil, logger)

	locationExtractor := extractor.NewLocationExtractor()
	logger.Debug("Location extractor configured", slog.Any("rules", locationExtractor.Matchers()))

	c.TourismService = tourism.NewServiceImpl(
		locationExtractor,
		intent.NewClassifier(),
		geocoder,
		weatherLookup,
		placesLookup,
		tourism.Options{PlacesLimit: cfg.Places.Limit, Metrics: appMetrics, Monitor: monitor},
		logger,
	)
	c.TourismHandler = tourism.NewHandler(c.TourismService, logger)

	client := c.newLLMClient(ctx)
	var models []string
	if client != nil {
		models = client.Models()
	}
	manager := performance.NewManager(performance.NewModelSelector(models, performance.Priority(cfg.LLM.Priority)), monitor)

	var analyzer *llmInteraction.Analyzer
	if client != nil {
		analyzer = llmInteraction.NewAnalyzer(client, cfg.LLM.AnalysisTemperature, logger)
	}
	c.LLMService = llmInteraction.NewLlmInteractionService(
		c.TourismService,
		client,
		analyzer,
		c.newResponseCache(ctx),
		manager,
		appMetrics,
		llmInteraction.Config{
			Enabled:             cfg.LLM.Enabled,
			ResponseTemperature: cfg.LLM.ResponseTemperature,
			ResponseTopP:        cfg.LLM.TopP,
			ResponseMaxTokens:   cfg.LLM.MaxTokens,
		},
		logger,
	)
	c.LLMHandler = llmInteraction.NewLLMHandler(c.LLMService, logger)

	repo, err := c.newFavoritesRepository(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.FavoritesHandler = favorites.NewHandler(favorites.NewServiceImpl(repo, appMetrics, logger), c.TourismService, logger)

	return c, nil
}

func (c *Container) newLLMClient(ctx context.Context) generativeAI.LLMClient {
	cfg := c.Config.LLM
	if !cfg.Enabled {
		c.Logger.Info("Language model disabled, enhanced queries use the deterministic pipeline")
		return nil
	}

	var (
		client generativeAI.LLMClient
		err    error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err = generativeAI.NewGeminiClient(ctx, generativeAI.GeminiConfig{APIKey: cfg.APIKey, Models: cfg.Models}, c.Logger)
	default:
		client, err = generativeAI.NewOllamaClient(generativeAI.OllamaConfig{
			BaseURL: cfg.BaseURL,
			Models:  cfg.Models,
			Timeout: cfg.Timeout,
		}, &http.Client{Timeout: cfg.Timeout}, c.Logger)
	}
	if err != nil {
		c.Logger.Warn("Language model unavailable, enhanced queries use the deterministic pipeline",
			slog.String("provider", cfg.Provider), slog.Any("error", err))
		return nil
	}
	c.Logger.Info("Language model configured", slog.String("provider", client.Provider()), slog.Any("models", client.Models()))
	return client
}

func (c *Container) newResponseCache(ctx context.Context) responsecache.Store {
	if c.Config.Cache.Backend != config.BackendRedis {
		return responsecache.NewMemoryStore()
	}
	store, err := responsecache.NewRedisStore(ctx, c.Config.Cache.RedisURL, c.Config.Cache.KeyPrefix, c.Logger)
	if err != nil {
		c.Logger.Warn("Redis response cache unavailable, using in-memory cache", slog.Any("error", err))
		return responsecache.NewMemoryStore()
	}
	c.closers = append(c.closers, func() {
		if err := store.Close(); err != nil {
			c.Logger.Warn("Error closing redis client", slog.Any("error", err))
		}
	})
	return store
}

func (c *Container) newFavoritesRepository(ctx context.Context) (favorites.Repository, error) {
	if c.Config.Favorites.Backend != config.BackendPostgres {
		return favorites.NewFileRepository(c.Config.Favorites.FilePath, c.Logger), nil
	}

	connURL, err := database.ConnectionURL(c.Config)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(connURL, c.Logger); err != nil {
		return nil, err
	}
	pool, err := database.Init(ctx, connURL, c.Logger)
	if err != nil {
		return nil, err
	}
	c.Pool = pool
	c.closers = append(c.closers, pool.Close)
	if !database.WaitForDB(ctx, pool, c.Logger) {
		return nil, fmt.Errorf("database not ready")
	}
	return favorites.NewPostgresRepository(pool, c.Logger), nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
