package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appLogger "github.com/FACorreiaa/go-tourism-agent/app/logger"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/favorites"
	llmInteraction "github.com/FACorreiaa/go-tourism-agent/internal/api/llm_interaction"
	"github.com/FACorreiaa/go-tourism-agent/internal/api/tourism"
)

// Config contains dependencies needed for the router setup
type Config struct {
	TourismHandler   *tourism.Handler
	LLMHandler       *llmInteraction.LlmInteractionHandler
	FavoritesHandler *favorites.Handler
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	AllowedOrigins []string
	Timeout        time.Duration
	Logger         *slog.Logger
}

// SetupRouter builds the full HTTP surface. Query, favorites and cache
// routes live under /api/v1 and are also served at the root for clients of
// the unversioned API.
func SetupRouter(cfg *Config) chi.Router {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", cfg.LLMHandler.Root)
	r.Get("/health", cfg.TourismHandler.Health)
	r.Get("/status", cfg.LLMHandler.Status)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) { mountAPI(r, cfg) })
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", cfg.TourismHandler.Health)
		r.Get("/status", cfg.LLMHandler.Status)
		mountAPI(r, cfg)
	})
	return r
}

func mountAPI(r chi.Router, cfg *Config) {
	r.Post("/query", cfg.TourismHandler.Query)
	r.Post("/query/map", cfg.TourismHandler.QueryMap)
	r.Post("/query/enhanced", cfg.LLMHandler.QueryEnhanced)

	r.Route("/favorites", func(r chi.Router) {
		r.Get("/", cfg.FavoritesHandler.List)
		r.Post("/", cfg.FavoritesHandler.Add)
		r.Delete("/", cfg.FavoritesHandler.DeleteByName)
		r.Post("/add-from-query", cfg.FavoritesHandler.AddFromQuery)
		r.Get("/{id}", cfg.FavoritesHandler.Get)
		r.Delete("/{id}", cfg.FavoritesHandler.Delete)
	})

	r.Route("/llm/cache", func(r chi.Router) {
		r.Get("/stats", cfg.LLMHandler.CacheStats)
		r.Delete("/", cfg.LLMHandler.ClearCache)
	})
	r.Delete("/llm/performance", cfg.LLMHandler.ResetPerformance)
}
