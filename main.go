package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	appLogger "github.com/FACorreiaa/go-tourism-agent/app/logger"
	"github.com/FACorreiaa/go-tourism-agent/app/tracer"
	"github.com/FACorreiaa/go-tourism-agent/config"
	"github.com/FACorreiaa/go-tourism-agent/internal/container"
	"github.com/FACorreiaa/go-tourism-agent/internal/router"
	"github.com/FACorreiaa/go-tourism-agent/internal/transport/natsquery"
)

func main() {
	// Use standard log until slog is configured
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	logger := appLogger.New(os.Getenv("APP_ENV"), os.Stdout)
	slog.SetDefault(logger)

	cfg, err := config.InitConfig()
	if err != nil {
		logger.Error("Error initializing config", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Telemetry ---
	telemetry, err := tracer.InitTracingAndMetrics(cfg.Telemetry.ServiceName)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Dependencies ---
	c, err := container.NewContainer(ctx, &cfg, logger)
	if err != nil {
		logger.Error("Failed to build application container", slog.Any("error", err))
		os.Exit(1)
	}
	defer c.Close()

	// --- NATS ---
	var natsTransport *natsquery.Transport
	if cfg.Nats.Enabled {
		natsTransport, err = natsquery.NewTransport(natsquery.Config{
			URL:     cfg.Nats.URL,
			Subject: cfg.Nats.Subject,
			Name:    cfg.Telemetry.ServiceName,
			Timeout: cfg.Nats.Timeout,
		}, c.TourismService, c.LLMService, logger)
		if err != nil {
			logger.Error("Failed to connect NATS transport", slog.Any("error", err))
			os.Exit(1)
		}
		if err := natsTransport.Start(); err != nil {
			logger.Error("Failed to start NATS transport", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// --- HTTP Server ---
	mux := router.SetupRouter(&router.Config{
		TourismHandler:   c.TourismHandler,
		LLMHandler:       c.LLMHandler,
		FavoritesHandler: c.FavoritesHandler,
		MetricsHandler:   telemetry.MetricsHandler,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		Timeout:          cfg.Server.Timeout,
		Logger:           logger,
	})

	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	// --- Graceful Shutdown ---
	logger.Info("Shutdown signal received, starting graceful shutdown")
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}
	if natsTransport != nil {
		_ = natsTransport.Close()
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Telemetry shutdown failed", slog.Any("error", err))
	}
	logger.Info("Application shut down complete")
}
