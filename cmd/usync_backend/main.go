package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/enersync/utility_sync_app/internal/adapters/eventbus"
	"github.com/enersync/utility_sync_app/internal/adapters/host"
	"github.com/enersync/utility_sync_app/internal/adapters/provider"
	"github.com/enersync/utility_sync_app/internal/core/services"
	"github.com/enersync/utility_sync_app/internal/handlers"
	"github.com/enersync/utility_sync_app/internal/middleware"
	"github.com/enersync/utility_sync_app/internal/platform/config"
	"github.com/enersync/utility_sync_app/internal/registry"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// @title Utility Sync Backend API
// @version 1.0
// @description Reconciles utility accounts, meters and invoices from a remote billing provider and exposes indication submission.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the API token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Event bus with the optional Kafka sink.
	bus, err := eventbus.NewBus(logger)
	if err != nil {
		logger.Error("Failed to create event bus", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := bus.Close(); cerr != nil {
			logger.Error("Error closing event bus", slog.String("error", cerr.Error()))
		}
	}()

	if cfg.Kafka.Enabled {
		sink, err := eventbus.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			logger.Error("Failed to create Kafka sink", slog.String("error", err.Error()))
			os.Exit(1)
		}
		bus.AddSink(sink)
		logger.Info("Kafka event sink attached", slog.String("topic", cfg.Kafka.Topic))
	}

	entityHost := host.NewInMemoryHost(logger)
	notifier := host.NewLogNotifier(logger)
	providerClient := provider.NewClient(cfg.Provider)

	container := services.NewContainer(services.ContainerParams{
		Config:   cfg,
		Registry: registry.New(),
		Provider: providerClient,
		Host:     entityHost,
		Notifier: notifier,
		Bus:      bus,
		Entities: entityHost,
		Logger:   logger,
	})

	// The initial reconciliation cycle is the readiness gate: the server
	// never starts serving against a provider it cannot reach.
	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*cfg.Provider.Timeout+time.Minute)
	err = container.Scheduler.Start(startCtx)
	cancelStart()
	if err != nil {
		logger.Error("Failed to run initial reconciliation", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer container.Scheduler.Stop()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container.Services)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}

	if err := container.Guard.Close(shutdownCtx); err != nil {
		logger.Error("Error closing provider session", slog.String("error", err.Error()))
	}
}
