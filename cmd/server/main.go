package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"climate-api/internal/config"
	"climate-api/internal/handlers"
	"climate-api/internal/repository"
	"climate-api/internal/services"
	"climate-api/pkg/database"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

const (
	serviceName    = "climate-api"
	serviceVersion = "1.0.0"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger(serviceName, serviceVersion, logLevel, logging.Format(cfg.Logging.Format))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	logger.Info(ctx, "[STARTUP] Starting climate API server", logging.Fields{
		"version":     serviceVersion,
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"db_driver":   cfg.Database.Driver,
		"db_path":     cfg.Database.Path,
		"db_host":     cfg.Database.Host,
		"db_name":     cfg.Database.Database,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("climate_api", prometheus.DefaultRegisterer)

	// Initialize database
	dbConfig := &database.Config{
		Driver:          cfg.Database.Driver,
		Path:            cfg.Database.Path,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.New(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to open dataset", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repository
	climateRepo := repository.NewClimateRepository(db, logger, metricsCollector)

	if err := climateRepo.VerifySchema(ctx); err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Dataset schema check failed", logging.Fields{}, err)
	}

	// Initialize services
	validator := services.NewValidator(climateRepo, logger, metricsCollector)
	climateService := services.NewClimateService(climateRepo, validator, logger, metricsCollector)
	statsService := services.NewStatisticsService(climateRepo, validator, logger, metricsCollector)

	// Initialize handlers
	climateHandler := handlers.NewClimateHandler(climateService, statsService, cfg.API.ExampleStation, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()

	// Register routes
	climateHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Log level follows the config file while running
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		go func() {
			err := config.Watch(ctx, path, logger, func(next *config.Config) {
				level, err := logging.ParseLevel(next.Logging.Level)
				if err != nil {
					return
				}
				logger.SetLevel(level)
				logger.Info(ctx, "[CONFIG_RELOAD] Log level updated", logging.Fields{
					"level": level.String(),
				})
			})
			if err != nil {
				logger.Error(ctx, "[CONFIG_WATCH_ERROR] Config watcher stopped", logging.Fields{"path": path}, err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handlers.Middleware(router, logger, metricsCollector),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
