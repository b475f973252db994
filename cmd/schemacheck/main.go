package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"climate-api/internal/config"
	"climate-api/internal/repository"
	"climate-api/pkg/database"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to $CONFIG_FILE)")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall time limit for the check")
	flag.Parse()

	// Load configuration
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger := logging.NewStructuredLoggerTo(io.Discard, "climate-schemacheck", "1.0.0", logging.ErrorLevel, logging.JSONFormat)
	metricsCollector := metrics.NewCollector("climate_schemacheck", prometheus.NewRegistry())

	// Connect to database
	db, err := database.New(&database.Config{
		Driver:       cfg.Database.Driver,
		Path:         cfg.Database.Path,
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger, metricsCollector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s store successfully\n", db.DriverName())

	repo := repository.NewClimateRepository(db, logger, metricsCollector)

	if err := repo.VerifySchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Schema check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Schema check passed: measurement and station columns present")

	stations, err := repo.ListStations(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list stations: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Stations: %d\n", len(stations))

	dr, err := repo.DateRange(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read dataset date range: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Dataset date range: %s to %s\n", dr.Min, dr.Max)
}
