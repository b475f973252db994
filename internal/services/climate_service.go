package services

import (
	"context"

	"climate-api/internal/models"
	"climate-api/internal/repository"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// ClimateService serves the row listing endpoints
type ClimateService struct {
	repo      repository.ClimateRepository
	validator *Validator
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewClimateService creates a new climate service
func NewClimateService(repo repository.ClimateRepository, validator *Validator, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ClimateService {
	return &ClimateService{
		repo:      repo,
		validator: validator,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// GetMeasurements retrieves every measurement
func (s *ClimateService) GetMeasurements(ctx context.Context) ([]models.Measurement, error) {
	measurements, err := s.repo.ListMeasurements(ctx)
	if err != nil {
		return nil, err
	}

	s.served(ctx, "measurements", len(measurements))
	return measurements, nil
}

// GetStations retrieves every station
func (s *ClimateService) GetStations(ctx context.Context) ([]models.Station, error) {
	stations, err := s.repo.ListStations(ctx)
	if err != nil {
		return nil, err
	}

	s.served(ctx, "stations", len(stations))
	return stations, nil
}

// GetMeasurementsWithStations retrieves every measurement joined to its station
func (s *ClimateService) GetMeasurementsWithStations(ctx context.Context) ([]models.MeasurementWithStation, error) {
	rows, err := s.repo.ListMeasurementsWithStations(ctx, repository.DateFilter{})
	if err != nil {
		return nil, err
	}

	s.served(ctx, "measurements_stations", len(rows))
	return rows, nil
}

// GetMeasurementsWithStationsInRange validates start/end and retrieves the joined rows between them
func (s *ClimateService) GetMeasurementsWithStationsInRange(ctx context.Context, start, end string) ([]models.MeasurementWithStation, error) {
	if err := s.validator.ValidateDates(ctx, start, end); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListMeasurementsWithStations(ctx, repository.DateFilter{
		From: &start,
		To:   &end,
	})
	if err != nil {
		return nil, err
	}

	s.served(ctx, "measurements_stations_range", len(rows))
	return rows, nil
}

// GetDateRange returns the live dataset bounds
func (s *ClimateService) GetDateRange(ctx context.Context) (*models.DateRange, error) {
	return s.validator.DateRange(ctx)
}

// HealthCheck reports whether the dataset store is reachable
func (s *ClimateService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

func (s *ClimateService) served(ctx context.Context, listing string, n int) {
	s.metrics.RecordRowsServed(listing, n)
	s.logger.Debug(ctx, "[LISTING_COMPLETE] Rows retrieved", logging.Fields{
		"listing": listing,
		"rows":    n,
	})
}
