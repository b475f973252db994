package services

import (
	"context"
	"time"

	"climate-api/internal/models"
	"climate-api/internal/repository"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// StatisticsService handles temperature statistics over date ranges
type StatisticsService struct {
	repo      repository.ClimateRepository
	validator *Validator
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(repo repository.ClimateRepository, validator *Validator, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StatisticsService {
	return &StatisticsService{
		repo:      repo,
		validator: validator,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// GetTemperatureStats computes min/avg/max temperature across all stations between start and end
func (s *StatisticsService) GetTemperatureStats(ctx context.Context, start, end string) (*models.TemperatureStatsResponse, error) {
	if err := s.validator.ValidateDates(ctx, start, end); err != nil {
		return nil, err
	}

	stats, err := s.calculate(ctx, repository.TemperatureFilter{From: start, To: end})
	if err != nil {
		return nil, err
	}

	return &models.TemperatureStatsResponse{
		StartDate: start,
		EndDate:   end,
		Min:       stats.Min,
		Avg:       stats.Avg,
		Max:       stats.Max,
	}, nil
}

// GetStationTemperatureStats computes min/avg/max temperature for one station between start and end
func (s *StatisticsService) GetStationTemperatureStats(ctx context.Context, stationID, start, end string) (*models.StationTemperatureStatsResponse, error) {
	if err := s.validator.ValidateStationDates(ctx, stationID, start, end); err != nil {
		return nil, err
	}

	stats, err := s.calculate(ctx, repository.TemperatureFilter{StationID: &stationID, From: start, To: end})
	if err != nil {
		return nil, err
	}

	return &models.StationTemperatureStatsResponse{
		Station:   stationID,
		StartDate: start,
		EndDate:   end,
		Min:       stats.Min,
		Avg:       stats.Avg,
		Max:       stats.Max,
	}, nil
}

func (s *StatisticsService) calculate(ctx context.Context, filter repository.TemperatureFilter) (*models.TemperatureStats, error) {
	startTime := time.Now()

	stats, err := s.repo.TemperatureStats(ctx, filter)
	if err != nil {
		return nil, err
	}

	scope := "all"
	if filter.StationID != nil {
		scope = "station"
	}
	s.metrics.RecordStatsCalculation(scope, stats.Min == nil)

	s.logger.Debug(ctx, "[STATS_CALC_COMPLETE] Temperature statistics calculated", logging.Fields{
		"from":        filter.From,
		"to":          filter.To,
		"per_station": filter.StationID != nil,
		"empty":       stats.Min == nil,
		"duration_ms": time.Since(startTime).Milliseconds(),
	})

	return stats, nil
}
