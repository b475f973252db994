package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"climate-api/internal/models"
	"climate-api/internal/repository"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// DateLayout is the only accepted date format
const DateLayout = "2006-01-02"

var dateShape = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)

// IsValidDateFormat reports whether s is a real calendar date written as YYYY-MM-DD
func IsValidDateFormat(s string) bool {
	if !dateShape.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Validator checks request parameters against the live dataset
type Validator struct {
	repo    repository.ClimateRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewValidator creates a new validator
func NewValidator(repo repository.ClimateRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Validator {
	return &Validator{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// StationExists reports whether stationID names a stored station
func (v *Validator) StationExists(ctx context.Context, stationID string) (bool, error) {
	return v.repo.StationExists(ctx, stationID)
}

// DateRange returns the dataset's current date bounds
func (v *Validator) DateRange(ctx context.Context) (*models.DateRange, error) {
	return v.repo.DateRange(ctx)
}

// IsWithinRange reports whether date lies within the dataset's current bounds
func (v *Validator) IsWithinRange(ctx context.Context, date string) (bool, error) {
	r, err := v.repo.DateRange(ctx)
	if err != nil {
		return false, err
	}
	return r.Contains(date), nil
}

// ValidateDates runs the format and range checks for a start/end pair.
// The first failing check is returned as a *models.ValidationError.
func (v *Validator) ValidateDates(ctx context.Context, start, end string) error {
	if err := v.checkFormat(ctx, start, end); err != nil {
		return err
	}
	return v.checkRange(ctx, start, end)
}

// ValidateStationDates runs format, station existence and range checks, in that order
func (v *Validator) ValidateStationDates(ctx context.Context, stationID, start, end string) error {
	if err := v.checkFormat(ctx, start, end); err != nil {
		return err
	}

	exists, err := v.StationExists(ctx, stationID)
	if err != nil {
		return fmt.Errorf("failed to validate station: %w", err)
	}
	if !exists {
		return v.reject(ctx, models.NewStationError(stationID))
	}

	return v.checkRange(ctx, start, end)
}

func (v *Validator) checkFormat(ctx context.Context, start, end string) error {
	if !IsValidDateFormat(start) {
		return v.reject(ctx, models.NewDateFormatError("start", start))
	}
	if !IsValidDateFormat(end) {
		return v.reject(ctx, models.NewDateFormatError("end", end))
	}
	return nil
}

// checkRange reads the bounds once and tests both dates against them
func (v *Validator) checkRange(ctx context.Context, start, end string) error {
	r, err := v.DateRange(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve dataset date range: %w", err)
	}

	if !r.Contains(start) {
		return v.reject(ctx, models.NewDateRangeError("start", start))
	}
	if !r.Contains(end) {
		return v.reject(ctx, models.NewDateRangeError("end", end))
	}
	return nil
}

func (v *Validator) reject(ctx context.Context, verr *models.ValidationError) error {
	v.metrics.RecordValidationFailure(verr.Reason)
	v.logger.Debug(ctx, "[VALIDATION_FAILED] Request parameter rejected", logging.Fields{
		"reason": verr.Reason,
		"field":  verr.Field,
		"value":  verr.Value,
	})
	return verr
}
