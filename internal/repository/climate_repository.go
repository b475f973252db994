package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"climate-api/internal/models"
	"climate-api/pkg/database"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// ErrEmptyDataset is returned when the measurement table has no rows
var ErrEmptyDataset = errors.New("dataset contains no measurements")

// Table columns the accessor reads. Checked against the store by VerifySchema.
var (
	MeasurementColumns = []string{"id", "station", "date", "prcp", "tobs"}
	StationColumns     = []string{"id", "station", "name", "latitude", "longitude", "elevation"}
)

// ClimateRepository provides read access to the measurement and station tables
type ClimateRepository interface {
	// Row listings, in store scan order
	ListMeasurements(ctx context.Context) ([]models.Measurement, error)
	ListStations(ctx context.Context) ([]models.Station, error)
	ListMeasurementsWithStations(ctx context.Context, filter DateFilter) ([]models.MeasurementWithStation, error)

	// Aggregates
	TemperatureStats(ctx context.Context, filter TemperatureFilter) (*models.TemperatureStats, error)
	DateRange(ctx context.Context) (*models.DateRange, error)

	// Lookups
	StationExists(ctx context.Context, stationID string) (bool, error)

	// Utility operations
	VerifySchema(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}

// DateFilter restricts measurement dates to an inclusive range.
// A nil bound is not applied.
type DateFilter struct {
	From *string
	To   *string
}

// TemperatureFilter defines filters for temperature aggregates
type TemperatureFilter struct {
	StationID *string
	From      string
	To        string
}

// climateRepository implements ClimateRepository
type climateRepository struct {
	db      *database.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewClimateRepository creates a new climate repository
func NewClimateRepository(db *database.DB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) ClimateRepository {
	return &climateRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ListMeasurements retrieves every measurement row
func (r *climateRepository) ListMeasurements(ctx context.Context) ([]models.Measurement, error) {
	query := `
		SELECT id, station, date, prcp, tobs
		FROM measurement
	`

	measurements := []models.Measurement{}
	if err := r.db.SelectContext(ctx, "list_measurements", &measurements, query); err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}

	return measurements, nil
}

// ListStations retrieves every station row
func (r *climateRepository) ListStations(ctx context.Context) ([]models.Station, error) {
	query := `
		SELECT id, station, name, latitude, longitude, elevation
		FROM station
	`

	stations := []models.Station{}
	if err := r.db.SelectContext(ctx, "list_stations", &stations, query); err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	return stations, nil
}

// ListMeasurementsWithStations joins measurements to their stations,
// optionally restricted to an inclusive date range
func (r *climateRepository) ListMeasurementsWithStations(ctx context.Context, filter DateFilter) ([]models.MeasurementWithStation, error) {
	query := `
		SELECT m.date, m.id, m.station, s.name, s.latitude, s.longitude, m.prcp, m.tobs
		FROM measurement m
		JOIN station s ON m.station = s.station
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.From != nil {
		query += " AND m.date >= ?"
		args = append(args, *filter.From)
	}

	if filter.To != nil {
		query += " AND m.date <= ?"
		args = append(args, *filter.To)
	}

	queryType := "list_measurements_stations"
	if filter.From != nil || filter.To != nil {
		queryType = "list_measurements_stations_range"
	}

	rows := []models.MeasurementWithStation{}
	if err := r.db.SelectContext(ctx, queryType, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list measurements with stations: %w", err)
	}

	return rows, nil
}

// TemperatureStats computes MIN/AVG/MAX of tobs over the filtered measurements
func (r *climateRepository) TemperatureStats(ctx context.Context, filter TemperatureFilter) (*models.TemperatureStats, error) {
	query := `
		SELECT MIN(tobs) AS tmin, AVG(tobs) AS tavg, MAX(tobs) AS tmax
		FROM measurement
		WHERE date >= ? AND date <= ?
	`
	args := []interface{}{filter.From, filter.To}

	queryType := "temperature_stats"
	if filter.StationID != nil {
		query += " AND station = ?"
		args = append(args, *filter.StationID)
		queryType = "temperature_stats_station"
	}

	var stats models.TemperatureStats
	if err := r.db.GetContext(ctx, queryType, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("failed to calculate temperature statistics: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_TEMP_STATS] Temperature statistics calculated", logging.Fields{
		"from":       filter.From,
		"to":         filter.To,
		"station_id": filter.StationID,
	})

	return &stats, nil
}

// DateRange returns the earliest and latest measurement dates
func (r *climateRepository) DateRange(ctx context.Context) (*models.DateRange, error) {
	query := `
		SELECT MIN(date) AS min_date, MAX(date) AS max_date
		FROM measurement
	`

	var result struct {
		MinDate sql.NullString `db:"min_date"`
		MaxDate sql.NullString `db:"max_date"`
	}

	if err := r.db.GetContext(ctx, "date_range", &result, query); err != nil {
		return nil, fmt.Errorf("failed to get date range: %w", err)
	}

	if !result.MinDate.Valid || !result.MaxDate.Valid {
		return nil, ErrEmptyDataset
	}

	return &models.DateRange{
		Min: result.MinDate.String,
		Max: result.MaxDate.String,
	}, nil
}

// StationExists reports whether a station row with the given id exists
func (r *climateRepository) StationExists(ctx context.Context, stationID string) (bool, error) {
	query := `
		SELECT 1
		FROM station
		WHERE station = ?
		LIMIT 1
	`

	var found int
	err := r.db.GetContext(ctx, "station_exists", &found, query, stationID)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to look up station: %w", err)
	}

	return true, nil
}

// VerifySchema checks both tables expose the columns the accessor reads
func (r *climateRepository) VerifySchema(ctx context.Context) error {
	if err := r.db.VerifyColumns(ctx, "measurement", MeasurementColumns); err != nil {
		return fmt.Errorf("schema check failed: %w", err)
	}

	if err := r.db.VerifyColumns(ctx, "station", StationColumns); err != nil {
		return fmt.Errorf("schema check failed: %w", err)
	}

	r.logger.Info(ctx, "[REPO_SCHEMA_OK] Dataset schema verified", logging.Fields{
		"tables": []string{"measurement", "station"},
	})

	return nil
}

// HealthCheck performs a repository health check
func (r *climateRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
