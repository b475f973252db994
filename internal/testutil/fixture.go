// Package testutil seeds a small on-disk copy of the measurement/station
// dataset for package tests.
package testutil

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"

	"climate-api/pkg/database"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// Schema mirrors the column layout of the published dataset.
const Schema = `
CREATE TABLE station (
  id        INTEGER PRIMARY KEY,
  station   TEXT,
  name      TEXT,
  latitude  FLOAT,
  longitude FLOAT,
  elevation FLOAT
);
CREATE TABLE measurement (
  id      INTEGER PRIMARY KEY,
  station TEXT,
  date    TEXT,
  prcp    FLOAT,
  tobs    FLOAT
);
`

// Seed inserts the fixture rows; it is plain SQL accepted by SQLite and PostgreSQL.
const Seed = `
INSERT INTO station (id, station, name, latitude, longitude, elevation) VALUES
  (1, 'USC00519397', 'WAIKIKI 717.2, HI US', 21.2716, -157.8168, 3.0),
  (2, 'USC00513117', 'KANEOHE 838.1, HI US', 21.4234, -157.8015, 14.6),
  (3, 'USC00519281', 'WAIHEE 837.5, HI US', 21.45167, -157.84889, 32.9);
INSERT INTO measurement (id, station, date, prcp, tobs) VALUES
  (1, 'USC00519397', '2010-01-01', 0.08, 65.0),
  (2, 'USC00519397', '2012-06-15', 0.0,  75.0),
  (3, 'USC00519397', '2017-08-23', NULL, 81.0),
  (4, 'USC00513117', '2010-01-01', 0.28, 67.0),
  (5, 'USC00513117', '2014-03-02', 1.2,  70.0),
  (6, 'USC00519281', '2011-11-11', 0.05, 72.0),
  (7, 'USC00519281', '2016-02-29', NULL, 68.0),
  (8, 'USC00519281', '2017-08-23', 0.0,  79.0);
`

// Dataset facts for assertions.
const (
	MinDate          = "2010-01-01"
	MaxDate          = "2017-08-23"
	MeasurementCount = 8
	StationCount     = 3
	KnownStation     = "USC00519397"
)

// NewDatasetFile writes a seeded SQLite file and returns its path.
func NewDatasetFile(t testing.TB) string {
	t.Helper()
	return newFile(t, Schema+Seed)
}

// NewEmptyDatasetFile writes the schema with no rows.
func NewEmptyDatasetFile(t testing.TB) string {
	t.Helper()
	return newFile(t, Schema)
}

// NewFileWithSQL writes a SQLite file initialised with the given statements.
func NewFileWithSQL(t testing.TB, statements string) string {
	t.Helper()
	return newFile(t, statements)
}

func newFile(t testing.TB, statements string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "hawaii.sqlite")

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Fatalf("close fixture db: %v", closeErr)
		}
	}()

	if _, err := db.Exec(statements); err != nil {
		t.Fatalf("seed fixture db: %v", err)
	}

	return path
}

// Logger returns a logger that discards output.
func Logger() *logging.StructuredLogger {
	return logging.NewStructuredLoggerTo(io.Discard, "climate-api-test", "test", logging.ErrorLevel, logging.JSONFormat)
}

// Metrics returns a collector on a private registry.
func Metrics() *metrics.Collector {
	return metrics.NewCollector("climate_api_test", prometheus.NewRegistry())
}

// OpenDataset opens path read-only through pkg/database and closes it on cleanup.
func OpenDataset(t testing.TB, path string) *database.DB {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:       database.DriverSQLite,
		Path:         path,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}, Logger(), Metrics())
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}
