//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"climate-api/internal/testutil"
	"climate-api/pkg/database"
)

const (
	pgUser     = "climate"
	pgPassword = "climate"
	pgDatabase = "hawaii"
)

// startPostgres runs a throwaway PostgreSQL seeded with the fixture dataset
// and returns a pkg/database config pointing at it.
func startPostgres(t *testing.T) *database.Config {
	t.Helper()

	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     pgUser,
			"POSTGRES_PASSWORD": pgPassword,
			"POSTGRES_DB":       pgDatabase,
		},
		// The entrypoint restarts the server once after init, hence two occurrences.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(60 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	cfg := &database.Config{
		Driver:       database.DriverPostgres,
		Host:         host,
		Port:         port.Int(),
		User:         pgUser,
		Password:     pgPassword,
		Database:     pgDatabase,
		SSLMode:      "disable",
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}

	dsn, err := cfg.DSN()
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	seedDB, err := sqlx.Open(database.DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("open seed connection: %v", err)
	}
	defer seedDB.Close()

	if _, err := seedDB.ExecContext(ctx, testutil.Schema+testutil.Seed); err != nil {
		t.Fatalf("seed postgres: %v", err)
	}

	return cfg
}

func TestClimateRepository_Postgres(t *testing.T) {
	cfg := startPostgres(t)

	db, err := database.New(cfg, testutil.Logger(), testutil.Metrics())
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	repo := NewClimateRepository(db, testutil.Logger(), testutil.Metrics())
	ctx := context.Background()

	if err := repo.VerifySchema(ctx); err != nil {
		t.Fatalf("VerifySchema: %v", err)
	}

	measurements, err := repo.ListMeasurements(ctx)
	if err != nil {
		t.Fatalf("ListMeasurements: %v", err)
	}
	if len(measurements) != testutil.MeasurementCount {
		t.Errorf("measurements = %d, want %d", len(measurements), testutil.MeasurementCount)
	}

	dr, err := repo.DateRange(ctx)
	if err != nil {
		t.Fatalf("DateRange: %v", err)
	}
	if dr.Min != testutil.MinDate || dr.Max != testutil.MaxDate {
		t.Errorf("date range = %s..%s", dr.Min, dr.Max)
	}

	from, to := "2011-01-01", "2014-12-31"
	joined, err := repo.ListMeasurementsWithStations(ctx, DateFilter{From: &from, To: &to})
	if err != nil {
		t.Fatalf("ListMeasurementsWithStations: %v", err)
	}
	if len(joined) != 3 {
		t.Errorf("joined in range = %d, want 3", len(joined))
	}

	station := "USC00519281"
	stats, err := repo.TemperatureStats(ctx, TemperatureFilter{StationID: &station, From: "2016-01-01", To: testutil.MaxDate})
	if err != nil {
		t.Fatalf("TemperatureStats: %v", err)
	}
	if stats.Avg == nil || *stats.Avg != 73.5 {
		t.Errorf("avg = %v, want 73.5", stats.Avg)
	}

	ok, err := repo.StationExists(ctx, testutil.KnownStation)
	if err != nil || !ok {
		t.Errorf("StationExists(%s) = %v, %v", testutil.KnownStation, ok, err)
	}
	ok, err = repo.StationExists(ctx, "NOPE")
	if err != nil || ok {
		t.Errorf("StationExists(NOPE) = %v, %v", ok, err)
	}
}
