package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"climate-api/internal/testutil"
	"climate-api/pkg/database"
)

func newTestRepository(t *testing.T, path string) (ClimateRepository, *database.DB) {
	t.Helper()
	db := testutil.OpenDataset(t, path)
	return NewClimateRepository(db, testutil.Logger(), testutil.Metrics()), db
}

func strPtr(s string) *string { return &s }

func TestListMeasurements(t *testing.T) {
	repo, _ := newTestRepository(t, testutil.NewDatasetFile(t))

	measurements, err := repo.ListMeasurements(context.Background())
	if err != nil {
		t.Fatalf("ListMeasurements: %v", err)
	}
	if len(measurements) != testutil.MeasurementCount {
		t.Fatalf("got %d measurements, want %d", len(measurements), testutil.MeasurementCount)
	}

	var nullPrcp int
	for _, m := range measurements {
		if m.Station == "" || len(m.Date) != 10 {
			t.Errorf("unexpected measurement %+v", m)
		}
		if m.Precipitation == nil {
			nullPrcp++
		}
	}
	if nullPrcp != 2 {
		t.Errorf("got %d measurements with null prcp, want 2", nullPrcp)
	}
}

func TestListMeasurements_EmptyIsNotNil(t *testing.T) {
	repo, _ := newTestRepository(t, testutil.NewEmptyDatasetFile(t))

	measurements, err := repo.ListMeasurements(context.Background())
	if err != nil {
		t.Fatalf("ListMeasurements: %v", err)
	}
	if measurements == nil || len(measurements) != 0 {
		t.Fatalf("got %#v, want empty non-nil slice", measurements)
	}
}

func TestListStations(t *testing.T) {
	repo, _ := newTestRepository(t, testutil.NewDatasetFile(t))

	stations, err := repo.ListStations(context.Background())
	if err != nil {
		t.Fatalf("ListStations: %v", err)
	}
	if len(stations) != testutil.StationCount {
		t.Fatalf("got %d stations, want %d", len(stations), testutil.StationCount)
	}

	var waikiki bool
	for _, s := range stations {
		if s.Station == testutil.KnownStation {
			waikiki = true
			if s.Name != "WAIKIKI 717.2, HI US" || s.Elevation != 3.0 {
				t.Errorf("unexpected station row %+v", s)
			}
		}
	}
	if !waikiki {
		t.Errorf("station %s not listed", testutil.KnownStation)
	}
}

func TestListMeasurementsWithStations(t *testing.T) {
	repo, _ := newTestRepository(t, testutil.NewDatasetFile(t))
	ctx := context.Background()

	all, err := repo.ListMeasurementsWithStations(ctx, DateFilter{})
	if err != nil {
		t.Fatalf("ListMeasurementsWithStations: %v", err)
	}
	if len(all) != testutil.MeasurementCount {
		t.Fatalf("got %d joined rows, want %d", len(all), testutil.MeasurementCount)
	}
	for _, row := range all {
		if row.Name == "" {
			t.Errorf("joined row missing station name: %+v", row)
		}
	}

	tests := []struct {
		name   string
		filter DateFilter
		want   int
	}{
		{"full dataset range", DateFilter{From: strPtr(testutil.MinDate), To: strPtr(testutil.MaxDate)}, testutil.MeasurementCount},
		{"single day inclusive", DateFilter{From: strPtr("2010-01-01"), To: strPtr("2010-01-01")}, 2},
		{"from only", DateFilter{From: strPtr("2016-01-01")}, 3},
		{"to only", DateFilter{To: strPtr("2011-12-31")}, 3},
		{"inverted range", DateFilter{From: strPtr("2017-01-01"), To: strPtr("2010-01-01")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := repo.ListMeasurementsWithStations(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListMeasurementsWithStations: %v", err)
			}
			if len(rows) != tt.want {
				t.Errorf("got %d rows, want %d", len(rows), tt.want)
			}
		})
	}
}

func TestListMeasurementsWithStations_OrphanExcluded(t *testing.T) {
	path := testutil.NewFileWithSQL(t, testutil.Schema+`
INSERT INTO station (id, station, name, latitude, longitude, elevation) VALUES
  (1, 'USC00519397', 'WAIKIKI 717.2, HI US', 21.2716, -157.8168, 3.0);
INSERT INTO measurement (id, station, date, prcp, tobs) VALUES
  (1, 'USC00519397', '2010-01-01', 0.08, 65.0),
  (2, 'USC99999999', '2010-01-02', 0.10, 66.0);
`)
	repo, _ := newTestRepository(t, path)

	rows, err := repo.ListMeasurementsWithStations(context.Background(), DateFilter{})
	if err != nil {
		t.Fatalf("ListMeasurementsWithStations: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 (inner join)", len(rows))
	}
}

func TestTemperatureStats(t *testing.T) {
	repo, _ := newTestRepository(t, testutil.NewDatasetFile(t))
	ctx := context.Background()

	tests := []struct {
		name    string
		filter  TemperatureFilter
		wantMin float64
		wantAvg float64
		wantMax float64
	}{
		{
			name:    "whole dataset",
			filter:  TemperatureFilter{From: testutil.MinDate, To: testutil.MaxDate},
			wantMin: 65, wantAvg: 72.125, wantMax: 81,
		},
		{
			name:    "single station",
			filter:  TemperatureFilter{StationID: strPtr(testutil.KnownStation), From: testutil.MinDate, To: testutil.MaxDate},
			wantMin: 65, wantAvg: 73.66666666666667, wantMax: 81,
		},
		{
			name:    "station and narrow range",
			filter:  TemperatureFilter{StationID: strPtr("USC00519281"), From: "2016-01-01", To: "2017-08-23"},
			wantMin: 68, wantAvg: 73.5, wantMax: 79,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := repo.TemperatureStats(ctx, tt.filter)
			if err != nil {
				t.Fatalf("TemperatureStats: %v", err)
			}
			if stats.Min == nil || stats.Avg == nil || stats.Max == nil {
				t.Fatalf("unexpected nil stats %+v", stats)
			}
			if *stats.Min != tt.wantMin {
				t.Errorf("Min = %v, want %v", *stats.Min, tt.wantMin)
			}
			if diff := *stats.Avg - tt.wantAvg; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Avg = %v, want %v", *stats.Avg, tt.wantAvg)
			}
			if *stats.Max != tt.wantMax {
				t.Errorf("Max = %v, want %v", *stats.Max, tt.wantMax)
			}
			if !(*stats.Min <= *stats.Avg && *stats.Avg <= *stats.Max) {
				t.Errorf("expected min <= avg <= max, got %v %v %v", *stats.Min, *stats.Avg, *stats.Max)
			}
		})
	}
}

func TestTemperatureStats_EmptySelection(t *testing.T) {
	repo, _ := newTestRepository(t, testutil.NewDatasetFile(t))

	stats, err := repo.TemperatureStats(context.Background(), TemperatureFilter{From: "2013-01-01", To: "2013-01-31"})
	if err != nil {
		t.Fatalf("TemperatureStats: %v", err)
	}
	if stats.Min != nil || stats.Avg != nil || stats.Max != nil {
		t.Errorf("expected all-nil stats for empty selection, got %+v", stats)
	}
}

func TestDateRange(t *testing.T) {
	repo, _ := newTestRepository(t, testutil.NewDatasetFile(t))

	r, err := repo.DateRange(context.Background())
	if err != nil {
		t.Fatalf("DateRange: %v", err)
	}
	if r.Min != testutil.MinDate || r.Max != testutil.MaxDate {
		t.Errorf("DateRange = %+v, want [%s, %s]", r, testutil.MinDate, testutil.MaxDate)
	}
}

func TestDateRange_EmptyDataset(t *testing.T) {
	repo, _ := newTestRepository(t, testutil.NewEmptyDatasetFile(t))

	_, err := repo.DateRange(context.Background())
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("DateRange error = %v, want ErrEmptyDataset", err)
	}
}

func TestStationExists(t *testing.T) {
	repo, _ := newTestRepository(t, testutil.NewDatasetFile(t))
	ctx := context.Background()

	stations, err := repo.ListStations(ctx)
	if err != nil {
		t.Fatalf("ListStations: %v", err)
	}
	for _, s := range stations {
		ok, err := repo.StationExists(ctx, s.Station)
		if err != nil {
			t.Fatalf("StationExists(%q): %v", s.Station, err)
		}
		if !ok {
			t.Errorf("StationExists(%q) = false, want true", s.Station)
		}
	}

	for _, id := range []string{"UNKNOWN_ID", "", "usc00519397", "USC00519397 "} {
		ok, err := repo.StationExists(ctx, id)
		if err != nil {
			t.Fatalf("StationExists(%q): %v", id, err)
		}
		if ok {
			t.Errorf("StationExists(%q) = true, want false", id)
		}
	}
}

func TestVerifySchema(t *testing.T) {
	repo, _ := newTestRepository(t, testutil.NewDatasetFile(t))
	if err := repo.VerifySchema(context.Background()); err != nil {
		t.Fatalf("VerifySchema: %v", err)
	}

	path := testutil.NewFileWithSQL(t, `
CREATE TABLE station (id INTEGER, station TEXT, name TEXT, latitude FLOAT, longitude FLOAT, elevation FLOAT);
CREATE TABLE measurement (id INTEGER, station TEXT, date TEXT, tobs FLOAT);
`)
	broken, _ := newTestRepository(t, path)

	err := broken.VerifySchema(context.Background())
	var mismatch *database.SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("VerifySchema error = %v, want SchemaMismatchError", err)
	}
	if mismatch.Table != "measurement" || !strings.Contains(err.Error(), "prcp") {
		t.Errorf("unexpected mismatch %v", err)
	}
}

func TestQueriesFailAfterClose(t *testing.T) {
	repo, db := newTestRepository(t, testutil.NewDatasetFile(t))
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	ctx := context.Background()

	if _, err := repo.ListMeasurements(ctx); err == nil {
		t.Error("ListMeasurements after close should fail")
	}
	if _, err := repo.ListStations(ctx); err == nil {
		t.Error("ListStations after close should fail")
	}
	if _, err := repo.ListMeasurementsWithStations(ctx, DateFilter{}); err == nil {
		t.Error("ListMeasurementsWithStations after close should fail")
	}
	if _, err := repo.TemperatureStats(ctx, TemperatureFilter{From: testutil.MinDate, To: testutil.MaxDate}); err == nil {
		t.Error("TemperatureStats after close should fail")
	}
	if _, err := repo.DateRange(ctx); err == nil || errors.Is(err, ErrEmptyDataset) {
		t.Errorf("DateRange after close = %v, want retrieval error", err)
	}
	if _, err := repo.StationExists(ctx, testutil.KnownStation); err == nil {
		t.Error("StationExists after close should fail")
	}
	if err := repo.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck after close should fail")
	}
}
