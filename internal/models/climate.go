package models

// Measurement is one daily observation row of the measurement table.
// Field order is the JSON order of the raw measurement endpoint.
type Measurement struct {
	ID                  int64    `json:"id" db:"id"`
	Station             string   `json:"station" db:"station"`
	Date                string   `json:"date" db:"date"`
	Precipitation       *float64 `json:"prcp" db:"prcp"`
	ObservedTemperature float64  `json:"tobs" db:"tobs"`
}

// Station is one row of the station table
type Station struct {
	ID        int64   `json:"id" db:"id"`
	Station   string  `json:"station" db:"station"`
	Name      string  `json:"name" db:"name"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	Elevation float64 `json:"elevation" db:"elevation"`
}

// MeasurementWithStation is a measurement joined to its owning station
type MeasurementWithStation struct {
	Date                string   `json:"date" db:"date"`
	ID                  int64    `json:"id" db:"id"`
	Station             string   `json:"station" db:"station"`
	Name                string   `json:"name" db:"name"`
	Latitude            float64  `json:"latitude" db:"latitude"`
	Longitude           float64  `json:"longitude" db:"longitude"`
	Precipitation       *float64 `json:"prcp" db:"prcp"`
	ObservedTemperature float64  `json:"tobs" db:"tobs"`
}

// TemperatureStats holds MIN/AVG/MAX of observed temperature.
// All three are nil when no measurement matched the filter.
type TemperatureStats struct {
	Min *float64 `db:"tmin"`
	Avg *float64 `db:"tavg"`
	Max *float64 `db:"tmax"`
}

// DateRange is the inclusive [Min, Max] interval of measurement dates
type DateRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// Contains reports whether date lies within the range.
// Dates are fixed-width YYYY-MM-DD so string order is chronological order.
func (r DateRange) Contains(date string) bool {
	return r.Min <= date && date <= r.Max
}

// TemperatureStatsResponse is the body of the date-range statistics endpoint
type TemperatureStatsResponse struct {
	StartDate string   `json:"Start Date"`
	EndDate   string   `json:"End Date"`
	Min       *float64 `json:"Minimum recorded Temperature"`
	Avg       *float64 `json:"Average recorded Temperature"`
	Max       *float64 `json:"Maximum recorded Temperature"`
}

// StationTemperatureStatsResponse is the body of the per-station statistics endpoint
type StationTemperatureStatsResponse struct {
	Station   string   `json:"Station"`
	StartDate string   `json:"Start Date"`
	EndDate   string   `json:"End Date"`
	Min       *float64 `json:"Minimum recorded Temperature"`
	Avg       *float64 `json:"Average recorded Temperature"`
	Max       *float64 `json:"Maximum recorded Temperature"`
}
