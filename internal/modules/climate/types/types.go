// Package types declares the climate entities read from the dataset and the
// records returned by the query routes.
package types

// Station is a row of the station table. Latitude, longitude and elevation
// are nullable in exports of the dataset.
type Station struct {
	Code      string   `json:"station"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Elevation *float64 `json:"elevation"`
}

// Measurement is one observation of a station on a calendar date.
type Measurement struct {
	Station string   `json:"station"`
	Date    string   `json:"date"`
	Prcp    *float64 `json:"prcp"`
	Tobs    float64  `json:"tobs"`
}

// DailyPrecipitation is the precipitation recorded on one date, summed over
// every reporting station.
type DailyPrecipitation struct {
	Date  string
	Total float64
}

// StationActivity is the number of measurements recorded for a station.
type StationActivity struct {
	Station string
	Count   int
}

// TemperatureObservation is one temperature reading of a station.
type TemperatureObservation struct {
	Date string  `json:"date"`
	Tobs float64 `json:"tobs"`
}

// TemperatureStats summarises tobs over a date range. All fields are nil when
// no measurement matched.
type TemperatureStats struct {
	Min *float64 `json:"min"`
	Avg *float64 `json:"avg"`
	Max *float64 `json:"max"`
}

// Column names shared by the schema declaration and the queries.
const (
	StationTable     = "station"
	MeasurementTable = "measurement"
)

var (
	StationColumns     = []string{"station", "name", "latitude", "longitude", "elevation"}
	MeasurementColumns = []string{"station", "date", "prcp", "tobs"}
)
