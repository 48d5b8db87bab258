package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"surfsup/internal/db"
	"surfsup/internal/modules/climate/types"
)

//go:embed sql/get-latest-date.sql
var getLatestDateSQL string

//go:embed sql/get-precipitation.sql
var getPrecipitationSQL string

//go:embed sql/get-station-activity.sql
var getStationActivitySQL string

//go:embed sql/get-temperature-observations.sql
var getTemperatureObservationsSQL string

//go:embed sql/get-temperature-stats.sql
var getTemperatureStatsSQL string

//go:embed sql/get-station.sql
var getStationSQL string

// Schema is the part of the dataset the queries depend on.
var Schema = []db.Table{
	{Name: types.StationTable, Columns: types.StationColumns},
	{Name: types.MeasurementTable, Columns: types.MeasurementColumns},
}

// ErrStationNotFound is returned by GetStation for an unknown station code.
var ErrStationNotFound = errors.New("station not found")

// Dates are passed to and read from the database as YYYY-MM-DD text.
const dateLayout = time.DateOnly

type ClimateRepository interface {
	// LatestDate returns the most recent measurement date; ok is false when
	// the measurement table is empty.
	LatestDate(ctx context.Context) (latest time.Time, ok bool, err error)
	GetPrecipitation(ctx context.Context, from time.Time) ([]types.DailyPrecipitation, error)
	GetStationActivity(ctx context.Context) ([]types.StationActivity, error)
	GetTemperatureObservations(ctx context.Context, station string, from time.Time) ([]types.TemperatureObservation, error)
	// GetTemperatureStats aggregates tobs for dates >= from, and <= to unless
	// to is the zero time.
	GetTemperatureStats(ctx context.Context, from time.Time, to time.Time) (types.TemperatureStats, error)
	GetStation(ctx context.Context, code string) (types.Station, error)
	CheckReadiness(ctx context.Context) error
}

// QueryObserver receives the duration of every repository query.
type QueryObserver interface {
	ObserveQuery(name string, elapsed time.Duration)
}

type repositoryImpl struct {
	db       *sql.DB
	observer QueryObserver
}

func NewRepository(db *sql.DB, observer QueryObserver) ClimateRepository {
	return &repositoryImpl{db: db, observer: observer}
}

func (r *repositoryImpl) observe(name string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveQuery(name, time.Since(start))
	}
}

func closeRows(rows *sql.Rows, query string) {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "query", query, "error", err)
	}
}

func (r *repositoryImpl) LatestDate(ctx context.Context) (time.Time, bool, error) {
	defer r.observe("latest_date", time.Now())

	var latest sql.NullString
	if err := r.db.QueryRowContext(ctx, getLatestDateSQL).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("latest date: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(dateLayout, latest.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse latest date %q: %w", latest.String, err)
	}
	return t, true, nil
}

func (r *repositoryImpl) GetPrecipitation(ctx context.Context, from time.Time) ([]types.DailyPrecipitation, error) {
	defer r.observe("precipitation", time.Now())

	rows, err := r.db.QueryContext(ctx, getPrecipitationSQL, from.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query precipitation: %w", err)
	}
	defer closeRows(rows, "precipitation")

	out := []types.DailyPrecipitation{}
	for rows.Next() {
		var p types.DailyPrecipitation
		if err := rows.Scan(&p.Date, &p.Total); err != nil {
			return nil, fmt.Errorf("scan precipitation: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetStationActivity(ctx context.Context) ([]types.StationActivity, error) {
	defer r.observe("station_activity", time.Now())

	rows, err := r.db.QueryContext(ctx, getStationActivitySQL)
	if err != nil {
		return nil, fmt.Errorf("query station activity: %w", err)
	}
	defer closeRows(rows, "station_activity")

	out := []types.StationActivity{}
	for rows.Next() {
		var a types.StationActivity
		if err := rows.Scan(&a.Station, &a.Count); err != nil {
			return nil, fmt.Errorf("scan station activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetTemperatureObservations(ctx context.Context, station string, from time.Time) ([]types.TemperatureObservation, error) {
	defer r.observe("temperature_observations", time.Now())

	rows, err := r.db.QueryContext(ctx, getTemperatureObservationsSQL, station, from.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query temperature observations: %w", err)
	}
	defer closeRows(rows, "temperature_observations")

	out := []types.TemperatureObservation{}
	for rows.Next() {
		var o types.TemperatureObservation
		if err := rows.Scan(&o.Date, &o.Tobs); err != nil {
			return nil, fmt.Errorf("scan temperature observation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetTemperatureStats(ctx context.Context, from time.Time, to time.Time) (types.TemperatureStats, error) {
	defer r.observe("temperature_stats", time.Now())

	var upper sql.NullString
	if !to.IsZero() {
		upper = sql.NullString{String: to.Format(dateLayout), Valid: true}
	}

	var lo, avg, hi sql.NullFloat64
	err := r.db.QueryRowContext(ctx, getTemperatureStatsSQL, from.Format(dateLayout), upper).Scan(&lo, &avg, &hi)
	if err != nil {
		return types.TemperatureStats{}, fmt.Errorf("query temperature stats: %w", err)
	}
	return types.TemperatureStats{
		Min: nullFloat(lo),
		Avg: nullFloat(avg),
		Max: nullFloat(hi),
	}, nil
}

func (r *repositoryImpl) GetStation(ctx context.Context, code string) (types.Station, error) {
	defer r.observe("station", time.Now())

	var (
		s             types.Station
		lat, lon, elv sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, getStationSQL, code).Scan(&s.Code, &s.Name, &lat, &lon, &elv)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Station{}, fmt.Errorf("%w: %q", ErrStationNotFound, code)
	}
	if err != nil {
		return types.Station{}, fmt.Errorf("query station %q: %w", code, err)
	}
	s.Latitude, s.Longitude, s.Elevation = nullFloat(lat), nullFloat(lon), nullFloat(elv)
	return s, nil
}

// CheckReadiness reports whether the dataset still has the declared schema.
func (r *repositoryImpl) CheckReadiness(ctx context.Context) error {
	return db.ValidateSchema(ctx, r.db, Schema...)
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
