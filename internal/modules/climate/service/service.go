// Package service turns route inputs into repository queries: it resolves
// the reference date and window, validates dates and rounds aggregates.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"surfsup/internal/config"
	"surfsup/internal/modules/climate/repository"
	"surfsup/internal/modules/climate/types"
)

var (
	// ErrInvalidDate is returned for a date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidRange is returned when the end date precedes the start date.
	ErrInvalidRange = errors.New("invalid date range")
)

type Options struct {
	// ReferenceDate is config.ReferenceLatest, config.ReferenceToday or a
	// YYYY-MM-DD date.
	ReferenceDate string
	WindowDays    int
	// ActiveStation is a station code or config.ActiveStationAuto.
	ActiveStation string
	QueryTimeout  time.Duration
	Clock         clockwork.Clock
}

// OptionsFromConfig copies the climate settings out of cfg.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		ReferenceDate: cfg.ReferenceDate,
		WindowDays:    cfg.WindowDays,
		ActiveStation: cfg.ActiveStation,
		QueryTimeout:  cfg.QueryTimeout,
	}
}

type ClimateService struct {
	repo repository.ClimateRepository
	opts Options
	// fixed is the parsed ReferenceDate when it is a literal date.
	fixed time.Time
}

func New(repo repository.ClimateRepository, opts Options) (*ClimateService, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 365
	}
	if opts.ReferenceDate == "" {
		opts.ReferenceDate = config.ReferenceLatest
	}
	if opts.ActiveStation == "" {
		opts.ActiveStation = config.ActiveStationAuto
	}

	s := &ClimateService{repo: repo, opts: opts}
	switch opts.ReferenceDate {
	case config.ReferenceLatest, config.ReferenceToday:
	default:
		d, err := ParseDate(opts.ReferenceDate)
		if err != nil {
			return nil, fmt.Errorf("reference date: %w", err)
		}
		s.fixed = d
	}
	return s, nil
}

// ParseDate parses a YYYY-MM-DD date. Errors wrap ErrInvalidDate.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return d, nil
}

func (s *ClimateService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.QueryTimeout)
}

// ReferenceDate returns the date the "most recent year" window ends on. ok is
// false when it is derived from the data and there is none.
func (s *ClimateService) ReferenceDate(ctx context.Context) (ref time.Time, ok bool, err error) {
	switch s.opts.ReferenceDate {
	case config.ReferenceToday:
		now := s.opts.Clock.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true, nil
	case config.ReferenceLatest:
		return s.repo.LatestDate(ctx)
	default:
		return s.fixed, true, nil
	}
}

// windowStart returns the first date of the window ending on the reference date.
func (s *ClimateService) windowStart(ctx context.Context) (time.Time, bool, error) {
	ref, ok, err := s.ReferenceDate(ctx)
	if err != nil || !ok {
		return time.Time{}, ok, err
	}
	return ref.AddDate(0, 0, -s.opts.WindowDays), true, nil
}

// Precipitation maps each date of the window to the precipitation summed over
// all stations, rounded to two decimals.
func (s *ClimateService) Precipitation(ctx context.Context) (map[string]float64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out := map[string]float64{}
	from, ok, err := s.windowStart(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}

	rows, err := s.repo.GetPrecipitation(ctx, from)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.Date] = Round2(r.Total)
	}
	return out, nil
}

// StationActivity lists stations by number of measurements, most active first.
func (s *ClimateService) StationActivity(ctx context.Context) ([]types.StationActivity, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.GetStationActivity(ctx)
}

// Station returns the metadata of one station.
func (s *ClimateService) Station(ctx context.Context, code string) (types.Station, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.GetStation(ctx, code)
}

// ActiveStation resolves the station used for the temperature history. In
// auto mode it is the most active station, or "" for an empty dataset.
func (s *ClimateService) ActiveStation(ctx context.Context) (string, error) {
	if s.opts.ActiveStation != config.ActiveStationAuto {
		return s.opts.ActiveStation, nil
	}
	activity, err := s.repo.GetStationActivity(ctx)
	if err != nil {
		return "", err
	}
	if len(activity) == 0 {
		return "", nil
	}
	return activity[0].Station, nil
}

// TemperatureHistory returns one observation per date of the window for the
// active station, in date order.
func (s *ClimateService) TemperatureHistory(ctx context.Context) ([]types.TemperatureObservation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	station, err := s.ActiveStation(ctx)
	if err != nil {
		return nil, err
	}
	from, ok, err := s.windowStart(ctx)
	if err != nil {
		return nil, err
	}
	if station == "" || !ok {
		return []types.TemperatureObservation{}, nil
	}
	return s.repo.GetTemperatureObservations(ctx, station, from)
}

// TemperatureStats aggregates all stations for dates >= start.
func (s *ClimateService) TemperatureStats(ctx context.Context, start string) (types.TemperatureStats, error) {
	from, err := ParseDate(start)
	if err != nil {
		return types.TemperatureStats{}, err
	}
	return s.temperatureStats(ctx, from, time.Time{})
}

// TemperatureStatsRange aggregates all stations for start <= date <= end.
func (s *ClimateService) TemperatureStatsRange(ctx context.Context, start, end string) (types.TemperatureStats, error) {
	from, err := ParseDate(start)
	if err != nil {
		return types.TemperatureStats{}, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return types.TemperatureStats{}, err
	}
	if to.Before(from) {
		return types.TemperatureStats{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange, end, start)
	}
	return s.temperatureStats(ctx, from, to)
}

func (s *ClimateService) temperatureStats(ctx context.Context, from, to time.Time) (types.TemperatureStats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	stats, err := s.repo.GetTemperatureStats(ctx, from, to)
	if err != nil {
		return types.TemperatureStats{}, err
	}
	if stats.Avg != nil {
		avg := Round2(*stats.Avg)
		// Rounding must not move avg outside [min, max].
		if stats.Min != nil && avg < *stats.Min {
			avg = *stats.Min
		}
		if stats.Max != nil && avg > *stats.Max {
			avg = *stats.Max
		}
		stats.Avg = &avg
	}
	return stats, nil
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
