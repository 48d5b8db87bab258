package controller

import (
	"context"
	"net/http"

	"surfsup/internal/modules/climate/types"
)

// ClimateService is the query layer the handlers call.
type ClimateService interface {
	Precipitation(ctx context.Context) (map[string]float64, error)
	StationActivity(ctx context.Context) ([]types.StationActivity, error)
	Station(ctx context.Context, code string) (types.Station, error)
	TemperatureHistory(ctx context.Context) ([]types.TemperatureObservation, error)
	TemperatureStats(ctx context.Context, start string) (types.TemperatureStats, error)
	TemperatureStatsRange(ctx context.Context, start, end string) (types.TemperatureStats, error)
}

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type Options struct {
	// LegacyStationCountField also writes the station count under "date",
	// the field name used by the first version of the API.
	LegacyStationCountField bool
}

type climateControllerImpl struct {
	service ClimateService
	opts    Options
}

func NewClimateController(service ClimateService, opts Options) ClimateController {
	return &climateControllerImpl{service: service, opts: opts}
}

func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleIndex)
	mux.HandleFunc("GET /api/v1.0/precipitation", c.handlePrecipitation)
	mux.HandleFunc("GET /api/v1.0/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1.0/stations/{station}", c.handleStation)
	mux.HandleFunc("GET /api/v1.0/tobs", c.handleTobs)
	mux.HandleFunc("GET /api/v1.0/{start}", c.handleStatsFrom)
	mux.HandleFunc("GET /api/v1.0/{start}/{end}", c.handleStatsRange)
}
