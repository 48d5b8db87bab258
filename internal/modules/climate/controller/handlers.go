package controller

import (
	"io"
	"log/slog"
	"net/http"

	"surfsup/internal/modules/climate/types"
	"surfsup/internal/modules/climate/views"
	"surfsup/internal/utils"
)

type stationCount struct {
	Station string `json:"station"`
	Count   int    `json:"count"`
}

type legacyStationCount struct {
	Station string `json:"station"`
	Count   int    `json:"count"`
	Date    int    `json:"date"`
}

func (c *climateControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	utils.WriteHTML(w, http.StatusOK, func(out io.Writer) error {
		return views.RenderIndex(out, views.IndexData{Title: "Hawaii Climate API", Routes: views.APIRoutes})
	})
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	precipitation, err := c.service.Precipitation(r.Context())
	if err != nil {
		writeServiceError(w, "precipitation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, precipitation)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	activity, err := c.service.StationActivity(r.Context())
	if err != nil {
		writeServiceError(w, "stations", err)
		return
	}

	if c.opts.LegacyStationCountField {
		out := make([]legacyStationCount, 0, len(activity))
		for _, a := range activity {
			out = append(out, legacyStationCount{Station: a.Station, Count: a.Count, Date: a.Count})
		}
		utils.WriteJSON(w, http.StatusOK, out)
		return
	}

	out := make([]stationCount, 0, len(activity))
	for _, a := range activity {
		out = append(out, stationCount{Station: a.Station, Count: a.Count})
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (c *climateControllerImpl) handleStation(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("station")
	station, err := c.service.Station(r.Context(), code)
	if err != nil {
		writeServiceError(w, "station", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, station)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	history, err := c.service.TemperatureHistory(r.Context())
	if err != nil {
		writeServiceError(w, "tobs", err)
		return
	}
	if history == nil {
		history = []types.TemperatureObservation{}
	}
	utils.WriteJSON(w, http.StatusOK, history)
}

func (c *climateControllerImpl) handleStatsFrom(w http.ResponseWriter, r *http.Request) {
	start := r.PathValue("start")
	stats, err := c.service.TemperatureStats(r.Context(), start)
	if err != nil {
		slog.Debug("temperature stats rejected", "start", start, "error", err)
		writeServiceError(w, "stats", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, []types.TemperatureStats{stats})
}

func (c *climateControllerImpl) handleStatsRange(w http.ResponseWriter, r *http.Request) {
	start, end := r.PathValue("start"), r.PathValue("end")
	stats, err := c.service.TemperatureStatsRange(r.Context(), start, end)
	if err != nil {
		slog.Debug("temperature stats rejected", "start", start, "end", end, "error", err)
		writeServiceError(w, "stats range", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, []types.TemperatureStats{stats})
}
