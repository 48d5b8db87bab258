package climate

import (
	"database/sql"
	"net/http"

	"surfsup/internal/config"
	"surfsup/internal/modules/climate/controller"
	"surfsup/internal/modules/climate/repository"
	"surfsup/internal/modules/climate/service"
)

// RegisterFeature wires the climate routes onto mux and returns the
// repository so callers can use it as a readiness check.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, cfg config.Config, observer repository.QueryObserver) (repository.ClimateRepository, error) {
	climateRepository := repository.NewRepository(db, observer)
	climateService, err := service.New(climateRepository, service.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	climateController := controller.NewClimateController(climateService, controller.Options{
		LegacyStationCountField: cfg.LegacyStationCountField,
	})
	climateController.RegisterRoutes(mux)
	return climateRepository, nil
}
